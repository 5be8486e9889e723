package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EncodeLog ABI-encodes ev into the raw log the contract at address would emit
// at the given chain position. It is the inverse of decoding and is used to
// build fixtures and replay data.
func EncodeLog(address common.Address, ev Event, cc ChainContext) (Log, error) {
	abiEvent, err := ABIEvent(ev.Kind())
	if err != nil {
		return Log{}, err
	}

	args := ev.Args()
	if len(args) != len(abiEvent.Inputs) {
		return Log{}, fmt.Errorf("%s: expected %d arguments, got %d", ev.Kind(), len(abiEvent.Inputs), len(args))
	}

	topics := []common.Hash{abiEvent.ID}
	nonIndexed := make([]any, 0, len(args))
	for i, input := range abiEvent.Inputs {
		if !input.Indexed {
			nonIndexed = append(nonIndexed, args[i])
			continue
		}

		topic, err := abi.MakeTopics([]any{args[i]})
		if err != nil {
			return Log{}, fmt.Errorf("%s: encode topic %s: %w", ev.Kind(), input.Name, err)
		}
		topics = append(topics, topic[0][0])
	}

	data, err := abiEvent.Inputs.NonIndexed().Pack(nonIndexed...)
	if err != nil {
		return Log{}, fmt.Errorf("%s: pack data: %w", ev.Kind(), err)
	}

	return Log{
		Log: types.Log{
			Address:     address,
			Topics:      topics,
			Data:        data,
			BlockNumber: cc.BlockNumber,
			TxHash:      cc.TxHash,
			Index:       cc.LogIndex,
		},
		BlockTimestamp: cc.BlockTimestamp,
	}, nil
}

// MustEncodeLog is like EncodeLog but panics on error.
func MustEncodeLog(address common.Address, ev Event, cc ChainContext) Log {
	l, err := EncodeLog(address, ev, cc)
	if err != nil {
		panic(err)
	}
	return l
}
