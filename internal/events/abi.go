package events

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	//go:embed abi/funding.json
	fundingABIJSON []byte

	//go:embed abi/proposal_voting.json
	proposalVotingABIJSON []byte
)

var (
	abiOnce sync.Once
	abis    map[Contract]*abi.ABI
	abiErr  error
)

func loadABIs() {
	abis = make(map[Contract]*abi.ABI, len(Contracts))
	for c, raw := range map[Contract][]byte{
		ContractFunding:        fundingABIJSON,
		ContractProposalVoting: proposalVotingABIJSON,
	} {
		parsed, err := abi.JSON(bytes.NewReader(raw))
		if err != nil {
			abiErr = fmt.Errorf("parse %s ABI: %w", c, err)
			return
		}
		abis[c] = &parsed
	}
}

// ABI returns the parsed ABI of the given contract family.
func ABI(c Contract) (*abi.ABI, error) {
	abiOnce.Do(loadABIs)
	if abiErr != nil {
		return nil, abiErr
	}

	parsed, ok := abis[c]
	if !ok {
		return nil, fmt.Errorf("no ABI for contract %q", c)
	}
	return parsed, nil
}

// ABIEvent returns the ABI event definition backing k.
func ABIEvent(k Kind) (abi.Event, error) {
	if !k.Valid() {
		return abi.Event{}, fmt.Errorf("unknown event kind %q", k)
	}

	parsed, err := ABI(k.Contract())
	if err != nil {
		return abi.Event{}, err
	}

	ev, ok := parsed.Events[k.EventName()]
	if !ok {
		return abi.Event{}, fmt.Errorf("event %s missing from %s ABI", k.EventName(), k.Contract())
	}
	return ev, nil
}

// Topic returns the topic0 signature hash of k. It panics if the embedded ABI
// does not describe k, which can only happen if the ABI files are edited.
func Topic(k Kind) common.Hash {
	ev, err := ABIEvent(k)
	if err != nil {
		panic(err)
	}
	return ev.ID
}

// Signature returns the canonical signature of k, e.g. "DelegateSet(address,address)".
func Signature(k Kind) string {
	ev, err := ABIEvent(k)
	if err != nil {
		panic(err)
	}
	return ev.Sig
}
