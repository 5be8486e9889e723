package decoder

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
)

type registered struct {
	kind       events.Kind
	event      abi.Event
	indexed    abi.Arguments
	nonIndexed abi.Arguments
}

// Decoder turns raw logs into typed events for a fixed set of event kinds.
// It holds no mutable state and is safe for concurrent use.
type Decoder struct {
	byTopic map[common.Hash]registered
	kinds   []events.Kind
}

// New creates a decoder for every event kind emitted by contract c.
func New(c events.Contract) (*Decoder, error) {
	kinds := events.KindsOf(c)
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no event kinds for contract %q", c)
	}
	return NewForKinds(kinds...)
}

// NewForKinds creates a decoder for the given event kinds.
func NewForKinds(kinds ...events.Kind) (*Decoder, error) {
	d := &Decoder{
		byTopic: make(map[common.Hash]registered, len(kinds)),
		kinds:   make([]events.Kind, 0, len(kinds)),
	}

	for _, k := range kinds {
		ev, err := events.ABIEvent(k)
		if err != nil {
			return nil, err
		}
		if prev, dup := d.byTopic[ev.ID]; dup {
			return nil, fmt.Errorf("kinds %s and %s share topic %s", prev.kind, k, ev.ID.Hex())
		}

		r := registered{kind: k, event: ev}
		for _, input := range ev.Inputs {
			if input.Indexed {
				r.indexed = append(r.indexed, input)
			} else {
				r.nonIndexed = append(r.nonIndexed, input)
			}
		}

		d.byTopic[ev.ID] = r
		d.kinds = append(d.kinds, k)
	}

	return d, nil
}

// Kinds returns the event kinds this decoder recognizes.
func (d *Decoder) Kinds() []events.Kind {
	out := make([]events.Kind, len(d.kinds))
	copy(out, d.kinds)
	return out
}

// Topics returns the topic0 hashes this decoder recognizes, in Kinds order.
func (d *Decoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.kinds))
	for _, k := range d.kinds {
		out = append(out, events.Topic(k))
	}
	return out
}

// KindOf resolves a topic0 hash to its event kind.
func (d *Decoder) KindOf(topic common.Hash) (events.Kind, bool) {
	r, ok := d.byTopic[topic]
	return r.kind, ok
}

// Decode converts a raw log into a typed event. It is pure: the same log
// always yields the same result. Failures are returned as *DecodeError.
func (d *Decoder) Decode(log events.Log) (events.Decoded, error) {
	fail := func(kind events.Kind, err error) (events.Decoded, error) {
		return events.Decoded{}, &DecodeError{Kind: kind, TxHash: log.TxHash, LogIndex: log.Index, Err: err}
	}

	if len(log.Topics) == 0 {
		return fail("", fmt.Errorf("%w: log has no topics", ErrUnknownEvent))
	}

	r, ok := d.byTopic[log.Topics[0]]
	if !ok {
		return fail("", fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex()))
	}

	if expected := len(r.indexed) + 1; len(log.Topics) != expected {
		return fail(r.kind, fmt.Errorf("%w: expected %d topics, got %d", ErrMalformedLog, expected, len(log.Topics)))
	}

	values := make(map[string]any, len(r.event.Inputs))
	if len(r.indexed) > 0 {
		if err := checkTopics(r.indexed, log.Topics[1:]); err != nil {
			return fail(r.kind, fmt.Errorf("%w: %w", ErrMalformedLog, err))
		}
		if err := abi.ParseTopicsIntoMap(values, r.indexed, log.Topics[1:]); err != nil {
			return fail(r.kind, fmt.Errorf("%w: parse topics: %w", ErrMalformedLog, err))
		}
	}
	if len(r.nonIndexed) == 0 {
		if len(log.Data) != 0 {
			return fail(r.kind, fmt.Errorf("%w: unexpected %d data bytes", ErrMalformedLog, len(log.Data)))
		}
	} else {
		if err := r.nonIndexed.UnpackIntoMap(values, log.Data); err != nil {
			return fail(r.kind, fmt.Errorf("%w: unpack data: %w", ErrMalformedLog, err))
		}
		if err := checkData(r.nonIndexed, values, log.Data); err != nil {
			return fail(r.kind, fmt.Errorf("%w: %w", ErrMalformedLog, err))
		}
	}

	ev, err := build(r.kind, &argReader{values: values})
	if err != nil {
		return fail(r.kind, fmt.Errorf("%w: %w", ErrMalformedLog, err))
	}

	return events.Decoded{Event: ev, Context: log.Context()}, nil
}

// checkTopics rejects address topics with non-zero padding, which would
// otherwise decode to the same address as the clean topic.
func checkTopics(indexed abi.Arguments, topics []common.Hash) error {
	for i, arg := range indexed {
		if arg.Type.T != abi.AddressTy {
			continue
		}
		if common.BytesToHash(topics[i][common.HashLength-common.AddressLength:]) != topics[i] {
			return fmt.Errorf("topic %d: dirty address padding", i+1)
		}
	}
	return nil
}

// checkData requires data to be exactly the canonical encoding of the
// unpacked values, so trailing or non-canonical bytes are rejected.
func checkData(nonIndexed abi.Arguments, values map[string]any, data []byte) error {
	args := make([]any, len(nonIndexed))
	for i, arg := range nonIndexed {
		args[i] = values[arg.Name]
	}

	packed, err := nonIndexed.Pack(args...)
	if err != nil {
		return fmt.Errorf("re-encode data: %w", err)
	}
	if !bytes.Equal(packed, data) {
		return fmt.Errorf("data does not match its canonical encoding (%d bytes, want %d)", len(data), len(packed))
	}
	return nil
}

func build(kind events.Kind, a *argReader) (events.Event, error) {
	switch kind {
	case events.KindGTRewardIssued:
		return events.GTRewardIssued{
			ProposalID:  a.asUint("proposalId"),
			Contributor: a.asAddress("contributor"),
			Amount:      a.asUint("amount"),
		}, a.err()
	case events.KindOwnershipTransferred:
		return events.OwnershipTransferred{
			PreviousOwner: a.asAddress("previousOwner"),
			NewOwner:      a.asAddress("newOwner"),
		}, a.err()
	case events.KindFundingProposalCreated:
		return events.FundingProposalCreated{
			ProposalID: a.asUint("proposalId"),
		}, a.err()
	case events.KindWithdrawn:
		return events.Withdrawn{
			ProposalID:  a.asUint("proposalId"),
			Contributor: a.asAddress("contributor"),
			Amount:      a.asUint("amount"),
		}, a.err()
	case events.KindDelegateSet:
		return events.DelegateSet{
			Delegator: a.asAddress("delegator"),
			Delegatee: a.asAddress("delegatee"),
		}, a.err()
	case events.KindVotingProposalCreated:
		return events.VotingProposalCreated{
			ProposalID:    a.asUint("proposalId"),
			Title:         a.asString("title"),
			Description:   a.asString("description"),
			Deadline:      a.asUint("deadline"),
			FundingTarget: a.asUint("fundingTarget"),
		}, a.err()
	case events.KindProposalFinalized:
		return events.ProposalFinalized{
			ProposalID:   a.asUint("proposalId"),
			IsSuccessful: a.asBool("isSuccessful"),
		}, a.err()
	case events.KindVotedOnProposal:
		return events.VotedOnProposal{
			ProposalID: a.asUint("proposalId"),
			Voter:      a.asAddress("voter"),
		}, a.err()
	default:
		return nil, fmt.Errorf("no builder for kind %s", kind)
	}
}

// argReader extracts typed values from an ABI unpack map, remembering the
// first type mismatch.
type argReader struct {
	values   map[string]any
	mismatch error
}

func (r *argReader) fail(name, want string) {
	if r.mismatch == nil {
		r.mismatch = fmt.Errorf("parameter %s: expected %s, got %T", name, want, r.values[name])
	}
}

func (r *argReader) err() error {
	return r.mismatch
}

func (r *argReader) asUint(name string) *big.Int {
	v, ok := r.values[name].(*big.Int)
	if !ok || v == nil {
		r.fail(name, "uint256")
		return nil
	}
	return new(big.Int).Set(v)
}

func (r *argReader) asAddress(name string) common.Address {
	v, ok := r.values[name].(common.Address)
	if !ok {
		r.fail(name, "address")
	}
	return v
}

func (r *argReader) asString(name string) string {
	v, ok := r.values[name].(string)
	if !ok {
		r.fail(name, "string")
	}
	return v
}

func (r *argReader) asBool(name string) bool {
	v, ok := r.values[name].(bool)
	if !ok {
		r.fail(name, "bool")
	}
	return v
}
