package events

import (
	"fmt"
	"slices"
)

// Contract identifies the source contract family an event belongs to.
type Contract string

const (
	ContractFunding        Contract = "funding"
	ContractProposalVoting Contract = "proposal-voting"
)

// Contracts lists every supported contract family.
var Contracts = []Contract{ContractFunding, ContractProposalVoting}

// ParseContract converts a configuration string into a Contract.
func ParseContract(s string) (Contract, error) {
	c := Contract(s)
	if !slices.Contains(Contracts, c) {
		return "", fmt.Errorf("unknown contract type %q", s)
	}
	return c, nil
}

// Kind is the fixed enumeration of indexed event types. The value doubles as
// the store keyspace name.
type Kind string

const (
	KindGTRewardIssued         Kind = "GTRewardIssued"
	KindOwnershipTransferred   Kind = "OwnershipTransferred"
	KindFundingProposalCreated Kind = "FundingProposalCreated"
	KindWithdrawn              Kind = "Withdrawn"
	KindDelegateSet            Kind = "DelegateSet"
	KindVotingProposalCreated  Kind = "VotingProposalCreated"
	KindProposalFinalized      Kind = "ProposalFinalized"
	KindVotedOnProposal        Kind = "VotedOnProposal"
)

// ParamType is the value category of an event parameter.
type ParamType string

const (
	ParamAddress ParamType = "address"
	ParamUint    ParamType = "uint"
	ParamString  ParamType = "string"
	ParamBool    ParamType = "bool"
)

// Param is one entry of an event's ordered parameter schema.
type Param struct {
	Name string
	Type ParamType
}

type kindInfo struct {
	contract Contract
	event    string // event name inside the contract ABI
	table    string
	params   []Param
}

var kinds = map[Kind]kindInfo{
	KindGTRewardIssued: {
		contract: ContractFunding,
		event:    "GTRewardIssued",
		table:    "gt_reward_issued",
		params:   []Param{{"proposalId", ParamUint}, {"contributor", ParamAddress}, {"amount", ParamUint}},
	},
	KindOwnershipTransferred: {
		contract: ContractFunding,
		event:    "OwnershipTransferred",
		table:    "ownership_transferred",
		params:   []Param{{"previousOwner", ParamAddress}, {"newOwner", ParamAddress}},
	},
	KindFundingProposalCreated: {
		contract: ContractFunding,
		event:    "ProposalCreated",
		table:    "funding_proposal_created",
		params:   []Param{{"proposalId", ParamUint}},
	},
	KindWithdrawn: {
		contract: ContractFunding,
		event:    "Withdrawn",
		table:    "withdrawn",
		params:   []Param{{"proposalId", ParamUint}, {"contributor", ParamAddress}, {"amount", ParamUint}},
	},
	KindDelegateSet: {
		contract: ContractProposalVoting,
		event:    "DelegateSet",
		table:    "delegate_set",
		params:   []Param{{"delegator", ParamAddress}, {"delegatee", ParamAddress}},
	},
	KindVotingProposalCreated: {
		contract: ContractProposalVoting,
		event:    "ProposalCreated",
		table:    "voting_proposal_created",
		params: []Param{
			{"proposalId", ParamUint},
			{"title", ParamString},
			{"description", ParamString},
			{"deadline", ParamUint},
			{"fundingTarget", ParamUint},
		},
	},
	KindProposalFinalized: {
		contract: ContractProposalVoting,
		event:    "ProposalFinalized",
		table:    "proposal_finalized",
		params:   []Param{{"proposalId", ParamUint}, {"isSuccessful", ParamBool}},
	},
	KindVotedOnProposal: {
		contract: ContractProposalVoting,
		event:    "VotedOnProposal",
		table:    "voted_on_proposal",
		params:   []Param{{"proposalId", ParamUint}, {"voter", ParamAddress}},
	},
}

// AllKinds returns every Kind in a stable order: funding kinds first, then
// proposal-voting kinds.
func AllKinds() []Kind {
	return []Kind{
		KindGTRewardIssued,
		KindOwnershipTransferred,
		KindFundingProposalCreated,
		KindWithdrawn,
		KindDelegateSet,
		KindVotingProposalCreated,
		KindProposalFinalized,
		KindVotedOnProposal,
	}
}

// KindsOf returns the kinds emitted by the given contract.
func KindsOf(c Contract) []Kind {
	var out []Kind
	for _, k := range AllKinds() {
		if kinds[k].contract == c {
			out = append(out, k)
		}
	}
	return out
}

// ParseKind converts a keyspace name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// Contract returns the contract family that emits k.
func (k Kind) Contract() Contract { return kinds[k].contract }

// EventName returns the Solidity event name of k.
func (k Kind) EventName() string { return kinds[k].event }

// Table returns the relational table name used by SQL backends.
func (k Kind) Table() string { return kinds[k].table }

// Schema returns the ordered parameter schema of k.
func (k Kind) Schema() []Param {
	return slices.Clone(kinds[k].params)
}
