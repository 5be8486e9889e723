package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainContext is the chain position of a single log.
type ChainContext struct {
	BlockNumber    uint64
	BlockTimestamp uint64
	TxHash         common.Hash
	LogIndex       uint
}

// Log is a raw chain log together with the timestamp of the block that contains it.
type Log struct {
	types.Log
	BlockTimestamp uint64
}

// Context extracts the chain context of the log.
func (l Log) Context() ChainContext {
	return ChainContext{
		BlockNumber:    l.BlockNumber,
		BlockTimestamp: l.BlockTimestamp,
		TxHash:         l.TxHash,
		LogIndex:       l.Index,
	}
}

// Event is a typed, decoded event record. The set of implementations is closed.
type Event interface {
	Kind() Kind
	// Args returns the parameter values in schema order.
	Args() []any

	isEvent()
}

// Decoded is a typed event together with the chain context it was emitted in.
type Decoded struct {
	Event   Event
	Context ChainContext
}

// GTRewardIssued is emitted by the funding contract when governance tokens are rewarded.
type GTRewardIssued struct {
	ProposalID  *big.Int
	Contributor common.Address
	Amount      *big.Int
}

// NewGTRewardIssued builds a GTRewardIssued event from its parameters.
func NewGTRewardIssued(proposalID *big.Int, contributor common.Address, amount *big.Int) GTRewardIssued {
	return GTRewardIssued{ProposalID: proposalID, Contributor: contributor, Amount: amount}
}

func (GTRewardIssued) Kind() Kind { return KindGTRewardIssued }
func (e GTRewardIssued) Args() []any {
	return []any{e.ProposalID, e.Contributor, e.Amount}
}
func (GTRewardIssued) isEvent() {}

// OwnershipTransferred is emitted by the funding contract on owner change.
type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

// NewOwnershipTransferred builds an OwnershipTransferred event from its parameters.
func NewOwnershipTransferred(previousOwner, newOwner common.Address) OwnershipTransferred {
	return OwnershipTransferred{PreviousOwner: previousOwner, NewOwner: newOwner}
}

func (OwnershipTransferred) Kind() Kind { return KindOwnershipTransferred }
func (e OwnershipTransferred) Args() []any {
	return []any{e.PreviousOwner, e.NewOwner}
}
func (OwnershipTransferred) isEvent() {}

// FundingProposalCreated is the funding contract's ProposalCreated event.
type FundingProposalCreated struct {
	ProposalID *big.Int
}

// NewFundingProposalCreated builds a FundingProposalCreated event from its parameters.
func NewFundingProposalCreated(proposalID *big.Int) FundingProposalCreated {
	return FundingProposalCreated{ProposalID: proposalID}
}

func (FundingProposalCreated) Kind() Kind    { return KindFundingProposalCreated }
func (e FundingProposalCreated) Args() []any { return []any{e.ProposalID} }
func (FundingProposalCreated) isEvent()      {}

// Withdrawn is emitted by the funding contract when a contributor withdraws.
type Withdrawn struct {
	ProposalID  *big.Int
	Contributor common.Address
	Amount      *big.Int
}

// NewWithdrawn builds a Withdrawn event from its parameters.
func NewWithdrawn(proposalID *big.Int, contributor common.Address, amount *big.Int) Withdrawn {
	return Withdrawn{ProposalID: proposalID, Contributor: contributor, Amount: amount}
}

func (Withdrawn) Kind() Kind { return KindWithdrawn }
func (e Withdrawn) Args() []any {
	return []any{e.ProposalID, e.Contributor, e.Amount}
}
func (Withdrawn) isEvent() {}

// DelegateSet is emitted by the proposal-voting contract when a delegate is assigned.
type DelegateSet struct {
	Delegator common.Address
	Delegatee common.Address
}

// NewDelegateSet builds a DelegateSet event from its parameters.
func NewDelegateSet(delegator, delegatee common.Address) DelegateSet {
	return DelegateSet{Delegator: delegator, Delegatee: delegatee}
}

func (DelegateSet) Kind() Kind    { return KindDelegateSet }
func (e DelegateSet) Args() []any { return []any{e.Delegator, e.Delegatee} }
func (DelegateSet) isEvent()      {}

// VotingProposalCreated is the proposal-voting contract's ProposalCreated event.
type VotingProposalCreated struct {
	ProposalID    *big.Int
	Title         string
	Description   string
	Deadline      *big.Int
	FundingTarget *big.Int
}

// NewVotingProposalCreated builds a VotingProposalCreated event from its parameters.
func NewVotingProposalCreated(
	proposalID *big.Int, title, description string, deadline, fundingTarget *big.Int,
) VotingProposalCreated {
	return VotingProposalCreated{
		ProposalID:    proposalID,
		Title:         title,
		Description:   description,
		Deadline:      deadline,
		FundingTarget: fundingTarget,
	}
}

func (VotingProposalCreated) Kind() Kind { return KindVotingProposalCreated }
func (e VotingProposalCreated) Args() []any {
	return []any{e.ProposalID, e.Title, e.Description, e.Deadline, e.FundingTarget}
}
func (VotingProposalCreated) isEvent() {}

// ProposalFinalized is emitted by the proposal-voting contract when voting closes.
type ProposalFinalized struct {
	ProposalID   *big.Int
	IsSuccessful bool
}

// NewProposalFinalized builds a ProposalFinalized event from its parameters.
func NewProposalFinalized(proposalID *big.Int, isSuccessful bool) ProposalFinalized {
	return ProposalFinalized{ProposalID: proposalID, IsSuccessful: isSuccessful}
}

func (ProposalFinalized) Kind() Kind    { return KindProposalFinalized }
func (e ProposalFinalized) Args() []any { return []any{e.ProposalID, e.IsSuccessful} }
func (ProposalFinalized) isEvent()      {}

// VotedOnProposal is emitted by the proposal-voting contract for every vote.
type VotedOnProposal struct {
	ProposalID *big.Int
	Voter      common.Address
}

// NewVotedOnProposal builds a VotedOnProposal event from its parameters.
func NewVotedOnProposal(proposalID *big.Int, voter common.Address) VotedOnProposal {
	return VotedOnProposal{ProposalID: proposalID, Voter: voter}
}

func (VotedOnProposal) Kind() Kind    { return KindVotedOnProposal }
func (e VotedOnProposal) Args() []any { return []any{e.ProposalID, e.Voter} }
func (VotedOnProposal) isEvent()      {}
