package entity

import (
	"fmt"
	"math/big"

	"github.com/goran-ethernal/ProposalIndexor/internal/events"
)

// Map converts a decoded event into its entity record. Every event kind maps
// to exactly one record.
func Map(d events.Decoded) Entity {
	switch ev := d.Event.(type) {
	case events.GTRewardIssued:
		return MapGTRewardIssued(ev, d.Context)
	case events.OwnershipTransferred:
		return MapOwnershipTransferred(ev, d.Context)
	case events.FundingProposalCreated:
		return MapFundingProposalCreated(ev, d.Context)
	case events.Withdrawn:
		return MapWithdrawn(ev, d.Context)
	case events.DelegateSet:
		return MapDelegateSet(ev, d.Context)
	case events.VotingProposalCreated:
		return MapVotingProposalCreated(ev, d.Context)
	case events.ProposalFinalized:
		return MapProposalFinalized(ev, d.Context)
	case events.VotedOnProposal:
		return MapVotedOnProposal(ev, d.Context)
	default:
		// the event set is sealed, so this is unreachable
		panic(fmt.Sprintf("entity: no mapper for %T", d.Event))
	}
}

// MapGTRewardIssued records a reward issued to a contributor of a proposal.
func MapGTRewardIssued(ev events.GTRewardIssued, cc events.ChainContext) *GTRewardIssued {
	return &GTRewardIssued{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		Contributor:     ev.Contributor,
		Amount:          cloneBig(ev.Amount),
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapOwnershipTransferred records an owner change of the funding contract.
func MapOwnershipTransferred(ev events.OwnershipTransferred, cc events.ChainContext) *OwnershipTransferred {
	return &OwnershipTransferred{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		PreviousOwner:   ev.PreviousOwner,
		NewOwner:        ev.NewOwner,
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapFundingProposalCreated records a proposal opened for funding.
func MapFundingProposalCreated(ev events.FundingProposalCreated, cc events.ChainContext) *FundingProposalCreated {
	return &FundingProposalCreated{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapWithdrawn records a contributor withdrawing from a proposal.
func MapWithdrawn(ev events.Withdrawn, cc events.ChainContext) *Withdrawn {
	return &Withdrawn{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		Contributor:     ev.Contributor,
		Amount:          cloneBig(ev.Amount),
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapDelegateSet records a voting delegation.
func MapDelegateSet(ev events.DelegateSet, cc events.ChainContext) *DelegateSet {
	return &DelegateSet{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		Delegator:       ev.Delegator,
		Delegatee:       ev.Delegatee,
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapVotingProposalCreated records a proposal opened for voting, with its
// title, description, deadline and funding target.
func MapVotingProposalCreated(ev events.VotingProposalCreated, cc events.ChainContext) *VotingProposalCreated {
	return &VotingProposalCreated{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		Title:           ev.Title,
		Description:     ev.Description,
		Deadline:        cloneBig(ev.Deadline),
		FundingTarget:   cloneBig(ev.FundingTarget),
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapProposalFinalized records the outcome of a closed vote.
func MapProposalFinalized(ev events.ProposalFinalized, cc events.ChainContext) *ProposalFinalized {
	return &ProposalFinalized{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		IsSuccessful:    ev.IsSuccessful,
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// MapVotedOnProposal records a single vote.
func MapVotedOnProposal(ev events.VotedOnProposal, cc events.ChainContext) *VotedOnProposal {
	return &VotedOnProposal{
		ID:              NewIdentity(cc.TxHash, cc.LogIndex),
		ProposalID:      cloneBig(ev.ProposalID),
		Voter:           ev.Voter,
		BlockNumber:     cc.BlockNumber,
		BlockTimestamp:  cc.BlockTimestamp,
		TransactionHash: cc.TxHash,
	}
}

// cloneBig keeps entity records independent of the decoded event they came from.
func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
