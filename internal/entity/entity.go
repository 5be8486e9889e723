package entity

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
)

// Names of the chain context fields every entity carries.
const (
	FieldID              = "id"
	FieldBlockNumber     = "blockNumber"
	FieldBlockTimestamp  = "blockTimestamp"
	FieldTransactionHash = "transactionHash"
)

// Entity is a persisted record derived from exactly one event occurrence.
type Entity interface {
	Kind() events.Kind
	EntityID() Identity
	Block() uint64
	// Fields returns every field rendered as a string, identity and event
	// parameters first, chain context last.
	Fields() []FieldValue
}

// FieldValue is one named, rendered entity field.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Lookup returns the rendered value of the named field of e.
func Lookup(e Entity, name string) (string, bool) {
	for _, f := range e.Fields() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// FieldNames returns the field names of the given kind in Fields order.
func FieldNames(kind events.Kind) []string {
	names := []string{FieldID}
	for _, p := range kind.Schema() {
		names = append(names, p.Name)
	}
	return append(names, FieldBlockNumber, FieldBlockTimestamp, FieldTransactionHash)
}

// New returns an empty record of the given kind, or nil for an unknown kind.
func New(kind events.Kind) Entity {
	switch kind {
	case events.KindGTRewardIssued:
		return &GTRewardIssued{}
	case events.KindOwnershipTransferred:
		return &OwnershipTransferred{}
	case events.KindFundingProposalCreated:
		return &FundingProposalCreated{}
	case events.KindWithdrawn:
		return &Withdrawn{}
	case events.KindDelegateSet:
		return &DelegateSet{}
	case events.KindVotingProposalCreated:
		return &VotingProposalCreated{}
	case events.KindProposalFinalized:
		return &ProposalFinalized{}
	case events.KindVotedOnProposal:
		return &VotedOnProposal{}
	default:
		return nil
	}
}

func fields(id Identity, blockNumber, blockTimestamp uint64, txHash common.Hash, params ...FieldValue) []FieldValue {
	out := make([]FieldValue, 0, len(params)+4) //nolint:mnd
	out = append(out, FieldValue{FieldID, id.String()})
	out = append(out, params...)
	return append(out,
		FieldValue{FieldBlockNumber, strconv.FormatUint(blockNumber, 10)},
		FieldValue{FieldBlockTimestamp, strconv.FormatUint(blockTimestamp, 10)},
		FieldValue{FieldTransactionHash, txHash.Hex()},
	)
}

func addressField(name string, a common.Address) FieldValue {
	return FieldValue{name, strings.ToLower(a.Hex())}
}

func uintField(name string, v *big.Int) FieldValue {
	if v == nil {
		return FieldValue{name, "0"}
	}
	return FieldValue{name, v.String()}
}

func stringField(name, v string) FieldValue {
	return FieldValue{name, v}
}

func boolField(name string, v bool) FieldValue {
	return FieldValue{name, strconv.FormatBool(v)}
}

// GTRewardIssued records a governance token reward.
type GTRewardIssued struct {
	ID              Identity       `meddler:"id"`
	ProposalID      *big.Int       `meddler:"proposal_id,bigint"`
	Contributor     common.Address `meddler:"contributor,address"`
	Amount          *big.Int       `meddler:"amount,bigint"`
	BlockNumber     uint64         `meddler:"block_number"`
	BlockTimestamp  uint64         `meddler:"block_timestamp"`
	TransactionHash common.Hash    `meddler:"transaction_hash,hash"`
}

func (e *GTRewardIssued) Kind() events.Kind  { return events.KindGTRewardIssued }
func (e *GTRewardIssued) EntityID() Identity { return e.ID }
func (e *GTRewardIssued) Block() uint64      { return e.BlockNumber }
func (e *GTRewardIssued) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
		addressField("contributor", e.Contributor),
		uintField("amount", e.Amount),
	)
}

// OwnershipTransferred records an ownership change of the funding contract.
type OwnershipTransferred struct {
	ID              Identity       `meddler:"id"`
	PreviousOwner   common.Address `meddler:"previous_owner,address"`
	NewOwner        common.Address `meddler:"new_owner,address"`
	BlockNumber     uint64         `meddler:"block_number"`
	BlockTimestamp  uint64         `meddler:"block_timestamp"`
	TransactionHash common.Hash    `meddler:"transaction_hash,hash"`
}

func (e *OwnershipTransferred) Kind() events.Kind  { return events.KindOwnershipTransferred }
func (e *OwnershipTransferred) EntityID() Identity { return e.ID }
func (e *OwnershipTransferred) Block() uint64      { return e.BlockNumber }
func (e *OwnershipTransferred) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		addressField("previousOwner", e.PreviousOwner),
		addressField("newOwner", e.NewOwner),
	)
}

// FundingProposalCreated records a proposal opened on the funding contract.
type FundingProposalCreated struct {
	ID              Identity    `meddler:"id"`
	ProposalID      *big.Int    `meddler:"proposal_id,bigint"`
	BlockNumber     uint64      `meddler:"block_number"`
	BlockTimestamp  uint64      `meddler:"block_timestamp"`
	TransactionHash common.Hash `meddler:"transaction_hash,hash"`
}

func (e *FundingProposalCreated) Kind() events.Kind  { return events.KindFundingProposalCreated }
func (e *FundingProposalCreated) EntityID() Identity { return e.ID }
func (e *FundingProposalCreated) Block() uint64      { return e.BlockNumber }
func (e *FundingProposalCreated) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
	)
}

// Withdrawn records a contributor withdrawal.
type Withdrawn struct {
	ID              Identity       `meddler:"id"`
	ProposalID      *big.Int       `meddler:"proposal_id,bigint"`
	Contributor     common.Address `meddler:"contributor,address"`
	Amount          *big.Int       `meddler:"amount,bigint"`
	BlockNumber     uint64         `meddler:"block_number"`
	BlockTimestamp  uint64         `meddler:"block_timestamp"`
	TransactionHash common.Hash    `meddler:"transaction_hash,hash"`
}

func (e *Withdrawn) Kind() events.Kind  { return events.KindWithdrawn }
func (e *Withdrawn) EntityID() Identity { return e.ID }
func (e *Withdrawn) Block() uint64      { return e.BlockNumber }
func (e *Withdrawn) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
		addressField("contributor", e.Contributor),
		uintField("amount", e.Amount),
	)
}

// DelegateSet records a voting delegation.
type DelegateSet struct {
	ID              Identity       `meddler:"id"`
	Delegator       common.Address `meddler:"delegator,address"`
	Delegatee       common.Address `meddler:"delegatee,address"`
	BlockNumber     uint64         `meddler:"block_number"`
	BlockTimestamp  uint64         `meddler:"block_timestamp"`
	TransactionHash common.Hash    `meddler:"transaction_hash,hash"`
}

func (e *DelegateSet) Kind() events.Kind  { return events.KindDelegateSet }
func (e *DelegateSet) EntityID() Identity { return e.ID }
func (e *DelegateSet) Block() uint64      { return e.BlockNumber }
func (e *DelegateSet) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		addressField("delegator", e.Delegator),
		addressField("delegatee", e.Delegatee),
	)
}

// VotingProposalCreated records a proposal opened on the proposal-voting contract.
type VotingProposalCreated struct {
	ID              Identity    `meddler:"id"`
	ProposalID      *big.Int    `meddler:"proposal_id,bigint"`
	Title           string      `meddler:"title"`
	Description     string      `meddler:"description"`
	Deadline        *big.Int    `meddler:"deadline,bigint"`
	FundingTarget   *big.Int    `meddler:"funding_target,bigint"`
	BlockNumber     uint64      `meddler:"block_number"`
	BlockTimestamp  uint64      `meddler:"block_timestamp"`
	TransactionHash common.Hash `meddler:"transaction_hash,hash"`
}

func (e *VotingProposalCreated) Kind() events.Kind  { return events.KindVotingProposalCreated }
func (e *VotingProposalCreated) EntityID() Identity { return e.ID }
func (e *VotingProposalCreated) Block() uint64      { return e.BlockNumber }
func (e *VotingProposalCreated) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
		stringField("title", e.Title),
		stringField("description", e.Description),
		uintField("deadline", e.Deadline),
		uintField("fundingTarget", e.FundingTarget),
	)
}

// ProposalFinalized records the outcome of a proposal vote.
type ProposalFinalized struct {
	ID              Identity    `meddler:"id"`
	ProposalID      *big.Int    `meddler:"proposal_id,bigint"`
	IsSuccessful    bool        `meddler:"is_successful"`
	BlockNumber     uint64      `meddler:"block_number"`
	BlockTimestamp  uint64      `meddler:"block_timestamp"`
	TransactionHash common.Hash `meddler:"transaction_hash,hash"`
}

func (e *ProposalFinalized) Kind() events.Kind  { return events.KindProposalFinalized }
func (e *ProposalFinalized) EntityID() Identity { return e.ID }
func (e *ProposalFinalized) Block() uint64      { return e.BlockNumber }
func (e *ProposalFinalized) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
		boolField("isSuccessful", e.IsSuccessful),
	)
}

// VotedOnProposal records a single vote.
type VotedOnProposal struct {
	ID              Identity       `meddler:"id"`
	ProposalID      *big.Int       `meddler:"proposal_id,bigint"`
	Voter           common.Address `meddler:"voter,address"`
	BlockNumber     uint64         `meddler:"block_number"`
	BlockTimestamp  uint64         `meddler:"block_timestamp"`
	TransactionHash common.Hash    `meddler:"transaction_hash,hash"`
}

func (e *VotedOnProposal) Kind() events.Kind  { return events.KindVotedOnProposal }
func (e *VotedOnProposal) EntityID() Identity { return e.ID }
func (e *VotedOnProposal) Block() uint64      { return e.BlockNumber }
func (e *VotedOnProposal) Fields() []FieldValue {
	return fields(e.ID, e.BlockNumber, e.BlockTimestamp, e.TransactionHash,
		uintField("proposalId", e.ProposalID),
		addressField("voter", e.Voter),
	)
}
