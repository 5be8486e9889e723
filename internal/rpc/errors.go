package rpc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/ProposalIndexor/internal/common"
)

var (
	tooManyResultsRe = regexp.MustCompile(`Query returned more than \d+ results`)
	blockRangeRe     = regexp.MustCompile(`\[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\]`)
)

// IsTooManyResultsError reports whether err is a provider "too many results"
// rejection of eth_getLogs and returns the error data carrying the hint.
func IsTooManyResultsError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		errData := fmt.Sprintf("%v", dataErr.ErrorData())
		return tooManyResultsRe.MatchString(errData), errData
	}

	return false, ""
}

// ParseSuggestedBlockRange extracts the block range a provider suggests, e.g.
// "Query returned more than 20000 results. Try with this block range [0x7dfd25, 0x7e0fcc]."
func ParseSuggestedBlockRange(msg string) (fromBlock, toBlock uint64, ok bool) {
	if msg == "" {
		return 0, 0, false
	}

	matches := blockRangeRe.FindStringSubmatch(msg)
	if len(matches) != 3 { //nolint:mnd
		return 0, 0, false
	}

	from, err1 := common.ParseUint64orHex(&matches[1])
	to, err2 := common.ParseUint64orHex(&matches[2])
	if err1 != nil || err2 != nil || from > to {
		return 0, 0, false
	}

	return from, to, true
}

func errorType(err error) string {
	if ok, _ := IsTooManyResultsError(err); ok {
		return "too_many_results"
	}
	if errors.Is(err, errHeaderNotFound) {
		return "not_found"
	}
	if retryableError(err) {
		return "transient"
	}
	return "other"
}
