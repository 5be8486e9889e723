package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type dataError struct {
	msg string
}

func (e *dataError) Error() string  { return e.msg }
func (e *dataError) ErrorData() any { return e.msg }

const tooManyResults = "Query returned more than 20000 results. Try with this block range [0x7dfd25, 0x7e0fcc]."

func TestIsTooManyResultsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantMatch bool
		wantData  string
	}{
		{name: "nil error"},
		{name: "plain error", err: errors.New("some other error")},
		{
			name:     "data error with unrelated message",
			err:      &dataError{msg: "execution reverted"},
			wantData: "execution reverted",
		},
		{
			name:      "too many results",
			err:       &dataError{msg: tooManyResults},
			wantMatch: true,
			wantData:  tooManyResults,
		},
		{
			name:      "wrapped too many results",
			err:       fmt.Errorf("eth_getLogs: %w", &dataError{msg: tooManyResults}),
			wantMatch: true,
			wantData:  tooManyResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotMatch, gotData := IsTooManyResultsError(tt.err)
			require.Equal(t, tt.wantMatch, gotMatch)
			require.Equal(t, tt.wantData, gotData)
		})
	}
}

func TestParseSuggestedBlockRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		msg      string
		wantFrom uint64
		wantTo   uint64
		wantOK   bool
	}{
		{name: "empty"},
		{name: "no range", msg: "Query returned more than 20000 results."},
		{name: "valid range", msg: tooManyResults, wantFrom: 8256805, wantTo: 8261580, wantOK: true},
		{name: "mixed case with spaces", msg: "range [0x1aBc,   0x2DEF].", wantFrom: 6844, wantTo: 11759, wantOK: true},
		{name: "invalid hex", msg: "range [0xZZZZ, 0x1234]."},
		{name: "inverted range", msg: "range [0x20, 0x10]."},
		{name: "first range wins", msg: "ranges [0x10, 0x20] and [0x30, 0x40].", wantFrom: 16, wantTo: 32, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			from, to, ok := ParseSuggestedBlockRange(tt.msg)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantFrom, from)
			require.Equal(t, tt.wantTo, to)
		})
	}
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "too_many_results", errorType(&dataError{msg: tooManyResults}))
	require.Equal(t, "not_found", errorType(fmt.Errorf("block 7: %w", errHeaderNotFound)))
	require.Equal(t, "transient", errorType(errors.New("503 Service Unavailable")))
	require.Equal(t, "other", errorType(errors.New("invalid argument")))
}
