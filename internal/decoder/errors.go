package decoder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
)

var (
	// ErrUnknownEvent is returned for logs whose topic0 is not registered with the decoder.
	ErrUnknownEvent = errors.New("unknown event signature")

	// ErrMalformedLog is returned when the topics or data do not match the event schema.
	ErrMalformedLog = errors.New("malformed event payload")
)

// DecodeError describes why a single log could not be decoded. It wraps
// ErrUnknownEvent or ErrMalformedLog.
type DecodeError struct {
	Kind     events.Kind // empty when the signature is unknown
	TxHash   common.Hash
	LogIndex uint
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("decode log %s-%d: %v", e.TxHash.Hex(), e.LogIndex, e.Err)
	}
	return fmt.Sprintf("decode %s log %s-%d: %v", e.Kind, e.TxHash.Hex(), e.LogIndex, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err carries a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
