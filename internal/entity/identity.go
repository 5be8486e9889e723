package entity

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IdentityLength is the byte width of an Identity: a 32-byte transaction hash
// followed by a 4-byte log index.
const IdentityLength = common.HashLength + 4

// Identity is the deterministic key of an entity record. The log index is
// appended as a little-endian 32-bit integer.
type Identity [IdentityLength]byte

// NewIdentity derives the identity of the log at logIndex in transaction txHash.
// A log index that does not fit in 32 bits panics instead of colliding with a
// smaller one.
func NewIdentity(txHash common.Hash, logIndex uint) Identity {
	if uint64(logIndex) > math.MaxUint32 {
		panic(fmt.Sprintf("entity: log index %d exceeds 32 bits", logIndex))
	}
	var id Identity
	copy(id[:common.HashLength], txHash[:])
	binary.LittleEndian.PutUint32(id[common.HashLength:], uint32(logIndex))
	return id
}

// IdentityFromBytes converts a raw identity. A slice of any other width is a
// programming error and panics.
func IdentityFromBytes(b []byte) Identity {
	if len(b) != IdentityLength {
		panic(fmt.Sprintf("entity: identity must be %d bytes, got %d", IdentityLength, len(b)))
	}
	var id Identity
	copy(id[:], b)
	return id
}

// ParseIdentity parses the human-readable form produced by Identity.String.
func ParseIdentity(s string) (Identity, error) {
	sep := strings.LastIndexByte(s, '-')
	if sep < 0 {
		return Identity{}, fmt.Errorf("invalid identity %q: missing log index", s)
	}

	hexHash, rawIndex := s[:sep], s[sep+1:]
	if !strings.HasPrefix(hexHash, "0x") || len(hexHash) != 2+2*common.HashLength {
		return Identity{}, fmt.Errorf("invalid identity %q: malformed transaction hash", s)
	}
	raw := common.FromHex(hexHash)
	if len(raw) != common.HashLength || common.Bytes2Hex(raw) != strings.ToLower(hexHash[2:]) {
		return Identity{}, fmt.Errorf("invalid identity %q: malformed transaction hash", s)
	}

	logIndex, err := strconv.ParseUint(rawIndex, 10, 32)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}

	return NewIdentity(common.BytesToHash(raw), uint(logIndex)), nil
}

// TxHash returns the transaction hash part.
func (id Identity) TxHash() common.Hash {
	return common.BytesToHash(id[:common.HashLength])
}

// LogIndex returns the log index part.
func (id Identity) LogIndex() uint {
	return uint(binary.LittleEndian.Uint32(id[common.HashLength:]))
}

// Bytes returns a copy of the raw identity.
func (id Identity) Bytes() []byte {
	out := make([]byte, IdentityLength)
	copy(out, id[:])
	return out
}

// String renders the identity as "0x<lowercase tx hash>-<log index>".
func (id Identity) String() string {
	return id.TxHash().Hex() + "-" + strconv.FormatUint(uint64(id.LogIndex()), 10)
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Value implements driver.Valuer.
func (id Identity) Value() (driver.Value, error) {
	return id.Bytes(), nil
}

// Scan implements sql.Scanner.
func (id *Identity) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("entity: cannot scan %T into Identity", src)
	}
	if len(b) != IdentityLength {
		return fmt.Errorf("entity: stored identity has %d bytes, want %d", len(b), IdentityLength)
	}
	copy(id[:], b)
	return nil
}
