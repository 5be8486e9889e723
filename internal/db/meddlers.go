package db

import (
	"database/sql"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Register("address", AddressMeddler{})
	meddler.Register("hash", HashMeddler{})
	meddler.Register("bigint", BigIntMeddler{})
}

// AddressMeddler stores common.Address as lowercase 0x-prefixed hex.
type AddressMeddler struct{}

func (AddressMeddler) PreRead(fieldAddr any) (any, error) {
	return new(sql.NullString), nil
}

func (AddressMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*common.Address)
	if !ok {
		return fmt.Errorf("expected *common.Address, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = common.Address{}
		return nil
	}
	*ptr = common.HexToAddress(ns.String)
	return nil
}

func (AddressMeddler) PreWrite(field any) (any, error) {
	address, ok := field.(common.Address)
	if !ok {
		return nil, fmt.Errorf("expected common.Address, got %T", field)
	}
	return strings.ToLower(address.Hex()), nil
}

// HashMeddler stores common.Hash as 0x-prefixed hex.
type HashMeddler struct{}

func (HashMeddler) PreRead(fieldAddr any) (any, error) {
	return new(sql.NullString), nil
}

func (HashMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*common.Hash)
	if !ok {
		return fmt.Errorf("expected *common.Hash, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = common.Hash{}
		return nil
	}
	*ptr = common.HexToHash(ns.String)
	return nil
}

func (HashMeddler) PreWrite(field any) (any, error) {
	hash, ok := field.(common.Hash)
	if !ok {
		return nil, fmt.Errorf("expected common.Hash, got %T", field)
	}
	return hash.Hex(), nil
}

// BigIntMeddler stores *big.Int as decimal text so uint256 values survive
// without precision loss in any SQL engine.
type BigIntMeddler struct{}

func (BigIntMeddler) PreRead(fieldAddr any) (any, error) {
	return new(sql.NullString), nil
}

func (BigIntMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	v, ok := new(big.Int).SetString(ns.String, 10) //nolint:mnd
	if !ok {
		return fmt.Errorf("invalid decimal integer %q", ns.String)
	}
	*ptr = v
	return nil
}

func (BigIntMeddler) PreWrite(field any) (any, error) {
	v, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}
	if v == nil {
		return nil, nil
	}
	return v.String(), nil
}
