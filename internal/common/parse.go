package common

import (
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// ParseUint64orHex converts the given uint64 string into the number.
// It can parse the string with 0x prefix as well.
func ParseUint64orHex(val *string) (uint64, error) {
	if val == nil {
		return 0, nil
	}

	str := *val
	base := 10

	if strings.HasPrefix(str, "0x") {
		str = str[2:]
		base = 16
	}

	return strconv.ParseUint(str, base, 64)
}

const bytesInMB = 1024 * 1024

func BytesToMB(bytes uint64) uint64 {
	return bytes / bytesInMB
}

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsHexAddress reports whether s is a 0x-prefixed or bare 20-byte hex address.
func IsHexAddress(s string) bool {
	return ethcommon.IsHexAddress(strings.TrimSpace(s))
}

// ParseAddresses converts hex strings into addresses.
func ParseAddresses(raw []string) []ethcommon.Address {
	out := make([]ethcommon.Address, 0, len(raw))
	for _, s := range raw {
		out = append(out, ethcommon.HexToAddress(strings.TrimSpace(s)))
	}
	return out
}
