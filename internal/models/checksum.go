package models

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var addressShape = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ChecksumAddress returns the EIP-55 mixed-case form of an Ethereum address.
// Input that is not a 0x-prefixed 40-hex-digit address is returned unchanged,
// so callers can pass tx hashes or empty subjects through safely.
func ChecksumAddress(address string) string {
	if !addressShape.MatchString(address) {
		return address
	}

	lower := strings.ToLower(address[2:])
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hex.EncodeToString(hash.Sum(nil))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c = c - 'a' + 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}
