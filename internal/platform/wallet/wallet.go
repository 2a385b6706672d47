// Package wallet validates and normalizes EVM wallet addresses and
// transaction hashes.
package wallet

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidAddress         = errors.New("invalid wallet address")
	ErrInvalidTransactionHash = errors.New("invalid transaction hash")

	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// IsValidAddress reports whether raw looks like a 20-byte hex address.
// Checksum casing is not enforced; callers normalize with Checksum.
func IsValidAddress(raw string) bool {
	return addressPattern.MatchString(strings.TrimSpace(raw))
}

// IsValidTransactionHash reports whether raw is a 32-byte hex hash.
func IsValidTransactionHash(raw string) bool {
	return txHashPattern.MatchString(strings.TrimSpace(raw))
}

// Checksum returns the EIP-55 mixed-case form of address.
func Checksum(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if !IsValidAddress(trimmed) {
		return "", ErrInvalidAddress
	}

	lower := strings.ToLower(trimmed[2:])
	hasher := sha3.NewLegacyKeccak256()
	_, _ = hasher.Write([]byte(lower))
	digest := hex.EncodeToString(hasher.Sum(nil))

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out), nil
}

// Normalize is Checksum for callers that already validated the input and
// want a best-effort canonical value.
func Normalize(address string) string {
	normalized, err := Checksum(address)
	if err != nil {
		return strings.TrimSpace(address)
	}
	return normalized
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeTransactionHash lowercases a validated transaction hash.
func NormalizeTransactionHash(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !IsValidTransactionHash(trimmed) {
		return "", ErrInvalidTransactionHash
	}
	return strings.ToLower(trimmed), nil
}
