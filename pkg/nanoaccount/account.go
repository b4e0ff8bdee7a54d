// Package nanoaccount decodes and verifies nano account addresses.
//
// An address is a prefix followed by 60 base32 characters: 52 carry the 256-bit
// public key behind 4 zero padding bits, the last 8 carry a 40-bit checksum
// (blake2b with a 5-byte digest over the key, byte-reversed).
package nanoaccount

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	alphabet = "13456789abcdefghijkmnopqrstuwxyz"

	// Prefix is the address prefix used when encoding
	Prefix       = "nano_"
	legacyPrefix = "xrb_"

	keyChars      = 52
	checksumChars = 8
	checksumSize  = 5
)

// Sentinel errors for address validation
var (
	ErrInvalidPrefix    = errors.New("account address has unknown prefix")
	ErrInvalidLength    = errors.New("account address has wrong length")
	ErrInvalidCharacter = errors.New("account address has character outside the alphabet")
	ErrInvalidPadding   = errors.New("account address has non-zero padding bits")
	ErrInvalidChecksum  = errors.New("account address checksum mismatch")
)

// PublicKey is the 32-byte key an account address encodes
type PublicKey [32]byte

var decodeTable = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		table[alphabet[i]] = int8(i)
	}
	return table
}()

// Decode parses an address and verifies its checksum
func Decode(address string) (PublicKey, error) {
	var body string
	switch {
	case strings.HasPrefix(address, Prefix):
		body = address[len(Prefix):]
	case strings.HasPrefix(address, legacyPrefix):
		body = address[len(legacyPrefix):]
	default:
		return PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, address)
	}

	if len(body) != keyChars+checksumChars {
		return PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidLength, address)
	}

	keyValue, err := decodeChars(body[:keyChars])
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %q", err, address)
	}
	if keyValue.BitLen() > 256 {
		return PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidPadding, address)
	}

	checkValue, err := decodeChars(body[keyChars:])
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %q", err, address)
	}

	var key PublicKey
	keyValue.FillBytes(key[:])

	var got [checksumSize]byte
	checkValue.FillBytes(got[:])

	want, err := checksum(key)
	if err != nil {
		return PublicKey{}, err
	}
	if !bytes.Equal(got[:], want[:]) {
		return PublicKey{}, fmt.Errorf("%w: %q", ErrInvalidChecksum, address)
	}

	return key, nil
}

// Validate reports whether address decodes with a matching checksum
func Validate(address string) error {
	_, err := Decode(address)
	return err
}

// Encode renders key as a nano_ address
func Encode(key PublicKey) string {
	check, err := checksum(key)
	if err != nil {
		// blake2b only rejects digest sizes outside 1..64
		panic(err)
	}

	var sb strings.Builder
	sb.Grow(len(Prefix) + keyChars + checksumChars)
	sb.WriteString(Prefix)
	encodeChars(&sb, new(big.Int).SetBytes(key[:]), keyChars)
	encodeChars(&sb, new(big.Int).SetBytes(check[:]), checksumChars)
	return sb.String()
}

// String renders the key in its address form
func (k PublicKey) String() string {
	return Encode(k)
}

func checksum(key PublicKey) ([checksumSize]byte, error) {
	var out [checksumSize]byte

	h, err := blake2b.New(checksumSize, nil)
	if err != nil {
		return out, fmt.Errorf("creating checksum hash: %w", err)
	}
	_, _ = h.Write(key[:])
	sum := h.Sum(nil)

	for i := range out {
		out[i] = sum[checksumSize-1-i]
	}
	return out, nil
}

func decodeChars(s string) (*big.Int, error) {
	value := new(big.Int)
	for i := 0; i < len(s); i++ {
		digit := decodeTable[s[i]]
		if digit < 0 {
			return nil, ErrInvalidCharacter
		}
		value.Lsh(value, 5)
		value.Or(value, big.NewInt(int64(digit)))
	}
	return value, nil
}

func encodeChars(sb *strings.Builder, value *big.Int, n int) {
	mask := big.NewInt(31)
	digit := new(big.Int)
	for i := n - 1; i >= 0; i-- {
		digit.Rsh(value, uint(5*i))
		digit.And(digit, mask)
		sb.WriteByte(alphabet[digit.Int64()])
	}
}
