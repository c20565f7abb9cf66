// Package codec implements the reversible, key-derived obfuscation used to
// mask stored session passwords.
//
// A string is read as a little-endian number whose digits are the string's
// code points shifted by the primary key, in base M = radix + K1 + K2'. The
// resulting integer is written in base 36. This is obfuscation, not
// encryption: anyone holding the key material (or the source) can invert it.
package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultRadix is the digit radix used to fold the secondary key and
	// to build the modulus. It must stay fixed once tokens are persisted.
	DefaultRadix int64 = 1114159
	// LegacyRadix is the radix used by older stores.
	LegacyRadix int64 = 1114120

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	// ErrInvalidKey indicates unusable key material.
	ErrInvalidKey = errors.New("invalid codec key material")
	// ErrDecode indicates a token that cannot be inverted.
	ErrDecode = errors.New("cannot decode token")
	// ErrUnencodable indicates a character outside the codec's range.
	ErrUnencodable = errors.New("character outside codec range")
)

var base36 = big.NewInt(36)

// Codec encodes and decodes tokens for one set of key material.
// It is immutable and safe for concurrent use.
type Codec struct {
	keyOne  int64
	keyFold int64
	radix   int64

	shift   *big.Int
	modulus *big.Int
}

// Option configures a Codec.
type Option func(*Codec)

// WithRadix overrides DefaultRadix.
func WithRadix(radix int64) Option {
	return func(c *Codec) {
		c.radix = radix
	}
}

// New derives a codec from the primary (integer) and secondary (string) keys.
func New(keyOne int64, keyTwo string, opts ...Option) (*Codec, error) {
	c := &Codec{keyOne: keyOne, radix: DefaultRadix}
	for _, opt := range opts {
		opt(c)
	}

	if keyOne <= 0 {
		return nil, fmt.Errorf("%w: primary key must be positive, got %d", ErrInvalidKey, keyOne)
	}
	if c.radix <= 0 {
		return nil, fmt.Errorf("%w: radix must be positive, got %d", ErrInvalidKey, c.radix)
	}

	c.keyFold = foldKey(keyTwo, c.radix, keyOne)
	c.shift = big.NewInt(keyOne)
	c.modulus = new(big.Int).Add(big.NewInt(c.radix), c.shift)
	c.modulus.Add(c.modulus, big.NewInt(c.keyFold))

	if c.modulus.Cmp(base36) <= 0 {
		return nil, fmt.Errorf("%w: modulus %s must exceed 36", ErrInvalidKey, c.modulus)
	}
	return c, nil
}

// foldKey reduces Σ cp(key[i]) * radix^i modulo mod using Horner's rule.
func foldKey(key string, radix, mod int64) int64 {
	runes := []rune(key)
	m := big.NewInt(mod)
	r := big.NewInt(radix)
	acc := new(big.Int)
	for i := len(runes) - 1; i >= 0; i-- {
		acc.Mul(acc, r)
		acc.Add(acc, big.NewInt(int64(runes[i])))
		acc.Mod(acc, m)
	}
	return acc.Int64()
}

// KeyFold returns the folded secondary key K2'.
func (c *Codec) KeyFold() int64 {
	return c.keyFold
}

// Modulus returns a copy of the digit base M.
func (c *Codec) Modulus() *big.Int {
	return new(big.Int).Set(c.modulus)
}

// Encode turns plaintext into a base-36 token. Empty input yields an empty token.
func (c *Codec) Encode(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	runes := []rune(plaintext)
	value := new(big.Int)
	digit := new(big.Int)
	for i := len(runes) - 1; i >= 0; i-- {
		digit.SetInt64(int64(runes[i]))
		digit.Add(digit, c.shift)
		if digit.Cmp(c.modulus) >= 0 {
			return "", fmt.Errorf("%w: %U at position %d", ErrUnencodable, runes[i], i)
		}
		value.Mul(value, c.modulus)
		value.Add(value, digit)
	}

	return strings.ToUpper(value.Text(36)), nil
}

// Decode inverts Encode. It fails with ErrDecode on foreign characters or
// digits that do not map back to a Unicode scalar value.
func (c *Codec) Decode(token string) (string, error) {
	for i := 0; i < len(token); i++ {
		if strings.IndexByte(alphabet, token[i]) < 0 {
			return "", fmt.Errorf("%w: invalid character %q at offset %d", ErrDecode, token[i], i)
		}
	}
	if token == "" {
		return "", nil
	}

	value, ok := new(big.Int).SetString(token, 36)
	if !ok {
		return "", fmt.Errorf("%w: malformed token", ErrDecode)
	}

	var sb strings.Builder
	digit := new(big.Int)
	for position := 0; value.Sign() > 0; position++ {
		value.DivMod(value, c.modulus, digit)
		if digit.Cmp(c.shift) < 0 {
			return "", fmt.Errorf("%w: digit underflow at position %d", ErrDecode, position)
		}
		digit.Sub(digit, c.shift)
		if !digit.IsInt64() || digit.Int64() > utf8.MaxRune {
			return "", fmt.Errorf("%w: code point out of range at position %d", ErrDecode, position)
		}
		r := rune(digit.Int64())
		if !utf8.ValidRune(r) {
			return "", fmt.Errorf("%w: invalid code point %U at position %d", ErrDecode, r, position)
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
