// Package secret implements the storage strategies for client secrets.
//
// Exactly one strategy is current at any time; it produces every new
// stored representation. A second strategy may be configured as a
// fallback for verification only, which lets an operator move an existing
// population of secrets to a stronger strategy without locking out
// clients whose rows have not been rewritten yet.
package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// A Strategy transforms a plaintext client secret into its stored
// representation and verifies candidates against stored values.
type Strategy interface {
	// Name is the identifier used to select the strategy in configuration.
	Name() string

	// Transform returns the stored representation of plaintext.
	Transform(plaintext string) (string, error)

	// Verify reports whether candidate matches the stored representation.
	Verify(stored, candidate string) bool

	// AllowsRestoringPlaintext reports whether the stored representation
	// is the plaintext itself.
	AllowsRestoringPlaintext() bool
}

// New returns the Strategy known by the given configuration name.
// An unknown name is a configuration error; callers are expected to treat
// it as fatal at startup, before any secret has been transformed.
func New(name string) (Strategy, error) {
	switch name {
	case "plain":
		return Plain{}, nil
	case "sha256":
		return SHA256{}, nil
	case "bcrypt":
		return NewBCrypt(bcrypt.DefaultCost)
	default:
		return nil, fmt.Errorf("unknown secret strategy %q", name)
	}
}

// Plain stores secrets exactly as supplied.
type Plain struct{}

func (Plain) Name() string { return "plain" }

func (Plain) Transform(plaintext string) (string, error) { return plaintext, nil }

func (Plain) Verify(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

func (Plain) AllowsRestoringPlaintext() bool { return true }

// SHA256 stores the hex encoded SHA-256 digest of the secret. The
// transform is deterministic; verification hashes the candidate and
// compares digests in constant time.
type SHA256 struct{}

func (SHA256) Name() string { return "sha256" }

func (SHA256) Transform(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

func (s SHA256) Verify(stored, candidate string) bool {
	hashed, _ := s.Transform(candidate)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(hashed)) == 1
}

func (SHA256) AllowsRestoringPlaintext() bool { return false }

// BCrypt stores a salted adaptive hash. Transforming the same plaintext
// twice produces different stored values; verification still succeeds for
// both.
type BCrypt struct {
	cost int
}

// NewBCrypt returns a BCrypt strategy with the given cost. An out of
// range cost is rejected here, at configuration time, not at verify time.
func NewBCrypt(cost int) (*BCrypt, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BCrypt{cost: cost}, nil
}

func (*BCrypt) Name() string { return "bcrypt" }

func (b *BCrypt) Transform(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (*BCrypt) Verify(stored, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
}

func (*BCrypt) AllowsRestoringPlaintext() bool { return false }
