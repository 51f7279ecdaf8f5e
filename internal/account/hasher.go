package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	// Owns reports whether hash was produced by this algorithm.
	Owns(hash string) bool
}

// NewHasher returns the hasher named by PASSWORD_HASHER.
func NewHasher(name string) (PasswordHasher, error) {
	switch name {
	case "", "bcrypt":
		return BcryptHasher{Cost: 12}, nil
	case "argon2id":
		return NewArgon2Hasher(nil), nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (b BcryptHasher) Owns(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// Argon2Params are the Argon2id cost factors.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher stores hashes in PHC format: $argon2id$v=19$m=..,t=..,p=..$salt$hash
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p *Argon2Params) Argon2Hasher {
	if p == nil {
		return Argon2Hasher{params: DefaultArgon2Params}
	}
	return Argon2Hasher{params: *p}
}

func (h Argon2Hasher) Hash(pw string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}
	key := argon2.IDKey([]byte(pw), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h Argon2Hasher) Verify(hash, pw string) bool {
	p, salt, key, err := decodeArgon2(hash)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(pw), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, other) == 1
}

func (h Argon2Hasher) Owns(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	vals := strings.Split(encoded, "$")
	if len(vals) != 6 || vals[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("hash has wrong parts")
	}
	var version int
	if _, err := fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return p, nil, nil, err
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("incompatible argon2 version %d", version)
	}
	if _, err := fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return p, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil {
		return p, nil, nil, err
	}
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
