package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonSaltLength = 16
	argonKeyLength  = 32
	argonAlgorithm  = "argon2id"
)

// Argon2Params configures the argon2id cost. Values come from configuration
// and are validated once at construction.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

// PasswordHasher hashes and verifies passwords with argon2id. The salt is
// random per call and embedded in the PHC-formatted output, so verification
// needs nothing but the stored hash.
type PasswordHasher struct {
	params Argon2Params
}

// NewPasswordHasher creates a password hasher with the given cost parameters
func NewPasswordHasher(params Argon2Params) (*PasswordHasher, error) {
	if params.Memory < 8*1024 {
		return nil, errors.New("argon2 memory must be at least 8192 KB")
	}
	if params.Time < 1 {
		return nil, errors.New("argon2 time cost must be at least 1")
	}
	if params.Parallelism < 1 {
		return nil, errors.New("argon2 parallelism must be at least 1")
	}
	return &PasswordHasher{params: params}, nil
}

// Hash hashes a password and returns it in PHC string format
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, argonKeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonAlgorithm,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares a password against a stored hash in constant time. A
// malformed hash counts as a failed comparison, never an error.
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	memory, timeCost, parallelism, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, timeCost, memory, parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1
}

func decodeHash(encodedHash string) (memory, timeCost uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argonAlgorithm {
		return 0, 0, 0, nil, nil, errors.New("invalid hash format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid hash version")
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return 0, 0, 0, nil, nil, errors.New("invalid hash parameters")
	}
	for _, param := range params {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) != 2 {
			return 0, 0, 0, nil, nil, errors.New("invalid hash parameter entry")
		}
		switch kv[0] {
		case "m":
			v, perr := strconv.ParseUint(kv[1], 10, 32)
			if perr != nil {
				return 0, 0, 0, nil, nil, errors.New("invalid memory parameter")
			}
			memory = uint32(v)
		case "t":
			v, perr := strconv.ParseUint(kv[1], 10, 32)
			if perr != nil {
				return 0, 0, 0, nil, nil, errors.New("invalid time parameter")
			}
			timeCost = uint32(v)
		case "p":
			v, perr := strconv.ParseUint(kv[1], 10, 8)
			if perr != nil {
				return 0, 0, 0, nil, nil, errors.New("invalid parallelism parameter")
			}
			parallelism = uint8(v)
		default:
			return 0, 0, 0, nil, nil, errors.New("unsupported hash parameter")
		}
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid salt encoding")
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid key encoding")
	}

	return memory, timeCost, parallelism, salt, key, nil
}
