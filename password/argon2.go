package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// Argon2Config tunes Argon2id key derivation. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Validate rejects parameters below the supported floor.
func (c Argon2Config) Validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return errors.New("argon2 memory must be >= 8192 KiB")
	case c.Time < minTimeCost:
		return errors.New("argon2 time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("argon2 parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return errors.New("argon2 salt length must be >= 16")
	case c.KeyLength < minKeyLength:
		return errors.New("argon2 key length must be >= 16")
	}
	return nil
}

// Argon2 is an Argon2id Hasher producing PHC strings.
type Argon2 struct {
	config Argon2Config
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a key with a fresh random salt. The password bytes are used
// exactly as given, without Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	if err := checkLength(password); err != nil {
		return "", err
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		AlgorithmArgon2id,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in encodedHash and
// compares in constant time.
func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	if len(password) > MaxLength {
		return false, ErrTooLong
	}
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, uint32(len(parsed.key)))
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the hasher's current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	return a.config.Memory > parsed.memory ||
		a.config.Time > parsed.time ||
		a.config.Parallelism > parsed.parallelism ||
		a.config.KeyLength != uint32(len(parsed.key)), nil
}

func parsePHC(encodedHash string) (*phc, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgorithmArgon2id {
		return nil, ErrMalformedHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version", ErrMalformedHash)
	}

	out := &phc{}
	if err := parseParams(parts[3], out); err != nil {
		return nil, err
	}

	out.salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(out.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	out.key, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(out.key) == 0 {
		return nil, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}

	return out, nil
}

func parseParams(part string, out *phc) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: bad parameters", ErrMalformedHash)
	}

	var seen int
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: bad parameter %q", ErrMalformedHash, pair)
		}

		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return fmt.Errorf("%w: bad memory", ErrMalformedHash)
			}
			out.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return fmt.Errorf("%w: bad time", ErrMalformedHash)
			}
			out.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return fmt.Errorf("%w: bad parallelism", ErrMalformedHash)
			}
			out.parallelism = uint8(n)
		default:
			return fmt.Errorf("%w: unknown parameter %q", ErrMalformedHash, k)
		}
		seen++
	}
	if seen != 3 || out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}

	return nil
}
