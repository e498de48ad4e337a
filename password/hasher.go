package password

import "errors"

// Password length bounds, in bytes.
const (
	MinLength = 10
	MaxLength = 1024
)

var (
	// ErrTooShort is returned by Hash for passwords under MinLength bytes.
	ErrTooShort = errors.New("password must be at least 10 bytes")
	// ErrTooLong is returned for passwords over MaxLength bytes.
	ErrTooLong = errors.New("password must be at most 1024 bytes")
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
}

// Algorithm names accepted by New.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Options selects and tunes a Hasher.
type Options struct {
	Algorithm  string
	Argon2     Argon2Config
	BcryptCost int
}

// DefaultOptions returns Argon2id with interactive-login parameters.
func DefaultOptions() Options {
	return Options{
		Algorithm: AlgorithmArgon2id,
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		BcryptCost: 12,
	}
}

// New builds the Hasher named by opts.Algorithm.
func New(opts Options) (Hasher, error) {
	switch opts.Algorithm {
	case "", AlgorithmArgon2id:
		return NewArgon2(opts.Argon2)
	case AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost)
	default:
		return nil, errors.New("unsupported password algorithm: " + opts.Algorithm)
	}
}

func checkLength(password string) error {
	switch {
	case len(password) < MinLength:
		return ErrTooShort
	case len(password) > MaxLength:
		return ErrTooLong
	}
	return nil
}
