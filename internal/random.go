package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

const secretValueSize = 32

var errEmptySecret = errors.New("empty secret value")

// NewSecretValue returns a fresh base64url secret and its SHA-256 hash.
// Only the hash may be persisted.
func NewSecretValue() (string, [32]byte, error) {
	var raw [secretValueSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", [32]byte{}, err
	}

	value := base64.RawURLEncoding.EncodeToString(raw[:])
	return value, HashSecretValue(value), nil
}

// HashSecretValue hashes the cleartext exactly as presented by the client.
func HashSecretValue(value string) [32]byte {
	return sha256.Sum256([]byte(value))
}

// CheckSecretValue rejects values that cannot have come from NewSecretValue.
func CheckSecretValue(value string) error {
	if value == "" {
		return errEmptySecret
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return err
	}
	if len(raw) != secretValueSize {
		return errors.New("invalid secret value size")
	}
	return nil
}
