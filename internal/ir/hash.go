package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the algorithm to change without colliding.
const (
	DomainState   = "normstate/state/v1"
	DomainCommand = "normstate/command/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator removes ambiguity at the domain/data boundary.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash computes a content hash of the state's result and entities.
// Two states with equal content hash equally, independent of map iteration
// order or structural sharing.
func StateHash(s *State) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("StateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// CommandHash computes a content hash of a command's type and wire payload.
func CommandHash(commandType string, payload IRObject) (string, error) {
	obj := IRObject{
		"type":    IRString(commandType),
		"payload": payload,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CommandHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCommand, canonical), nil
}

// MustStateHash is like StateHash but panics on error.
// Use only in tests or when the state is known to be valid.
func MustStateHash(s *State) string {
	h, err := StateHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
