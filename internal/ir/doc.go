// Package ir provides the value and state types shared by every other
// package.
//
// Records are IRObject trees. ir imports nothing internal.
//
// Key constraints:
//   - NO float types anywhere. Use int64 for numbers
//   - Entity ids are strings; integer ids are formatted in base 10
//   - Canonical JSON (RFC 8785) is the only form that is hashed
package ir
