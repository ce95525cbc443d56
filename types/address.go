package types

import "strings"

// Address is an opaque account identifier on the hosting platform.
// The engine never interprets addresses; it only compares them and hands
// them to the asset collaborators. Comparison is case-insensitive, so
// addresses are normalized to lowercase at the boundary.
type Address string

// ZeroAddress is the empty account identifier.
const ZeroAddress Address = ""

// Addr normalizes a raw account string into an Address.
func Addr(s string) Address { return Address(strings.ToLower(strings.TrimSpace(s))) }

// IsZero returns true for the empty address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the normalized address string.
func (a Address) String() string { return string(a) }
