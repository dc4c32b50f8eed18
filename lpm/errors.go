package lpm

import (
	"github.com/routekit/rangeroute/xnetip"
)

// Errors reported by table mutations. They alias the xnetip sentinels so
// errors.Is matches regardless of which layer produced the error.
var (
	// ErrInvalidAddress is returned when an address argument is not a
	// well-formed IPv4 address.
	ErrInvalidAddress = xnetip.ErrInvalidAddress
	// ErrInvalidRange is returned when a range's start address is greater
	// than its end address.
	ErrInvalidRange = xnetip.ErrInvalidRange
)
