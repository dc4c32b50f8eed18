// Package xnetip provides IPv4 prefix arithmetic on top of net/netip.
package xnetip

import (
	"encoding/binary"
	"errors"
	"math/bits"
	"net/netip"
)

var (
	// ErrInvalidAddress is returned when an address is not a well-formed
	// IPv4 address.
	ErrInvalidAddress = errors.New("invalid address: not an IPv4 address")
	// ErrInvalidRange is returned when a range's start address is greater
	// than its end address.
	ErrInvalidRange = errors.New("invalid range: start address is greater than end address")
)

// Uint32 returns the IPv4 address as a big-endian 32-bit integer.
//
// The second return value is false if addr is not an IPv4 address.
// IPv4-mapped IPv6 addresses are accepted and unmapped first.
func Uint32(addr netip.Addr) (uint32, bool) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, false
	}

	v4 := addr.As4()
	return binary.BigEndian.Uint32(v4[:]), true
}

// AddrFromUint32 is the inverse of Uint32.
func AddrFromUint32(u uint32) netip.Addr {
	var v4 [4]byte
	binary.BigEndian.PutUint32(v4[:], u)
	return netip.AddrFrom4(v4)
}

// RangePrefixes decomposes the inclusive address range [start, end] into the
// minimal ordered set of CIDR-aligned prefixes whose union is exactly the
// range.
//
// Prefixes are returned in ascending address order. Each returned prefix is
// aligned at a multiple of its own block size, so it can be stored in a
// prefix trie as-is. A single-address range yields one /32, and the full
// address space yields the single default route 0.0.0.0/0.
//
// Returns ErrInvalidAddress if either bound is not IPv4 and ErrInvalidRange
// if start > end.
func RangePrefixes(start, end netip.Addr) ([]netip.Prefix, error) {
	first, ok := Uint32(start)
	if !ok {
		return nil, ErrInvalidAddress
	}
	last, ok := Uint32(end)
	if !ok {
		return nil, ErrInvalidAddress
	}
	if first > last {
		return nil, ErrInvalidRange
	}

	// 64-bit bounds so that block sizes up to 2^32 (the whole address
	// space) need no special casing.
	lo := uint64(first)
	hi := uint64(last)

	// Greedy cover: at each step emit the largest block that starts at lo,
	// is aligned there and does not run past hi. Each of the 32 bit
	// positions contributes at most two blocks, so the result is minimal.
	prefixes := make([]netip.Prefix, 0, 1)
	for lo <= hi {
		align := bits.TrailingZeros64(lo)
		if lo == 0 {
			align = 32
		}
		size := bits.Len64(hi-lo+1) - 1
		order := min(align, size)

		prefixes = append(prefixes, netip.PrefixFrom(AddrFromUint32(uint32(lo)), 32-order))
		lo += 1 << order
	}

	return prefixes, nil
}

// LastAddr returns the last address covered by an IPv4 prefix, that is its
// broadcast address. The /32 prefix maps to its own address.
func LastAddr(prefix netip.Prefix) netip.Addr {
	addr, ok := Uint32(prefix.Addr())
	if !ok {
		return netip.Addr{}
	}

	// The shift is 32 for the /0 prefix, which in Go yields zero, so the
	// wildcard underflows to all-ones exactly as needed.
	wildcard := uint32(1)<<(32-prefix.Bits()) - 1
	return AddrFromUint32(addr | wildcard)
}
