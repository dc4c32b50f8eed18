// Package lpm implements a longest-prefix-match routing table for IPv4
// destination lookup.
//
// Routes are inserted either as CIDR prefixes or as arbitrary inclusive
// address ranges; a range is first decomposed into the minimal set of
// aligned prefixes covering it exactly. Lookup returns the nexthop of the
// most specific route containing the queried address.
package lpm

import (
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/routekit/rangeroute/xnetip"
)

// Table is a thread-safe longest-prefix-match table mapping IPv4 prefixes
// to nexthop addresses.
//
// Inserts take an exclusive lock while lookups share a read lock; an insert
// touches at most 33 nodes, so writers never hold the lock for long.
type Table struct {
	mu        sync.RWMutex
	routes    trie
	changedAt atomic.Int64
	log       *zap.SugaredLogger
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// TableOption is a function that configures the table.
type TableOption func(*options)

// WithLog sets the logger for the table.
func WithLog(log *zap.SugaredLogger) TableOption {
	return func(o *options) {
		o.Log = log
	}
}

// New creates an empty table.
func New(opts ...TableOption) *Table {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Table{log: o.Log}
	m.changedAt.Store(time.Now().UnixNano())
	return m
}

// InsertRange adds a route covering every address in [start, end] with the
// given nexthop. The range is decomposed into aligned prefixes before any
// mutation, so on error the table is left untouched.
//
// Reinserting an exact prefix produced by an earlier call replaces its
// nexthop, last write wins.
//
// Returns ErrInvalidRange if start > end and ErrInvalidAddress if any
// argument is not a well-formed IPv4 address.
func (m *Table) InsertRange(start, end, nexthop netip.Addr) error {
	m.log.Debugf("adding route range %q-%q via %q", start, end, nexthop)

	nexthop = nexthop.Unmap()
	if !nexthop.Is4() {
		return fmt.Errorf("nexthop %q: %w", nexthop, ErrInvalidAddress)
	}

	prefixes, err := xnetip.RangePrefixes(start, end)
	if err != nil {
		return fmt.Errorf("range %q-%q: %w", start, end, err)
	}

	m.mu.Lock()
	for _, prefix := range prefixes {
		m.routes.insert(prefix, nexthop)
	}
	m.mu.Unlock()
	m.changedAt.Store(time.Now().UnixNano())

	m.log.Infow("added route range",
		zap.Stringer("start", start),
		zap.Stringer("end", end),
		zap.Stringer("nexthop", nexthop),
		zap.Int("prefixes", len(prefixes)),
	)

	return nil
}

// InsertPrefix adds a single CIDR route. The prefix is masked first, so
// host bits below the prefix length are ignored.
func (m *Table) InsertPrefix(prefix netip.Prefix, nexthop netip.Addr) error {
	nexthop = nexthop.Unmap()
	if !nexthop.Is4() {
		return fmt.Errorf("nexthop %q: %w", nexthop, ErrInvalidAddress)
	}
	prefix = netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits())
	if !prefix.IsValid() || !prefix.Addr().Is4() {
		return fmt.Errorf("prefix %q: %w", prefix, ErrInvalidAddress)
	}
	prefix = prefix.Masked()

	m.mu.Lock()
	m.routes.insert(prefix, nexthop)
	m.mu.Unlock()
	m.changedAt.Store(time.Now().UnixNano())

	m.log.Infow("added route",
		zap.Stringer("prefix", prefix),
		zap.Stringer("nexthop", nexthop),
	)

	return nil
}

// Lookup returns the nexthop of the longest stored prefix containing addr.
//
// The second return value is false when no route matches, including when
// addr is not an IPv4 address.
func (m *Table) Lookup(addr netip.Addr) (netip.Addr, bool) {
	key, ok := xnetip.Uint32(addr)
	if !ok {
		return netip.Addr{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes.lookup(key)
}

// Dump returns a flat copy of all stored routes keyed by prefix.
func (m *Table) Dump() map[netip.Prefix]netip.Addr {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dump := make(map[netip.Prefix]netip.Addr, m.routes.size)
	m.routes.walk(func(prefix netip.Prefix, nexthop netip.Addr) bool {
		dump[prefix] = nexthop
		return true
	})
	return dump
}

// Len returns the number of stored prefixes.
func (m *Table) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes.size
}

// UpdatedAt returns the time of the last successful mutation.
func (m *Table) UpdatedAt() time.Time {
	return time.Unix(0, m.changedAt.Load())
}
