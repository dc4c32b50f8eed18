package xnetip

import (
	"math/rand"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRangePrefixes(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected []string
	}{
		{
			name:     "single address",
			start:    "192.168.1.1",
			end:      "192.168.1.1",
			expected: []string{"192.168.1.1/32"},
		},
		{
			name:     "full address space",
			start:    "0.0.0.0",
			end:      "255.255.255.255",
			expected: []string{"0.0.0.0/0"},
		},
		{
			name:     "aligned /24",
			start:    "192.168.0.0",
			end:      "192.168.0.255",
			expected: []string{"192.168.0.0/24"},
		},
		{
			name:     "aligned /25",
			start:    "172.16.0.0",
			end:      "172.16.0.127",
			expected: []string{"172.16.0.0/25"},
		},
		{
			name:     "aligned /16",
			start:    "10.1.0.0",
			end:      "10.1.255.255",
			expected: []string{"10.1.0.0/16"},
		},
		{
			name:     "aligned /31",
			start:    "192.168.2.0",
			end:      "192.168.2.1",
			expected: []string{"192.168.2.0/31"},
		},
		{
			name:     "lower half of address space",
			start:    "0.0.0.0",
			end:      "127.255.255.255",
			expected: []string{"0.0.0.0/1"},
		},
		{
			name:  "unaligned start",
			start: "10.0.0.1",
			end:   "10.0.0.6",
			expected: []string{
				"10.0.0.1/32",
				"10.0.0.2/31",
				"10.0.0.4/31",
				"10.0.0.6/32",
			},
		},
		{
			name:  "aligned start with ragged tail",
			start: "10.0.0.0",
			end:   "10.0.0.5",
			expected: []string{
				"10.0.0.0/30",
				"10.0.0.4/31",
			},
		},
		{
			name:  "range crossing an octet boundary",
			start: "192.168.0.128",
			end:   "192.168.1.127",
			expected: []string{
				"192.168.0.128/25",
				"192.168.1.0/25",
			},
		},
		{
			name:  "range ending at the address space limit",
			start: "255.255.255.254",
			end:   "255.255.255.255",
			expected: []string{
				"255.255.255.254/31",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefixes, err := RangePrefixes(
				netip.MustParseAddr(tt.start),
				netip.MustParseAddr(tt.end),
			)
			if err != nil {
				t.Fatalf("RangePrefixes(%s, %s) failed: %v", tt.start, tt.end, err)
			}

			got := make([]string, 0, len(prefixes))
			for _, p := range prefixes {
				got = append(got, p.String())
			}

			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("RangePrefixes(%s, %s) mismatch (-want +got):\n%s", tt.start, tt.end, diff)
			}
		})
	}
}

func TestRangePrefixesErrors(t *testing.T) {
	start := netip.MustParseAddr("10.0.0.5")
	end := netip.MustParseAddr("10.0.0.1")

	if _, err := RangePrefixes(start, end); err != ErrInvalidRange {
		t.Errorf("RangePrefixes(%s, %s) = %v, want ErrInvalidRange", start, end, err)
	}

	v6 := netip.MustParseAddr("2001:db8::1")
	if _, err := RangePrefixes(v6, v6); err != ErrInvalidAddress {
		t.Errorf("RangePrefixes(%s, %s) = %v, want ErrInvalidAddress", v6, v6, err)
	}
	if _, err := RangePrefixes(netip.Addr{}, end); err != ErrInvalidAddress {
		t.Errorf("RangePrefixes on zero addr = %v, want ErrInvalidAddress", err)
	}
}

// TestRangePrefixesProperties checks exact coverage and alignment on random
// ranges: the emitted prefixes must tile [start, end] in order with no gap,
// no overlap, and each block aligned at a multiple of its size.
func TestRangePrefixesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 1000; n++ {
		a, b := rng.Uint32(), rng.Uint32()
		if a > b {
			a, b = b, a
		}

		prefixes, err := RangePrefixes(AddrFromUint32(a), AddrFromUint32(b))
		if err != nil {
			t.Fatalf("RangePrefixes(%d, %d) failed: %v", a, b, err)
		}

		next := uint64(a)
		for _, p := range prefixes {
			base, ok := Uint32(p.Addr())
			if !ok {
				t.Fatalf("prefix %s has a non-IPv4 base", p)
			}
			if uint64(base) != next {
				t.Fatalf("prefix %s starts at %d, want %d (gap or overlap)", p, base, next)
			}

			size := uint64(1) << (32 - p.Bits())
			if uint64(base)%size != 0 {
				t.Fatalf("prefix %s is not aligned at a multiple of its size", p)
			}
			next = uint64(base) + size
		}

		if next != uint64(b)+1 {
			t.Fatalf("range [%d, %d]: coverage ends at %d, want %d", a, b, next, uint64(b)+1)
		}
	}
}

func TestLastAddr(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"0.0.0.0/0", "255.255.255.255"},
		{"10.0.0.0/8", "10.255.255.255"},
		{"192.168.0.0/16", "192.168.255.255"},
		{"192.168.1.0/24", "192.168.1.255"},
		{"192.168.1.0/25", "192.168.1.127"},
		{"192.168.1.0/30", "192.168.1.3"},
		{"192.168.1.0/31", "192.168.1.1"},
		{"192.168.1.1/32", "192.168.1.1"},
		{"172.16.0.0/12", "172.31.255.255"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			result := LastAddr(netip.MustParsePrefix(tt.prefix))
			expected := netip.MustParseAddr(tt.expected)
			if result != expected {
				t.Errorf("LastAddr(%s) = %s, want %s", tt.prefix, result, expected)
			}
		})
	}
}

func TestUint32RoundTrip(t *testing.T) {
	addrs := []string{"0.0.0.0", "0.0.0.1", "127.0.0.1", "128.0.0.0", "255.255.255.255"}

	for _, s := range addrs {
		addr := netip.MustParseAddr(s)
		u, ok := Uint32(addr)
		if !ok {
			t.Fatalf("Uint32(%s) unexpectedly failed", s)
		}
		if back := AddrFromUint32(u); back != addr {
			t.Errorf("AddrFromUint32(Uint32(%s)) = %s", s, back)
		}
	}

	if _, ok := Uint32(netip.MustParseAddr("::1")); ok {
		t.Error("Uint32 accepted an IPv6 address")
	}

	mapped := netip.MustParseAddr("::ffff:192.0.2.1")
	u, ok := Uint32(mapped)
	if !ok || AddrFromUint32(u) != netip.MustParseAddr("192.0.2.1") {
		t.Errorf("Uint32 did not unmap the 4-in-6 address, got %v, %v", u, ok)
	}
}

func BenchmarkRangePrefixes(b *testing.B) {
	start := netip.MustParseAddr("10.0.0.1")
	end := netip.MustParseAddr("10.255.255.254")

	for i := 0; i < b.N; i++ {
		if _, err := RangePrefixes(start, end); err != nil {
			b.Fatal(err)
		}
	}
}
