package lpm

import (
	"fmt"
	"net/netip"
)

// RouteConfig describes a single static route in the configuration file.
//
// A route covers either an inclusive address range (start/end) or a CIDR
// prefix; exactly one of the two forms must be set.
type RouteConfig struct {
	// Start is the first address of the covered range.
	Start string `yaml:"start,omitempty"`
	// End is the last address of the covered range, inclusive.
	End string `yaml:"end,omitempty"`
	// Prefix is the covered range in CIDR form.
	Prefix string `yaml:"prefix,omitempty"`
	// NextHop is the address traffic for the covered range is forwarded to.
	NextHop string `yaml:"nexthop"`
}

// LoadRoutes inserts all configured routes into the table.
//
// Entries are applied in order, so a later entry overwrites an earlier one
// that decomposed to the same prefix. The first malformed entry aborts
// loading; routes already applied stay in the table.
func (m *Table) LoadRoutes(routes []RouteConfig) error {
	for idx, route := range routes {
		if err := m.loadRoute(route); err != nil {
			return fmt.Errorf("route #%d: %w", idx, err)
		}
	}

	return nil
}

func (m *Table) loadRoute(route RouteConfig) error {
	nexthop, err := netip.ParseAddr(route.NextHop)
	if err != nil {
		return fmt.Errorf("failed to parse nexthop %q: %w", route.NextHop, err)
	}

	switch {
	case route.Prefix != "":
		if route.Start != "" || route.End != "" {
			return fmt.Errorf("route %q sets both prefix and range bounds", route.Prefix)
		}

		prefix, err := netip.ParsePrefix(route.Prefix)
		if err != nil {
			return fmt.Errorf("failed to parse prefix %q: %w", route.Prefix, err)
		}
		return m.InsertPrefix(prefix, nexthop)

	case route.Start != "" && route.End != "":
		start, err := netip.ParseAddr(route.Start)
		if err != nil {
			return fmt.Errorf("failed to parse range start %q: %w", route.Start, err)
		}
		end, err := netip.ParseAddr(route.End)
		if err != nil {
			return fmt.Errorf("failed to parse range end %q: %w", route.End, err)
		}
		return m.InsertRange(start, end, nexthop)

	default:
		return fmt.Errorf("route must set either prefix or both start and end")
	}
}
