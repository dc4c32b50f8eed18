package lpm

import (
	"net/netip"

	"github.com/routekit/rangeroute/xnetip"
)

// node is a binary trie node. The two child slots are indexed by the next
// key bit, most significant bit first. A node terminates a stored prefix
// iff its nexthop is a valid address, so no separate terminal flag is
// needed.
type node struct {
	children [2]*node
	nexthop  netip.Addr
}

// trie is an uncompressed binary trie over 32-bit IPv4 keys. Depth of a
// node equals the length of the prefix it represents; the root is the /0
// prefix and may itself carry the default route.
//
// The trie is not safe for concurrent use, callers synchronize access.
type trie struct {
	root node
	size int
}

// insert stores nexthop at the node addressed by prefix, creating missing
// nodes on the way down. Inserting the same prefix again replaces the
// previous nexthop.
func (t *trie) insert(prefix netip.Prefix, nexthop netip.Addr) {
	key, _ := xnetip.Uint32(prefix.Addr())

	n := &t.root
	for depth := 0; depth < prefix.Bits(); depth++ {
		bit := key >> (31 - depth) & 1
		if n.children[bit] == nil {
			n.children[bit] = &node{}
		}
		n = n.children[bit]
	}

	if !n.nexthop.IsValid() {
		t.size++
	}
	n.nexthop = nexthop
}

// lookup walks the key bits from the root and returns the nexthop of the
// deepest visited node that has one. Depth is monotonic with prefix length,
// so the last recorded nexthop belongs to the longest matching prefix.
func (t *trie) lookup(key uint32) (netip.Addr, bool) {
	best := t.root.nexthop

	n := &t.root
	for depth := 0; depth < 32; depth++ {
		bit := key >> (31 - depth) & 1
		if n.children[bit] == nil {
			break
		}

		n = n.children[bit]
		if n.nexthop.IsValid() {
			best = n.nexthop
		}
	}

	return best, best.IsValid()
}

// walk visits every stored prefix in lexicographic key order, stopping
// early if fn returns false.
func (t *trie) walk(fn func(prefix netip.Prefix, nexthop netip.Addr) bool) {
	t.root.walk(0, 0, fn)
}

func (n *node) walk(key uint32, depth int, fn func(netip.Prefix, netip.Addr) bool) bool {
	if n.nexthop.IsValid() {
		prefix := netip.PrefixFrom(xnetip.AddrFromUint32(key), depth)
		if !fn(prefix, n.nexthop) {
			return false
		}
	}

	for bit, child := range n.children {
		if child == nil {
			continue
		}
		childKey := key | uint32(bit)<<(31-depth)
		if !child.walk(childKey, depth+1, fn) {
			return false
		}
	}

	return true
}
