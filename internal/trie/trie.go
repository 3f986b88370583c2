// Package trie implements a fixed-width bitwise trie over unsigned integer
// keys. It backs both the host index (32-bit IPv4 addresses) and the
// per-host port index (16-bit port numbers). Nodes live in an arena and are
// addressed by index, so the structure holds no pointers and can be dropped
// or reset in one step.
package trie

import "iter"

// nilRef marks an absent child or an unset leaf value.
const nilRef = int32(-1)

type node struct {
	children [2]int32
	leaf     int32
}

// Trie is a bitwise trie of fixed key width. Each level tests one bit of
// the key, most-significant bit first, so every key resolves to a leaf in
// exactly width steps. Leaves carry an int32 value, typically an index into
// storage owned by the caller.
type Trie struct {
	width  uint
	leaves int
	nodes  []node
}

// New creates an empty trie for keys of the given bit width (32 for IPv4
// addresses, 16 for ports).
func New(width uint) *Trie {
	t := &Trie{width: width}
	t.nodes = append(t.nodes, node{children: [2]int32{nilRef, nilRef}, leaf: nilRef})
	return t
}

// Width returns the key width in bits.
func (t *Trie) Width() uint {
	return t.width
}

// Len returns the number of leaves, i.e. distinct keys inserted.
func (t *Trie) Len() int {
	return t.leaves
}

// Lookup returns the leaf value stored under key.
func (t *Trie) Lookup(key uint32) (int32, bool) {
	cur := int32(0)
	for bit := t.width; bit > 0; bit-- {
		b := (key >> (bit - 1)) & 1
		cur = t.nodes[cur].children[b]
		if cur == nilRef {
			return 0, false
		}
	}
	if t.nodes[cur].leaf == nilRef {
		return 0, false
	}
	return t.nodes[cur].leaf, true
}

// InsertOrGet returns the leaf value stored under key, allocating the path
// and a fresh leaf if the key is absent. make is invoked only on a miss and
// supplies the new leaf value. The second return reports whether a new leaf
// was created.
func (t *Trie) InsertOrGet(key uint32, make func() int32) (int32, bool) {
	cur := int32(0)
	for bit := t.width; bit > 0; bit-- {
		b := (key >> (bit - 1)) & 1
		next := t.nodes[cur].children[b]
		if next == nilRef {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, node{children: [2]int32{nilRef, nilRef}, leaf: nilRef})
			t.nodes[cur].children[b] = next
		}
		cur = next
	}
	if t.nodes[cur].leaf != nilRef {
		return t.nodes[cur].leaf, false
	}
	val := make()
	t.nodes[cur].leaf = val
	t.leaves++
	return val, true
}

// All returns an iterator over (key, leaf value) pairs in ascending numeric
// key order. The order falls out of the bit layout: walking the zero child
// before the one child at every level visits keys MSB-first.
func (t *Trie) All() iter.Seq2[uint32, int32] {
	return func(yield func(uint32, int32) bool) {
		t.walk(0, 0, t.width, yield)
	}
}

func (t *Trie) walk(cur int32, prefix uint32, remaining uint, yield func(uint32, int32) bool) bool {
	if remaining == 0 {
		if t.nodes[cur].leaf == nilRef {
			return true
		}
		return yield(prefix, t.nodes[cur].leaf)
	}
	for b := uint32(0); b < 2; b++ {
		child := t.nodes[cur].children[b]
		if child == nilRef {
			continue
		}
		if !t.walk(child, prefix<<1|b, remaining-1, yield) {
			return false
		}
	}
	return true
}

// Reset discards every node and leaf, returning the trie to its freshly
// created state. The arena backing is reused.
func (t *Trie) Reset() {
	t.nodes = t.nodes[:1]
	t.nodes[0] = node{children: [2]int32{nilRef, nilRef}, leaf: nilRef}
	t.leaves = 0
}
