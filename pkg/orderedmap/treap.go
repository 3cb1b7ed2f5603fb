// Package orderedmap provides a keyed ordered container used for both the
// digest-file path table and the digest-to-path multi-index (spec.md §4.8).
// It is implemented as a treap: each inserted node receives a random
// priority, and rotations restore the max-heap property on priority after
// every insert or delete, giving O(log n) expected depth without the
// rotation-color bookkeeping of a hand-written red-black tree.
//
// Unlike a plain map, it supports duplicate keys: Find returns the leftmost
// node with a given key, and Successor walks through every node sharing that
// key (in insertion order, since ties in the comparator fall back to
// insertion sequence) before advancing to the next larger key. This is the
// exact contract spec.md §4.8 requires for the digest→path multi-index,
// where multiple paths can legitimately share one digest.
package orderedmap

import "math/rand"

// Node is a single entry in a Map. Its identity (pointer) is stable across
// rotations, so callers may retain a *Node returned from Insert or Find and
// later pass it to Delete or Successor.
type Node[K any, V any] struct {
	Key   K
	Value V

	left, right, parent *Node[K, V]
	priority            uint64
	// sequence is the tiebreaker the comparator falls back on for equal
	// keys, so that nodes with the same key are visited in insertion order.
	sequence uint64
}

// Map is an ordered, duplicate-key-tolerant container keyed by K with a
// caller-supplied comparator.
type Map[K any, V any] struct {
	root *Node[K, V]
	cmp  func(a, b K) int
	size int
	next uint64
	rng  *rand.Rand
}

// New constructs an empty Map using cmp to order keys. cmp must return a
// negative number, zero, or positive number as a is less than, equal to, or
// greater than b, following the usual comparator convention.
func New[K any, V any](cmp func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{
		cmp: cmp,
		rng: rand.New(rand.NewSource(1)),
	}
}

// Len returns the number of entries in the map, counting duplicate keys
// individually.
func (m *Map[K, V]) Len() int {
	return m.size
}

// full key-and-sequence ordering: ties on the caller's comparator are broken
// by insertion sequence so that equal keys form a stable FIFO chain.
func (m *Map[K, V]) less(aKey K, aSeq uint64, bKey K, bSeq uint64) bool {
	if c := m.cmp(aKey, bKey); c != 0 {
		return c < 0
	}
	return aSeq < bSeq
}

// Insert adds a key-value pair to the map, tolerating duplicate keys, and
// returns the newly created node.
func (m *Map[K, V]) Insert(key K, value V) *Node[K, V] {
	n := &Node[K, V]{
		Key:      key,
		Value:    value,
		priority: m.rng.Uint64(),
		sequence: m.next,
	}
	m.next++
	m.size++
	m.root = m.insert(m.root, n, nil)
	return n
}

func (m *Map[K, V]) insert(root, n, parent *Node[K, V]) *Node[K, V] {
	if root == nil {
		n.parent = parent
		return n
	}
	if m.less(n.Key, n.sequence, root.Key, root.sequence) {
		root.left = m.insert(root.left, n, root)
		if root.left.priority > root.priority {
			root = m.rotateRight(root)
		}
	} else {
		root.right = m.insert(root.right, n, root)
		if root.right.priority > root.priority {
			root = m.rotateLeft(root)
		}
	}
	root.parent = parent
	return root
}

func (m *Map[K, V]) rotateRight(root *Node[K, V]) *Node[K, V] {
	pivot := root.left
	root.left = pivot.right
	if root.left != nil {
		root.left.parent = root
	}
	pivot.right = root
	root.parent = pivot
	return pivot
}

func (m *Map[K, V]) rotateLeft(root *Node[K, V]) *Node[K, V] {
	pivot := root.right
	root.right = pivot.left
	if root.right != nil {
		root.right.parent = root
	}
	pivot.left = root
	root.parent = pivot
	return pivot
}

// Find returns the leftmost node whose key compares equal to key, and
// whether any such node exists. Among nodes with equal keys, "leftmost"
// coincides with earliest-inserted, satisfying the leftmost-then-successor
// contract spec.md §4.8 requires.
func (m *Map[K, V]) Find(key K) (*Node[K, V], bool) {
	node := m.root
	var candidate *Node[K, V]
	for node != nil {
		c := m.cmp(key, node.Key)
		switch {
		case c < 0:
			node = node.left
		case c > 0:
			node = node.right
		default:
			candidate = node
			node = node.left
		}
	}
	return candidate, candidate != nil
}

// Begin returns the node with the smallest key (and, among ties, the
// earliest inserted), or nil if the map is empty.
func (m *Map[K, V]) Begin() *Node[K, V] {
	return leftmost(m.root)
}

// End returns the node with the largest key (and, among ties, the latest
// inserted), or nil if the map is empty.
func (m *Map[K, V]) End() *Node[K, V] {
	return rightmost(m.root)
}

func leftmost[K any, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func rightmost[K any, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}

// Successor returns the node immediately following n in key order (walking
// through all nodes sharing n's key, in insertion order, before advancing to
// the next larger key), or nil if n is the last node.
func Successor[K any, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.right != nil {
		return leftmost(n.right)
	}
	child, parent := n, n.parent
	for parent != nil && child == parent.right {
		child, parent = parent, parent.parent
	}
	return parent
}

// Predecessor returns the node immediately preceding n in key order, or nil
// if n is the first node.
func Predecessor[K any, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.left != nil {
		return rightmost(n.left)
	}
	child, parent := n, n.parent
	for parent != nil && child == parent.left {
		child, parent = parent, parent.parent
	}
	return parent
}

// Delete removes n from the map. n must belong to m; passing a node from a
// different Map, or one already deleted, is undefined behavior.
func (m *Map[K, V]) Delete(n *Node[K, V]) {
	for n.left != nil || n.right != nil {
		if n.left == nil {
			m.rotateUp(n, false)
		} else if n.right == nil {
			m.rotateUp(n, true)
		} else if n.left.priority > n.right.priority {
			m.rotateUp(n, true)
		} else {
			m.rotateUp(n, false)
		}
	}
	m.replaceChild(n.parent, n, nil)
	m.size--
}

// rotateUp rotates one of n's children up into n's place, moving n one level
// down: the left child with a right rotation if right is true, else the
// right child with a left rotation. It is used during deletion to sift a
// node down to a leaf before unlinking it.
func (m *Map[K, V]) rotateUp(n *Node[K, V], right bool) {
	parent := n.parent
	var newSubroot *Node[K, V]
	if right {
		newSubroot = m.rotateRight(n)
	} else {
		newSubroot = m.rotateLeft(n)
	}
	m.replaceChild(parent, n, newSubroot)
	newSubroot.parent = parent
}

func (m *Map[K, V]) replaceChild(parent, oldChild, newChild *Node[K, V]) {
	if parent == nil {
		m.root = newChild
		return
	}
	if parent.left == oldChild {
		parent.left = newChild
	} else {
		parent.right = newChild
	}
}
