package router

import "strings"

// Node is a RadixIndex node. Its label is the edge substring leading to it.
type Node struct {
	label    string
	indices  string // first byte of every child label, kept sorted
	children []*Node
	terminal bool
}

// Label returns the edge label of the node
func (n *Node) Label() string {
	return n.label
}

// IsTerminal reports whether a complete inserted word ends at this node
func (n *Node) IsTerminal() bool {
	return n.terminal
}

// Children returns the child nodes ordered by the first byte of their labels
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// childIndex returns the position of the child whose label starts with c, or -1
func (n *Node) childIndex(c byte) int {
	// indices is short (at most 256 bytes), a linear scan beats binary search here
	for i := 0; i < len(n.indices); i++ {
		if n.indices[i] == c {
			return i
		}
		if n.indices[i] > c {
			break
		}
	}
	return -1
}

// addChild inserts child keeping indices sorted
func (n *Node) addChild(child *Node) {
	c := child.label[0]
	pos := len(n.indices)
	for i := 0; i < len(n.indices); i++ {
		if n.indices[i] > c {
			pos = i
			break
		}
	}

	n.indices = n.indices[:pos] + string([]byte{c}) + n.indices[pos:]
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
}

func (n *Node) removeChild(i int) {
	n.indices = n.indices[:i] + n.indices[i+1:]
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
}

// RadixIndex is a prefix-sharing set of strings.
//
// Sibling labels never share a first byte, so at most one child can
// continue any given word and every lookup is O(depth).
// RadixIndex is not safe for concurrent mutation.
type RadixIndex struct {
	root *Node
	size int
}

// NewRadixIndex creates an empty index
func NewRadixIndex() *RadixIndex {
	return &RadixIndex{root: &Node{}}
}

// Root returns the root node (empty label)
func (t *RadixIndex) Root() *Node {
	return t.root
}

// Len returns the number of words stored
func (t *RadixIndex) Len() int {
	return t.size
}

// Insert adds word to the index
func (t *RadixIndex) Insert(word string) {
	n := t.root

	for {
		if word == "" {
			if !n.terminal {
				n.terminal = true
				t.size++
			}
			return
		}

		i := n.childIndex(word[0])
		if i < 0 {
			n.addChild(&Node{label: word, terminal: true})
			t.size++
			return
		}

		child := n.children[i]
		p := longestCommonPrefix(word, child.label)

		// Whole edge matched, descend
		if p == len(child.label) {
			n = child
			word = word[p:]
			continue
		}

		// Split the edge: a branch node takes the shared prefix and the
		// old subtree hangs below it under the leftover label.
		branch := &Node{label: child.label[:p]}
		child.label = child.label[p:]
		branch.addChild(child)
		n.children[i] = branch

		n = branch
		word = word[p:]
	}
}

// Search reports whether word was inserted
func (t *RadixIndex) Search(word string) bool {
	n := t.walk(word)
	return n != nil && n.terminal
}

// MatchPrefix returns the node reached after consuming prefix edge by edge,
// regardless of its terminal flag. It returns nil when prefix does not end
// on an edge boundary.
func (t *RadixIndex) MatchPrefix(prefix string) *Node {
	return t.walk(prefix)
}

func (t *RadixIndex) walk(word string) *Node {
	n := t.root
	for word != "" {
		i := n.childIndex(word[0])
		if i < 0 {
			return nil
		}
		child := n.children[i]
		if !strings.HasPrefix(word, child.label) {
			return nil
		}
		word = word[len(child.label):]
		n = child
	}
	return n
}

// Delete removes word and reports whether it was present.
// Emptied leaves are pruned and a non-terminal node left with a single
// child is merged into that child.
func (t *RadixIndex) Delete(word string) bool {
	if !deleteFrom(t.root, word) {
		return false
	}
	t.size--
	return true
}

func deleteFrom(n *Node, word string) bool {
	if word == "" {
		if !n.terminal {
			return false
		}
		n.terminal = false
		return true
	}

	i := n.childIndex(word[0])
	if i < 0 {
		return false
	}
	child := n.children[i]
	if !strings.HasPrefix(word, child.label) {
		return false
	}
	if !deleteFrom(child, word[len(child.label):]) {
		return false
	}

	if child.terminal {
		return true
	}
	switch len(child.children) {
	case 0:
		n.removeChild(i)
	case 1:
		// The merged label keeps child's first byte, so indices stays valid
		grandchild := child.children[0]
		grandchild.label = child.label + grandchild.label
		n.children[i] = grandchild
	}
	return true
}

// Walk calls fn for every stored word in lexical order.
// Returning false from fn stops the walk.
func (t *RadixIndex) Walk(fn func(word string) bool) {
	walkNode(t.root, "", fn)
}

func walkNode(n *Node, prefix string, fn func(string) bool) bool {
	word := prefix + n.label
	if n.terminal && !fn(word) {
		return false
	}
	for _, child := range n.children {
		if !walkNode(child, word, fn) {
			return false
		}
	}
	return true
}

// Words returns every stored word in lexical order
func (t *RadixIndex) Words() []string {
	words := make([]string, 0, t.size)
	t.Walk(func(w string) bool {
		words = append(words, w)
		return true
	})
	return words
}

func longestCommonPrefix(a, b string) int {
	i := 0
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for i < max && a[i] == b[i] {
		i++
	}
	return i
}
