package objectmap

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"tailscale.com/util/set"
)

// Unlimited can be passed to Print to recurse without a depth limit.
const Unlimited = -1

// ErrAtTop is returned by SelectParent when the walker is at the top node.
var ErrAtTop = errors.New("objectmap: already at the top of the hierarchy")

type frame struct {
	node Node
	name string
}

// A Walker keeps track of the path taken from the top node to the currently
// selected node. A node is active while it is on the path. Selecting a node
// that is already active means the map loops back to an ancestor.
//
// A Walker is not safe for concurrent use.
type Walker struct {
	path   []frame
	onPath set.Set[Node]
}

// NewWalker creates a walker positioned at top.
func NewWalker(name string, top Node) *Walker {
	w := &Walker{}
	w.reset(frame{node: top, name: name})

	return w
}

func (w *Walker) reset(top frame) {
	w.path = []frame{top}
	w.onPath = set.Set[Node]{}
	w.onPath.Add(top.node)
}

// Reset moves the walker back to the top node.
func (w *Walker) Reset() {
	w.reset(w.path[0])
}

// Current returns the selected node.
func (w *Walker) Current() Node {
	return w.path[len(w.path)-1].node
}

// Name returns the name of the selected node in the context of its parent.
func (w *Walker) Name() string {
	return w.path[len(w.path)-1].name
}

// Depth returns the number of selections between the top and the current
// node.
func (w *Walker) Depth() int {
	return len(w.path) - 1
}

// IsActive reports whether n is on the current path.
func (w *Walker) IsActive(n Node) bool {
	return w.onPath.Contains(n)
}

// FullPathName returns the names on the current path, joined by "/". The top
// node does not contribute to the name.
func (w *Walker) FullPathName() string {
	names := make([]string, 0, len(w.path)-1)
	for _, f := range w.path[1:] {
		names = append(names, f.name)
	}

	return strings.Join(names, "/")
}

// Select moves to the child with the given name. If there is no such child,
// the current node is returned together with false. If the child is already
// on the path, the walker moves back up to it instead of descending.
func (w *Walker) Select(name string) (Node, bool) {
	current := w.Current()

	child := Find(current, name)
	if child == nil {
		return current, false
	}

	if w.onPath.Contains(child) {
		for w.Current() != child {
			w.pop()
		}

		return child, true
	}

	w.push(child, name)

	return child, true
}

// SelectParent moves to the parent of the current node.
func (w *Walker) SelectParent() (Node, error) {
	if len(w.path) == 1 {
		return w.Current(), ErrAtTop
	}

	w.pop()

	return w.Current(), nil
}

func (w *Walker) push(n Node, name string) {
	w.path = append(w.path, frame{node: n, name: name})
	w.onPath.Add(n)
}

func (w *Walker) pop() {
	last := w.path[len(w.path)-1]
	w.path = w.path[:len(w.path)-1]
	delete(w.onPath, last.node)
}

func (w *Walker) snapshot() func() {
	saved := slices.Clone(w.path)

	return func() {
		w.path = saved
		w.onPath = set.Set[Node]{}

		for _, f := range saved {
			w.onPath.Add(f.node)
		}
	}
}

// Get returns the value of the current node.
func (w *Walker) Get() string {
	return w.Current().Get()
}

// GetVar returns the value of the named child of the current node. The
// walker position is unchanged.
func (w *Walker) GetVar(name string) (string, bool) {
	restore := w.snapshot()
	defer restore()

	n, found := w.Select(name)
	if !found {
		return "", false
	}

	return n.Get(), true
}

// Set writes value into the current node. It reports whether the node is
// read-only, in which case nothing is written.
func (w *Walker) Set(value string) (readOnly bool, err error) {
	n := w.Current()
	if n.IsReadOnly() {
		return true, nil
	}

	return false, n.Set(value)
}

// SetVar writes value into the named child of the current node. The walker
// position is unchanged, even if the write fails.
func (w *Walker) SetVar(
	name, value string,
) (found, readOnly bool, err error) {
	restore := w.snapshot()
	defer restore()

	n, found := w.Select(name)
	if !found {
		return false, false, nil
	}

	if n.IsReadOnly() {
		return true, true, nil
	}

	err = n.Set(value)
	if err != nil {
		return true, false, fmt.Errorf("set %s: %w", name, err)
	}

	return true, false, nil
}

// Print writes the current node and its descendants to out, descending at
// most maxDepth levels below the current node.
func (w *Walker) Print(out io.Writer, maxDepth int) {
	w.printRecursive(out, w.Current(), w.Name(), 0, maxDepth)
}

// PrintVar prints the named child of the current node. It returns false if
// there is no such child.
func (w *Walker) PrintVar(out io.Writer, name string, maxDepth int) bool {
	n := Find(w.Current(), name)
	if n == nil {
		return false
	}

	if w.onPath.Contains(n) {
		printLoopback(out, "", name, n)
		return true
	}

	w.onPath.Add(n)
	w.printRecursive(out, n, name, 0, maxDepth)
	delete(w.onPath, n)

	return true
}

func (w *Walker) printRecursive(
	out io.Writer,
	n Node,
	name string,
	level, maxDepth int,
) {
	indent := strings.Repeat(" ", level)

	if n.IsFundamental() {
		fmt.Fprintf(out, "%s%s = %s (%s)\n", indent, name, n.Get(), n.TypeName())
		return
	}

	fmt.Fprintf(out, "%s%s (%s)\n", indent, name, n.TypeName())

	if maxDepth != Unlimited && level > maxDepth {
		return
	}

	for _, v := range n.Variables() {
		if w.onPath.Contains(v.Node) {
			printLoopback(out, indent, v.Name, v.Node)
			continue
		}

		w.onPath.Add(v.Node)
		w.printRecursive(out, v.Node, v.Name, level+1, maxDepth)
		delete(w.onPath, v.Node)
	}
}

func printLoopback(out io.Writer, indent, name string, n Node) {
	fmt.Fprintf(out, "%s %s (%s) = <loopback>\n", indent, name, n.TypeName())
}
