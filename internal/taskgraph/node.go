// Package taskgraph models a build as a small tagged tree of tasks and runs it.
//
// A Node is one of three kinds: a Leaf wrapping a single unit of work, an All
// group whose children run concurrently and must all succeed, or a Seq chain
// whose children run one after another. The same runner executes any tree, so
// a graph can be tested with stub leaves and no filesystem at all.
package taskgraph

import (
	"context"
	"fmt"
	"strings"
)

// Kind tags a Node.
type Kind int

const (
	KindLeaf Kind = iota
	KindAll
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindAll:
		return "all"
	case KindSeq:
		return "seq"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RunFunc is the unit of work of a leaf.
type RunFunc func(ctx context.Context) error

// Node is a task graph node.
type Node struct {
	Name     string
	Kind     Kind
	Fn       RunFunc // leaves only
	Children []*Node // groups only
}

// Leaf wraps fn as a named task.
func Leaf(name string, fn RunFunc) *Node {
	return &Node{Name: name, Kind: KindLeaf, Fn: fn}
}

// All groups children that have no ordering dependency among them.
func All(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindAll, Children: children}
}

// Seq chains children; each must complete before the next starts.
func Seq(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindSeq, Children: children}
}

// Validate checks the tree is well formed: leaves have work, groups have no
// work of their own, and no leaf name is used twice.
func (n *Node) Validate() error {
	seen := map[string]bool{}
	return n.validate(seen)
}

func (n *Node) validate(seen map[string]bool) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	switch n.Kind {
	case KindLeaf:
		if n.Fn == nil {
			return fmt.Errorf("leaf %q has no run function", n.Name)
		}
		if len(n.Children) > 0 {
			return fmt.Errorf("leaf %q has children", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate task name %q", n.Name)
		}
		seen[n.Name] = true
	case KindAll, KindSeq:
		if n.Fn != nil {
			return fmt.Errorf("group %q has a run function", n.Name)
		}
		for _, c := range n.Children {
			if err := c.validate(seen); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("node %q has unknown kind %s", n.Name, n.Kind)
	}
	return nil
}

// Leaves returns the names of all leaves in depth-first order.
func (n *Node) Leaves() []string {
	var out []string
	n.walk(func(x *Node) {
		if x.Kind == KindLeaf {
			out = append(out, x.Name)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// String renders the tree as a compact expression, e.g.
// build=seq(clean, all(compile=all(style, script), extra)).
func (n *Node) String() string {
	var b strings.Builder
	n.format(&b)
	return b.String()
}

func (n *Node) format(b *strings.Builder) {
	if n.Kind == KindLeaf {
		b.WriteString(n.Name)
		return
	}
	if n.Name != "" {
		b.WriteString(n.Name)
		b.WriteByte('=')
	}
	b.WriteString(n.Kind.String())
	b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		c.format(b)
	}
	b.WriteByte(')')
}
