package model

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeID identifies a grid cell by its row and column.
type NodeID struct {
	Row int
	Col int
}

// String returns the canonical "row_col" key of the node.
func (n NodeID) String() string {
	return strconv.Itoa(n.Row) + "_" + strconv.Itoa(n.Col)
}

// Less orders nodes row-major.
func (n NodeID) Less(o NodeID) bool {
	if n.Row != o.Row {
		return n.Row < o.Row
	}
	return n.Col < o.Col
}

// MarshalText encodes the node as its canonical key.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText decodes a canonical "row_col" key.
func (n *NodeID) UnmarshalText(b []byte) error {
	id, err := ParseNodeID(string(b))
	if err != nil {
		return err
	}
	*n = id
	return nil
}

// ParseNodeID parses a "row_col" key.
func ParseNodeID(s string) (NodeID, error) {
	row, col, ok := strings.Cut(s, "_")
	if !ok {
		return NodeID{}, fmt.Errorf("invalid node key %q", s)
	}
	r, err := strconv.Atoi(row)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node row in %q: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node col in %q: %w", s, err)
	}
	return NodeID{Row: r, Col: c}, nil
}

// Node is a grid cell. Capacity and AvailableCapacity are carried for
// forward compatibility; no algorithm reads them.
type Node struct {
	ID                NodeID
	Capacity          int
	AvailableCapacity int
}

// EdgeKey identifies an undirected edge. A is always the smaller endpoint so
// that (u,v) and (v,u) map to the same key.
type EdgeKey struct {
	A NodeID
	B NodeID
}

// NewEdgeKey returns the canonical key for the edge between u and v.
func NewEdgeKey(u, v NodeID) EdgeKey {
	if v.Less(u) {
		u, v = v, u
	}
	return EdgeKey{A: u, B: v}
}

func (e EdgeKey) String() string { return e.A.String() + "-" + e.B.String() }

// FormatPath renders a node sequence as "r_c>r_c>...".
func FormatPath(path []NodeID) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = n.String()
	}
	return strings.Join(parts, ">")
}
