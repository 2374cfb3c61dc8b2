package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrNoPath is matched by every NoPathError.
	ErrNoPath = errors.New("no path")
)

// NotFoundError is returned for queries against a node or edge that does not
// exist in the graph. It always indicates a configuration defect.
type NotFoundError struct {
	Kind string // "node" or "edge"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NoPathError is returned when no route connects two nodes.
type NoPathError struct {
	From NodeID
	To   NodeID
}

func (e *NoPathError) Error() string {
	return fmt.Sprintf("no path from %s to %s", e.From, e.To)
}

func (e *NoPathError) Unwrap() error { return ErrNoPath }
