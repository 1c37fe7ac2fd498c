package api

import (
	"maps"
	"slices"
)

// Inputs is the context map handed to every task invocation. It is seeded
// with the caller's inputs and receives each completed step's output keyed
// by task ID
type Inputs map[string]string

// Merge returns a new map with the receiver's entries overridden by the
// entries of other. Neither map is modified
func (i Inputs) Merge(other Inputs) Inputs {
	res := make(Inputs, len(i)+len(other))
	maps.Copy(res, i)
	maps.Copy(res, other)
	return res
}

// SortedKeys returns the input keys in lexical order
func (i Inputs) SortedKeys() []string {
	return slices.Sorted(maps.Keys(i))
}
