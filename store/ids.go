package store

import "github.com/google/uuid"

// IDGenerator returns a new identifier carrying the given type prefix.
// Implementations must be safe for concurrent use.
type IDGenerator func(prefix string) string

// NewID returns prefix-<random uuid>. Random v4 ids stay unique across
// restarts, which a per-process counter would not.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// freshID draws ids until one is not taken by the collection.
func freshID(gen IDGenerator, prefix string, taken func(string) bool) string {
	for {
		id := gen(prefix)
		if !taken(id) {
			return id
		}
	}
}
