package btree

// Entry is one (key, rid) pair as produced by Range/Iter.
type Entry struct {
	Key Key
	RID RID
}

// Index describes the operations a B+ tree index supports (spec.md §4.4.2).
type Index interface {
	// Insert adds a mapping key -> rid. Duplicate keys are permitted
	// unless the index is Unique, in which case inserting a second
	// entry under an existing key fails with dberrors.ErrDuplicateKey
	// without mutating the tree.
	Insert(key Key, rid RID) error

	// Delete removes a specific (key, rid) mapping. Deleting an absent
	// pair is a no-op, not an error (spec.md §4.4.4).
	Delete(key Key, rid RID) error

	// Search returns all RIDs for a key, in leaf order.
	Search(key Key) ([]RID, error)

	// Range returns all (key, rid) entries with lo <= key <= hi, in
	// ascending key order, walking the leaf chain.
	Range(lo, hi Key) ([]Entry, error)

	// Iter returns every (key, rid) entry in ascending order.
	Iter() ([]Entry, error)

	// Count returns the total number of entries in the tree.
	Count() (uint64, error)

	// Close flushes and closes the index file.
	Close() error
}
