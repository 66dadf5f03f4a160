package btree

import (
	"encoding/binary"
	"math"
	"sort"

	"goDB/internal/bufpool"
	"goDB/internal/dberrors"
	"goDB/internal/pagefile"
)

// DefaultOrder is the default B+ tree order M (spec.md §4.4.1): a leaf
// holds up to M-1 entries, an internal node up to M-1 keys / M children.
const DefaultOrder = 500

const (
	indexMagic        = "BTREEIDX"
	indexFormatVersion = 1

	metaMagicOff   = 0
	metaVersionOff = 8
	metaOrderOff   = 12
	metaRootOff    = 16
	metaFirstLeaf  = 20
	metaCountOff   = 24
	metaUniqueOff  = 32
)

// Tree is an open, page-organized B+ tree index file.
type Tree struct {
	file   *pagefile.File
	pool   *bufpool.Pool
	fileID uint32
	meta   Meta

	order  int
	root   uint32
	first  uint32 // first leaf page id
	count  uint64
}

func maxLeafEntries(order int) int     { return order - 1 }
func maxInternalKeys(order int) int    { return order - 1 }
func minLeafEntries(order int) int     { return (order - 1 + 1) / 2 } // ceil((M-1)/2)
func minInternalChildren(order int) int {
	m := (order + 1) / 2
	if m < 2 {
		m = 2
	}
	return m
}

// Create allocates a brand-new, empty index file.
func Create(path string, fileID uint32, pool *bufpool.Pool, meta Meta, order int) (*Tree, error) {
	if order <= 2 {
		order = DefaultOrder
	}
	f, err := pagefile.Create(path)
	if err != nil {
		return nil, err
	}
	pool.Register(fileID, f)

	if _, err := f.AppendPage(); err != nil { // page 0: metadata
		return nil, err
	}
	t := &Tree{file: f, pool: pool, fileID: fileID, meta: meta, order: order}
	if err := t.writeMeta(); err != nil {
		return nil, err
	}
	return t, nil
}

// Open reopens an existing index file, validating its format version.
func Open(path string, fileID uint32, pool *bufpool.Pool, meta Meta) (*Tree, error) {
	f, err := pagefile.Open(path)
	if err != nil {
		return nil, err
	}
	pool.Register(fileID, f)
	t := &Tree{file: f, pool: pool, fileID: fileID, meta: meta}
	if err := t.readMeta(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) writeMeta() error {
	buf, err := t.pool.GetMut(t.fileID, 0)
	if err != nil {
		return err
	}
	copy(buf[metaMagicOff:], []byte(indexMagic))
	binary.LittleEndian.PutUint32(buf[metaVersionOff:], indexFormatVersion)
	binary.LittleEndian.PutUint32(buf[metaOrderOff:], uint32(t.order))
	binary.LittleEndian.PutUint32(buf[metaRootOff:], t.root)
	binary.LittleEndian.PutUint32(buf[metaFirstLeaf:], t.first)
	binary.LittleEndian.PutUint64(buf[metaCountOff:], t.count)
	if t.meta.Unique {
		buf[metaUniqueOff] = 1
	} else {
		buf[metaUniqueOff] = 0
	}
	return nil
}

func (t *Tree) readMeta() error {
	buf, err := t.pool.Get(t.fileID, 0)
	if err != nil {
		return err
	}
	if string(buf[metaMagicOff:metaMagicOff+8]) != indexMagic {
		return dberrors.ErrCorrupt
	}
	if binary.LittleEndian.Uint32(buf[metaVersionOff:]) != indexFormatVersion {
		return dberrors.ErrCorrupt
	}
	t.order = int(binary.LittleEndian.Uint32(buf[metaOrderOff:]))
	t.root = binary.LittleEndian.Uint32(buf[metaRootOff:])
	t.first = binary.LittleEndian.Uint32(buf[metaFirstLeaf:])
	t.count = binary.LittleEndian.Uint64(buf[metaCountOff:])
	t.meta.Unique = buf[metaUniqueOff] != 0
	return nil
}

// Close flushes this index's pages and closes its file.
func (t *Tree) Close() error {
	if err := t.pool.EvictFile(t.fileID); err != nil {
		return err
	}
	return t.file.Close()
}

func (t *Tree) Count() (uint64, error) { return t.count, nil }

func (t *Tree) allocPage(pageType uint8) (uint32, []byte, error) {
	id, err := t.file.AppendPage()
	if err != nil {
		return 0, nil, err
	}
	var buf []byte
	if pageType == PageTypeLeaf {
		buf = newLeafPage()
	} else {
		buf = newInternalPage()
	}
	if err := t.file.WritePage(id, buf); err != nil {
		return 0, nil, err
	}
	// Re-fetch through the pool so later GetMut calls see the same
	// cached copy we just initialized.
	cached, err := t.pool.GetMut(t.fileID, id)
	if err != nil {
		return 0, nil, err
	}
	copy(cached, buf)
	return id, cached, nil
}

// pathEntry records one step of a root-to-leaf descent: the page id
// visited and the child index taken from it.
type pathEntry struct {
	pageID     uint32
	childIndex uint32
}

// descend walks from the root to the leaf that must contain key,
// recording the path of internal nodes visited.
func (t *Tree) descend(key Key) (leafID uint32, path []pathEntry, err error) {
	if t.root == 0 {
		return 0, nil, dberrors.Newf(dberrors.KindInvariant, "btree: empty tree has no leaf")
	}
	id := t.root
	for {
		buf, err := t.pool.Get(t.fileID, id)
		if err != nil {
			return 0, nil, err
		}
		if readPageType(buf) == PageTypeLeaf {
			return id, path, nil
		}
		n := readNumKeys(buf)
		// Find first key_i > key; the child before it is the one to follow.
		idx := uint32(sort.Search(int(n), func(i int) bool {
			return key < internalKeyAt(buf, uint32(i))
		}))
		child := internalChildAt(buf, idx)
		path = append(path, pathEntry{pageID: id, childIndex: idx})
		id = child
	}
}

// Insert implements Index.Insert (spec.md §4.4.2).
func (t *Tree) Insert(key Key, rid RID) error {
	if t.root == 0 {
		id, buf, err := t.allocPage(PageTypeLeaf)
		if err != nil {
			return err
		}
		leafSetAt(buf, 0, key, rid)
		writeNumKeys(buf, 1)
		t.root = id
		t.first = id
		t.count = 1
		return t.writeMeta()
	}

	leafID, path, err := t.descend(key)
	if err != nil {
		return err
	}
	buf, err := t.pool.GetMut(t.fileID, leafID)
	if err != nil {
		return err
	}
	n := readNumKeys(buf)

	if t.meta.Unique {
		for i := uint32(0); i < n; i++ {
			if leafKeyAt(buf, i) == key {
				return dberrors.ErrDuplicateKey
			}
		}
	}

	// Sorted insert position; tie-break duplicates by RID (spec.md §4.4.2).
	pos := uint32(sort.Search(int(n), func(i int) bool {
		k := leafKeyAt(buf, uint32(i))
		if k != key {
			return k > key
		}
		return rid.Less(leafRIDAt(buf, uint32(i)))
	}))

	if int(n) < maxLeafEntries(t.order) {
		for i := n; i > pos; i-- {
			k := leafKeyAt(buf, i-1)
			r := leafRIDAt(buf, i-1)
			leafSetAt(buf, i, k, r)
		}
		leafSetAt(buf, pos, key, rid)
		writeNumKeys(buf, n+1)
		t.count++
		return t.writeMeta()
	}

	// Leaf overflow: collect all entries (existing + new), split.
	type kv struct {
		k Key
		r RID
	}
	all := make([]kv, 0, n+1)
	for i := uint32(0); i < n; i++ {
		all = append(all, kv{leafKeyAt(buf, i), leafRIDAt(buf, i)})
	}
	inserted := kv{key, rid}
	all = append(all[:pos], append([]kv{inserted}, all[pos:]...)...)

	total := len(all)
	split := total / 2
	leftEntries, rightEntries := all[:split], all[split:]

	writeNumKeys(buf, 0)
	for i, e := range leftEntries {
		leafSetAt(buf, uint32(i), e.k, e.r)
	}
	writeNumKeys(buf, uint32(len(leftEntries)))

	rightID, rightBuf, err := t.allocPage(PageTypeLeaf)
	if err != nil {
		return err
	}
	for i, e := range rightEntries {
		leafSetAt(rightBuf, uint32(i), e.k, e.r)
	}
	writeNumKeys(rightBuf, uint32(len(rightEntries)))
	writeNextLeaf(rightBuf, readNextLeaf(buf))
	writeNextLeaf(buf, rightID)

	t.count++
	sepKey := rightEntries[0].k
	if err := t.insertIntoParent(leafID, rightID, sepKey, path); err != nil {
		return err
	}
	return t.writeMeta()
}

// insertIntoParent installs a new (sepKey, rightID) separator above
// leftID, splitting the parent (and recursing upward) if needed, or
// creating a new root if leftID had no parent.
func (t *Tree) insertIntoParent(leftID, rightID uint32, sepKey Key, path []pathEntry) error {
	if len(path) == 0 {
		id, buf, err := t.allocPage(PageTypeInternal)
		if err != nil {
			return err
		}
		internalSetChild0(buf, leftID)
		internalSetKeyChild(buf, 0, sepKey, rightID)
		writeNumKeys(buf, 1)
		t.root = id
		return nil
	}

	parentEntry := path[len(path)-1]
	parentPath := path[:len(path)-1]
	buf, err := t.pool.GetMut(t.fileID, parentEntry.pageID)
	if err != nil {
		return err
	}
	n := readNumKeys(buf)

	// Collect all (child, key) pairs of the parent, then insert the new
	// key/child pair right after leftID's position.
	children := make([]uint32, n+1)
	keys := make([]Key, n)
	for i := uint32(0); i <= n; i++ {
		children[i] = internalChildAt(buf, i)
	}
	for i := uint32(0); i < n; i++ {
		keys[i] = internalKeyAt(buf, i)
	}

	insertAt := uint32(0)
	for insertAt <= n && children[insertAt] != leftID {
		insertAt++
	}

	newChildren := make([]uint32, 0, n+2)
	newChildren = append(newChildren, children[:insertAt+1]...)
	newChildren = append(newChildren, rightID)
	newChildren = append(newChildren, children[insertAt+1:]...)

	newKeys := make([]Key, 0, n+1)
	newKeys = append(newKeys, keys[:insertAt]...)
	newKeys = append(newKeys, sepKey)
	newKeys = append(newKeys, keys[insertAt:]...)

	if len(newKeys) <= maxInternalKeys(t.order) {
		internalSetChild0(buf, newChildren[0])
		for i, k := range newKeys {
			internalSetKeyChild(buf, uint32(i), k, newChildren[i+1])
		}
		writeNumKeys(buf, uint32(len(newKeys)))
		return nil
	}

	// Internal overflow: split. The middle key is promoted (not copied).
	mid := len(newKeys) / 2
	leftKeys := newKeys[:mid]
	promoted := newKeys[mid]
	rightKeys := newKeys[mid+1:]
	leftChildren := newChildren[:mid+1]
	rightChildren := newChildren[mid+1:]

	internalSetChild0(buf, leftChildren[0])
	for i, k := range leftKeys {
		internalSetKeyChild(buf, uint32(i), k, leftChildren[i+1])
	}
	writeNumKeys(buf, uint32(len(leftKeys)))

	newID, newBuf, err := t.allocPage(PageTypeInternal)
	if err != nil {
		return err
	}
	internalSetChild0(newBuf, rightChildren[0])
	for i, k := range rightKeys {
		internalSetKeyChild(newBuf, uint32(i), k, rightChildren[i+1])
	}
	writeNumKeys(newBuf, uint32(len(rightKeys)))

	return t.insertIntoParent(parentEntry.pageID, newID, promoted, parentPath)
}

// Search implements Index.Search.
func (t *Tree) Search(key Key) ([]RID, error) {
	entries, err := t.Range(key, key)
	if err != nil {
		return nil, err
	}
	var rids []RID
	for _, e := range entries {
		rids = append(rids, e.RID)
	}
	return rids, nil
}

// Range implements Index.Range: walks the leaf chain starting at the
// leaf containing lo, collecting entries until key > hi (spec.md §4.4.2).
func (t *Tree) Range(lo, hi Key) ([]Entry, error) {
	if t.root == 0 {
		return nil, nil
	}
	// Entries equal to lo may sit left of a separator equal to lo, so
	// start from the leftmost leaf that can hold lo: descend by lo-1.
	leafID := t.first
	if lo > math.MinInt64 {
		var err error
		leafID, _, err = t.descend(lo - 1)
		if err != nil {
			return nil, err
		}
	}
	var out []Entry
	for leafID != 0 {
		buf, err := t.pool.Get(t.fileID, leafID)
		if err != nil {
			return nil, err
		}
		n := readNumKeys(buf)
		done := false
		for i := uint32(0); i < n; i++ {
			k := leafKeyAt(buf, i)
			if k < lo {
				continue
			}
			if k > hi {
				done = true
				break
			}
			out = append(out, Entry{Key: k, RID: leafRIDAt(buf, i)})
		}
		if done {
			break
		}
		leafID = readNextLeaf(buf)
	}
	return out, nil
}

// Iter implements Index.Iter: the full ordered sequence via the leaf chain.
func (t *Tree) Iter() ([]Entry, error) {
	var out []Entry
	leafID := t.first
	for leafID != 0 {
		buf, err := t.pool.Get(t.fileID, leafID)
		if err != nil {
			return nil, err
		}
		n := readNumKeys(buf)
		for i := uint32(0); i < n; i++ {
			out = append(out, Entry{Key: leafKeyAt(buf, i), RID: leafRIDAt(buf, i)})
		}
		leafID = readNextLeaf(buf)
	}
	return out, nil
}

// Delete implements Index.Delete (spec.md §4.4.4): removing an absent
// (key, rid) pair is a no-op, never an error.
func (t *Tree) Delete(key Key, rid RID) error {
	if t.root == 0 {
		return nil
	}
	leafID, path, err := t.descend(key)
	if err != nil {
		return err
	}
	buf, err := t.pool.GetMut(t.fileID, leafID)
	if err != nil {
		return err
	}
	n := readNumKeys(buf)
	idx := -1
	for i := uint32(0); i < n; i++ {
		if leafKeyAt(buf, i) == key && leafRIDAt(buf, i) == rid {
			idx = int(i)
			break
		}
	}
	if idx == -1 {
		return nil
	}
	for i := uint32(idx); i < n-1; i++ {
		leafSetAt(buf, i, leafKeyAt(buf, i+1), leafRIDAt(buf, i+1))
	}
	writeNumKeys(buf, n-1)
	t.count--

	if len(path) == 0 {
		if n-1 == 0 {
			t.root = 0
			t.first = 0
		}
		return t.writeMeta()
	}
	if int(n-1) >= minLeafEntries(t.order) {
		return t.writeMeta()
	}
	if err := t.fixLeafUnderflow(leafID, path); err != nil {
		return err
	}
	return t.writeMeta()
}

// fixLeafUnderflow rebalances an underfull leaf by borrowing a sibling
// entry, or merging with a sibling when neither has spare entries.
func (t *Tree) fixLeafUnderflow(leafID uint32, path []pathEntry) error {
	parentEntry := path[len(path)-1]
	parentPath := path[:len(path)-1]
	parentBuf, err := t.pool.GetMut(t.fileID, parentEntry.pageID)
	if err != nil {
		return err
	}
	childIdx := parentEntry.childIndex
	pn := readNumKeys(parentBuf)

	if childIdx > 0 {
		leftID := internalChildAt(parentBuf, childIdx-1)
		leftBuf, err := t.pool.GetMut(t.fileID, leftID)
		if err != nil {
			return err
		}
		ln := readNumKeys(leftBuf)
		if int(ln) > minLeafEntries(t.order) {
			borrowK := leafKeyAt(leftBuf, ln-1)
			borrowR := leafRIDAt(leftBuf, ln-1)
			writeNumKeys(leftBuf, ln-1)

			leafBuf, err := t.pool.GetMut(t.fileID, leafID)
			if err != nil {
				return err
			}
			ln2 := readNumKeys(leafBuf)
			for i := ln2; i > 0; i-- {
				leafSetAt(leafBuf, i, leafKeyAt(leafBuf, i-1), leafRIDAt(leafBuf, i-1))
			}
			leafSetAt(leafBuf, 0, borrowK, borrowR)
			writeNumKeys(leafBuf, ln2+1)

			internalSetKeyChild(parentBuf, childIdx-1, borrowK, internalChildAt(parentBuf, childIdx))
			return nil
		}
	}

	if childIdx < pn {
		rightID := internalChildAt(parentBuf, childIdx+1)
		rightBuf, err := t.pool.GetMut(t.fileID, rightID)
		if err != nil {
			return err
		}
		rn := readNumKeys(rightBuf)
		if int(rn) > minLeafEntries(t.order) {
			borrowK := leafKeyAt(rightBuf, 0)
			borrowR := leafRIDAt(rightBuf, 0)
			for i := uint32(0); i < rn-1; i++ {
				leafSetAt(rightBuf, i, leafKeyAt(rightBuf, i+1), leafRIDAt(rightBuf, i+1))
			}
			writeNumKeys(rightBuf, rn-1)

			leafBuf, err := t.pool.GetMut(t.fileID, leafID)
			if err != nil {
				return err
			}
			ln2 := readNumKeys(leafBuf)
			leafSetAt(leafBuf, ln2, borrowK, borrowR)
			writeNumKeys(leafBuf, ln2+1)

			newRightFirst := leafKeyAt(rightBuf, 0)
			internalSetKeyChild(parentBuf, childIdx, newRightFirst, rightID)
			return nil
		}
	}

	if childIdx > 0 {
		leftID := internalChildAt(parentBuf, childIdx-1)
		return t.mergeLeaves(leftID, leafID, parentEntry.pageID, childIdx-1, parentPath)
	}
	rightID := internalChildAt(parentBuf, childIdx+1)
	return t.mergeLeaves(leafID, rightID, parentEntry.pageID, childIdx, parentPath)
}

// mergeLeaves folds rightID's entries into leftID, unlinks rightID from
// the leaf chain, and removes the separator key at sepIdx from the
// parent (recursing upward if that underflows the parent).
func (t *Tree) mergeLeaves(leftID, rightID uint32, parentID uint32, sepIdx uint32, parentPath []pathEntry) error {
	leftBuf, err := t.pool.GetMut(t.fileID, leftID)
	if err != nil {
		return err
	}
	rightBuf, err := t.pool.GetMut(t.fileID, rightID)
	if err != nil {
		return err
	}
	ln := readNumKeys(leftBuf)
	rn := readNumKeys(rightBuf)
	for i := uint32(0); i < rn; i++ {
		leafSetAt(leftBuf, ln+i, leafKeyAt(rightBuf, i), leafRIDAt(rightBuf, i))
	}
	writeNumKeys(leftBuf, ln+rn)
	writeNextLeaf(leftBuf, readNextLeaf(rightBuf))

	return t.removeFromInternal(parentID, sepIdx, parentPath)
}

// removeFromInternal drops key index removeKeyIdx and the child pointer
// immediately to its right from an internal node, rebalancing (or
// collapsing, if it is the root) as needed.
func (t *Tree) removeFromInternal(nodeID uint32, removeKeyIdx uint32, path []pathEntry) error {
	buf, err := t.pool.GetMut(t.fileID, nodeID)
	if err != nil {
		return err
	}
	n := readNumKeys(buf)
	children := make([]uint32, n+1)
	keys := make([]Key, n)
	for i := uint32(0); i <= n; i++ {
		children[i] = internalChildAt(buf, i)
	}
	for i := uint32(0); i < n; i++ {
		keys[i] = internalKeyAt(buf, i)
	}

	newKeys := append(append([]Key{}, keys[:removeKeyIdx]...), keys[removeKeyIdx+1:]...)
	newChildren := append(append([]uint32{}, children[:removeKeyIdx+1]...), children[removeKeyIdx+2:]...)

	internalSetChild0(buf, newChildren[0])
	for i, k := range newKeys {
		internalSetKeyChild(buf, uint32(i), k, newChildren[i+1])
	}
	writeNumKeys(buf, uint32(len(newKeys)))

	if len(path) == 0 {
		if len(newKeys) == 0 {
			t.root = newChildren[0]
		}
		return nil
	}
	if len(newKeys) >= minInternalChildren(t.order)-1 {
		return nil
	}
	return t.fixInternalUnderflow(nodeID, path)
}

// fixInternalUnderflow rebalances an underfull internal node the same
// way fixLeafUnderflow does for leaves, but routing a key through the
// parent on both borrow and merge (spec.md §4.4.1 node invariants).
func (t *Tree) fixInternalUnderflow(nodeID uint32, path []pathEntry) error {
	parentEntry := path[len(path)-1]
	parentPath := path[:len(path)-1]
	parentBuf, err := t.pool.GetMut(t.fileID, parentEntry.pageID)
	if err != nil {
		return err
	}
	childIdx := parentEntry.childIndex
	pn := readNumKeys(parentBuf)
	minKeys := minInternalChildren(t.order) - 1

	if childIdx > 0 {
		leftID := internalChildAt(parentBuf, childIdx-1)
		leftBuf, err := t.pool.GetMut(t.fileID, leftID)
		if err != nil {
			return err
		}
		ln := readNumKeys(leftBuf)
		if int(ln) > minKeys {
			nodeBuf, err := t.pool.GetMut(t.fileID, nodeID)
			if err != nil {
				return err
			}
			nn := readNumKeys(nodeBuf)

			movedChild := internalChildAt(leftBuf, ln)
			movedKey := internalKeyAt(leftBuf, ln-1)
			parentSep := internalKeyAt(parentBuf, childIdx-1)

			for i := nn; i > 0; i-- {
				internalSetKeyChild(nodeBuf, i, internalKeyAt(nodeBuf, i-1), internalChildAt(nodeBuf, i))
			}
			internalSetKeyChild(nodeBuf, 0, parentSep, internalChild0(nodeBuf))
			internalSetChild0(nodeBuf, movedChild)
			writeNumKeys(nodeBuf, nn+1)

			writeNumKeys(leftBuf, ln-1)
			internalSetKeyChild(parentBuf, childIdx-1, movedKey, internalChildAt(parentBuf, childIdx))
			return nil
		}
	}

	if childIdx < pn {
		rightID := internalChildAt(parentBuf, childIdx+1)
		rightBuf, err := t.pool.GetMut(t.fileID, rightID)
		if err != nil {
			return err
		}
		rn := readNumKeys(rightBuf)
		if int(rn) > minKeys {
			nodeBuf, err := t.pool.GetMut(t.fileID, nodeID)
			if err != nil {
				return err
			}
			nn := readNumKeys(nodeBuf)

			movedChild := internalChild0(rightBuf)
			movedKey := internalKeyAt(rightBuf, 0)
			parentSep := internalKeyAt(parentBuf, childIdx)

			internalSetKeyChild(nodeBuf, nn, parentSep, movedChild)
			writeNumKeys(nodeBuf, nn+1)

			internalSetChild0(rightBuf, internalChildAt(rightBuf, 1))
			for i := uint32(0); i < rn-1; i++ {
				internalSetKeyChild(rightBuf, i, internalKeyAt(rightBuf, i+1), internalChildAt(rightBuf, i+2))
			}
			writeNumKeys(rightBuf, rn-1)

			internalSetKeyChild(parentBuf, childIdx, movedKey, rightID)
			return nil
		}
	}

	if childIdx > 0 {
		leftID := internalChildAt(parentBuf, childIdx-1)
		return t.mergeInternals(leftID, nodeID, parentEntry.pageID, childIdx-1, parentPath)
	}
	rightID := internalChildAt(parentBuf, childIdx+1)
	return t.mergeInternals(nodeID, rightID, parentEntry.pageID, childIdx, parentPath)
}

// mergeInternals folds rightID into leftID, pulling the parent's
// separator key down between them, then removes that separator from
// the parent (recursing upward as needed).
func (t *Tree) mergeInternals(leftID, rightID uint32, parentID uint32, sepIdx uint32, parentPath []pathEntry) error {
	parentBuf, err := t.pool.GetMut(t.fileID, parentID)
	if err != nil {
		return err
	}
	sepKey := internalKeyAt(parentBuf, sepIdx)

	leftBuf, err := t.pool.GetMut(t.fileID, leftID)
	if err != nil {
		return err
	}
	rightBuf, err := t.pool.GetMut(t.fileID, rightID)
	if err != nil {
		return err
	}
	ln := readNumKeys(leftBuf)
	rn := readNumKeys(rightBuf)

	internalSetKeyChild(leftBuf, ln, sepKey, internalChild0(rightBuf))
	for i := uint32(0); i < rn; i++ {
		internalSetKeyChild(leftBuf, ln+1+i, internalKeyAt(rightBuf, i), internalChildAt(rightBuf, i+1))
	}
	writeNumKeys(leftBuf, ln+1+rn)

	return t.removeFromInternal(parentID, sepIdx, parentPath)
}
