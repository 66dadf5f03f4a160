// Package table implements spec.md §4.3.1: a table file as a chain of
// slotted table pages, built on top of internal/pagefile +
// internal/bufpool + internal/record.
//
// Grounded on the teacher's internal/storage/filestore.FileEngine (one
// file per table, ListTables-style directory convention) and
// internal/storage/memstore's row-CRUD shape, rebuilt on paged storage
// with a real page chain instead of the teacher's flat row stream.
package table

import (
	"encoding/binary"

	"goDB/internal/bufpool"
	"goDB/internal/dberrors"
	"goDB/internal/pagefile"
	"goDB/internal/record"
)

// headerPage is page 0 of every table file (spec.md §4.3.1): first-page,
// page-count, record-size, slot-count-per-page.
const (
	headerFirstPage  = 0  // u32
	headerPageCount  = 4  // u32
	headerRecordSize = 8  // u16
	headerSlotCount  = 10 // u16
)

// Table is an open table file: a page chain of fixed-length slotted
// records, cached through a shared buffer pool.
type Table struct {
	file   *pagefile.File
	pool   *bufpool.Pool
	fileID uint32
	schema *record.Schema
}

// Create allocates a brand-new table file at path: a header page (page 0)
// plus one empty data page (page 1, the chain head).
func Create(path string, fileID uint32, pool *bufpool.Pool, schema *record.Schema) (*Table, error) {
	f, err := pagefile.Create(path)
	if err != nil {
		return nil, err
	}
	pool.Register(fileID, f)

	hdrID, err := f.AppendPage()
	if err != nil {
		return nil, err
	}
	if hdrID != 0 {
		return nil, dberrors.Newf(dberrors.KindInvariant, "table: expected header at page 0, got %d", hdrID)
	}

	firstID, err := f.AppendPage()
	if err != nil {
		return nil, err
	}
	firstBuf := record.NewTablePage(schema.RecordSize())
	if err := f.WritePage(firstID, firstBuf); err != nil {
		return nil, err
	}

	hdr := make([]byte, pagefile.PageSize)
	binary.LittleEndian.PutUint32(hdr[headerFirstPage:], firstID)
	binary.LittleEndian.PutUint32(hdr[headerPageCount:], 2)
	binary.LittleEndian.PutUint16(hdr[headerRecordSize:], uint16(schema.RecordSize()))
	binary.LittleEndian.PutUint16(hdr[headerSlotCount:], uint16(record.SlotCountFor(schema.RecordSize())))
	if err := f.WritePage(0, hdr); err != nil {
		return nil, err
	}

	return &Table{file: f, pool: pool, fileID: fileID, schema: schema}, nil
}

// Open reopens an existing table file.
func Open(path string, fileID uint32, pool *bufpool.Pool, schema *record.Schema) (*Table, error) {
	f, err := pagefile.Open(path)
	if err != nil {
		return nil, err
	}
	pool.Register(fileID, f)
	return &Table{file: f, pool: pool, fileID: fileID, schema: schema}, nil
}

// Remove deletes a closed table's file from disk.
func Remove(path string) error {
	return pagefile.Remove(path)
}

// Close evicts this table's pages from the shared pool (flushing dirty
// ones) and closes the underlying file.
func (t *Table) Close() error {
	if err := t.pool.EvictFile(t.fileID); err != nil {
		return err
	}
	return t.file.Close()
}

func (t *Table) firstPage() (uint32, error) {
	hdr, err := t.pool.Get(t.fileID, 0)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(hdr[headerFirstPage:]), nil
}

func (t *Table) incrementPageCount() error {
	hdr, err := t.pool.GetMut(t.fileID, 0)
	if err != nil {
		return err
	}
	n := binary.LittleEndian.Uint32(hdr[headerPageCount:])
	binary.LittleEndian.PutUint32(hdr[headerPageCount:], n+1)
	return nil
}

// Schema returns the table's schema.
func (t *Table) Schema() *record.Schema { return t.schema }

// Insert appends rec to the first page in the chain with a free slot,
// allocating a new page if the chain is full (spec.md §4.3.1).
func (t *Table) Insert(rec record.Record) (record.RID, error) {
	raw, err := t.schema.Serialize(rec)
	if err != nil {
		return record.RID{}, err
	}

	pageID, err := t.firstPage()
	if err != nil {
		return record.RID{}, err
	}

	var lastPageID uint32
	for pageID != 0 {
		buf, err := t.pool.GetMut(t.fileID, pageID)
		if err != nil {
			return record.RID{}, err
		}
		if slot, ok := record.InsertIntoFreeSlot(buf, raw); ok {
			return record.RID{Page: pageID, Slot: slot}, nil
		}
		lastPageID = pageID
		pageID = record.NextPage(buf)
	}

	// Chain exhausted: allocate a new page and link it in.
	newID, err := t.file.AppendPage()
	if err != nil {
		return record.RID{}, err
	}
	newBuf := record.NewTablePage(t.schema.RecordSize())
	slot, ok := record.InsertIntoFreeSlot(newBuf, raw)
	if !ok {
		return record.RID{}, dberrors.Newf(dberrors.KindInvariant, "table: fresh page cannot hold one record of size %d", t.schema.RecordSize())
	}
	if err := t.file.WritePage(newID, newBuf); err != nil {
		return record.RID{}, err
	}

	prevBuf, err := t.pool.GetMut(t.fileID, lastPageID)
	if err != nil {
		return record.RID{}, err
	}
	record.SetNextPage(prevBuf, newID)
	if err := t.incrementPageCount(); err != nil {
		return record.RID{}, err
	}

	return record.RID{Page: newID, Slot: slot}, nil
}

// Get reads the record at rid.
func (t *Table) Get(rid record.RID) (record.Record, error) {
	buf, err := t.pool.Get(t.fileID, rid.Page)
	if err != nil {
		return nil, err
	}
	raw, err := record.GetSlot(buf, rid.Slot)
	if err != nil {
		return nil, err
	}
	return t.schema.Deserialize(raw)
}

// Delete frees rid's slot. It is an error to delete an already-free slot.
func (t *Table) Delete(rid record.RID) error {
	buf, err := t.pool.GetMut(t.fileID, rid.Page)
	if err != nil {
		return err
	}
	return record.DeleteSlot(buf, rid.Slot)
}

// Update overwrites rid's record in place.
func (t *Table) Update(rid record.RID, rec record.Record) error {
	raw, err := t.schema.Serialize(rec)
	if err != nil {
		return err
	}
	buf, err := t.pool.GetMut(t.fileID, rid.Page)
	if err != nil {
		return err
	}
	return record.UpdateSlot(buf, rid.Slot, raw)
}

// Scanner walks a table's page chain in page order, then slot order
// (spec.md §4.3.1). It is a restartable, lazy sequence: call NewScanner
// again for a fresh pass. It must not be held across a mutating
// statement (spec.md §9).
type Scanner struct {
	t       *Table
	pageID  uint32
	slot    uint16
	started bool
}

// NewScanner creates a fresh scan positioned before the first record.
func (t *Table) NewScanner() (*Scanner, error) {
	first, err := t.firstPage()
	if err != nil {
		return nil, err
	}
	return &Scanner{t: t, pageID: first}, nil
}

// Next advances to the next live record, returning ok=false at end of
// chain.
func (s *Scanner) Next() (rid record.RID, rec record.Record, ok bool, err error) {
	for s.pageID != 0 {
		buf, err := s.t.pool.Get(s.t.fileID, s.pageID)
		if err != nil {
			return record.RID{}, nil, false, err
		}
		count := record.SlotCount(buf)
		for s.slot < count {
			i := s.slot
			s.slot++
			if !record.SlotOccupied(buf, i) {
				continue
			}
			raw := record.ReadSlot(buf, i)
			rec, err := s.t.schema.Deserialize(raw)
			if err != nil {
				return record.RID{}, nil, false, err
			}
			return record.RID{Page: s.pageID, Slot: i}, rec, true, nil
		}
		s.pageID = record.NextPage(buf)
		s.slot = 0
	}
	return record.RID{}, nil, false, nil
}

// Scan materializes every live (rid, record) pair in page/slot order.
// Prefer NewScanner directly for large tables to avoid materializing.
func (t *Table) Scan() ([]record.RID, []record.Record, error) {
	sc, err := t.NewScanner()
	if err != nil {
		return nil, nil, err
	}
	var rids []record.RID
	var recs []record.Record
	for {
		rid, rec, ok, err := sc.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		rids = append(rids, rid)
		recs = append(recs, rec)
	}
	return rids, recs, nil
}
