package record

import (
	"encoding/binary"

	"goDB/internal/dberrors"
	"goDB/internal/pagefile"
)

// Table page header layout (spec.md §3.2), 16 bytes:
//
//	offset  size  field
//	0       4     next_page (u32)
//	4       2     slot_count (u16)
//	6       2     free_slots (u16)
//	8       2     record_size (u16)
//	10      6     padding
//
// followed by a ceil(slot_count/8)-byte slot-occupancy bitmap (bit=1
// means occupied), followed by slot_count fixed-size record slots.
const pageHeaderSize = 16

// SlotCountFor returns the largest S such that
// 16 + ceil(S/8) + S*recordSize <= PageSize (spec.md §3.2).
func SlotCountFor(recordSize int) int {
	for s := (pagefile.PageSize - pageHeaderSize) / max(recordSize, 1); s >= 0; s-- {
		bitmapBytes := (s + 7) / 8
		if pageHeaderSize+bitmapBytes+s*recordSize <= pagefile.PageSize {
			return s
		}
	}
	return 0
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func bitmapOffset() int { return pageHeaderSize }

func slotsOffset(slotCount int) int {
	return pageHeaderSize + (slotCount+7)/8
}

// NewTablePage initializes a fresh table page for the given record size,
// with next_page = 0 (no next) and every slot free.
func NewTablePage(recordSize int) []byte {
	buf := make([]byte, pagefile.PageSize)
	slotCount := SlotCountFor(recordSize)
	SetNextPage(buf, 0)
	setSlotCount(buf, uint16(slotCount))
	setFreeSlots(buf, uint16(slotCount))
	setRecordSize(buf, uint16(recordSize))
	return buf
}

func NextPage(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf[0:4]) }
func SetNextPage(buf []byte, id uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], id)
}

func SlotCount(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf[4:6]) }
func setSlotCount(buf []byte, n uint16) {
	binary.LittleEndian.PutUint16(buf[4:6], n)
}

func FreeSlots(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf[6:8]) }
func setFreeSlots(buf []byte, n uint16) {
	binary.LittleEndian.PutUint16(buf[6:8], n)
}

func RecordSize(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf[8:10]) }
func setRecordSize(buf []byte, n uint16) {
	binary.LittleEndian.PutUint16(buf[8:10], n)
}

// SlotOccupied reports whether slot i is in use.
func SlotOccupied(buf []byte, i uint16) bool {
	byteIdx := bitmapOffset() + int(i)/8
	return buf[byteIdx]&(1<<uint(i%8)) != 0
}

func setSlotOccupied(buf []byte, i uint16, occupied bool) {
	byteIdx := bitmapOffset() + int(i)/8
	bit := byte(1 << uint(i%8))
	if occupied {
		buf[byteIdx] |= bit
	} else {
		buf[byteIdx] &^= bit
	}
}

func slotOffset(buf []byte, i uint16) int {
	return slotsOffset(int(SlotCount(buf))) + int(i)*int(RecordSize(buf))
}

// ReadSlot returns a copy of slot i's raw record bytes. The slot must be
// occupied.
func ReadSlot(buf []byte, i uint16) []byte {
	off := slotOffset(buf, i)
	rs := int(RecordSize(buf))
	out := make([]byte, rs)
	copy(out, buf[off:off+rs])
	return out
}

// WriteSlot overwrites slot i's raw record bytes in place, without
// touching the occupancy bitmap (used by Update).
func WriteSlot(buf []byte, i uint16, rec []byte) {
	off := slotOffset(buf, i)
	copy(buf[off:off+len(rec)], rec)
}

// InsertIntoFreeSlot writes rec into the first free slot and marks it
// occupied, returning its index. Returns (0, false) if the page is full.
func InsertIntoFreeSlot(buf []byte, rec []byte) (uint16, bool) {
	count := SlotCount(buf)
	for i := uint16(0); i < count; i++ {
		if !SlotOccupied(buf, i) {
			WriteSlot(buf, i, rec)
			setSlotOccupied(buf, i, true)
			setFreeSlots(buf, FreeSlots(buf)-1)
			return i, true
		}
	}
	return 0, false
}

// DeleteSlot clears slot i's occupancy bit. The record bytes are left in
// place (spec.md §4.3.1: "Deletes clear the slot bit") until overwritten
// by a future insert.
func DeleteSlot(buf []byte, i uint16) error {
	if i >= SlotCount(buf) || !SlotOccupied(buf, i) {
		return dberrors.ErrInvalidRid
	}
	setSlotOccupied(buf, i, false)
	setFreeSlots(buf, FreeSlots(buf)+1)
	return nil
}

// GetSlot returns slot i's bytes, failing if the slot is out of range or
// free.
func GetSlot(buf []byte, i uint16) ([]byte, error) {
	if i >= SlotCount(buf) || !SlotOccupied(buf, i) {
		return nil, dberrors.ErrInvalidRid
	}
	return ReadSlot(buf, i), nil
}

// UpdateSlot overwrites slot i's bytes in place, failing if the slot is
// out of range or free.
func UpdateSlot(buf []byte, i uint16, rec []byte) error {
	if i >= SlotCount(buf) || !SlotOccupied(buf, i) {
		return dberrors.ErrInvalidRid
	}
	WriteSlot(buf, i, rec)
	return nil
}
