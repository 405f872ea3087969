// Package wire implements the fixed-width, big-endian buffer codec the
// matching core reads commands from and writes responses into.
package wire

import "encoding/binary"

// Writer appends canonical-endian integers to a growable byte slice.
// Callers size the backing slice up front via NewWriter's capacity hint;
// growth beyond that capacity still works (Go slices), it just costs a
// reallocation the caller chose not to avoid.
type Writer struct {
	buf []byte
}

// NewWriter allocates a writer with the given starting capacity.
func NewWriter(capacityHint int) *Writer {
	return &Writer{buf: make([]byte, 0, capacityHint)}
}

// NewWriterFromBuffer wraps a caller-owned buffer for appending, without
// copying it first. The buffer's existing contents are kept.
func NewWriterFromBuffer(buf []byte) *Writer {
	return &Writer{buf: buf}
}

func (w *Writer) AppendByte(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) AppendInt16(v int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) AppendInt32(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) AppendInt64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) AppendUint64(v uint64) {
	w.AppendInt64(int64(v))
}

// Bytes returns the accumulated buffer. The returned slice aliases the
// writer's internal storage — callers must not keep writing to the
// writer and mutating the returned slice concurrently.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Reader provides both a sequential cursor and random-access absolute
// reads over a fixed byte slice, mirroring the source wire format's
// read-header-then-seek-to-trailer decoding style.
type Reader struct {
	buf    []byte
	cursor int
}

func NewReader(buf []byte, offset int) *Reader {
	return &Reader{buf: buf, cursor: offset}
}

func (r *Reader) Size() int {
	return len(r.buf)
}

func (r *Reader) ReadByte() byte {
	v := r.buf[r.cursor]
	r.cursor++
	return v
}

func (r *Reader) ReadInt32() int32 {
	v := int32(binary.BigEndian.Uint32(r.buf[r.cursor : r.cursor+4]))
	r.cursor += 4
	return v
}

func (r *Reader) ReadInt64() int64 {
	v := int64(binary.BigEndian.Uint64(r.buf[r.cursor : r.cursor+8]))
	r.cursor += 8
	return v
}

func (r *Reader) ReadUint64() uint64 {
	return uint64(r.ReadInt64())
}

func (r *Reader) GetByte(offset int) byte {
	return r.buf[offset]
}

func (r *Reader) GetInt16(offset int) int16 {
	return int16(binary.BigEndian.Uint16(r.buf[offset : offset+2]))
}

func (r *Reader) GetInt32(offset int) int32 {
	return int32(binary.BigEndian.Uint32(r.buf[offset : offset+4]))
}

func (r *Reader) GetInt64(offset int) int64 {
	return int64(binary.BigEndian.Uint64(r.buf[offset : offset+8]))
}

func (r *Reader) GetUint64(offset int) uint64 {
	return uint64(r.GetInt64(offset))
}
