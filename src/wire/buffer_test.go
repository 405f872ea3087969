package wire

import "testing"

func TestWriterAppendRoundTrip(t *testing.T) {
	w := NewWriter(32)
	w.AppendByte(0x7f)
	w.AppendInt16(-2)
	w.AppendInt32(123456)
	w.AppendInt64(-9001)
	w.AppendUint64(18446744073709551615)

	buf := w.Bytes()
	if len(buf) != 1+2+4+8+8 {
		t.Fatalf("unexpected length: %d", len(buf))
	}

	r := NewReader(buf, 0)
	if v := r.ReadByte(); v != 0x7f {
		t.Errorf("byte: got %x", v)
	}
	if v := r.GetInt16(1); v != -2 {
		t.Errorf("int16: got %d", v)
	}
	if v := r.GetInt32(3); v != 123456 {
		t.Errorf("int32: got %d", v)
	}
	if v := r.GetInt64(7); v != -9001 {
		t.Errorf("int64: got %d", v)
	}
	if v := r.GetUint64(15); v != 18446744073709551615 {
		t.Errorf("uint64: got %d", v)
	}
}

func TestReaderSequentialCursorAdvances(t *testing.T) {
	w := NewWriter(24)
	w.AppendInt64(1)
	w.AppendInt64(2)
	w.AppendInt64(3)

	r := NewReader(w.Bytes(), 0)
	if v := r.ReadInt64(); v != 1 {
		t.Errorf("first: got %d", v)
	}
	if v := r.ReadInt64(); v != 2 {
		t.Errorf("second: got %d", v)
	}
	if v := r.ReadInt64(); v != 3 {
		t.Errorf("third: got %d", v)
	}
}

func TestWriterFromBufferPreservesPrefix(t *testing.T) {
	prefix := []byte{1, 2, 3}
	w := NewWriterFromBuffer(prefix)
	w.AppendByte(4)
	if got := w.Bytes(); len(got) != 4 || got[3] != 4 {
		t.Fatalf("unexpected buffer: %v", got)
	}
}
