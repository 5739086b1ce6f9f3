package arena

import "encoding/binary"

func readU32(buf []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

func writeU32(buf []byte, off, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

// KeyBuf returns the scratch slice callers encode the current key into
// before an insert/lookup; its length is fixed at KeyBufSize.
func (a *Arena) KeyBuf() []byte {
	return a.buf[KeyBufOffset : KeyBufOffset+KeyBufSize]
}

// BatchBuf returns the scratch slice used for batch records and
// multi-word return values.
func (a *Arena) BatchBuf() []byte {
	return a.buf[BatchBufOffset : BatchBufOffset+BatchBufSize]
}
