package buffer

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Write writes a slice of bytes to w.
func Write(w Writer, c []byte) (n int64, err error) {
	nint, err := w.Write(c)
	return int64(nint), err
}

// WriteUint8 writes a byte c to w.
func WriteUint8(w Writer, c uint8) (n int64, err error) {
	return Write(w, []byte{c})
}

// WriteUint64 writes an uint64 c to w.
func WriteUint64(w Writer, c uint64) (n int64, err error) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], c)
	return Write(w, b[:])
}

// WriteInt writes an int c to w as an uint64.
func WriteInt(w Writer, c int) (n int64, err error) {
	return WriteUint64(w, uint64(c))
}

// WriteBigInt writes c to w as a sign byte, an uint64 byte length and
// the big-endian bytes of |c|.
func WriteBigInt(w Writer, c *big.Int) (n int64, err error) {

	var inc int64

	var sign uint8
	if c.Sign() < 0 {
		sign = 1
	}

	if inc, err = WriteUint8(w, sign); err != nil {
		return n + inc, fmt.Errorf("cannot WriteBigInt: %w", err)
	}
	n += inc

	b := c.Bytes()

	if inc, err = WriteInt(w, len(b)); err != nil {
		return n + inc, fmt.Errorf("cannot WriteBigInt: %w", err)
	}
	n += inc

	if inc, err = Write(w, b); err != nil {
		return n + inc, fmt.Errorf("cannot WriteBigInt: %w", err)
	}
	n += inc

	return
}

// WriteBigIntSlice writes the length of c followed by each of its elements to w.
func WriteBigIntSlice(w Writer, c []big.Int) (n int64, err error) {

	var inc int64
	if inc, err = WriteInt(w, len(c)); err != nil {
		return n + inc, fmt.Errorf("cannot WriteBigIntSlice: %w", err)
	}
	n += inc

	for i := range c {
		if inc, err = WriteBigInt(w, &c[i]); err != nil {
			return n + inc, fmt.Errorf("cannot WriteBigIntSlice: %w", err)
		}
		n += inc
	}

	return
}
