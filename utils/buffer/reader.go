package buffer

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// MaxBigIntBytes bounds the byte length of a single integer accepted by [ReadBigInt].
const MaxBigIntBytes = 1 << 16

// MaxSliceLength bounds the number of elements accepted by [ReadBigIntSlice].
const MaxSliceLength = 1 << 24

// ReadUint8 reads a byte and stores it on c.
func ReadUint8(r Reader, c *uint8) (n int64, err error) {
	var b [1]byte
	nint, err := io.ReadFull(r, b[:])
	*c = b[0]
	return int64(nint), err
}

// ReadUint64 reads an uint64 and stores it on c.
func ReadUint64(r Reader, c *uint64) (n int64, err error) {
	var b [8]byte
	nint, err := io.ReadFull(r, b[:])
	*c = binary.LittleEndian.Uint64(b[:])
	return int64(nint), err
}

// ReadInt reads an int, written as an uint64, and stores it on c.
func ReadInt(r Reader, c *int) (n int64, err error) {
	var u uint64
	n, err = ReadUint64(r, &u)
	*c = int(u)
	return
}

// ReadBigInt reads an integer written by [WriteBigInt] and stores it on c.
func ReadBigInt(r Reader, c *big.Int) (n int64, err error) {

	var inc int64

	var sign uint8
	if inc, err = ReadUint8(r, &sign); err != nil {
		return n + inc, fmt.Errorf("cannot ReadBigInt: %w", err)
	}
	n += inc

	if sign > 1 {
		return n, fmt.Errorf("cannot ReadBigInt: invalid sign byte %d", sign)
	}

	var size int
	if inc, err = ReadInt(r, &size); err != nil {
		return n + inc, fmt.Errorf("cannot ReadBigInt: %w", err)
	}
	n += inc

	if size < 0 || size > MaxBigIntBytes {
		return n, fmt.Errorf("cannot ReadBigInt: invalid length %d", size)
	}

	b := make([]byte, size)
	nint, err := io.ReadFull(r, b)
	n += int64(nint)
	if err != nil {
		return n, fmt.Errorf("cannot ReadBigInt: %w", err)
	}

	c.SetBytes(b)
	if sign == 1 {
		c.Neg(c)
	}

	return
}

// ReadBigIntSlice reads a slice written by [WriteBigIntSlice].
func ReadBigIntSlice(r Reader, c *[]big.Int) (n int64, err error) {

	var inc int64

	var size int
	if inc, err = ReadInt(r, &size); err != nil {
		return n + inc, fmt.Errorf("cannot ReadBigIntSlice: %w", err)
	}
	n += inc

	if size < 0 || size > MaxSliceLength {
		return n, fmt.Errorf("cannot ReadBigIntSlice: invalid length %d", size)
	}

	if cap(*c) < size {
		*c = make([]big.Int, size)
	}
	*c = (*c)[:size]

	for i := range *c {
		if inc, err = ReadBigInt(r, &(*c)[i]); err != nil {
			return n + inc, fmt.Errorf("cannot ReadBigIntSlice: %w", err)
		}
		n += inc
	}

	return
}
