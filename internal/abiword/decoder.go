// Package abiword decodes ABI-encoded contract return data without a
// contract binding. The return buffer is treated as an arena of 32-byte
// words addressed by index; dynamic fields hold byte offsets into the same
// arena. Input is the raw hex payload with the 0x prefix already stripped.
package abiword

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// WordSize is the ABI word width in bytes.
const WordSize = 32

const wordHexLen = WordSize * 2

// ErrOutOfRange is returned when an offset or length points past the end of
// the return buffer. Callers must treat this as a malformed payload, not as
// an empty field.
var ErrOutOfRange = errors.New("abiword: read past end of return data")

// ReadWord parses word index as a big-endian unsigned integer.
func ReadWord(data string, index int) (*big.Int, error) {
	w, err := wordAt(data, index)
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(w, 16)
	if !ok {
		return nil, fmt.Errorf("abiword: word %d is not valid hex", index)
	}
	return v, nil
}

// ReadUint64 reads word index as a uint64, rejecting values that overflow.
func ReadUint64(data string, index int) (uint64, error) {
	v, err := ReadWord(data, index)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("abiword: word %d overflows uint64", index)
	}
	return v.Uint64(), nil
}

// ReadInt64 reads word index as a two's-complement signed integer.
// Sensor readings (temperature in centi-degrees) can legitimately be
// negative, so the sign bit matters here.
func ReadInt64(data string, index int) (int64, error) {
	v, err := ReadWord(data, index)
	if err != nil {
		return 0, err
	}
	if v.Bit(WordSize*8-1) == 1 {
		v = new(big.Int).Sub(v, new(big.Int).Lsh(big.NewInt(1), WordSize*8))
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("abiword: word %d overflows int64", index)
	}
	return v.Int64(), nil
}

// ReadDynamicString reads the dynamic string whose head word sits at slot.
// The head word holds a byte offset, relative to the start of the tuple, to
// the string's length word; the string bytes follow in as many words as the
// length requires. A zero length yields "" without touching the tail.
func ReadDynamicString(data string, slot int) (string, error) {
	offset, err := ReadWord(data, slot)
	if err != nil {
		return "", err
	}
	// The offset and length words come off the wire. Bound them by the
	// buffer's byte size before converting to int: values near the int64
	// range would wrap the slice arithmetic below.
	byteLen := int64(len(data) / 2)
	if !offset.IsInt64() || offset.Int64()%WordSize != 0 || offset.Int64() > byteLen-WordSize {
		return "", fmt.Errorf("abiword: slot %d holds invalid offset %s: %w", slot, offset, ErrOutOfRange)
	}
	lenIndex := int(offset.Int64() / WordSize)

	length, err := ReadWord(data, lenIndex)
	if err != nil {
		return "", err
	}
	if !length.IsInt64() || length.Int64() > byteLen {
		return "", fmt.Errorf("abiword: slot %d holds invalid length %s: %w", slot, length, ErrOutOfRange)
	}
	n := int(length.Int64())
	if n == 0 {
		return "", nil
	}

	start := (lenIndex + 1) * wordHexLen
	end := start + n*2
	if end > len(data) {
		return "", fmt.Errorf("abiword: string at slot %d (%d bytes) %w", slot, n, ErrOutOfRange)
	}
	raw, err := hex.DecodeString(data[start:end])
	if err != nil {
		return "", fmt.Errorf("abiword: string at slot %d is not valid hex: %w", slot, err)
	}
	return string(raw), nil
}

func wordAt(data string, index int) (string, error) {
	// Reject the index before multiplying so a huge value cannot wrap.
	if index < 0 || index > len(data)/wordHexLen {
		return "", fmt.Errorf("abiword: word %d %w", index, ErrOutOfRange)
	}
	start := index * wordHexLen
	end := start + wordHexLen
	if end > len(data) {
		return "", fmt.Errorf("abiword: word %d %w", index, ErrOutOfRange)
	}
	return data[start:end], nil
}
