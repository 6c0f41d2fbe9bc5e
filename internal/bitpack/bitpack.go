// Package bitpack extracts fixed-width unsigned values from a big-endian,
// MSB-first bit stream.
package bitpack

// Get returns the w-bit unsigned value at logical position i within stream,
// where value i occupies bits [i*w, i*w+w) numbered from the most
// significant bit of stream[0]. w must be in [0, 32].
//
// Get never reads more than 5 bytes past byte_offset regardless of w, and
// clamps reads past the end of stream by treating absent bytes as zero, so
// callers only need a buffer sized to the logical bit range (no mandatory
// padding).
func Get(stream []byte, i int64, w int) uint32 {
	if w == 0 {
		return 0
	}

	bitOffset := i * int64(w)
	byteOffset := bitOffset / 8
	bitInByte := uint(bitOffset % 8)

	// At most 5 bytes are needed to cover bitInByte+w bits for w<=32.
	var buf [5]byte
	spanBytes := (bitInByte + uint(w) + 7) / 8
	for k := uint(0); k < spanBytes; k++ {
		idx := byteOffset + int64(k)
		if idx >= 0 && idx < int64(len(stream)) {
			buf[k] = stream[idx]
		}
	}

	var acc uint64
	for k := uint(0); k < spanBytes; k++ {
		acc = acc<<8 | uint64(buf[k])
	}

	totalBits := spanBytes * 8
	shift := totalBits - bitInByte - uint(w)
	acc >>= shift

	mask := uint64(1)<<uint(w) - 1

	return uint32(acc & mask)
}
