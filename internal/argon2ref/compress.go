package argon2ref

import "math/bits"

var rowIndex, columnIndex [8][16]int

func init() {
	for i := 0; i < 8; i++ {
		for j := 0; j < 16; j++ {
			rowIndex[i][j] = 16*i + j
		}
		for k := 0; k < 8; k++ {
			columnIndex[i][2*k] = 2*i + 16*k
			columnIndex[i][2*k+1] = 2*i + 16*k + 1
		}
	}
}

// compress stores G(x, y) in dst, or XORs it into dst when xor is set.
// dst may alias x or y.
func compress(dst, x, y *block, xor bool) {
	var r block
	for i := range r {
		r[i] = x[i] ^ y[i]
	}

	z := r
	for i := range rowIndex {
		permute(&z, &rowIndex[i])
	}
	for i := range columnIndex {
		permute(&z, &columnIndex[i])
	}

	if xor {
		for i := range dst {
			dst[i] ^= z[i] ^ r[i]
		}
		return
	}
	for i := range dst {
		dst[i] = z[i] ^ r[i]
	}
}

// permute applies the BlaMka round P to the sixteen words of b named by idx.
func permute(b *block, idx *[16]int) {
	var v [16]uint64
	for i, j := range idx {
		v[i] = b[j]
	}

	mix(&v, 0, 4, 8, 12)
	mix(&v, 1, 5, 9, 13)
	mix(&v, 2, 6, 10, 14)
	mix(&v, 3, 7, 11, 15)
	mix(&v, 0, 5, 10, 15)
	mix(&v, 1, 6, 11, 12)
	mix(&v, 2, 7, 8, 13)
	mix(&v, 3, 4, 9, 14)

	for i, j := range idx {
		b[j] = v[i]
	}
}

func mix(v *[16]uint64, a, b, c, d int) {
	v[a] = blamka(v[a], v[b])
	v[d] = bits.RotateLeft64(v[d]^v[a], -32)
	v[c] = blamka(v[c], v[d])
	v[b] = bits.RotateLeft64(v[b]^v[c], -24)
	v[a] = blamka(v[a], v[b])
	v[d] = bits.RotateLeft64(v[d]^v[a], -16)
	v[c] = blamka(v[c], v[d])
	v[b] = bits.RotateLeft64(v[b]^v[c], -63)
}

func blamka(x, y uint64) uint64 {
	return x + y + 2*uint64(uint32(x))*uint64(uint32(y))
}
