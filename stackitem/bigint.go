package stackitem

import "math/big"

// FromBytes decodes a little-endian two's-complement integer of the given
// byte length. An empty slice decodes to zero.
func FromBytes(b []byte) *big.Int {
	if len(b) == 0 {
		return new(big.Int)
	}
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	x := new(big.Int).SetBytes(be)
	if b[len(b)-1]&0x80 != 0 {
		shift := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		x.Sub(x, shift)
	}
	return x
}

// IntToBytes encodes v as minimized little-endian two's complement. Zero
// encodes to an empty slice.
func IntToBytes(v *big.Int) []byte {
	sign := v.Sign()
	if sign == 0 {
		return []byte{}
	}
	if sign > 0 {
		be := v.Bytes()
		le := make([]byte, len(be))
		for i, b := range be {
			le[len(be)-1-i] = b
		}
		if le[len(le)-1]&0x80 != 0 {
			le = append(le, 0x00)
		}
		return le
	}
	n := (v.BitLen() + 7) / 8
	if n == 0 {
		n = 1
	}
	for ; ; n++ {
		shift := new(big.Int).Lsh(big.NewInt(1), uint(n*8))
		t := new(big.Int).Add(shift, v)
		if t.Sign() <= 0 {
			continue
		}
		be := t.Bytes()
		if len(be) > n {
			continue
		}
		le := make([]byte, n)
		for i, b := range be {
			le[len(be)-1-i] = b
		}
		if le[n-1]&0x80 != 0 {
			return le
		}
	}
}
