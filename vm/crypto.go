package vm

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/big"

	"golang.org/x/crypto/ripemd160"
)

// CryptoHooks is the capability behind the cryptographic opcodes. The
// default implementation is pure and deterministic; a host may substitute
// accelerated or precompile-backed hooks as long as the results are
// bit-identical.
type CryptoHooks interface {
	Sha256(data []byte) []byte
	Ripemd160(data []byte) []byte
	// CheckSig verifies an ECDSA signature (r‖s, 64 bytes) over the SHA-256
	// digest of message with a SEC1-encoded P-256 public key.
	CheckSig(message, signature, pubkey []byte) bool
}

type stdCrypto struct{}

// StandardCrypto returns the default hooks.
func StandardCrypto() CryptoHooks { return stdCrypto{} }

func (stdCrypto) Sha256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func (stdCrypto) Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

func (stdCrypto) CheckSig(message, signature, pubkey []byte) bool {
	if len(signature) != 64 {
		return false
	}
	pub := decodeP256PublicKey(pubkey)
	if pub == nil {
		return false
	}
	digest := sha256.Sum256(message)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	return ecdsa.Verify(pub, digest[:], r, s)
}

func decodeP256PublicKey(b []byte) *ecdsa.PublicKey {
	curve := elliptic.P256()
	var x, y *big.Int
	switch len(b) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(curve, b)
	case 65:
		x, y = elliptic.Unmarshal(curve, b)
	default:
		return nil
	}
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
}
