package native

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

// Named curve identifiers accepted by verifyWithECDsa.
const (
	CurveSecp256k1 = 22
	CurveSecp256r1 = 23
)

// CryptoLib provides hashing and signature verification.
type CryptoLib struct{}

// Hash returns the well-known CryptoLib contract hash.
func (CryptoLib) Hash() [20]byte {
	return [20]byte{
		0x72, 0x6c, 0xb6, 0xe0, 0xcd, 0x8b, 0x0a, 0xc3, 0x3c, 0xe1,
		0xde, 0xc0, 0xd4, 0x7e, 0x5c, 0x3c, 0x4a, 0x6b, 0x8a, 0x0d,
	}
}

func (c CryptoLib) Invoke(method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "sha256":
		b, err := byteArg(args, 0)
		if err != nil {
			return nil, err
		}
		h := sha256.Sum256(b)
		return stackitem.ByteString(h[:]), nil
	case "ripemd160":
		b, err := byteArg(args, 0)
		if err != nil {
			return nil, err
		}
		h := ripemd160.New()
		h.Write(b)
		return stackitem.ByteString(h.Sum(nil)), nil
	case "verifyWithECDsa":
		return c.verifyWithECDsa(args)
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

// verifyWithECDsa(message, pubkey, signature, curve) verifies a 64-byte r‖s
// signature over the SHA-256 digest of message. Curve 23 is NIST P-256;
// curve 22 is secp256k1, delegated to go-ethereum's implementation.
func (CryptoLib) verifyWithECDsa(args []stackitem.Item) (stackitem.Item, error) {
	message, err := byteArg(args, 0)
	if err != nil {
		return nil, err
	}
	pubkey, err := byteArg(args, 1)
	if err != nil {
		return nil, err
	}
	signature, err := byteArg(args, 2)
	if err != nil {
		return nil, err
	}
	curve := int64(CurveSecp256r1)
	if len(args) >= 4 {
		v, err := stackitem.ToInteger(args[3])
		if err != nil {
			return nil, fmt.Errorf("curve is not numeric")
		}
		curve = v.Int64()
	}
	if len(signature) != 64 {
		return stackitem.Bool(false), nil
	}
	digest := sha256.Sum256(message)
	switch curve {
	case CurveSecp256r1:
		return stackitem.Bool(verifyP256(digest[:], signature, pubkey)), nil
	case CurveSecp256k1:
		return stackitem.Bool(ethcrypto.VerifySignature(pubkey, digest[:], signature)), nil
	default:
		return nil, fmt.Errorf("unsupported curve %d", curve)
	}
}

func verifyP256(digest, signature, pubkey []byte) bool {
	curve := elliptic.P256()
	var x, y *big.Int
	switch len(pubkey) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(curve, pubkey)
	case 65:
		x, y = elliptic.Unmarshal(curve, pubkey)
	default:
		return false
	}
	if x == nil {
		return false
	}
	pub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	return ecdsa.Verify(pub, digest, r, s)
}
