package native

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/r3e-network/neo-zkvm/stackitem"
)

func invoke(t *testing.T, c Contract, method string, args ...stackitem.Item) stackitem.Item {
	t.Helper()
	out, err := c.Invoke(method, args)
	require.NoError(t, err)
	return out
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	out, err := r.InvokeNative(StdLib{}.Hash(), "itoa", []stackitem.Item{stackitem.Make(255), stackitem.Make(16)})
	require.NoError(t, err)
	require.True(t, out.Equals(stackitem.ByteString("ff")))

	_, err = r.InvokeNative([20]byte{0xFF}, "itoa", nil)
	require.Error(t, err)

	_, err = r.InvokeNative(StdLib{}.Hash(), "nope", nil)
	require.Error(t, err)
}

func TestStdLibItoaAtoi(t *testing.T) {
	s := StdLib{}
	require.True(t, invoke(t, s, "itoa", stackitem.Make(-42)).Equals(stackitem.ByteString("-42")))
	require.True(t, invoke(t, s, "itoa", stackitem.Make(5), stackitem.Make(2)).Equals(stackitem.ByteString("101")))

	require.True(t, invoke(t, s, "atoi", stackitem.ByteString("-42")).Equals(stackitem.Make(-42)))
	require.True(t, invoke(t, s, "atoi", stackitem.ByteString("ff"), stackitem.Make(16)).Equals(stackitem.Make(255)))

	_, err := s.Invoke("atoi", []stackitem.Item{stackitem.ByteString("12"), stackitem.Make(8)})
	require.Error(t, err)
	_, err = s.Invoke("atoi", []stackitem.Item{stackitem.ByteString("xyz")})
	require.Error(t, err)
}

func TestStdLibBase64(t *testing.T) {
	s := StdLib{}
	encoded := invoke(t, s, "base64Encode", stackitem.ByteString("hello"))
	require.True(t, encoded.Equals(stackitem.ByteString("aGVsbG8=")))
	decoded := invoke(t, s, "base64Decode", encoded)
	require.True(t, decoded.Equals(stackitem.ByteString("hello")))

	_, err := s.Invoke("base64Decode", []stackitem.Item{stackitem.ByteString("!!")})
	require.Error(t, err)
}

func TestStdLibSerializeRoundtrip(t *testing.T) {
	s := StdLib{}
	m := stackitem.NewMap()
	m.Set(stackitem.ByteString("k"), stackitem.NewArray([]stackitem.Item{stackitem.Make(1)}))

	blob := invoke(t, s, "serialize", m)
	back := invoke(t, s, "deserialize", blob)
	require.True(t, m.Equals(back))
}

func TestStdLibJSONSerialize(t *testing.T) {
	s := StdLib{}
	arr := stackitem.NewArray([]stackitem.Item{
		stackitem.Make(7),
		stackitem.Bool(true),
		stackitem.Null{},
	})
	out := invoke(t, s, "jsonSerialize", arr)
	require.True(t, out.Equals(stackitem.ByteString(`["7",true,null]`)))
}

func TestCryptoLibHashes(t *testing.T) {
	c := CryptoLib{}
	out := invoke(t, c, "sha256", stackitem.ByteString(""))
	b, err := stackitem.ToBytes(out)
	require.NoError(t, err)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(b))

	out = invoke(t, c, "ripemd160", stackitem.ByteString(""))
	b, err = stackitem.ToBytes(out)
	require.NoError(t, err)
	require.Equal(t, "9c1185a5c5e9fc54612808977ee8f548b2258d31", hex.EncodeToString(b))
}

func TestVerifyWithECDsaP256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	message := []byte("signed payload")
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	require.NoError(t, err)

	signature := make([]byte, 64)
	r.FillBytes(signature[:32])
	s.FillBytes(signature[32:])
	pubkey := elliptic.MarshalCompressed(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)

	c := CryptoLib{}
	out := invoke(t, c, "verifyWithECDsa",
		stackitem.ByteString(message), stackitem.ByteString(pubkey),
		stackitem.ByteString(signature), stackitem.Make(CurveSecp256r1))
	require.True(t, out.Equals(stackitem.Bool(true)))

	// Flipping a message byte must fail verification.
	bad := append([]byte(nil), message...)
	bad[0] ^= 1
	out = invoke(t, c, "verifyWithECDsa",
		stackitem.ByteString(bad), stackitem.ByteString(pubkey),
		stackitem.ByteString(signature), stackitem.Make(CurveSecp256r1))
	require.True(t, out.Equals(stackitem.Bool(false)))

	// Malformed signature length verifies false, not an error.
	out = invoke(t, c, "verifyWithECDsa",
		stackitem.ByteString(message), stackitem.ByteString(pubkey),
		stackitem.ByteString("short"), stackitem.Make(CurveSecp256r1))
	require.True(t, out.Equals(stackitem.Bool(false)))

	// Unsupported curve is an error.
	_, err = c.Invoke("verifyWithECDsa", []stackitem.Item{
		stackitem.ByteString(message), stackitem.ByteString(pubkey),
		stackitem.ByteString(signature), stackitem.Make(99),
	})
	require.Error(t, err)
}
