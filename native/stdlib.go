package native

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/r3e-network/neo-zkvm/codec"
	"github.com/r3e-network/neo-zkvm/stackitem"
)

// StdLib provides serialization and string utilities.
type StdLib struct{}

// Hash returns the well-known StdLib contract hash.
func (StdLib) Hash() [20]byte {
	return [20]byte{
		0xac, 0xce, 0x6f, 0xd8, 0x0d, 0x44, 0xe1, 0xa3, 0x92, 0x6d,
		0xe2, 0x1c, 0xcf, 0x30, 0x96, 0x9a, 0x22, 0x4b, 0xc0, 0x6b,
	}
}

func (s StdLib) Invoke(method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "serialize":
		return s.serialize(args)
	case "deserialize":
		return s.deserialize(args)
	case "jsonSerialize":
		return s.jsonSerialize(args)
	case "base64Encode":
		return s.base64Encode(args)
	case "base64Decode":
		return s.base64Decode(args)
	case "itoa":
		return s.itoa(args)
	case "atoi":
		return s.atoi(args)
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (StdLib) serialize(args []stackitem.Item) (stackitem.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("serialize requires 1 argument")
	}
	b, err := codec.Marshal(args[0])
	if err != nil {
		return nil, err
	}
	return stackitem.ByteString(b), nil
}

func (StdLib) deserialize(args []stackitem.Item) (stackitem.Item, error) {
	b, err := byteArg(args, 0)
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(b)
}

func (StdLib) jsonSerialize(args []stackitem.Item) (stackitem.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("jsonSerialize requires 1 argument")
	}
	v, err := itemToJSON(args[0])
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxInputSize {
		return nil, fmt.Errorf("jsonSerialize output of %d bytes exceeds %d", len(out), MaxInputSize)
	}
	return stackitem.ByteString(out), nil
}

// itemToJSON renders a stack item as a JSON-compatible value: integers as
// decimal strings, byte-likes as base64, maps as objects keyed by their
// byte-string rendering.
func itemToJSON(item stackitem.Item) (interface{}, error) {
	switch it := item.(type) {
	case stackitem.Null:
		return nil, nil
	case stackitem.Bool:
		return bool(it), nil
	case *stackitem.BigInteger:
		return it.Big().String(), nil
	case stackitem.ByteString:
		return base64.StdEncoding.EncodeToString(it), nil
	case *stackitem.Buffer:
		return base64.StdEncoding.EncodeToString(it.Bytes()), nil
	case *stackitem.Array:
		return itemsToJSON(it.Items())
	case *stackitem.Struct:
		return itemsToJSON(it.Items())
	case *stackitem.Map:
		out := make(map[string]interface{}, it.Len())
		for _, el := range it.Elements() {
			kb, err := stackitem.ToBytes(el.Key)
			if err != nil {
				return nil, err
			}
			v, err := itemToJSON(el.Value)
			if err != nil {
				return nil, err
			}
			out[string(kb)] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("%v is not JSON-serializable", item.Type())
}

func itemsToJSON(items []stackitem.Item) (interface{}, error) {
	out := make([]interface{}, len(items))
	for i, c := range items {
		v, err := itemToJSON(c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (StdLib) base64Encode(args []stackitem.Item) (stackitem.Item, error) {
	b, err := byteArg(args, 0)
	if err != nil {
		return nil, err
	}
	return stackitem.ByteString(base64.StdEncoding.EncodeToString(b)), nil
}

func (StdLib) base64Decode(args []stackitem.Item) (stackitem.Item, error) {
	b, err := byteArg(args, 0)
	if err != nil {
		return nil, err
	}
	out, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, err
	}
	return stackitem.ByteString(out), nil
}

func intBase(args []stackitem.Item) (int, error) {
	if len(args) < 2 {
		return 10, nil
	}
	v, err := stackitem.ToInteger(args[1])
	if err != nil {
		return 0, fmt.Errorf("base is not numeric")
	}
	base := int(v.Int64())
	if base != 2 && base != 10 && base != 16 {
		return 0, fmt.Errorf("unsupported base %d", base)
	}
	return base, nil
}

func (StdLib) itoa(args []stackitem.Item) (stackitem.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("itoa requires an Integer")
	}
	n, err := stackitem.ToInteger(args[0])
	if err != nil {
		return nil, fmt.Errorf("itoa requires an Integer")
	}
	base, err := intBase(args)
	if err != nil {
		return nil, err
	}
	return stackitem.ByteString(n.Text(base)), nil
}

func (StdLib) atoi(args []stackitem.Item) (stackitem.Item, error) {
	b, err := byteArg(args, 0)
	if err != nil {
		return nil, err
	}
	base, err := intBase(args)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(string(b)), base)
	if !ok {
		return nil, fmt.Errorf("atoi: %q is not a base-%d integer", b, base)
	}
	if !stackitem.CheckIntegerSize(n) {
		return nil, stackitem.ErrIntegerTooBig
	}
	return stackitem.NewBigInteger(n), nil
}
