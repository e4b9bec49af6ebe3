package encoding

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encoder turns consensus values into bytes and back. Decode errors when
// the bytes do not fit the target type.
type Encoder interface {
	Encode(interface{}) ([]byte, error)
	Decode([]byte, interface{}) error
	// MustEncode panics on unsupported types. Use it only for values whose
	// encoding cannot fail, such as the structs hashed for IDs.
	MustEncode(interface{}) []byte
}

// DefaultEncoder is the canonical CBOR encoder. Content hashes and persisted
// consensus state are both produced with it, so two honest replicas always
// derive the same bytes for the same value.
var DefaultEncoder Encoder = newCBOREncoder()

type cborEncoder struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBOREncoder() *cborEncoder {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not create canonical cbor encoder: %v", err))
	}
	dec, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		MaxMapPairs: 1 << 20,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("could not create cbor decoder: %v", err))
	}
	return &cborEncoder{enc: enc, dec: dec}
}

func (c *cborEncoder) Encode(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *cborEncoder) Decode(b []byte, v interface{}) error {
	return c.dec.Unmarshal(b, v)
}

func (c *cborEncoder) MustEncode(v interface{}) []byte {
	b, err := c.Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}
