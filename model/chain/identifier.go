package chain

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/quorumchain/bft/model/encoding"
)

// IdentifierLen is the length of an Identifier in bytes.
const IdentifierLen = 32

// Identifier is the content hash of an entity. Vertices, vote data and
// validators are all referenced by identifier.
type Identifier [IdentifierLen]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// MakeID creates an identifier from the canonical encoding of an entity.
func MakeID(entity interface{}) Identifier {
	return HashToID(Fingerprint(entity))
}

// Fingerprint returns the canonical encoding of an entity.
func Fingerprint(entity interface{}) []byte {
	return encoding.DefaultEncoder.MustEncode(entity)
}

// HashToID hashes arbitrary bytes with SHA3-256 into an identifier.
func HashToID(data []byte) Identifier {
	return Identifier(sha3.Sum256(data))
}

// HexStringToIdentifier converts a hex string into an identifier.
func HexStringToIdentifier(hexString string) (Identifier, error) {
	var identifier Identifier
	i, err := hex.Decode(identifier[:], []byte(hexString))
	if err != nil {
		return identifier, err
	}
	if i != IdentifierLen {
		return identifier, fmt.Errorf("malformed input, expected %d bytes (%d characters), decoded %d", IdentifierLen, hex.EncodedLen(IdentifierLen), i)
	}
	return identifier, nil
}

// String returns the hex string representation of the identifier.
func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// TerminalString returns a shortened form suitable for log lines.
func (id Identifier) TerminalString() string {
	return hex.EncodeToString(id[:4])
}

// IsZero reports whether the identifier is the zero value.
func (id Identifier) IsZero() bool {
	return id == ZeroID
}

// MarshalText returns the hex form so identifiers read well in JSON and logs.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a hex encoded identifier.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := HexStringToIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
