package logging

import (
	"github.com/quorumchain/bft/model/chain"
)

// Entity is anything with a content hash.
type Entity interface {
	ID() chain.Identifier
}

// ID returns the identifier of an entity as bytes for zerolog's Hex fields.
func ID(entity Entity) []byte {
	id := entity.ID()
	return id[:]
}

// IDs returns the hex form of a list of identifiers.
func IDs(ids []chain.Identifier) []string {
	ss := make([]string, 0, len(ids))
	for _, id := range ids {
		ss = append(ss, id.String())
	}
	return ss
}
