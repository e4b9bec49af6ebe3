package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/quorumchain/bft/model/chain"
)

const (
	// codes for consensus state, keyed by network ID
	codeSafetyState      = 10
	codeVertexStoreState = 11
	codeEpochChange      = 12

	// codes for the reference ledger
	codeCommittedVertex = 20
	codeLedgerTip       = 21
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint64:
		return binary.BigEndian.AppendUint64(nil, i)
	case string:
		return []byte(i)
	case chain.Identifier:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
