// Package rand draws from the system RNG. Peer selection uses it so that
// a byzantine leader cannot predict which signer a replica syncs from.
package rand

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// Uint64n returns a uniform random value in [0, n). n must be positive.
func Uint64n(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("n should be strictly positive, got %d", n)
	}
	bound := n - 1
	size := 0
	for tmp := bound; tmp != 0; tmp >>= 8 {
		size++
	}
	mask := uint64(0)
	for bound&mask != bound {
		mask = (mask << 1) | 1
	}

	// rejection sampling over the bit length of bound keeps the result uniform
	var buffer [8]byte
	random := n
	for random > bound {
		buffer = [8]byte{}
		if _, err := rand.Read(buffer[:size]); err != nil {
			return 0, fmt.Errorf("crypto/rand read failed: %w", err)
		}
		random = binary.LittleEndian.Uint64(buffer[:]) & mask
	}
	return random, nil
}

// Shuffle permutes n elements in place through swap (Fisher-Yates).
func Shuffle(n int, swap func(i, j int)) error {
	for i := n - 1; i > 0; i-- {
		j, err := Uint64n(uint64(i + 1))
		if err != nil {
			return err
		}
		swap(i, int(j))
	}
	return nil
}
