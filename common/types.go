package common

import (
	"bytes"
	"encoding/hex"
)

// HashSize is the number of bytes in a Hash. All supported hash algorithms
// produce digests of this width.
const HashSize = 48

// Hash is the cryptographic digest of a virtual tree node.
type Hash [HashSize]byte

// EmptyHash is the hash reported for trees without any nodes.
var EmptyHash = Hash{}

// HashFromBytes converts the input slice into a Hash. The input must be
// at most HashSize bytes long; shorter inputs are zero padded at the end.
func HashFromBytes(data []byte) Hash {
	var h Hash
	copy(h[:], data)
	return h
}

// ToBytes returns the hash as a freshly allocated byte slice.
func (h Hash) ToBytes() []byte {
	return bytes.Clone(h[:])
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Compare orders hashes lexicographically, returning -1, 0, or 1.
func (h Hash) Compare(other *Hash) int {
	return bytes.Compare(h[:], other[:])
}
