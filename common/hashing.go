// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"crypto/sha512"
	"hash"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm is a configuration token selecting the digest function used
// for tree nodes. All algorithms produce HashSize byte digests, so trees
// hashed with different algorithms remain binary compatible on disk.
type HashAlgorithm struct {
	Name         string
	createHasher func() hash.Hash
}

func (a HashAlgorithm) String() string {
	return a.Name
}

var (
	// Sha384Hashing is the default algorithm for virtual tree nodes.
	Sha384Hashing = HashAlgorithm{"SHA-384", sha512.New384}

	// Sha3Hashing hashes nodes using the SHA3-384 permutation.
	Sha3Hashing = HashAlgorithm{"SHA3-384", sha3.New384}

	// Blake3Hashing hashes nodes using BLAKE3 with a 48 byte extended output.
	Blake3Hashing = HashAlgorithm{"BLAKE3-384", newBlake3Hasher}
)

// HashAlgorithmByName resolves a case-sensitive algorithm name as used in
// configurations and command line tools.
func HashAlgorithmByName(name string) (HashAlgorithm, bool) {
	for _, algorithm := range []HashAlgorithm{Sha384Hashing, Sha3Hashing, Blake3Hashing} {
		if algorithm.Name == name {
			return algorithm, true
		}
	}
	return HashAlgorithm{}, false
}

// GetHash computes the digest of the concatenation of the given byte
// segments using the provided hasher. The hasher is reset before use.
func GetHash(hasher hash.Hash, segments ...[]byte) Hash {
	hasher.Reset()
	for _, segment := range segments {
		hasher.Write(segment)
	}
	var h Hash
	hasher.Sum(h[0:0])
	return h
}

// HasherPool is a synchronised pool of hashers of a single algorithm.
// Whenever a hasher is required it is either returned from the pool, or
// created as new, if no hasher is available in the pool.
type HasherPool struct {
	algorithm HashAlgorithm
	pool      sync.Pool
}

func NewHasherPool(algorithm HashAlgorithm) *HasherPool {
	return &HasherPool{
		algorithm: algorithm,
		pool: sync.Pool{New: func() any {
			return algorithm.createHasher()
		}},
	}
}

// GetHasher returns a hasher exclusively owned by the caller until it is
// handed back through ReturnHasher.
func (p *HasherPool) GetHasher() hash.Hash {
	return p.pool.Get().(hash.Hash)
}

// ReturnHasher returns the hasher back to the pool. It is not checked if the
// method was called at most once for the same hasher. It is up to the caller.
func (p *HasherPool) ReturnHasher(hasher hash.Hash) {
	p.pool.Put(hasher)
}

// HashOf is a convenience shortcut fetching a hasher from the pool, digesting
// the given segments, and returning the hasher.
func (p *HasherPool) HashOf(segments ...[]byte) Hash {
	hasher := p.GetHasher()
	res := GetHash(hasher, segments...)
	p.ReturnHasher(hasher)
	return res
}

// blake3hasher adapts the 32 byte default output of BLAKE3 to the HashSize
// wide digest interface used for tree nodes by reading the extended output.
type blake3hasher struct {
	inner *blake3.Hasher
}

func newBlake3Hasher() hash.Hash {
	return &blake3hasher{inner: blake3.New()}
}

func (h *blake3hasher) Write(data []byte) (int, error) {
	return h.inner.Write(data)
}

func (h *blake3hasher) Sum(b []byte) []byte {
	var out [HashSize]byte
	digest := h.inner.Digest()
	_, _ = digest.Read(out[:])
	return append(b, out[:]...)
}

func (h *blake3hasher) Reset() {
	h.inner.Reset()
}

func (h *blake3hasher) Size() int {
	return HashSize
}

func (h *blake3hasher) BlockSize() int {
	return 64
}
