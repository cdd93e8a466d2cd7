package common

import "encoding/binary"

// Serializer converts a type to a byte slice and back. Implementations with
// a fixed encoding width report it through Size; implementations producing
// variable-length encodings report a non-positive Size and may only be used
// where the caller can delimit the encoded bytes itself.
type Serializer[T any] interface {
	// ToBytes serializes the type to a byte slice.
	ToBytes(T) []byte
	// FromBytes deserializes the type from the given slice. The slice must
	// not be retained by the result.
	FromBytes([]byte) T
	// Size returns the number of bytes of the encoding, or a non-positive
	// value for variable-length encodings.
	Size() int
}

// HashSerializer is a Serializer of the Hash type
type HashSerializer struct{}

func (a HashSerializer) ToBytes(hash Hash) []byte {
	return hash[:]
}
func (a HashSerializer) FromBytes(bytes []byte) Hash {
	var hash Hash
	copy(hash[:], bytes)
	return hash
}
func (a HashSerializer) Size() int {
	return HashSize
}

// Uint64Serializer is a Serializer of the uint64 type
type Uint64Serializer struct{}

func (a Uint64Serializer) ToBytes(value uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, value)
	return bytes
}
func (a Uint64Serializer) FromBytes(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}
func (a Uint64Serializer) Size() int {
	return 8
}

// Int64Serializer is a Serializer of the int64 type, encoded in big-endian
// two's complement so that non-negative values sort lexicographically.
type Int64Serializer struct{}

func (a Int64Serializer) ToBytes(value int64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(value))
	return bytes
}
func (a Int64Serializer) FromBytes(bytes []byte) int64 {
	return int64(binary.BigEndian.Uint64(bytes))
}
func (a Int64Serializer) Size() int {
	return 8
}

// BytesSerializer is an identity Serializer for raw byte slices. Its
// encoding is variable length.
type BytesSerializer struct{}

func (a BytesSerializer) ToBytes(value []byte) []byte {
	return value
}
func (a BytesSerializer) FromBytes(bytes []byte) []byte {
	res := make([]byte, len(bytes))
	copy(res, bytes)
	return res
}
func (a BytesSerializer) Size() int {
	return -1
}
