package common

// TableSpace divides a key-value store into disjoint spaces by prefixing
// every key with one byte.
type TableSpace byte

const (
	// HashStoreKey is the table space holding node hashes by path
	HashStoreKey TableSpace = 'H'
	// LeafStoreKey is the table space holding leaf records by path
	LeafStoreKey TableSpace = 'L'
	// KeyIndexKey is the table space mapping leaf keys to their paths
	KeyIndexKey TableSpace = 'K'
	// MetadataKey is the table space holding tree-level metadata
	MetadataKey TableSpace = 'M'
)

// ToDBKey prefixes the given key with the table space.
func (t TableSpace) ToDBKey(key []byte) []byte {
	dbKey := make([]byte, 0, len(key)+1)
	dbKey = append(dbKey, byte(t))
	return append(dbKey, key...)
}

// StrToDBKey prefixes the given string key with the table space.
func (t TableSpace) StrToDBKey(key string) []byte {
	return t.ToDBKey([]byte(key))
}

// Limit returns the smallest key beyond the whole table space, usable as the
// exclusive upper bound of a range iteration.
func (t TableSpace) Limit() []byte {
	return []byte{byte(t) + 1}
}
