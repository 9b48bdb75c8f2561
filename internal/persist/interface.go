package persist

// KVStore is the durable key-value sink the deck is saved to.
// Read returns nil data and a nil error when the key is absent.
type KVStore interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}
