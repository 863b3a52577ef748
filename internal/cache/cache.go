package cache

// Cache stores extraction results keyed by image identifier. Entries are
// permanent: once written they are authoritative and are never expired or
// re-validated.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}
