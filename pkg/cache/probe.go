package cache

import (
	"github.com/ashpect/ttlstore/pkg/serde"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const probeKey = "_burry_"

// IsSupported checks that store accepts a write and a removal and that a
// codec is available. Callers run it once before relying on a cache; the
// Cache itself never does.
func IsSupported(store storage.Storage, codec serde.Codec) bool {
	if store == nil || codec == nil {
		return false
	}
	if err := store.Save(probeKey, probeKey); err != nil {
		return false
	}
	if err := store.Remove(probeKey); err != nil {
		return false
	}
	_, err := codec.Encode(probeKey)
	return err == nil
}
