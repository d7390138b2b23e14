package codec

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Codec)
)

// Register makes a codec available under name for use in field tags
// (`lens:",codec=name"`). Like database/sql.Register it is meant to be
// called from init and panics on a nil codec or a duplicate name.
func Register(name string, c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if c == nil {
		panic("codec: Register codec is nil")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("codec: Register called twice for codec %q", name))
	}
	registry[name] = c
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// Registered returns the sorted names of all registered codecs.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
