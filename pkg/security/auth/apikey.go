package auth

import (
	"fmt"
	"sync"
)

// ClientKeyValidator validates client-presented keys against a configured set.
type ClientKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*ClientKeyInfo
}

// NewClientKeyValidator creates a new validator seeded with the given keys.
func NewClientKeyValidator(keys []*ClientKeyInfo) *ClientKeyValidator {
	keyMap := make(map[string]*ClientKeyInfo)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	return &ClientKeyValidator{
		keys: keyMap,
	}
}

// Validate checks if the given client key is valid and returns its info.
func (v *ClientKeyValidator) Validate(key string) (*ClientKeyInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, fmt.Errorf("invalid client key")
	}

	if !info.Enabled {
		return nil, fmt.Errorf("client key disabled")
	}

	return info, nil
}

// List returns all configured client keys.
func (v *ClientKeyValidator) List() []*ClientKeyInfo {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]*ClientKeyInfo, 0, len(v.keys))
	for _, key := range v.keys {
		keys = append(keys, key)
	}
	return keys
}

// Add adds a new client key to the validator.
func (v *ClientKeyValidator) Add(info *ClientKeyInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[info.Key] = info
}

// Remove removes a client key from the validator.
func (v *ClientKeyValidator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, key)
}
