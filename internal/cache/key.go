// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMissingKey is returned when projecting a key the cache does not hold.
var ErrMissingKey = errors.New("key does not exist in key cache")

// KeyCache is a sealed flat JSON object of string keys to string values.
// Key order is kept as read from disk, with new keys appended.
type KeyCache struct {
	*Base
	keys   []string
	values map[string]string
}

// NewKeyCache opens the key-value cache at path. A missing, empty or corrupt
// file yields an empty cache.
func NewKeyCache(ctx context.Context, path string, opts ...Option) *KeyCache {
	kc := &KeyCache{Base: NewBase(path, opts...)}
	kc.Restore(ctx, kc)
	return kc
}

// Load re-reads the sealed file, replaces the in-memory state with it and
// returns a copy of the result.
func (kc *KeyCache) Load(ctx context.Context) map[string]string {
	kc.Restore(ctx, kc)
	return kc.Data()
}

// Save seals the current state to disk.
func (kc *KeyCache) Save(ctx context.Context) error {
	return kc.Persist(ctx, kc)
}

// Add merges entry into the cache; on collision the new value wins. New keys
// are appended in sorted order.
func (kc *KeyCache) Add(entry map[string]string) {
	added := make([]string, 0, len(entry))
	for k, v := range entry {
		if _, ok := kc.values[k]; !ok {
			added = append(added, k)
		}
		kc.values[k] = v
	}
	sort.Strings(added)
	kc.keys = append(kc.keys, added...)
}

// Set stores a single key.
func (kc *KeyCache) Set(key, value string) {
	kc.Add(map[string]string{key: value})
}

// Get returns the value for key and whether it is present.
func (kc *KeyCache) Get(key string) (string, bool) {
	v, ok := kc.values[key]
	return v, ok
}

// Delete removes key, reporting whether it was present.
func (kc *KeyCache) Delete(key string) bool {
	if _, ok := kc.values[key]; !ok {
		return false
	}
	delete(kc.values, key)
	for i, k := range kc.keys {
		if k == key {
			kc.keys = append(kc.keys[:i], kc.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in serialization order.
func (kc *KeyCache) Keys() []string {
	return append([]string(nil), kc.keys...)
}

// Len returns the number of keys.
func (kc *KeyCache) Len() int {
	return len(kc.keys)
}

// Data returns a copy of the state.
func (kc *KeyCache) Data() map[string]string {
	out := make(map[string]string, len(kc.values))
	for k, v := range kc.values {
		out[k] = v
	}
	return out
}

// LoadEnvVar exports key into the process environment under the same name.
// This changes the environment for the rest of the run, including any child
// processes started afterwards; it is not undone.
func (kc *KeyCache) LoadEnvVar(key string) error {
	v, ok := kc.values[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	if err := os.Setenv(key, v); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Deploy exports every key, in order, and stops at the first failure.
func (kc *KeyCache) Deploy() error {
	for _, k := range kc.Keys() {
		if err := kc.LoadEnvVar(k); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements Codec. Non-string scalars keep their JSON text (1, true)
// and null becomes "". Nested values are kept as raw JSON. Values are strings
// from here on, so the next Save writes {"n": 1} back as {"n": "1"}.
func (kc *KeyCache) Decode(plaintext string) error {
	kc.keys = nil
	kc.values = map[string]string{}

	if strings.TrimSpace(plaintext) == "" {
		return nil
	}
	if !gjson.Valid(plaintext) {
		return errors.New("not valid JSON")
	}
	doc := gjson.Parse(plaintext)
	if !doc.IsObject() {
		return fmt.Errorf("expected a JSON object, got %s", doc.Type)
	}

	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, seen := kc.values[k]; !seen {
			kc.keys = append(kc.keys, k)
		}
		switch value.Type {
		case gjson.String:
			kc.values[k] = value.String()
		case gjson.Null:
			kc.values[k] = ""
		default:
			kc.values[k] = value.Raw
		}
		return true
	})
	return nil
}

// Encode implements Codec, writing a flat JSON object in key order.
func (kc *KeyCache) Encode() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range kc.keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(kc.values[k])
		if err != nil {
			return "", err
		}
		buf.Write(kb)
		buf.WriteString(": ")
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}
