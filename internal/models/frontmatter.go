package models

// Frontmatter is an ordered mapping from string keys to frontmatter values
// (string, string list, or bool).
//
// Notes are externally editable, so key order must survive a read-modify-write
// cycle; a plain map would shuffle it. Mutations preserve the position of
// existing keys and append new ones.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// NewFrontmatter creates an empty ordered frontmatter mapping.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{values: make(map[string]any)}
}

// Set inserts or updates a key. New keys are appended after existing ones.
func (f *Frontmatter) Set(key string, value any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the raw value for key.
func (f *Frontmatter) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (f *Frontmatter) GetString(key string) (string, bool) {
	if v, ok := f.values[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// GetStringList returns the value for key when it is a string list.
func (f *Frontmatter) GetStringList(key string) ([]string, bool) {
	if v, ok := f.values[key]; ok {
		if l, ok := v.([]string); ok {
			return l, true
		}
	}
	return nil, false
}

// Delete removes a key, preserving the order of the remaining keys.
func (f *Frontmatter) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (f *Frontmatter) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	return len(f.keys)
}

// Clone returns a deep copy of the mapping.
func (f *Frontmatter) Clone() *Frontmatter {
	clone := NewFrontmatter()
	for _, k := range f.keys {
		v := f.values[k]
		if list, ok := v.([]string); ok {
			copied := make([]string, len(list))
			copy(copied, list)
			v = copied
		}
		clone.Set(k, v)
	}
	return clone
}
