package types

import "fmt"

// FieldSet is an immutable, ordered set of field keys. Every CanonicalRow
// points at one, and it is the only set of keys the row accepts.
type FieldSet struct {
	order []FieldKey
	pos   map[FieldKey]int
}

// NewFieldSet builds a set from keys. Duplicates keep their first position.
func NewFieldSet(keys ...FieldKey) *FieldSet {
	fs := &FieldSet{pos: make(map[FieldKey]int, len(keys))}
	for _, k := range keys {
		if _, ok := fs.pos[k]; ok {
			continue
		}
		fs.pos[k] = len(fs.order)
		fs.order = append(fs.order, k)
	}
	return fs
}

// Contains reports whether key is in the set.
func (fs *FieldSet) Contains(key FieldKey) bool {
	if fs == nil {
		return false
	}
	_, ok := fs.pos[key]
	return ok
}

// Keys returns the keys in order.
func (fs *FieldSet) Keys() []FieldKey {
	if fs == nil {
		return nil
	}
	return append([]FieldKey(nil), fs.order...)
}

// CanonicalRow is a data row keyed by canonical field. A key is present when
// a column was mapped to it, even if the cell itself is empty.
type CanonicalRow struct {
	// ID and Line are carried over from the RawRow.
	ID   int
	Line int

	fields *FieldSet
	values map[FieldKey]Value
}

// NewCanonicalRow returns an empty row restricted to fields.
func NewCanonicalRow(fields *FieldSet, id, line int) CanonicalRow {
	return CanonicalRow{
		ID:     id,
		Line:   line,
		fields: fields,
		values: make(map[FieldKey]Value),
	}
}

// Set stores v under key. Keys outside the row's field set are rejected.
func (r *CanonicalRow) Set(key FieldKey, v Value) error {
	if !r.fields.Contains(key) {
		return fmt.Errorf("unknown field %q", key)
	}
	if r.values == nil {
		r.values = make(map[FieldKey]Value)
	}
	r.values[key] = v
	return nil
}

// Get returns the value under key, or the empty Value.
func (r CanonicalRow) Get(key FieldKey) Value {
	return r.values[key]
}

// Has reports whether key was populated (possibly with an empty value).
func (r CanonicalRow) Has(key FieldKey) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the populated keys in field set order.
func (r CanonicalRow) Keys() []FieldKey {
	var keys []FieldKey
	for _, k := range r.fields.Keys() {
		if _, ok := r.values[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Fields returns a copy of the populated values.
func (r CanonicalRow) Fields() map[FieldKey]Value {
	out := make(map[FieldKey]Value, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy; changes to the clone do not affect r.
func (r CanonicalRow) Clone() CanonicalRow {
	c := r
	c.values = r.Fields()
	return c
}

// With returns a copy of r with key set to v. Unknown keys leave the copy
// unchanged.
func (r CanonicalRow) With(key FieldKey, v Value) CanonicalRow {
	c := r.Clone()
	_ = c.Set(key, v)
	return c
}

// Equal reports whether two rows carry the same identity and values.
func (r CanonicalRow) Equal(o CanonicalRow) bool {
	if r.ID != o.ID || r.Line != o.Line || len(r.values) != len(o.values) {
		return false
	}
	for k, v := range r.values {
		ov, ok := o.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
