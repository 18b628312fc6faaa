// Package records holds customer rows loaded from CSV and the birthday
// reminder pass that runs over them.
package records

import (
	"fmt"
	"slices"
	"strings"
)

// Record is one person's row: field names mapped to values, keeping the order
// in which fields were first set.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord builds a record from parallel key and value slices. Missing values
// become empty strings; duplicate keys keep the last value.
func NewRecord(keys, values []string) *Record {
	r := &Record{values: make(map[string]string, len(keys))}
	for i, key := range keys {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		r.Set(key, value)
	}
	return r
}

// FromPairs builds a record from alternating key, value arguments.
func FromPairs(kv ...string) *Record {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("records.FromPairs: odd argument count %d", len(kv)))
	}
	r := &Record{values: make(map[string]string, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// Get returns the field value and whether the field is present.
func (r *Record) Get(field string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[field]
	return v, ok
}

// Value returns the field value, or "" when the field is absent.
func (r *Record) Value(field string) string {
	v, _ := r.Get(field)
	return v
}

// Set writes a field, appending it to the key order when new.
func (r *Record) Set(field, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[field]; !ok {
		r.keys = append(r.keys, field)
	}
	r.values[field] = value
}

// Keys returns the field names in first-set order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// String renders the fields as "key=value" pairs in key order.
func (r *Record) String() string {
	if r == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}

// UnionKeys returns every field name across rs in first-seen order.
func UnionKeys(rs []*Record) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range rs {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Normalize returns copies of rs that all carry the full key union, in the
// same order, with "" for fields a record lacks.
func Normalize(rs []*Record) []*Record {
	keys := UnionKeys(rs)
	out := make([]*Record, 0, len(rs))
	for _, r := range rs {
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = r.Value(k)
		}
		out = append(out, NewRecord(keys, values))
	}
	return out
}
