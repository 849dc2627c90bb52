// Package story reads and writes story corpora and normalizes their records.
package story

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a JSON object that keeps its keys in document order.
// Values are held as raw JSON so untouched fields round-trip unchanged.
type Record struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]json.RawMessage)}
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("story record must be a JSON object, got %v", tok)
	}

	r.keys = r.keys[:0]
	r.values = make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if _, dup := r.values[key]; !dup {
			r.keys = append(r.keys, key)
		}
		r.values[key] = raw
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the field names in document order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Has reports whether the field exists, whatever its value.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Raw returns the raw JSON of a field.
func (r *Record) Raw(key string) (json.RawMessage, bool) {
	v, ok := r.values[key]
	return v, ok
}

// String returns the field as a string. ok is false when the field is
// absent or not a JSON string.
func (r *Record) String(key string) (string, bool) {
	raw, ok := r.values[key]
	if !ok || len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// NonEmptyString is String restricted to non-empty values.
func (r *Record) NonEmptyString(key string) (string, bool) {
	s, ok := r.String(key)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// First returns the first candidate field holding a non-empty string.
func (r *Record) First(candidates []string) (value, field string, ok bool) {
	for _, c := range candidates {
		if s, ok := r.NonEmptyString(c); ok {
			return s, c, true
		}
	}
	return "", "", false
}

// ID returns the record id as text. String and number ids are accepted.
func (r *Record) ID() (string, bool) {
	raw, ok := r.values["id"]
	if !ok || len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		return r.NonEmptyString("id")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || n == "" {
		return "", false
	}
	return n.String(), true
}

// SetString sets a string field, appending it when new.
func (r *Record) SetString(key, value string) error {
	raw, err := encodeString(value)
	if err != nil {
		return err
	}
	r.SetRaw(key, raw)
	return nil
}

// SetRaw sets a field to pre-encoded JSON, appending it when new.
func (r *Record) SetRaw(key string, raw json.RawMessage) {
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = raw
}

// Delete removes a field. It reports whether the field existed.
func (r *Record) Delete(key string) bool {
	if _, ok := r.values[key]; !ok {
		return false
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// encodeString JSON-encodes s without escaping HTML characters.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
