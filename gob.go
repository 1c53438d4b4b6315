package bgcache

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"
	"io"
	"reflect"
	"strings"
)

// GobCodec stores entries with encoding/gob.
//
// Concrete value types must be registered in advance with GobRegister.
type GobCodec struct{}

var _ Codec = GobCodec{}

type gobEntry struct {
	Value     interface{}
	FetchedAt int64
}

// Encode serializes entry without FetchedFromCacheAt.
func (GobCodec) Encode(e Entry) ([]byte, error) {
	var buf bytes.Buffer

	ge := gobEntry{Value: e.Value, FetchedAt: e.FetchedAt}

	if err := gob.NewEncoder(&buf).Encode(&ge); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode deserializes entry.
func (GobCodec) Decode(data []byte) (*Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var ge gobEntry

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ge); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &Entry{Value: ge.Value, FetchedAt: ge.FetchedAt}, nil
}

var gobTypesHash uint64

// GobTypesHashReset resets types hash to zero value.
func GobTypesHashReset() {
	gobTypesHash = 0
}

// GobTypesHash returns a fingerprint of a group of registered types.
//
// Processes sharing a store should agree on this value, otherwise entries written by
// one process may be undecodable (and so refetched) by another.
func GobTypesHash() uint64 {
	return gobTypesHash
}

// GobRegister enables cached type transferring.
func GobRegister(values ...interface{}) {
	for _, value := range values {
		h := fnv.New64()
		t := reflect.TypeOf(value)
		// nolint:errcheck // fnv.Write never returns an error.
		_, _ = h.Write([]byte(t.PkgPath() + t.String()))
		recursiveTypeHash(t, h, map[reflect.Type]bool{})
		gobTypesHash ^= h.Sum64()

		gob.Register(value)
	}
}

// recursiveTypeHash hashes type of value recursively to ensure structural match.
func recursiveTypeHash(t reflect.Type, h io.Writer, met map[reflect.Type]bool) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if met[t] {
		return
	}

	met[t] = true

	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)

			// Skip unexported field.
			if f.Name != "" && (f.Name[0:1] == strings.ToLower(f.Name[0:1])) {
				continue
			}

			if !f.Anonymous {
				// nolint:errcheck // fnv.Write never returns an error.
				_, _ = h.Write([]byte(f.Name))
			}

			recursiveTypeHash(f.Type, h, met)
		}

	case reflect.Slice, reflect.Array:
		recursiveTypeHash(t.Elem(), h, met)
	case reflect.Map:
		recursiveTypeHash(t.Key(), h, met)
		recursiveTypeHash(t.Elem(), h, met)
	default:
		// nolint:errcheck // fnv.Write never returns an error.
		_, _ = h.Write([]byte(t.String()))
	}
}

// nolint:gochecknoinits // Registering types to a package level registry of "encoding/gob".
func init() {
	// Registering commonly used types.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
}
