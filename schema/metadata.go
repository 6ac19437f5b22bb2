// Package schema derives stream metadata for Go entity types.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FieldMeta describes one field of an entity.
type FieldMeta struct {
	// Name is the column name used in compiled text.
	Name string
	// GoName is the struct field the column maps to.
	GoName string
	// Type is the declared Go type of the field.
	Type reflect.Type
	// KeyOrder is the 1-based position in the composite key, 0 for non-key
	// fields. Fixed at derivation and never re-sorted.
	KeyOrder int
	// Required marks the field as mandatory in result rows.
	Required bool
	// MaxLen bounds string values, 0 for unbounded.
	MaxLen int
}

// EntityMetadata is the per-type descriptor: backing stream name, ordered
// key fields, and the full field list. It is computed once per type and
// immutable afterwards.
type EntityMetadata struct {
	Entity   string
	Stream   string
	Keys     []FieldMeta
	Fields   []FieldMeta
	Valid    bool
	Errors   []string
	Warnings []string
}

// Field looks up a field by column name.
func (m *EntityMetadata) Field(name string) (FieldMeta, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldMeta{}, false
}

// Derive builds metadata for t. Struct tags drive the mapping:
//
//	Id     string `streamq:"Id,key=1"`
//	Email  string `streamq:"Email,required,max=255"`
//	Note   string `streamq:"-"`
//
// An absent tag maps the column to the Go field name. The key-field order is
// the declared key=N order and drives composite-key serialization.
func Derive(t reflect.Type, stream string) *EntityMetadata {
	meta := &EntityMetadata{Stream: stream}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	meta.Entity = t.Name()
	if stream == "" {
		meta.Stream = defaultStreamName(t.Name())
	}

	if t.Kind() != reflect.Struct {
		meta.Errors = append(meta.Errors, fmt.Sprintf("entity type must be a struct, got %s", t.Kind()))
		return meta
	}

	keyOrders := map[int]string{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm, skip, err := parseFieldTag(sf)
		if err != nil {
			meta.Errors = append(meta.Errors, err.Error())
			continue
		}
		if skip {
			continue
		}

		if fm.KeyOrder > 0 {
			if prior, dup := keyOrders[fm.KeyOrder]; dup {
				meta.Errors = append(meta.Errors, fmt.Sprintf("fields %s and %s both declare key order %d", prior, fm.GoName, fm.KeyOrder))
				continue
			}
			keyOrders[fm.KeyOrder] = fm.GoName
			meta.Keys = append(meta.Keys, fm)
		}
		meta.Fields = append(meta.Fields, fm)
	}

	if len(meta.Fields) == 0 {
		meta.Errors = append(meta.Errors, fmt.Sprintf("entity %s has no mappable fields", meta.Entity))
	}
	if len(meta.Keys) == 0 {
		meta.Warnings = append(meta.Warnings, fmt.Sprintf("entity %s declares no key fields", meta.Entity))
	}

	// Key order is declared order, fixed here once.
	sort.SliceStable(meta.Keys, func(i, j int) bool {
		return meta.Keys[i].KeyOrder < meta.Keys[j].KeyOrder
	})

	meta.Valid = len(meta.Errors) == 0
	return meta
}

func parseFieldTag(sf reflect.StructField) (FieldMeta, bool, error) {
	fm := FieldMeta{Name: sf.Name, GoName: sf.Name, Type: sf.Type}

	tag, ok := sf.Tag.Lookup("streamq")
	if !ok {
		return fm, false, nil
	}
	if tag == "-" {
		return fm, true, nil
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		fm.Name = parts[0]
	}
	for _, opt := range parts[1:] {
		switch {
		case opt == "required":
			fm.Required = true
		case strings.HasPrefix(opt, "key="):
			n, err := strconv.Atoi(strings.TrimPrefix(opt, "key="))
			if err != nil || n < 1 {
				return fm, false, fmt.Errorf("field %s: invalid key order %q", sf.Name, opt)
			}
			fm.KeyOrder = n
		case strings.HasPrefix(opt, "max="):
			n, err := strconv.Atoi(strings.TrimPrefix(opt, "max="))
			if err != nil || n < 1 {
				return fm, false, fmt.Errorf("field %s: invalid max length %q", sf.Name, opt)
			}
			fm.MaxLen = n
		case opt == "":
		default:
			return fm, false, fmt.Errorf("field %s: unknown tag option %q", sf.Name, opt)
		}
	}
	return fm, false, nil
}

// defaultStreamName maps an entity type name to its backing stream:
// lowercased and pluralized with a trailing s.
func defaultStreamName(entity string) string {
	name := strings.ToLower(entity)
	if name == "" {
		return name
	}
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	return name
}
