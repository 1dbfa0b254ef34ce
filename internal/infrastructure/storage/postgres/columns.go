package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names from the "db" tags of T with embedded
// structs flattened in field order.
//
//	columns := ExtractDBColumns[product.Product]()
//	// ["id", "version", "created_at", "updated_at", "branch_id", "owner_id", "sku", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataFor(reflect.TypeOf(zero))
	cols := make([]string, len(meta.fields))
	for i, f := range meta.fields {
		cols[i] = f.column
	}
	return cols
}

type columnField struct {
	column string
	index  []int
}

type typeMetadata struct {
	fields []columnField
	byName map[string][]int
}

// map[reflect.Type]*typeMetadata
var typeCache sync.Map

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{byName: make(map[string][]int)}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, columnField{column: tag, index: index})
		meta.byName[tag] = index
	}
}

// ColumnValues returns the values of v for columns, in that order. Unknown
// columns yield nil.
func ColumnValues(v any, columns []string) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	out := make([]any, len(columns))
	for i, col := range columns {
		if index, ok := meta.byName[col]; ok {
			out[i] = rv.FieldByIndex(index).Interface()
		}
	}
	return out
}
