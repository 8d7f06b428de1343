package repository

import (
	"fmt"
	"slices"
	"strings"

	"markethub/marketplace/internal/schema"
)

type hashIndex struct {
	def     IndexDef
	entries map[string][]string
}

func (ix *hashIndex) key(vals map[string]string) string {
	parts := make([]string, len(ix.def.Fields))
	for i, f := range ix.def.Fields {
		parts[i] = vals[f]
	}
	return strings.Join(parts, "\x00")
}

func (ix *hashIndex) covers(fields map[string]string) bool {
	if len(fields) != len(ix.def.Fields) {
		return false
	}
	for _, f := range ix.def.Fields {
		if _, ok := fields[f]; !ok {
			return false
		}
	}
	return true
}

// table holds one collection in insertion order with its hash indexes.
// Indexed fields must not change after insert.
type table[T any] struct {
	kind    schema.Kind
	rows    map[string]T
	order   []string
	fields  func(T) map[string]string
	indexes []*hashIndex
}

func newTable[T any](kind schema.Kind, fields func(T) map[string]string) *table[T] {
	t := &table[T]{kind: kind, rows: make(map[string]T), fields: fields}
	for _, def := range Indexes {
		if def.Collection == kind {
			t.indexes = append(t.indexes, &hashIndex{def: def, entries: make(map[string][]string)})
		}
	}
	return t
}

func (t *table[T]) insert(id string, rec T) error {
	if _, ok := t.rows[id]; ok {
		return fmt.Errorf("%s: duplicate id %q", t.kind, id)
	}
	vals := t.fields(rec)
	for _, ix := range t.indexes {
		if ix.def.Unique && len(ix.entries[ix.key(vals)]) > 0 {
			return &UniqueViolation{
				Collection: t.kind,
				Field:      strings.Join(ix.def.Fields, ","),
				Value:      ix.key(vals),
			}
		}
	}
	t.rows[id] = rec
	t.order = append(t.order, id)
	for _, ix := range t.indexes {
		k := ix.key(vals)
		ix.entries[k] = append(ix.entries[k], id)
	}
	return nil
}

func (t *table[T]) get(id string) (T, bool) {
	rec, ok := t.rows[id]
	return rec, ok
}

// put replaces a stored record; it does not touch indexes.
func (t *table[T]) put(id string, rec T) {
	t.rows[id] = rec
}

// find returns records whose fields equal match, using an index covering
// exactly those fields when one exists.
func (t *table[T]) find(match map[string]string) []T {
	for _, ix := range t.indexes {
		if ix.covers(match) {
			return t.load(ix.entries[ix.key(match)])
		}
	}
	var out []T
	for _, id := range t.order {
		rec := t.rows[id]
		vals := t.fields(rec)
		ok := true
		for f, want := range match {
			if vals[f] != want {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// findAny unions find over several values of one field.
func (t *table[T]) findAny(field string, values []string) []T {
	var out []T
	for _, v := range slices.Compact(slices.Sorted(slices.Values(values))) {
		out = append(out, t.find(map[string]string{field: v})...)
	}
	return out
}

func (t *table[T]) all() []T {
	return t.load(t.order)
}

func (t *table[T]) load(ids []string) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}
