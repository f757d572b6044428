// Package rowctx holds the mutable per-row state the evaluator reads and
// writes, and the table of rows an evaluation runs over: an ordered,
// name-keyed record store. Field names are matched exactly as they appear
// in source — case-sensitive, since these are column names from external
// tabular data, not language identifiers with their own case-folding rules.
package rowctx

import "github.com/gelaysabelle/medical-triage-interpreter/internal/value"

// Row is an ordered name → value.Value mapping representing one record.
// Insertion order is preserved so a loader's column order survives a
// round-trip through Get/Set even though lookups are keyed by name.
type Row struct {
	keys   []string
	values map[string]value.Value
}

// NewRow builds an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]value.Value)}
}

// NewRowFrom builds a row pre-populated from fields. The fields are added in
// Go's map iteration order, so the row's column order is arbitrary; callers
// that care about column order should build the Row with repeated Set calls
// instead.
func NewRowFrom(fields map[string]value.Value) *Row {
	r := NewRow()
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

// Get reads a field. A name that was never written or read returns Null and
// is bound to Null in the row so that a later read of the same name
// observes the same value (this supports rules that SET a field then read
// it from a later rule).
func (r *Row) Get(name string) value.Value {
	if v, ok := r.values[name]; ok {
		return v
	}
	r.Set(name, value.Null{})
	return value.Null{}
}

// Has reports whether name has been bound (by a prior Set or a prior Get of
// an absent name) without creating it.
func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Set writes a field, creating it (and recording its insertion position) if
// it was not already bound.
func (r *Row) Set(name string, v value.Value) {
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Names returns the field names in insertion order.
func (r *Row) Names() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Table is an ordered sequence of rows. Order is preserved across
// evaluation so results line up with the source data row-for-row.
type Table []*Row
