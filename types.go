package results

import (
	"encoding/json"
	"fmt"
)

// Operation is a filter comparison operator accepted by the search API.
type Operation string

// The fixed set of filter operations the API accepts.
const (
	OpEquals        Operation = "="
	OpNotEquals     Operation = "!="
	OpGreater       Operation = ">"
	OpLess          Operation = "<"
	OpGreaterEquals Operation = ">="
	OpLessEquals    Operation = "<="
	OpLike          Operation = "like"
	OpIn            Operation = "in"
)

// Operations returns all valid filter operations.
func Operations() []Operation {
	return []Operation{
		OpEquals, OpNotEquals,
		OpGreater, OpLess, OpGreaterEquals, OpLessEquals,
		OpLike, OpIn,
	}
}

// IsValid returns true if the operation is in the fixed allowed set.
func (o Operation) IsValid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpGreater, OpLess,
		OpGreaterEquals, OpLessEquals, OpLike, OpIn:
		return true
	}
	return false
}

// Filter is one filter condition. Multiple filters on a query are combined
// with AND by the API, in insertion order.
type Filter struct {
	// Field is the namespaced field name (e.g., "input.Ef", "output.f41").
	Field string `json:"field"`

	// Operation is the comparison operator.
	Operation Operation `json:"operation"`

	// Value is the comparand: a scalar for comparison operators, a pattern
	// string for "like", or a list for "in".
	Value any `json:"value"`
}

// ValueKind discriminates the two shapes a result field can take on the wire.
type ValueKind int

const (
	// ScalarValue is a plain JSON value (number, string, bool, or any
	// structure that is not a curve).
	ScalarValue ValueKind = iota

	// CurveValue is a paired x/y numeric series.
	CurveValue
)

// Curve is an output field shaped as paired x/y numeric sequences rather
// than a scalar.
type Curve struct {
	XAxis []float64 `json:"xaxis"`
	YAxis []float64 `json:"yaxis"`
}

// FieldValue is a tagged union over the two shapes a selected field can
// resolve to in a search response: a scalar or a curve. Decoding happens at
// the response boundary so downstream code can switch on Kind() instead of
// probing untyped maps.
type FieldValue struct {
	kind   ValueKind
	scalar any
	curve  *Curve
}

// Scalar wraps a plain value in a FieldValue.
func Scalar(v any) FieldValue {
	return FieldValue{kind: ScalarValue, scalar: v}
}

// CurveOf wraps a curve in a FieldValue.
func CurveOf(c Curve) FieldValue {
	return FieldValue{kind: CurveValue, curve: &c}
}

// Kind reports whether the value is a scalar or a curve.
func (v FieldValue) Kind() ValueKind {
	return v.kind
}

// Scalar returns the scalar value. For curve values it returns nil.
func (v FieldValue) Scalar() any {
	return v.scalar
}

// Curve returns the curve value and true, or nil and false for scalars.
func (v FieldValue) Curve() (*Curve, bool) {
	if v.kind != CurveValue {
		return nil, false
	}
	return v.curve, true
}

// UnmarshalJSON decodes a field value, classifying JSON objects that carry
// both an "xaxis" and a "yaxis" numeric array as curves and everything else
// as scalars.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var probe struct {
		XAxis *[]float64 `json:"xaxis"`
		YAxis *[]float64 `json:"yaxis"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.XAxis != nil && probe.YAxis != nil {
		v.kind = CurveValue
		v.curve = &Curve{XAxis: *probe.XAxis, YAxis: *probe.YAxis}
		v.scalar = nil
		return nil
	}

	var scalar any
	if err := json.Unmarshal(data, &scalar); err != nil {
		return fmt.Errorf("decode field value: %w", err)
	}
	v.kind = ScalarValue
	v.scalar = scalar
	v.curve = nil
	return nil
}

// MarshalJSON re-encodes the value in its original wire shape.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.kind == CurveValue {
		return json.Marshal(v.curve)
	}
	return json.Marshal(v.scalar)
}

// Record is one result row: a mapping from field name to value, always
// carrying a "squid" entry identifying the simulation run.
type Record map[string]FieldValue

// Squid returns the unique identifier of the simulation run this record
// belongs to, or the empty string if the record has none.
func (r Record) Squid() string {
	v, ok := r["squid"]
	if !ok {
		return ""
	}
	s, _ := v.Scalar().(string)
	return s
}

// Response is the JSON envelope every dbexplorer endpoint returns.
type Response struct {
	// Success reports whether the API processed the request.
	Success bool `json:"success"`

	// Results holds the result rows, in the order the API returned them.
	Results []Record `json:"results"`

	// SearchTime is the server-side query time in seconds.
	SearchTime float64 `json:"searchTime,omitempty"`

	// Code is an optional status code (e.g., 404 when a page is past the
	// end of the result set).
	Code int `json:"code,omitempty"`

	// Message is an optional human-readable status message.
	Message string `json:"message,omitempty"`
}
