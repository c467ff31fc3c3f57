package results

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nanohub-go/results/filterexpr"
)

// Query is a fluent builder for one search against a single tool.
//
// Builder methods mutate the Query and return it for chaining. Field and
// operation validation happens at the call that adds the condition, against
// the tool schema fetched lazily on first need and cached for the lifetime
// of the Query. Because chained calls cannot return an error, the first
// validation failure is recorded on the builder: it is visible immediately
// through Err() and short-circuits every later builder call, and
// Execute/Paginate return it unchanged.
//
// A Query holds mutable state and is not safe for concurrent use. It remains
// usable after Execute: callers may keep chaining and re-execute, and each
// execution reflects the Query's current state.
type Query struct {
	client *Client

	// buildCtx governs schema fetches triggered by builder calls, which
	// take no context of their own. Execute, Paginate, and Schema use their
	// own context.
	buildCtx context.Context

	tool      string
	simtool   bool
	revision  int
	validRuns bool

	filters   []Filter
	selected  []string
	limit     int
	offset    int
	sortField string
	sortAsc   bool
	random    bool

	schema *ToolSchema
	err    error
}

// DefaultLimit is the result window size of a freshly built Query.
const DefaultLimit = 50

// newQuery binds a builder to one tool. No network call is made here; the
// schema is fetched on the first call that needs it.
func newQuery(ctx context.Context, client *Client, tool string, simtool bool) *Query {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Query{
		client:   client,
		buildCtx: ctx,
		tool:     tool,
		simtool:  simtool,
		limit:    DefaultLimit,
		sortAsc:  true,
	}
}

// Tool returns the tool name the Query is bound to.
func (q *Query) Tool() string {
	return q.tool
}

// Err returns the first validation error recorded by a builder call, or nil.
// Once set, the error sticks: later builder calls are no-ops and
// Execute/Paginate fail with it.
func (q *Query) Err() error {
	return q.err
}

// fail records the first builder error.
func (q *Query) fail(err *Error) {
	if q.err == nil {
		q.err = err
	}
}

// ensureSchema fetches and caches the tool's schema on first use.
func (q *Query) ensureSchema(ctx context.Context) error {
	if q.schema != nil {
		return nil
	}

	resp, err := q.client.ToolDetail(ctx, q.tool, q.revision, q.simtool)
	if err != nil {
		return NewSchemaError("Query.Schema",
			fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)).
			WithContext(map[string]any{"tool": q.tool})
	}

	schema, err := parseToolSchema(q.tool, resp)
	if err != nil {
		return NewSchemaError("Query.Schema",
			fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)).
			WithContext(map[string]any{"tool": q.tool})
	}

	q.schema = schema
	return nil
}

// validateField checks one field against the schema, fetching it if needed.
func (q *Query) validateField(op, field string) *Error {
	if err := q.ensureSchema(q.buildCtx); err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return NewSchemaError(op, err)
	}
	if !q.schema.Has(field) {
		return invalidFieldError(op, field, q.tool, q.schema.Fields())
	}
	return nil
}

// Filter adds one filter condition. Conditions combine with AND, in
// insertion order; overlapping or duplicate conditions are passed through to
// the API as given.
//
// The operation must be in the fixed allowed set and the field must exist in
// the tool's schema; either failure is recorded on the builder (see Err).
func (q *Query) Filter(field string, op Operation, value any) *Query {
	if q.err != nil {
		return q
	}

	if !op.IsValid() {
		q.fail(NewValidationError("Query.Filter",
			fmt.Errorf("%w %q; valid operations: %s",
				ErrInvalidOperation, op, joinOperations())))
		return q
	}

	if err := q.validateField("Query.Filter", field); err != nil {
		q.fail(err)
		return q
	}

	q.filters = append(q.filters, Filter{Field: field, Operation: op, Value: value})
	return q
}

// Where parses a filter expression and adds each condition it contains, as
// if by repeated Filter calls. Expressions use CEL syntax:
//
//	input.Ef > 0.2 && input.Lg in [20, 45] && like(input.name, "fet%")
//
// A malformed expression is recorded on the builder; field and operation
// validation is identical to Filter.
func (q *Query) Where(expr string) *Query {
	if q.err != nil {
		return q
	}

	conds, err := filterexpr.Parse(expr)
	if err != nil {
		q.fail(NewArgumentError("Query.Where",
			fmt.Errorf("%w: %v", ErrInvalidArgument, err)))
		return q
	}

	for _, c := range conds {
		q.Filter(c.Field, Operation(c.Op), c.Value)
	}
	return q
}

// Select adds fields to return in the results. It accepts variadic fields
// and may be called repeatedly; insertion order is preserved and duplicates
// are not removed. Validation fails on the first invalid field.
func (q *Query) Select(fields ...string) *Query {
	if q.err != nil {
		return q
	}

	for _, f := range fields {
		if err := q.validateField("Query.Select", f); err != nil {
			q.fail(err)
			return q
		}
	}

	q.selected = append(q.selected, fields...)
	return q
}

// Limit sets the maximum number of results for one request. The remote API
// may reject excessive values; no upper bound is enforced locally.
func (q *Query) Limit(n int) *Query {
	if q.err != nil {
		return q
	}
	if n <= 0 {
		q.fail(NewArgumentError("Query.Limit",
			fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, n)))
		return q
	}
	q.limit = n
	return q
}

// Offset sets the number of results to skip.
func (q *Query) Offset(n int) *Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.fail(NewArgumentError("Query.Offset",
			fmt.Errorf("%w: offset must be non-negative, got %d", ErrInvalidArgument, n)))
		return q
	}
	q.offset = n
	return q
}

// Sort sets the sort field and direction. At most one sort is active; a
// later call overwrites the prior one. The field is validated against the
// schema. Sort conflicts with Random; Execute rejects the combination.
func (q *Query) Sort(field string, asc bool) *Query {
	if q.err != nil {
		return q
	}
	if err := q.validateField("Query.Sort", field); err != nil {
		q.fail(err)
		return q
	}
	q.sortField = field
	q.sortAsc = asc
	return q
}

// Random requests server-side random ordering. Random conflicts with an
// explicit Sort; Execute rejects the combination.
func (q *Query) Random(on bool) *Query {
	if q.err != nil {
		return q
	}
	q.random = on
	return q
}

// Revision sets the tool revision to query (0 selects the latest).
func (q *Query) Revision(n int) *Query {
	if q.err != nil {
		return q
	}
	q.revision = n
	return q
}

// Simtool marks the tool as a Sim2L simulation tool rather than a Rappture
// tool. The flag selects the remote namespace the schema and search are
// resolved against, so set it before the first call that validates a field;
// the cached schema is not refetched.
func (q *Query) Simtool(on bool) *Query {
	if q.err != nil {
		return q
	}
	q.simtool = on
	return q
}

// ValidRuns restricts the search to runs the platform marked valid.
func (q *Query) ValidRuns(on bool) *Query {
	if q.err != nil {
		return q
	}
	q.validRuns = on
	return q
}

// Schema returns the ordered list of field names for the bound tool,
// fetching it from the API on first call and caching it for the lifetime of
// the Query.
func (q *Query) Schema(ctx context.Context) ([]string, error) {
	if err := q.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return q.schema.Fields(), nil
}

// checkExecutable enforces the aggregate preconditions that can only be
// judged once building is done: a recorded builder error, the at-least-one
// filter and at-least-one selected field rules, and the random/sort
// conflict.
func (q *Query) checkExecutable(ctx context.Context, op string) error {
	if q.err != nil {
		return q.err
	}

	if len(q.filters) == 0 {
		return NewValidationError(op,
			fmt.Errorf("%w; add one with Filter(field, operation, value); valid fields: %s",
				ErrMissingFilter, q.fieldListForMessage(ctx)))
	}
	if len(q.selected) == 0 {
		return NewValidationError(op,
			fmt.Errorf("%w; add one with Select(field); valid fields: %s",
				ErrMissingSelect, q.fieldListForMessage(ctx)))
	}
	if q.random && q.sortField != "" {
		return NewArgumentError(op,
			fmt.Errorf("%w: random ordering conflicts with Sort(%q); use one or the other",
				ErrInvalidArgument, q.sortField))
	}
	return nil
}

// fieldListForMessage enumerates the valid fields for error messages. If the
// schema has never been fetched and cannot be, the enumeration is skipped
// rather than masking the original error.
func (q *Query) fieldListForMessage(ctx context.Context) string {
	if err := q.ensureSchema(ctx); err != nil {
		return "(schema unavailable)"
	}
	return strings.Join(q.schema.Fields(), ", ")
}

// Execute runs the search and returns the API response as decoded, without
// retry or post-processing. Transport failures propagate unchanged.
func (q *Query) Execute(ctx context.Context) (*Response, error) {
	if err := q.checkExecutable(ctx, "Query.Execute"); err != nil {
		return nil, err
	}
	return q.client.search(ctx, q.searchParams(q.limit, q.offset))
}

// searchParams snapshots the builder state into wire-call parameters with
// the given pagination window.
func (q *Query) searchParams(limit, offset int) SearchParams {
	return SearchParams{
		Tool:      q.tool,
		Filters:   q.filters,
		Fields:    q.selected,
		Limit:     limit,
		Offset:    offset,
		Revision:  q.revision,
		ValidRuns: q.validRuns,
		Simtool:   q.simtool,
		Sort:      q.sortField,
		SortAsc:   q.sortAsc,
		Random:    q.random,
	}
}

func joinOperations() string {
	ops := Operations()
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}
