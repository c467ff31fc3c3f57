package results

import (
	"context"
	"fmt"
)

// Paginate returns an iterator over individual result records, fetching
// pages of perPage records on demand until the result set is exhausted.
//
// Iteration starts at the Query's current offset, issues one search per page
// with limit=perPage, and advances the offset by the number of records
// received. A page shorter than perPage, an empty page, or a 404 code ends
// the iteration. Requests happen synchronously as the caller crosses page
// boundaries; nothing is prefetched.
//
// The iterator is single-use and forward-only. The aggregate query
// preconditions (at least one filter and one selected field) are enforced
// here, the same as Execute.
func (q *Query) Paginate(ctx context.Context, perPage int) *Iterator {
	if ctx == nil {
		ctx = context.Background()
	}

	it := &Iterator{
		query:   q,
		ctx:     ctx,
		perPage: perPage,
		offset:  q.offset,
	}

	if perPage <= 0 {
		it.err = NewArgumentError("Query.Paginate",
			fmt.Errorf("%w: per-page size must be positive, got %d",
				ErrInvalidArgument, perPage))
		it.done = true
		return it
	}

	if err := q.checkExecutable(ctx, "Query.Paginate"); err != nil {
		it.err = err
		it.done = true
	}
	return it
}

// Iterator walks a paginated result set one record at a time, in the style
// of sql.Rows: call Next until it returns false, read each record with
// Record, then check Err to distinguish exhaustion from failure.
type Iterator struct {
	query   *Query
	ctx     context.Context
	perPage int
	offset  int

	page []Record
	pos  int
	done bool
	err  error
}

// Next advances to the next record, fetching the next page from the API
// when the buffered one is spent. It returns false when the result set is
// exhausted or a request failed; Err tells the two apart.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}

	if it.pos < len(it.page) {
		it.pos++
		return true
	}
	if it.done {
		return false
	}

	resp, err := it.query.client.search(it.ctx,
		it.query.searchParams(it.perPage, it.offset))
	if err != nil {
		it.err = err
		it.done = true
		return false
	}

	// An empty page or a 404 code is the end-of-results signal; a short
	// page means this is the last one.
	if len(resp.Results) == 0 || resp.Code == 404 {
		it.done = true
		return false
	}
	if len(resp.Results) < it.perPage {
		it.done = true
	}

	it.page = resp.Results
	it.pos = 1
	it.offset += len(resp.Results)
	return true
}

// Record returns the record Next advanced to. It is only valid after a call
// to Next that returned true.
func (it *Iterator) Record() Record {
	if it.pos == 0 || it.pos > len(it.page) {
		return nil
	}
	return it.page[it.pos-1]
}

// Err returns the first error encountered during iteration, or nil if the
// iterator stopped because the result set was exhausted.
func (it *Iterator) Err() error {
	return it.err
}
