package results

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageJSON builds a search response of n records with sequential squids
// starting at start.
func pageJSON(start, n int) string {
	records := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		records[i] = map[string]any{
			"squid":      fmt.Sprintf("2dfets/8/run%04d", start+i),
			"output.f11": float64(start + i),
		}
	}
	body, _ := json.Marshal(map[string]any{
		"success":    true,
		"results":    records,
		"searchTime": 0.05,
	})
	return string(body)
}

func newPaginateQuery(t *testing.T, ft *fakeTransport) *Query {
	t.Helper()
	q := New(ft).Query(context.Background(), "2dfets", false).
		Filter("input.Ef", OpGreater, 0.2).
		Select("output.f11")
	require.NoError(t, q.Err())
	return q
}

func TestPaginateWalksAllPages(t *testing.T) {
	ft := newFakeTransport()
	ft.SearchResponses = []string{
		pageJSON(0, 50),
		pageJSON(50, 50),
		pageJSON(100, 23), // short page: end of results
	}
	q := newPaginateQuery(t, ft)

	it := q.Paginate(context.Background(), 50)
	var squids []string
	for it.Next() {
		squids = append(squids, it.Record().Squid())
	}
	require.NoError(t, it.Err())

	// 123 records in original order, from exactly 3 requests: the short
	// third page is the stop signal.
	require.Len(t, squids, 123)
	assert.Equal(t, "2dfets/8/run0000", squids[0])
	assert.Equal(t, "2dfets/8/run0122", squids[122])

	searches := ft.callsTo("/search")
	require.Len(t, searches, 3)
	assert.Empty(t, searches[0].Params.Get("offset"))
	assert.Equal(t, "50", searches[1].Params.Get("offset"))
	assert.Equal(t, "100", searches[2].Params.Get("offset"))
	for _, call := range searches {
		assert.Equal(t, "50", call.Params.Get("limit"))
	}
}

func TestPaginateStopsOnEmptyPage(t *testing.T) {
	ft := newFakeTransport()
	ft.SearchResponses = []string{
		pageJSON(0, 2),
		emptySearchJSON,
	}
	q := newPaginateQuery(t, ft)

	// Full first page, so a second request is needed to see the end.
	it := q.Paginate(context.Background(), 2)
	var count int
	for it.Next() {
		count++
	}

	require.NoError(t, it.Err())
	assert.Equal(t, 2, count)
	assert.Len(t, ft.callsTo("/search"), 2)
}

func TestPaginateStopsOn404(t *testing.T) {
	ft := newFakeTransport()
	ft.SearchResponses = []string{`{"success": false, "code": 404, "results": []}`}
	q := newPaginateQuery(t, ft)

	it := q.Paginate(context.Background(), 50)
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	assert.Len(t, ft.callsTo("/search"), 1)
}

func TestPaginateStartsAtQueryOffset(t *testing.T) {
	ft := newFakeTransport()
	ft.SearchResponses = []string{pageJSON(30, 5)}
	q := newPaginateQuery(t, ft).Offset(30)
	require.NoError(t, q.Err())

	it := q.Paginate(context.Background(), 10)
	for it.Next() {
	}
	require.NoError(t, it.Err())

	assert.Equal(t, "30", ft.callsTo("/search")[0].Params.Get("offset"))
}

func TestPaginateInvalidPerPage(t *testing.T) {
	ft := newFakeTransport()
	q := newPaginateQuery(t, ft)

	for _, perPage := range []int{0, -1} {
		it := q.Paginate(context.Background(), perPage)
		assert.False(t, it.Next())
		assert.ErrorIs(t, it.Err(), ErrInvalidArgument)
	}
	assert.Empty(t, ft.callsTo("/search"))
}

func TestPaginateEnforcesPreconditions(t *testing.T) {
	ft := newFakeTransport()
	client := New(ft)
	ctx := context.Background()

	t.Run("missing filter", func(t *testing.T) {
		it := client.Query(ctx, "2dfets", false).
			Select("output.f11").
			Paginate(ctx, 10)
		assert.False(t, it.Next())
		assert.ErrorIs(t, it.Err(), ErrMissingFilter)
	})

	t.Run("missing select", func(t *testing.T) {
		it := client.Query(ctx, "2dfets", false).
			Filter("input.Ef", OpGreater, 0.2).
			Paginate(ctx, 10)
		assert.False(t, it.Next())
		assert.ErrorIs(t, it.Err(), ErrMissingSelect)
	})
}

func TestPaginateTransportFailureMidway(t *testing.T) {
	ft := newFakeTransport()
	ft.SearchResponses = []string{pageJSON(0, 3)}
	q := newPaginateQuery(t, ft)

	it := q.Paginate(context.Background(), 3)
	var count int
	for it.Next() {
		count++
		if count == 3 {
			// Fail the next page fetch.
			ft.SearchErr = fmt.Errorf("connection reset")
		}
	}

	assert.Equal(t, 3, count)
	assert.ErrorIs(t, it.Err(), ErrTransport)
}

func TestPaginateRecordBeforeNext(t *testing.T) {
	ft := newFakeTransport()
	q := newPaginateQuery(t, ft)

	it := q.Paginate(context.Background(), 10)
	assert.Nil(t, it.Record())
}
