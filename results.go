package results

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// baseAPI is the path prefix for every results endpoint.
const baseAPI = "results"

// Client is the entry point of the package: a thin facade over a Transport
// that constructs Query builders and exposes the direct dbexplorer calls.
//
// A Client holds no mutable state of its own and is safe for concurrent use
// as long as its Transport is.
type Client struct {
	transport Transport
}

// New creates a Client on top of the given transport. The session subpackage
// provides the standard HTTP transport.
func New(transport Transport) *Client {
	return &Client{transport: transport}
}

// Query creates a builder bound to the given tool. No network call is made
// here; the tool's schema is fetched lazily, using ctx, on the first builder
// call that validates a field.
//
// A fresh Query defaults to revision 0 (latest), validRuns false, offset 0,
// and a page window of DefaultLimit records.
func (c *Client) Query(ctx context.Context, tool string, simtool bool) *Query {
	return newQuery(ctx, c, tool, simtool)
}

// Tools lists the available tools. With descriptionActive, the listing
// includes tool descriptions.
func (c *Client) Tools(ctx context.Context, simtool, descriptionActive bool) (*Response, error) {
	params := url.Values{}
	params.Set("simtool", boolParam(simtool))
	params.Set("description_active", boolParam(descriptionActive))

	return c.get(ctx, "Client.Tools", baseAPI+"/dbexplorer/tools", params)
}

// ToolDetail fetches detailed information about one tool, including its
// input and output field schema. Revision 0 selects the latest revision.
func (c *Client) ToolDetail(ctx context.Context, tool string, revision int, simtool bool) (*Response, error) {
	form := url.Values{}
	form.Set("tool", tool)
	if revision != 0 {
		form.Set("revision", strconv.Itoa(revision))
	}
	if simtool {
		form.Set("simtool", "true")
	}

	return c.post(ctx, "Client.ToolDetail", baseAPI+"/dbexplorer/tool_detail", form)
}

// SquidDetail fetches detailed information about one simulation run. The
// output parameter selects the representation ("json" or "xml"); an empty
// value defaults to "json".
func (c *Client) SquidDetail(ctx context.Context, squid, output string, simtool bool) (*Response, error) {
	if output == "" {
		output = "json"
	}
	params := url.Values{}
	params.Set("squid", squid)
	params.Set("output", output)
	params.Set("simtool", boolParam(simtool))

	return c.get(ctx, "Client.SquidDetail", baseAPI+"/dbexplorer/squid_detail", params)
}

// SquidFiles lists the files associated with one simulation run. File
// listings are only available for simulation tools, so most callers pass
// simtool true.
func (c *Client) SquidFiles(ctx context.Context, squid string, simtool bool) (*Response, error) {
	form := url.Values{}
	form.Set("squid", squid)
	form.Set("simtool", boolParam(simtool))

	return c.post(ctx, "Client.SquidFiles", baseAPI+"/dbexplorer/squid_files", form)
}

// Records reports database record counts for the tool namespace (Rappture
// or Sim2L).
func (c *Client) Records(ctx context.Context, simtool bool) (*Response, error) {
	params := url.Values{}
	params.Set("simtool", boolParam(simtool))

	return c.get(ctx, "Client.Records", baseAPI+"/dbexplorer/records", params)
}

// SearchParams are the wire-call parameters of one search request. The
// Query builder produces them from its accumulated state; Search accepts
// them directly for callers that already hold filters and fields as data.
type SearchParams struct {
	Tool      string
	Filters   []Filter
	Fields    []string
	Limit     int
	Offset    int
	Revision  int
	ValidRuns bool
	Simtool   bool
	Sort      string
	SortAsc   bool
	Random    bool
}

// Search runs a one-shot search, equivalent to building a Query, applying
// each filter and field, and calling Execute once. It applies the same
// validation as the builder path: every filter operation and every field is
// checked against the tool's schema, and the at-least-one-filter and
// at-least-one-field rules hold.
func (c *Client) Search(ctx context.Context, p SearchParams) (*Response, error) {
	q := c.Query(ctx, p.Tool, p.Simtool).
		Revision(p.Revision).
		ValidRuns(p.ValidRuns).
		Random(p.Random)
	if p.Limit > 0 {
		q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q.Offset(p.Offset)
	}
	if p.Sort != "" {
		q.Sort(p.Sort, p.SortAsc)
	}
	for _, f := range p.Filters {
		q.Filter(f.Field, f.Operation, f.Value)
	}
	q.Select(p.Fields...)

	return q.Execute(ctx)
}

// StatsParams are the parameters of one stats request.
type StatsParams struct {
	Tool      string
	Filters   []Filter
	Fields    []string
	Limit     int
	Revision  int
	ValidRuns bool
	Simtool   bool
}

// Stats requests server-side aggregate statistics over the matching runs
// instead of row results. Filters and fields go through the same schema
// validation as Search.
func (c *Client) Stats(ctx context.Context, p StatsParams) (*Response, error) {
	q := c.Query(ctx, p.Tool, p.Simtool).
		Revision(p.Revision).
		ValidRuns(p.ValidRuns)
	for _, f := range p.Filters {
		q.Filter(f.Field, f.Operation, f.Value)
	}
	q.Select(p.Fields...)
	if err := q.checkExecutable(ctx, "Client.Stats"); err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	filters, fields, err := encodeFilterFields(p.Filters, p.Fields)
	if err != nil {
		return nil, NewArgumentError("Client.Stats", err)
	}

	form := url.Values{}
	form.Set("tool", p.Tool)
	form.Set("filters", filters)
	form.Set("results", fields)
	form.Set("limit", strconv.Itoa(limit))
	form.Set("revision", strconv.Itoa(p.Revision))
	form.Set("valid_runs", boolParam(p.ValidRuns))
	form.Set("simtool", boolParam(p.Simtool))

	return c.post(ctx, "Client.Stats", baseAPI+"/dbexplorer/stats", form)
}

// DownloadParams identify what to download for one simulation run. Field
// selects a single output or input field; FileName selects a stored file
// instead. Complete restricts the payload to input fields only.
type DownloadParams struct {
	Tool     string
	Squid    string
	Field    string
	FileName string
	Complete bool
	Simtool  bool
}

// Download fetches raw result data for one identified run and returns the
// payload exactly as the transport delivered it; whether a field resolves to
// a curve or a scalar is left to the caller.
func (c *Client) Download(ctx context.Context, p DownloadParams) ([]byte, error) {
	params := url.Values{}
	params.Set("tool", p.Tool)
	params.Set("squid", p.Squid)
	params.Set("complete", boolParam(p.Complete))
	params.Set("simtool", boolParam(p.Simtool))
	if p.Field != "" {
		params.Set("field", p.Field)
	}
	if p.FileName != "" {
		params.Set("file", p.FileName)
	}

	body, err := c.transport.Get(ctx, baseAPI+"/download", params)
	if err != nil {
		return nil, NewTransportError("Client.Download",
			fmt.Errorf("%w: %v", ErrTransport, err))
	}
	return body, nil
}

// search is the unvalidated wire call behind Query.Execute, Iterator, and
// Search. Parameters at their default values are omitted from the form, the
// way the API expects.
func (c *Client) search(ctx context.Context, p SearchParams) (*Response, error) {
	filters, fields, err := encodeFilterFields(p.Filters, p.Fields)
	if err != nil {
		return nil, NewArgumentError("Client.Search", err)
	}

	form := url.Values{}
	form.Set("tool", p.Tool)
	form.Set("filters", filters)
	form.Set("results", fields)
	form.Set("limit", strconv.Itoa(p.Limit))
	if p.Offset != 0 {
		form.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Revision != 0 {
		form.Set("revision", strconv.Itoa(p.Revision))
	}
	if !p.ValidRuns {
		form.Set("valid_runs", "false")
	}
	if p.Simtool {
		form.Set("simtool", "true")
	}
	if p.Sort != "" {
		form.Set("sort", p.Sort)
		form.Set("sort_asc", boolParam(p.SortAsc))
	}
	if p.Random {
		form.Set("random", "true")
	}

	return c.post(ctx, "Client.Search", baseAPI+"/dbexplorer/search", form)
}

// get issues a GET round trip and decodes the response envelope.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) (*Response, error) {
	body, err := c.transport.Get(ctx, path, params)
	if err != nil {
		return nil, NewTransportError(op, fmt.Errorf("%w: %v", ErrTransport, err))
	}
	return decodeResponse(op, body)
}

// post issues a form-encoded POST round trip and decodes the response
// envelope.
func (c *Client) post(ctx context.Context, op, path string, form url.Values) (*Response, error) {
	body, err := c.transport.Post(ctx, path, form)
	if err != nil {
		return nil, NewTransportError(op, fmt.Errorf("%w: %v", ErrTransport, err))
	}
	return decodeResponse(op, body)
}

func decodeResponse(op string, body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewTransportError(op,
			fmt.Errorf("%w: malformed response: %v", ErrTransport, err))
	}
	return &resp, nil
}

// encodeFilterFields JSON-encodes the filters and result fields the way the
// API expects them inside the form body.
func encodeFilterFields(filters []Filter, fields []string) (string, string, error) {
	if filters == nil {
		filters = []Filter{}
	}
	if fields == nil {
		fields = []string{}
	}

	fj, err := json.Marshal(filters)
	if err != nil {
		return "", "", fmt.Errorf("encode filters: %w", err)
	}
	rj, err := json.Marshal(fields)
	if err != nil {
		return "", "", fmt.Errorf("encode result fields: %w", err)
	}
	return string(fj), string(rj), nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
