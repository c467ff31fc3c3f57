// Package results provides a Go client for the nanoHUB simulation results
// search API (the dbexplorer endpoints).
//
// The client is organized around a fluent Query builder scoped to a single
// tool. A Query accumulates filter conditions, selected result fields, sort
// order and a pagination window, validates every field against the tool's
// schema as it is added, and translates the accumulated state into the wire
// format the remote API expects.
//
// # Getting Started
//
// Construct a Client from any Transport. The session subpackage provides the
// standard HTTP transport:
//
//	sess, err := session.New(session.Config{
//		BaseURL: "https://nanohub.org/api",
//		Token:   os.Getenv("NANOHUB_TOKEN"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := results.New(sess)
//
//	resp, err := client.Query(ctx, "2dfets", false).
//		Filter("input.Ef", results.OpGreater, 0.2).
//		Select("output.f41").
//		Limit(10).
//		Execute(ctx)
//
// # Pagination
//
// Query.Paginate walks arbitrarily large result sets one record at a time,
// fetching pages on demand:
//
//	it := client.Query(ctx, "2dfets", false).
//		Filter("input.Ef", results.OpGreater, 0.2).
//		Select("output.f41").
//		Paginate(ctx, 50)
//	for it.Next() {
//		rec := it.Record()
//		// ...
//	}
//	if err := it.Err(); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// The client uses sentinel errors and a structured Error type. Validation
// failures are detected at the builder call that caused them and carry the
// full list of valid fields for the tool:
//
//	q := client.Query(ctx, "2dfets", false).Filter("input.bogus", results.OpEquals, 1)
//	if errors.Is(q.Err(), results.ErrInvalidField) {
//		// message enumerates the tool's valid fields
//	}
//
// # Concurrency
//
// A Client is safe for concurrent use. A Query is not: it is mutable builder
// state for one logical query. Callers that need parallel searches should
// build independent Query instances.
package results
