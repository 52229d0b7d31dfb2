// Package opruntime is a client-side runtime for asynchronous
// operations: network requests, cached reads, and mutations that need
// retry, deduplication, staleness tracking, and pagination without each
// call site reimplementing that plumbing.
//
// Three paradigms cover the shapes async work takes in a typical client
// app:
//
//	Store[T]           a single published value, re-run on demand
//	PaginatedStore[T]  an ordered sequence of pages fetched incrementally
//	MutationStore[T]   a side-effecting call with bounded history
//
// All three are declared from an Operation (or its Page/mutation
// variant) and registered with a Client under a Path:
//
//	client := opruntime.NewClient(opruntime.WithClientLogger(logger))
//	op := opruntime.NewOperation(
//		opruntime.NewPath("user", userID),
//		func(ctx opruntime.Context, c opruntime.Continuation[User]) {
//			u, err := fetchUser(opruntime.StdContext(ctx), userID)
//			if err != nil {
//				c.Error(err)
//				return
//			}
//			c.Return(u)
//		},
//	).WithModifiers(
//		opruntime.Retry[User](3),
//		opruntime.LogDuration[User](),
//	)
//	store := opruntime.GetStore(client, op.Path(), op)
//	user, err := store.Run(ctx)
//
// Modifiers wrap an Operation's run function to add cross-cutting
// behavior; they compose in the order passed to WithModifiers, each one
// seeing the fully-wrapped behavior of everything after it in the chain.
// Standard modifiers cover retry with pluggable backoff (Retry), request
// collapsing (Deduplicated), binding staleness and automatic-run
// predicates into Context (StaleWhen, EnableAutomaticRunning), placeholder values
// (DefaultValue), dependency-driven re-running (RerunOnChange), and
// structured logging (LogDuration).
//
// A Client's Stores can be queried by Path prefix (Client.Paths,
// Client.Stores) for bulk operations like invalidating or resetting a
// whole subtree, and RunMany fans an invalidation out across every Store
// under a prefix concurrently.
package opruntime
