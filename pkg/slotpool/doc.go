// Package slotpool keeps a fixed number of engine instances and binds client
// sessions to them.
//
// A Pool owns N slots, each holding one engine instance for the lifetime of
// the pool. A session id is bound to at most one slot and a slot to at most
// one session. Binding never blocks: when every slot is taken the caller gets
// ErrResourceExhausted immediately and is expected to retry later.
//
// A bound slot holds at most one open document. Loading a new document closes
// the previous one first; a failed load frees the slot again. Releasing a slot
// closes its document and, when asked to, quits the engine instance and starts
// a fresh one so the next session inherits no state.
//
// # Concurrency
//
// The slot table is guarded by one pool-wide mutex that is never held across
// an engine call. Each slot also has an operation lock, taken after the
// session is resolved and before the engine is touched, so operations of one
// session run one at a time. Every bind and unbind bumps the slot's
// generation; an operation that resolved a slot re-checks the generation
// under the operation lock and fails with ErrNoSession if the slot was
// released (and possibly rebound) in between.
//
// # Idle sessions
//
// Sessions that are never closed keep their slot. Run starts a loop that,
// when an idle timeout is configured, releases slots unused for longer than
// that and retries the restart of broken slots.
//
// # Usage
//
//	pool, err := slotpool.New(ctx, xlsx.NewLauncher(), 4,
//	    slotpool.WithLogger(log),
//	    slotpool.WithRegisterer(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    return err // engine instances could not be created
//	}
//	defer pool.Close(context.Background())
//
//	if _, err := pool.Load(ctx, token, "alice", path); err != nil {
//	    // ErrResourceExhausted, ErrLoadFailed
//	}
//	v, err := pool.ReadRange(ctx, token, "Sheet1", "B2")
package slotpool
