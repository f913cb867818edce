// Package pool implements a fixed-capacity pool of PostgreSQL connections.
//
// Architecture
//
// A Pool owns at most Capacity live connections. Capacity is enforced by a
// weighted semaphore, one permit per leased connection, so waiters are served
// in FIFO order. The idle list and the counters are guarded by a single mutex;
// dialing happens outside the lock while the caller holds a permit.
//
// Connections are created lazily. A connection is validated only when it is
// taken from or returned to the idle list: one that reports IsClosed is
// discarded and, on checkout, replaced by a fresh dial.
//
// Leases
//
// Acquire returns a *Lease with exclusive use of one connection until
// Release. Release is idempotent, so it is always safe to defer:
//
//	lease, err := p.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer lease.Release()
//
//	rows, err := query.Run(ctx, lease.Conn(), spec)
//
// With is the scoped form and releases on every exit path, including panics:
//
//	err := p.With(ctx, func(ctx context.Context, conn pool.Conn) error {
//		_, err := query.Run(ctx, conn, spec)
//		return err
//	})
//
// A caller that knows its connection is broken calls Discard instead of
// Release; the connection is closed and its slot freed for a new dial.
//
// Errors
//
//   - PoolExhausted: the acquire wait exceeded Config.AcquireTimeout or ctx
//     ended first
//   - ConnectionError: dialing failed, or the pool is closed (ErrPoolClosed)
//
// Nothing is retried inside the pool.
package pool
