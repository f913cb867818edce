package pool

import (
	"sync"
	"time"
)

// Lease is exclusive use of one pooled connection. The zero value is not
// usable; leases come from Acquire, TryAcquire or With.
type Lease struct {
	pool       *Pool
	conn       Conn
	acquiredAt time.Time
	once       sync.Once
}

func newLease(p *Pool, conn Conn) *Lease {
	return &Lease{
		pool:       p,
		conn:       conn,
		acquiredAt: time.Now(),
	}
}

// Conn returns the leased connection. It must not be used after Release or
// Discard.
func (l *Lease) Conn() Conn {
	return l.conn
}

// Held returns how long the lease has been held.
func (l *Lease) Held() time.Duration {
	return time.Since(l.acquiredAt)
}

// Release returns the connection to the pool. Only the first call of Release
// or Discard has any effect.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.put(l.conn, false)
	})
}

// Discard closes the connection instead of returning it, freeing its slot for
// a fresh dial.
func (l *Lease) Discard() {
	l.once.Do(func() {
		l.pool.put(l.conn, true)
	})
}
