package pool

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ajitpratap0/pgscope/pkg/dberrors"
)

// Dialer establishes new connections for a Pool.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Conn, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}

type pgxDialer struct {
	config *pgx.ConnConfig
}

// PgxDialer parses connString once and returns a Dialer that opens pgx
// connections with it. A positive connectTimeout overrides any
// connect_timeout in the string.
func PgxDialer(connString string, connectTimeout time.Duration) (Dialer, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		// the parse error may echo the password, so it is not wrapped as the cause
		return nil, dberrors.New(dberrors.ErrorTypeConfig, "invalid database connection string")
	}
	if connectTimeout > 0 {
		cfg.ConnectTimeout = connectTimeout
	}
	return &pgxDialer{config: cfg}, nil
}

func (d *pgxDialer) Dial(ctx context.Context) (Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, d.config)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.ErrorTypeConnection, "failed to connect to database").
			WithDetail("host", d.config.Host).
			WithDetail("database", d.config.Database)
	}
	return conn, nil
}
