package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/pgscope/pkg/config"
)

var version = "0.1.0"

const defaultPeopleSQL = "SELECT id, name, email, enabled FROM people WHERE name LIKE $1 AND enabled = $2 ORDER BY id LIMIT $3 OFFSET $4"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root, _ := buildRoot(out)
	return root
}

// buildRoot returns the root command together with the options its flags
// populate.
func buildRoot(out io.Writer) (*cobra.Command, *globalOptions) {
	opts := &globalOptions{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "pgscope",
		Short: "pgscope - pooled PostgreSQL introspection",
		Long: `pgscope inspects a PostgreSQL server through a small fixed-size connection pool.
It lists databases, tables and columns, previews tables and runs parameterized people queries.

The connection string is read from --database-url, PGSCOPE_DATABASE_URL or DATABASE_URL
(a .env file in the working directory is loaded first).`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	pf.StringVarP(&opts.output, "output", "o", formatTable, "Output format (table, json, yaml)")
	pf.BoolVar(&opts.printMetrics, "print-metrics", false, "Print Prometheus metrics to stderr on exit")
	pf.DurationVar(&opts.timeout, "timeout", time.Minute, "Overall command timeout")
	pf.String("database-url", "", "PostgreSQL connection string")
	pf.Int("pool-capacity", config.DefaultPoolCapacity, "Number of pooled connections")
	pf.Duration("acquire-timeout", 30*time.Second, "Maximum wait for a pooled connection (0 waits for --timeout)")
	pf.Duration("connect-timeout", 10*time.Second, "Maximum time to establish a connection")
	pf.String("guard-policy", config.GuardPolicyStrict, "Identifier policy (strict, reference)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-encoding", "json", "Log encoding (json, console)")
	pf.Bool("trace", false, "Export query spans to stderr")

	for key, flag := range map[string]string{
		config.KeyDatabaseURL:    "database-url",
		config.KeyPoolCapacity:   "pool-capacity",
		config.KeyAcquireTimeout: "acquire-timeout",
		config.KeyConnectTimeout: "connect-timeout",
		config.KeyGuardPolicy:    "guard-policy",
		config.KeyLogLevel:       "log-level",
		config.KeyLogEncoding:    "log-encoding",
		config.KeyEnableTracing:  "trace",
	} {
		_ = opts.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newDatabasesCmd(opts),
		newTablesCmd(opts),
		newColumnsCmd(opts),
		newPeopleCmd(opts),
		newPreviewCmd(opts),
		newPingCmd(opts),
		newVersionCmd(opts),
	)
	return root, opts
}

func newDatabasesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "databases",
		Short: "List databases on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				dbs, err := a.catalog.ListDatabases(ctx)
				if err != nil {
					return err
				}
				return renderStrings(a.out, a.format, "database", dbs)
			})
		},
	}
}

func newTablesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the public schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				tables, err := a.catalog.ListTables(ctx)
				if err != nil {
					return err
				}
				return renderStrings(a.out, a.format, "table", tables)
			})
		},
	}
}

func newColumnsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Describe the columns of a public table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				cols, err := a.catalog.ListColumns(ctx, args[0])
				if err != nil {
					return err
				}
				return renderColumns(a.out, a.format, cols)
			})
		},
	}
}

func newPeopleCmd(opts *globalOptions) *cobra.Command {
	var (
		sql           string
		name          string
		enabled       bool
		limit, offset int64
	)

	cmd := &cobra.Command{
		Use:   "people",
		Short: "Run a parameterized people query",
		Long: `Run a people query. The SQL must select id, name, email, enabled in that order
and use $1 (name), $2 (enabled), $3 (limit) and $4 (offset) as placeholders.

Example:
  pgscope people --name 'D%' --enabled --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				people, err := a.catalog.QueryPeople(ctx, sql, name, enabled, limit, offset)
				if err != nil {
					return err
				}
				return renderPeople(a.out, a.format, people)
			})
		},
	}

	cmd.Flags().StringVar(&sql, "sql", defaultPeopleSQL, "Query template with $1..$4 placeholders")
	cmd.Flags().StringVar(&name, "name", "%", "Value bound to $1")
	cmd.Flags().BoolVar(&enabled, "enabled", true, "Value bound to $2")
	cmd.Flags().Int64Var(&limit, "limit", 100, "Value bound to $3")
	cmd.Flags().Int64Var(&offset, "offset", 0, "Value bound to $4")
	return cmd
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a public table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				res, err := a.catalog.PreviewTable(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return renderResult(a.out, a.format, res)
			})
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 10, "Maximum number of rows")
	return cmd
}

func newPingCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity and show pool statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, cmd.OutOrStdout(), func(ctx context.Context, a *app) error {
				start := time.Now()
				if err := a.catalog.Ping(ctx); err != nil {
					return err
				}
				stats := a.pool.Stat()
				report := struct {
					Status  string `json:"status" yaml:"status"`
					Latency string `json:"latency" yaml:"latency"`
					Pool    any    `json:"pool" yaml:"pool"`
				}{"ok", time.Since(start).String(), stats}

				return render(a.out, a.format, report, func(tw *tabwriter.Writer) {
					fmt.Fprintf(tw, "STATUS\tLATENCY\tCAPACITY\tIDLE\tLEASED\n")
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", report.Status, report.Latency, stats.Capacity, stats.Idle, stats.Leased)
				})
			})
		},
	}
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pgscope v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			if !server {
				return nil
			}
			return run(opts, out, func(ctx context.Context, a *app) error {
				v, err := a.catalog.ServerVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Server: %s\n", v)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&server, "server", false, "Also query the server version")
	return cmd
}
