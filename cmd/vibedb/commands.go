package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vibesql/vibedb/internal/query"
	"github.com/vibesql/vibedb/internal/server"
	"github.com/vibesql/vibedb/internal/version"
)

func (a *app) cmdServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Action: func(c *cli.Context) error {
			return a.serve(c)
		},
	}
}

func (a *app) serve(c *cli.Context) error {
	startTime := time.Now()
	a.log.Info().Str("version", version.Get().Short()).Msg("starting vibedb")

	h, err := a.open(c.Context)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := h.Close(); err != nil {
			a.log.Error().Err(err).Msg("failed to close database")
		}
	}()

	httpServer := server.NewServer(h.executor, server.Options{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		QueryTimeout: a.cfg.QueryTimeout,
		Health:       h.read.DB().PingContext,
		Logger:       &a.log,
	})
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	a.log.Info().
		Str("driver", a.cfg.Driver).
		Str("addr", "http://"+httpServer.Addr()).
		Dur("startup", time.Since(startTime)).
		Msg("vibedb ready")

	if err := httpServer.WaitForShutdown(c.Context); err != nil {
		return err
	}
	a.log.Info().Msg("shutdown complete")
	return nil
}

func (a *app) cmdExec() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Execute a statement and print the affected row count",
		ArgsUsage: "SQL",
		Flags:     []cli.Flag{flagParams, flagReadOnly},
		Action: func(c *cli.Context) error {
			sql, err := requireArg(c, "SQL")
			if err != nil {
				return err
			}
			params, err := parseParams(c, flagParams)
			if err != nil {
				return err
			}

			return a.withExecutor(c, func(ctx context.Context, e *query.Executor) error {
				run := e.Execute
				if c.Bool(flagReadOnly.Name) {
					run = e.ExecuteRead
				}
				n, err := run(ctx, sql, params)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.stdout, n)
				return err
			})
		},
	}
}

func (a *app) cmdLists() *cli.Command {
	return &cli.Command{
		Name:      "lists",
		Usage:     "Print the first column of every row, one per line",
		ArgsUsage: "SQL",
		Flags:     []cli.Flag{flagParams},
		Action: func(c *cli.Context) error {
			sql, err := requireArg(c, "SQL")
			if err != nil {
				return err
			}
			params, err := parseParams(c, flagParams)
			if err != nil {
				return err
			}

			return a.withExecutor(c, func(ctx context.Context, e *query.Executor) error {
				values, err := e.Lists(ctx, sql, params)
				if err != nil {
					return err
				}
				for _, v := range values {
					if err := printValue(a.stdout, v); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (a *app) cmdPluck() *cli.Command {
	return &cli.Command{
		Name:      "pluck",
		Usage:     "Print the first column of the first row; exits 1 when there is no row",
		ArgsUsage: "SQL",
		Flags:     []cli.Flag{flagParams},
		Action: func(c *cli.Context) error {
			sql, err := requireArg(c, "SQL")
			if err != nil {
				return err
			}
			params, err := parseParams(c, flagParams)
			if err != nil {
				return err
			}

			return a.withExecutor(c, func(ctx context.Context, e *query.Executor) error {
				v, err := e.Pluck(ctx, sql, params)
				if err != nil {
					return err
				}
				if v == query.NoRows {
					return errNoRows
				}
				return printValue(a.stdout, v)
			})
		},
	}
}

func (a *app) cmdInsert() *cli.Command {
	return &cli.Command{
		Name:      "insert",
		Usage:     "Insert one row",
		ArgsUsage: "TABLE",
		Flags:     []cli.Flag{flagValues},
		Action: func(c *cli.Context) error {
			table, err := requireArg(c, "TABLE")
			if err != nil {
				return err
			}
			values, err := parseParams(c, flagValues)
			if err != nil {
				return err
			}
			if err := query.ValidateWrite(table, values); err != nil {
				return err
			}

			return a.withExecutor(c, func(ctx context.Context, e *query.Executor) error {
				return e.Insert(ctx, table, values)
			})
		},
	}
}

func (a *app) cmdUpdate() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update the rows matched by --where",
		ArgsUsage: "TABLE",
		Flags:     []cli.Flag{flagValues, flagWhere, flagWhereParams},
		Action: func(c *cli.Context) error {
			table, err := requireArg(c, "TABLE")
			if err != nil {
				return err
			}
			values, err := parseParams(c, flagValues)
			if err != nil {
				return err
			}
			whereParams, err := parseParams(c, flagWhereParams)
			if err != nil {
				return err
			}
			where := c.String(flagWhere.Name)
			if err := query.ValidateWrite(table, values); err != nil {
				return err
			}
			if err := query.CheckWhere(where); err != nil {
				return err
			}

			return a.withExecutor(c, func(ctx context.Context, e *query.Executor) error {
				return e.Update(ctx, table, values, where, whereParams)
			})
		},
	}
}

func cmdVersion(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "short", Usage: "print the version number only"},
		},
		Action: func(c *cli.Context) error {
			info := version.Get()
			if c.Bool("short") {
				_, err := fmt.Fprintln(w, info.Short())
				return err
			}
			_, err := fmt.Fprintln(w, info.Full())
			return err
		},
	}
}

// printValue writes v on its own line. SQL NULL prints as "NULL".
func printValue(w io.Writer, v any) error {
	var err error
	switch v := v.(type) {
	case nil:
		_, err = fmt.Fprintln(w, "NULL")
	case []byte:
		_, err = fmt.Fprintln(w, string(v))
	case time.Time:
		_, err = fmt.Fprintln(w, v.Format(time.RFC3339Nano))
	default:
		_, err = fmt.Fprintln(w, v)
	}
	return err
}
