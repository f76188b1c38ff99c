package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vibesql/vibedb/internal/config"
	"github.com/vibesql/vibedb/internal/dbconn"
	"github.com/vibesql/vibedb/internal/postgres"
	"github.com/vibesql/vibedb/internal/query"
	"github.com/vibesql/vibedb/internal/sqlite"
	"github.com/vibesql/vibedb/internal/version"
)

// errNoRows makes pluck exit 1 without printing anything.
var errNoRows = errors.New("no rows")

var (
	flagConfig = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML config file",
		EnvVars: []string{"VIBEDB_CONFIG"},
	}

	flagDriver = &cli.StringFlag{
		Name:  "driver",
		Usage: "postgres or sqlite",
	}

	flagReadDSN = &cli.StringFlag{
		Name:  "read-dsn",
		Usage: "connection string of the read database",
	}

	flagWriteDSN = &cli.StringFlag{
		Name:  "write-dsn",
		Usage: "connection string of the write database, defaults to --read-dsn",
	}

	flagLogLevel = &cli.StringFlag{
		Name:  "log-level",
		Usage: "trace, debug, info, warn or error",
	}

	flagParams = &cli.StringFlag{
		Name:    "params",
		Aliases: []string{"p"},
		Usage:   `JSON array of positional or object of named parameters, e.g. '[1]' or '{":id": 1}'`,
	}

	flagValues = &cli.StringFlag{
		Name:     "values",
		Usage:    `JSON object of column values, e.g. '{"username": "anna"}'`,
		Required: true,
	}

	flagWhere = &cli.StringFlag{
		Name:     "where",
		Usage:    `WHERE clause appended to the UPDATE, e.g. "WHERE id = :id"`,
		Required: true,
	}

	flagWhereParams = &cli.StringFlag{
		Name:  "where-params",
		Usage: "JSON parameters of the WHERE clause",
	}

	flagReadOnly = &cli.BoolFlag{
		Name:  "read-only",
		Usage: "run the statement on the read connection",
	}
)

// app carries the state shared by all commands once Before has run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	log    zerolog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	a := &app{stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	return &cli.App{
		Name:      "vibedb",
		Usage:     "Run parameterized SQL against PostgreSQL or SQLite",
		Version:   version.Get().Short(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			flagConfig,
			flagDriver,
			flagReadDSN,
			flagWriteDSN,
			flagLogLevel,
		},
		Before: a.before,
		// errors are reported by main
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: cli.Commands{
			a.cmdServe(),
			a.cmdExec(),
			a.cmdLists(),
			a.cmdPluck(),
			a.cmdInsert(),
			a.cmdUpdate(),
			cmdVersion(stdout),
		},
	}
}

func (a *app) before(c *cli.Context) error {
	cfg, err := config.Load(c.String(flagConfig.Name))
	if err != nil {
		return err
	}

	overrides := []struct {
		flag *cli.StringFlag
		dst  *string
	}{
		{flagDriver, &cfg.Driver},
		{flagReadDSN, &cfg.ReadDSN},
		{flagWriteDSN, &cfg.WriteDSN},
		{flagLogLevel, &cfg.LogLevel},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag.Name) {
			*o.dst = c.String(o.flag.Name)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	a.cfg = cfg
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return nil
}

// handles are the open database pools behind an executor.
type handles struct {
	executor *query.Executor
	read     *dbconn.Conn
	closers  []io.Closer
}

func (h *handles) Close() error {
	var errs []error
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *app) open(ctx context.Context) (*handles, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	dialect, err := a.cfg.Dialect()
	if err != nil {
		return nil, err
	}

	h := &handles{}
	read, err := a.connect(ctx, h, dialect, a.cfg.ReadDSN)
	if err != nil {
		return nil, err
	}
	h.read = read

	write := read
	if !a.cfg.SharedWrite() {
		write, err = a.connect(ctx, h, dialect, a.cfg.WriteDSN)
		if err != nil {
			h.Close()
			return nil, err
		}
	}

	h.executor, err = query.NewExecutor(query.Config{
		Read:   read,
		Write:  write,
		Logger: &a.log,
	})
	if err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (a *app) connect(ctx context.Context, h *handles, dialect dbconn.Dialect, dsn string) (*dbconn.Conn, error) {
	switch dialect {
	case dbconn.Postgres:
		conn, err := postgres.NewConnection(ctx, dsn)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, conn)
		return dbconn.New(conn.DB(), dialect), nil
	case dbconn.SQLite:
		conn, err := sqlite.NewConnection(ctx, dsn)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, conn)
		return dbconn.New(conn.DB(), dialect), nil
	default:
		return nil, fmt.Errorf("unsupported dialect %s", dialect)
	}
}

// withExecutor opens the databases, runs fn under the query timeout and
// closes everything afterwards.
func (a *app) withExecutor(c *cli.Context, fn func(ctx context.Context, e *query.Executor) error) error {
	h, err := a.open(c.Context)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			a.log.Error().Err(err).Msg("failed to close database")
		}
	}()

	ctx := c.Context
	if a.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.QueryTimeout)
		defer cancel()
	}
	return fn(ctx, h.executor)
}

func parseParams(c *cli.Context, flag *cli.StringFlag) (query.Params, error) {
	raw := c.String(flag.Name)
	if raw == "" {
		return nil, nil
	}
	var params query.Params
	if err := params.UnmarshalJSON([]byte(raw)); err != nil {
		return nil, fmt.Errorf("--%s: %w", flag.Name, err)
	}
	return params, nil
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one %s argument", c.Command.Name, name)
	}
	return c.Args().First(), nil
}
