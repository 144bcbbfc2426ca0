package cmd

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/sim/examples/pingpong"
	"github.com/sarchlab/ckpt/sim/serialization"
	"github.com/sarchlab/ckpt/tracing"
)

// Environment variables that provide the default value of the flags.
const (
	envTracking = "CKPT_TRACKING"
	envTraceDB  = "CKPT_TRACE_DB"
	envCount    = "CKPT_COUNT"
)

type config struct {
	verbose  bool
	tracking bool
	traceDB  string
	comps    int
	pings    uint64
	latency  uint64
	until    uint64

	showSummary bool

	recorder *tracing.SQLiteRecorder
	summary  *tracing.SummaryRecorder
}

// loadEnv loads the .env file in the working directory, if there is one.
func loadEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

func defaultConfig() *config {
	cfg := &config{
		tracking: true,
		comps:    2,
		pings:    4,
		latency:  2,
		until:    4,
	}

	if v, err := strconv.ParseBool(os.Getenv(envTracking)); err == nil {
		cfg.tracking = v
	}

	if v, err := strconv.ParseUint(os.Getenv(envCount), 10, 64); err == nil {
		cfg.pings = v
	}

	cfg.traceDB = os.Getenv(envTraceDB)

	return cfg
}

func (c *config) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.BoolVarP(&c.verbose, "verbose", "v", c.verbose,
		"Print debug logs.")
	flags.BoolVar(&c.tracking, "tracking", c.tracking,
		"Preserve pointer identity in checkpoints. Defaults to $"+envTracking+".")
	flags.StringVar(&c.traceDB, "trace-db", c.traceDB,
		"Record traversals into this SQLite database. Defaults to $"+
			envTraceDB+".")
	flags.IntVar(&c.comps, "comps", c.comps,
		"Number of components in the model.")
	flags.Uint64Var(&c.pings, "pings", c.pings,
		"Number of pings each component sends. Defaults to $"+envCount+".")
	flags.Uint64Var(&c.latency, "latency", c.latency,
		"One-way latency between two components.")
	flags.Uint64Var(&c.until, "until", c.until,
		"Time at which the checkpoint is taken.")
	flags.BoolVar(&c.showSummary, "summary", c.showSummary,
		"Print a summary of the traversals when done.")
}

func (c *config) buildModel() *pingpong.Model {
	m := pingpong.MakeBuilder().
		WithNumComps(c.comps).
		WithNumPings(c.pings).
		WithLatency(c.latency).
		Build("PingPong")
	m.RunUntil(c.until)

	return m
}

func (c *config) buildCodec() (*serialization.Codec, error) {
	builder := serialization.MakeCodecBuilder().
		WithPointerTracking(c.tracking)

	var recorders tracing.MultiRecorder

	if c.traceDB != "" {
		c.recorder = tracing.NewSQLiteRecorder(c.traceDB)

		err := c.recorder.Init()
		if err != nil {
			return nil, err
		}

		recorders = append(recorders, c.recorder)
	}

	if c.showSummary {
		c.summary = tracing.NewSummaryRecorder()
		recorders = append(recorders, c.summary)
	}

	if len(recorders) > 0 {
		builder = builder.WithRecorder(recorders)
	}

	return builder.Build(), nil
}

// close flushes the recorders and releases the trace database.
func (c *config) close(cmd *cobra.Command) error {
	if c.summary != nil {
		c.summary.Flush()
		printSummary(cmd, c.summary)
	}

	if c.recorder == nil {
		return nil
	}

	c.recorder.Flush()

	return c.recorder.Close()
}
