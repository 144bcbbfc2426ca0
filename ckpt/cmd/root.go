// Package cmd provides the command-line interface of ckpt.
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/ckpt/sim/serialization"
	"github.com/sarchlab/ckpt/tracing"
)

// newRootCmd creates the command tree. Every call returns an independent
// tree with its own configuration.
func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	rootCmd := &cobra.Command{
		Use: "ckpt",
		Short: "ckpt checkpoints, restores, and inspects a ping-pong " +
			"simulation.",
		Long: `ckpt builds a ping-pong simulation, runs it until the ` +
			`checkpoint time, and then works with the checkpointed state. ` +
			`Defaults can be set in a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.verbose {
				return nil
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}

			serialization.SetLogger(logger)

			return nil
		},
	}

	cfg.bindFlags(rootCmd)

	rootCmd.AddCommand(
		newRoundTripCmd(cfg),
		newSizeCmd(cfg),
		newPrintCmd(cfg),
		newInspectCmd(cfg),
		newProfileCmd(cfg),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := loadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load .env: %v\n", err)
		os.Exit(1)
	}

	err = newRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// withCodec builds the codec of a command and releases the recorders when
// the command is done.
func withCodec(
	cmd *cobra.Command,
	cfg *config,
	run func(codec *serialization.Codec) error,
) error {
	codec, err := cfg.buildCodec()
	if err != nil {
		return err
	}

	err = run(codec)

	closeErr := cfg.close(cmd)
	if err == nil {
		err = closeErr
	}

	return err
}

func printSummary(cmd *cobra.Command, summary *tracing.SummaryRecorder) {
	modes := summary.Modes()
	sort.Strings(modes)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "traversals:")

	for _, mode := range modes {
		s := summary.Summary(mode)
		fmt.Fprintf(out, "  %-10s count=%d failures=%d bytes=%d avg=%s\n",
			mode, s.Count, s.Failures, s.TotalBytes, s.AverageDuration())
	}
}
