package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/sim/examples/pingpong"
	"github.com/sarchlab/ckpt/sim/serialization"
)

var errDiverged = errors.New("restored model diverged from the original")

func newRoundTripCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip",
		Short: "Checkpoint the model, restore it, and run both to the end.",
		Long: `roundtrip takes a checkpoint at the checkpoint time, restores ` +
			`it into a new model, and runs both models to the end. The ` +
			`command fails if the two models end in different states.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCodec(cmd, cfg, func(codec *serialization.Codec) error {
				return roundTrip(cmd, cfg, codec)
			})
		},
	}
}

func roundTrip(
	cmd *cobra.Command,
	cfg *config,
	codec *serialization.Codec,
) error {
	out := cmd.OutOrStdout()
	original := cfg.buildModel()

	buf, err := codec.Serialize(original)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "checkpoint: %d bytes at t=%d, %d events pending\n",
		len(buf), original.Now(), original.Pending())

	restored := &pingpong.Model{}

	err = codec.Deserialize(buf, restored)
	if err != nil {
		return err
	}

	original.Run()
	restored.Run()

	fmt.Fprintf(out, "original finished at t=%d\n", original.Now())
	fmt.Fprintf(out, "restored finished at t=%d\n", restored.Now())

	for _, st := range restored.Stats() {
		fmt.Fprintf(out, "  %s sent=%d received=%d completed=%d rtt=%.2f\n",
			st.Name, st.Sent, st.Received, st.Completed, st.MeanRTT)
	}

	if original.Now() != restored.Now() ||
		!slices.Equal(original.Stats(), restored.Stats()) {
		return errDiverged
	}

	fmt.Fprintln(out, "identical: true")

	return nil
}
