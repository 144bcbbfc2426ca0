package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/sim/serialization"
)

func newSizeCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the size of the checkpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCodec(cmd, cfg, func(codec *serialization.Codec) error {
				m := cfg.buildModel()

				size, err := codec.Size(m)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(),
					"%d bytes at t=%d (pointer tracking %t)\n",
					size, m.Now(), codec.PointerTracking())

				return nil
			})
		},
	}
}
