package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/sim/serialization"
	"github.com/sarchlab/ckpt/sim/serialization/objectmap"
)

func newPrintCmd(cfg *config) *cobra.Command {
	var depth int

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the object map of the model.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCodec(cmd, cfg, func(codec *serialization.Codec) error {
				m := cfg.buildModel()

				root, err := codec.Map(m.Name(), m)
				if err != nil {
					return err
				}

				w := objectmap.NewWalker(m.Name(), root)
				w.Print(cmd.OutOrStdout(), depth)

				return nil
			})
		},
	}

	printCmd.Flags().IntVar(&depth, "depth", objectmap.Unlimited,
		"Levels to print below the model. -1 prints everything.")

	return printCmd
}
