package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/inspect"
	"github.com/sarchlab/ckpt/sim/serialization"
)

func newInspectCmd(cfg *config) *cobra.Command {
	var tui bool

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Explore and modify the model in a console.",
		Long: `inspect opens a console over the object map of the model. ` +
			`Type help in the console to list the commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCodec(cmd, cfg, func(codec *serialization.Codec) error {
				m := cfg.buildModel()

				root, err := codec.Map(m.Name(), m)
				if err != nil {
					return err
				}

				console := inspect.NewConsole(m.Name(), root)

				if tui {
					return inspect.RunTUI("ckpt inspect "+m.Name(), console)
				}

				return console.Run(cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	inspectCmd.Flags().BoolVar(&tui, "tui", false,
		"Run the console as a full screen terminal program.")

	return inspectCmd
}
