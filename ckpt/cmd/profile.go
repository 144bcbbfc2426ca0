package cmd

import (
	"bytes"
	"fmt"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/google/pprof/profile"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ckpt/sim/examples/pingpong"
	"github.com/sarchlab/ckpt/sim/serialization"
)

func newProfileCmd(cfg *config) *cobra.Command {
	var (
		iterations int
		top        int
	)

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile repeated checkpoints and restores.",
		Long: `profile checkpoints and restores the model repeatedly under ` +
			`the CPU profiler and prints the functions that take the most ` +
			`time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCodec(cmd, cfg, func(codec *serialization.Codec) error {
				prof, elapsed, err := profileRoundTrips(cfg, codec, iterations)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "profiled %d round trips in %s\n",
					iterations, elapsed)

				costs := topFunctions(prof, top)
				if len(costs) == 0 {
					fmt.Fprintln(out, "no samples")
					return nil
				}

				for _, c := range costs {
					fmt.Fprintf(out, "%12d  %s\n", c.value, c.name)
				}

				return nil
			})
		},
	}

	profileCmd.Flags().IntVar(&iterations, "iterations", 1000,
		"Number of checkpoint and restore round trips.")
	profileCmd.Flags().IntVar(&top, "top", 10,
		"Number of functions to print.")

	return profileCmd
}

func profileRoundTrips(
	cfg *config,
	codec *serialization.Codec,
	iterations int,
) (*profile.Profile, time.Duration, error) {
	m := cfg.buildModel()
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()

	for i := 0; i < iterations; i++ {
		data, err := codec.Serialize(m)
		if err != nil {
			pprof.StopCPUProfile()
			return nil, 0, err
		}

		restored := &pingpong.Model{}

		err = codec.Deserialize(data, restored)
		if err != nil {
			pprof.StopCPUProfile()
			return nil, 0, err
		}
	}

	elapsed := time.Since(start)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		return nil, 0, err
	}

	return prof, elapsed, nil
}

type funcCost struct {
	name  string
	value int64
}

// topFunctions returns the n functions with the highest flat cost. The cost
// is taken from the cpu sample type if the profile has one, otherwise from
// the last sample type.
func topFunctions(prof *profile.Profile, n int) []funcCost {
	if len(prof.SampleType) == 0 {
		return nil
	}

	index := len(prof.SampleType) - 1
	for i, st := range prof.SampleType {
		if st.Type == "cpu" {
			index = i
		}
	}

	flat := make(map[string]int64)

	for _, s := range prof.Sample {
		if len(s.Location) == 0 || len(s.Location[0].Line) == 0 ||
			index >= len(s.Value) {
			continue
		}

		fn := s.Location[0].Line[0].Function
		if fn == nil {
			continue
		}

		flat[fn.Name] += s.Value[index]
	}

	costs := make([]funcCost, 0, len(flat))
	for name, value := range flat {
		costs = append(costs, funcCost{name: name, value: value})
	}

	sort.Slice(costs, func(i, j int) bool {
		if costs[i].value != costs[j].value {
			return costs[i].value > costs[j].value
		}

		return costs[i].name < costs[j].name
	})

	if len(costs) > n {
		costs = costs[:n]
	}

	return costs
}
