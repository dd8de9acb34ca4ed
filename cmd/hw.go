package main

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_bench/internal/collector"
	"github.com/ALEYI17/InfraSight_bench/internal/probes"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newHwCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hw",
		Short: "Print the hardware descriptor and sampling capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := probes.Detect(cmd.Context(), collector.ProbeOptions(a.cfg))
			defer caps.Close()

			out := struct {
				Hardware any  `yaml:"hardware"`
				Perf     bool `yaml:"perf_available"`
			}{Hardware: caps.Hardware}
			if caps.Cache != nil {
				out.Perf = caps.Cache.Available()
			}

			data, err := yaml.Marshal(out)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
