package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pump1090/pump1090/pump/internal/config"
	"github.com/pump1090/pump1090/pump/internal/status"
)

const defaultStatusAddr = "localhost:9100"

func newStatusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the counters of a running pump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("addr") {
				if env := os.Getenv(config.EnvMetricsAddr); env != "" {
					addr = env
				}
			}
			rep, err := status.Fetch(cmd.Context(), nil, addr)
			if err != nil {
				return err
			}
			return rep.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultStatusAddr, "metrics address of the running pump (env "+config.EnvMetricsAddr+")")
	return cmd
}
