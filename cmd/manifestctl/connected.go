package main

import (
	"github.com/spf13/cobra"

	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

func connectedCmd(flags *globalFlags) *cobra.Command {
	var from string
	var depth int
	cmd := &cobra.Command{
		Use:   "connected <snapshot>",
		Short: "List the parts reachable through open hatches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			ids, err := sess.ConnectedParts(core.PartID(from), depth)
			if err != nil {
				return err
			}
			out := make([]string, 0, len(ids))
			for _, id := range ids {
				out = append(out, string(id))
			}
			return encode(cmd.OutOrStdout(), flags.output, out)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Starting part id")
	cmd.Flags().IntVar(&depth, "depth", topology.Unlimited, "Maximum hatch crossings (0 for unlimited)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
