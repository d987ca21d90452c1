package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

type totalsReport struct {
	Resource string   `json:"resource" yaml:"resource"`
	Class    string   `json:"class" yaml:"class"`
	Current  float64  `json:"current" yaml:"current"`
	Total    *float64 `json:"total,omitempty" yaml:"total,omitempty"`
	Excluded []string `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func totalsOf(t aggregate.Totals) totalsReport {
	r := totalsReport{
		Resource: string(t.Resource),
		Class:    t.Class,
		Current:  t.Current,
		Total:    t.TotalOrNil(),
	}
	for _, id := range t.Excluded {
		r.Excluded = append(r.Excluded, string(id))
	}
	if t.Err != nil {
		r.Error = t.Err.Error()
	}
	return r
}

func aggregateCmd(flags *globalFlags) *cobra.Command {
	var from, resource string
	var depth int
	cmd := &cobra.Command{
		Use:   "aggregate <snapshot>",
		Short: "Total resources, crew and science over the connected parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession(cmd, flags, args[0])
			if err != nil {
				return err
			}
			start := core.PartID(from)
			if resource != "" {
				t, err := sess.Aggregate(start, depth, core.ResourceType(resource))
				if err != nil {
					return err
				}
				return encode(cmd.OutOrStdout(), flags.output, totalsOf(t))
			}

			all, err := sess.AggregateAll(start, depth)
			if err != nil {
				return err
			}
			out := make([]totalsReport, 0, len(all))
			for _, t := range all {
				out = append(out, totalsOf(t))
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
			return encode(cmd.OutOrStdout(), flags.output, out)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Starting part id")
	cmd.Flags().StringVar(&resource, "resource", "", "Resource type; every carried type when empty")
	cmd.Flags().IntVar(&depth, "depth", topology.Unlimited, "Maximum hatch crossings (0 for unlimited)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
