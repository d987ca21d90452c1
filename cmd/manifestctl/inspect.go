package main

import (
	"github.com/spf13/cobra"
)

type hatchReport struct {
	Nodes [2]string `json:"nodes" yaml:"nodes,flow"`
	Title string    `json:"title" yaml:"title"`
	State string    `json:"state" yaml:"state"`
}

type crewReport struct {
	Name   string `json:"name" yaml:"name"`
	Trait  string `json:"trait" yaml:"trait"`
	Status string `json:"status" yaml:"status"`
	Part   string `json:"part,omitempty" yaml:"part,omitempty"`
}

type inspectReport struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Parts     int           `json:"parts" yaml:"parts"`
	Prelaunch bool          `json:"prelaunch" yaml:"prelaunch"`
	Hatches   []hatchReport `json:"hatches" yaml:"hatches"`
	Crew      []crewReport  `json:"crew" yaml:"crew"`
}

func inspectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Summarize a vessel: parts, hatches and crew",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, flags, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, flags *globalFlags, path string) error {
	sess, info, err := openSession(cmd, flags, path)
	if err != nil {
		return err
	}
	hatches, err := sess.Hatches()
	if err != nil {
		return err
	}

	report := inspectReport{
		ID:        info.ID,
		Name:      info.Name,
		Parts:     info.Parts,
		Prelaunch: info.Prelaunch,
		Hatches:   make([]hatchReport, 0, len(hatches)),
	}
	for _, h := range hatches {
		report.Hatches = append(report.Hatches, hatchReport{
			Nodes: [2]string{string(h.Pair.A), string(h.Pair.B)},
			Title: h.Title,
			State: h.Status(),
		})
	}
	for _, m := range sess.Crew() {
		report.Crew = append(report.Crew, crewReport{
			Name:   m.Name,
			Trait:  m.Trait,
			Status: m.Status.String(),
			Part:   string(m.Part),
		})
	}
	return encode(cmd.OutOrStdout(), flags.output, report)
}
