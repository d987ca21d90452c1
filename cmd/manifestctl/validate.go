package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type validateResult struct {
	File  string `json:"file" yaml:"file"`
	OK    bool   `json:"ok" yaml:"ok"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func validateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <snapshot>...",
		Short: "Check that snapshots decode and build into a vessel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]validateResult, 0, len(args))
			failed := 0
			for _, path := range args {
				r := validateResult{File: path, OK: true}
				if _, _, err := openSession(cmd, flags, path); err != nil {
					r.OK = false
					r.Error = err.Error()
					failed++
				}
				results = append(results, r)
			}
			if err := encode(cmd.OutOrStdout(), flags.output, results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d snapshots invalid", failed, len(args))
			}
			return nil
		},
	}
}
