package main

import (
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/questwork/pkg/version"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qw version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.jsonOut {
				return a.printJSON(struct {
					Version string `json:"version"`
				}{version.Version})
			}
			a.printf("qw %s\n", version.Version)
			return nil
		},
	}
}
