package main

import (
	"github.com/spf13/cobra"
	"github.com/vulpemventures/coinsim/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the current configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return printJSON(config.All())
	},
}
