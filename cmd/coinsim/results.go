package main

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	summaryCmd = &cobra.Command{
		Use:   "summary <run-id>",
		Short: "Show the summaries of a past run",
		Args:  cobra.ExactArgs(1),
		RunE:  summaryAction,
	}
	outcomesCmd = &cobra.Command{
		Use:   "outcomes <run-id>",
		Short: "Show the outcome of every withdrawal attempt of a past run",
		Args:  cobra.ExactArgs(1),
		RunE:  outcomesAction,
	}
)

func summaryAction(cmd *cobra.Command, args []string) error {
	appCfg, err := newAppConfig(nil)
	if err != nil {
		return err
	}
	defer appCfg.RepoManager().Close()

	summaries, err := appCfg.SimulationService().GetSummaries(
		context.Background(), args[0],
	)
	if err != nil {
		return err
	}
	return printJSON(summaries)
}

func outcomesAction(cmd *cobra.Command, args []string) error {
	appCfg, err := newAppConfig(nil)
	if err != nil {
		return err
	}
	defer appCfg.RepoManager().Close()

	outcomes, err := appCfg.SimulationService().GetOutcomes(
		context.Background(), args[0],
	)
	if err != nil {
		return err
	}
	return printJSON(outcomes)
}
