package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vulpemventures/coinsim/internal/config"
	"github.com/vulpemventures/coinsim/internal/core/application"
	"github.com/vulpemventures/coinsim/pkg/profiler"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.csv>...",
	Short: "Replay one or more scenario files",
	Long: "Every scenario file is replayed against a brand new wallet and its " +
		"results are stored as a run named after the file",
	Args: cobra.MinimumNArgs(1),
	RunE: runAction,
}

func runAction(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	if !config.GetBool(config.NoProfilerKey) {
		profilerSvc, err := profiler.NewService(profiler.ServiceOpts{
			Port: config.GetInt(config.ProfilerPortKey),
			StatsInterval: time.Duration(
				config.GetInt(config.StatsIntervalKey),
			) * time.Second,
			Datadir:  filepath.Join(config.GetDatadir(), config.ProfilerLocation),
			Gatherer: registry,
		})
		if err != nil {
			return err
		}
		if err := profilerSvc.Start(); err != nil {
			return err
		}
		defer profilerSvc.Stop()
	}

	appCfg, err := newAppConfig(registry)
	if err != nil {
		return err
	}
	defer appCfg.RepoManager().Close()

	svc := appCfg.SimulationService()
	runs := make([]*application.RunInfo, 0, len(args))
	for _, arg := range args {
		scenarioPath := cleanAndExpandPath(arg)
		log.Infof("replaying scenario %s", scenarioPath)

		info, err := svc.Run(ctx, scenarioPath)
		if err != nil {
			return err
		}
		log.Infof(
			"run %s completed: %d deposits, %d withdrawal attempts, "+
				"%d failures, total cost %.0f",
			info.RunID, info.Deposits, info.WithdrawAttempts,
			info.Summary.Failures, info.Summary.TotalCost,
		)
		runs = append(runs, info)
	}

	return printJSON(runs)
}
