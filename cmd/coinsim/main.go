package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vulpemventures/coinsim/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// flagKeys maps every persistent flag to the config key it overrides.
	flagKeys = map[string]string{
		"datadir":             config.DatadirKey,
		"log-level":           config.LogLevelKey,
		"coin-selector":       config.CoinSelectorTypeKey,
		"payment-policy":      config.PaymentPolicyKey,
		"long-term-fee-rate":  config.LongTermFeeRateKey,
		"dust-limit":          config.DustLimitKey,
		"input-weight":        config.InputWeightKey,
		"output-weight":       config.OutputWeightKey,
		"bnb-max-rounds":      config.BnbMaxRoundsKey,
		"sample-interval":     config.SampleIntervalKey,
		"fee-rate-multiplier": config.FeeRateMultiplierKey,
		"db-type":             config.DatabaseTypeKey,
		"output-dir":          config.OutputDirKey,
		"no-profiler":         config.NoProfilerKey,
		"profiler-port":       config.ProfilerPortKey,
	}

	rootCmd = &cobra.Command{
		Use:   "coinsim",
		Short: "Coin selection simulator",
		Long: "This CLI replays scenarios of deposits and withdrawals against a " +
			"simulated wallet and reports the cost of its coin selection strategy",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Flags().Visit(func(f *pflag.Flag) {
				if key, ok := flagKeys[f.Name]; ok {
					config.Set(key, f.Value.String())
				}
			})
			if err := config.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := config.InitDatadir(); err != nil {
				return fmt.Errorf("error while creating datadir: %w", err)
			}
			log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       formatVersion(),
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("datadir", "", "data directory")
	flags.Int("log-level", 0, "logrus log level")
	flags.String("coin-selector", "", "coin selection strategy: bnb | fifo")
	flags.String("payment-policy", "", "pending payments of a failed withdrawal: drop | roll_forward")
	flags.Float64("long-term-fee-rate", 0, "fee rate expected to spend coins in the future")
	flags.Uint64("dust-limit", 0, "min value of a change output")
	flags.Uint32("input-weight", 0, "size of every input")
	flags.Uint32("output-weight", 0, "size of every output")
	flags.Int("bnb-max-rounds", 0, "branch and bound rounds before falling back")
	flags.Int("sample-interval", 0, "withdrawal attempts between two summaries")
	flags.String("fee-rate-multiplier", "", "factor applied to scenario fee rates")
	flags.String("db-type", "", "results store: csv | badger | postgres | inmemory")
	flags.String("output-dir", "", "folder of the csv results store")
	flags.Bool("no-profiler", true, "disable the profiler")
	flags.Int("profiler-port", 0, "port of the profiler")

	rootCmd.AddCommand(runCmd, summaryCmd, outcomesCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printErr(err)
		os.Exit(1)
	}
}
