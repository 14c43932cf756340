package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinsim/internal/config"
)

func TestValidate(t *testing.T) {
	require.NoError(t, config.Validate())

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value interface{}
		}{
			{"empty datadir", config.DatadirKey, ""},
			{"unknown database", config.DatabaseTypeKey, "mysql"},
			{"unknown coin selector", config.CoinSelectorTypeKey, "knapsack"},
			{"unknown payment policy", config.PaymentPolicyKey, "retry"},
			{"negative long-term fee rate", config.LongTermFeeRateKey, -1},
			{"zero input weight", config.InputWeightKey, 0},
			{"zero output weight", config.OutputWeightKey, 0},
			{"zero bnb rounds", config.BnbMaxRoundsKey, 0},
			{"zero sample interval", config.SampleIntervalKey, 0},
			{"malformed fee rate multiplier", config.FeeRateMultiplierKey, "1,5"},
			{"zero fee rate multiplier", config.FeeRateMultiplierKey, "0"},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				config.Set(tt.key, tt.value)
				defer config.Unset(tt.key)

				require.Error(t, config.Validate())
			})
		}
	})

	t.Run("profiler port", func(t *testing.T) {
		config.Set(config.NoProfilerKey, false)
		config.Set(config.ProfilerPortKey, 80)
		defer config.Unset(config.NoProfilerKey)
		defer config.Unset(config.ProfilerPortKey)

		require.Error(t, config.Validate())
	})
}

func TestInitDatadir(t *testing.T) {
	datadir := t.TempDir()
	config.Set(config.DatadirKey, datadir)
	config.Set(config.DatabaseTypeKey, "badger")
	config.Set(config.NoProfilerKey, false)
	defer config.Unset(config.DatadirKey)
	defer config.Unset(config.DatabaseTypeKey)
	defer config.Unset(config.NoProfilerKey)

	require.NoError(t, config.InitDatadir())
	require.DirExists(t, filepath.Join(datadir, config.DbLocation))
	require.DirExists(t, filepath.Join(datadir, config.ProfilerLocation))

	_, err := os.Stat(filepath.Join(datadir, config.ResultsLocation))
	require.True(t, os.IsNotExist(err))
}

func TestAll(t *testing.T) {
	settings := config.All()
	require.NotContains(t, settings, "db_pass")
	require.Equal(t, "bnb", settings["coin_selector_type"])
}
