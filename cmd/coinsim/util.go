package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	appconfig "github.com/vulpemventures/coinsim/internal/app-config"
	"github.com/vulpemventures/coinsim/internal/config"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	poolselector "github.com/vulpemventures/coinsim/internal/infrastructure/coin-selector/pool-selector"
	postgresdb "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/postgres"
	"github.com/vulpemventures/coinsim/pkg/coinselect"
)

var colorRed = string("\033[31m")

func newAppConfig(registerer prometheus.Registerer) (*appconfig.AppConfig, error) {
	paymentPolicy, err := domain.ParsePaymentPolicy(
		config.GetString(config.PaymentPolicyKey),
	)
	if err != nil {
		return nil, err
	}
	feeRateMultiplier, err := config.GetFeeRateMultiplier()
	if err != nil {
		return nil, err
	}

	dbType := config.GetString(config.DatabaseTypeKey)
	var repoManagerConfig interface{}
	switch dbType {
	case "csv":
		repoManagerConfig = config.GetOutputDir()
	case "badger":
		repoManagerConfig = filepath.Join(config.GetDatadir(), config.DbLocation)
	case "postgres":
		repoManagerConfig = postgresdb.DbConfig{
			DbUser:             config.GetString(config.DbUserKey),
			DbPassword:         config.GetString(config.DbPassKey),
			DbHost:             config.GetString(config.DbHostKey),
			DbPort:             config.GetInt(config.DbPortKey),
			DbName:             config.GetString(config.DbNameKey),
			MigrationSourceURL: config.GetString(config.DbMigrationPath),
		}
	}

	appCfg := &appconfig.AppConfig{
		CoinSelectorType: config.GetString(config.CoinSelectorTypeKey),
		SelectorOpts: poolselector.SelectorOpts{
			LongTermFeeRate: coinselect.FeeRate(
				config.GetFloat64(config.LongTermFeeRateKey),
			),
			DustLimit:    config.GetUint64(config.DustLimitKey),
			InputWeight:  uint32(config.GetInt(config.InputWeightKey)),
			OutputWeight: uint32(config.GetInt(config.OutputWeightKey)),
			MaxRounds:    config.GetInt(config.BnbMaxRoundsKey),
		},
		PaymentPolicy:     paymentPolicy,
		SampleInterval:    config.GetInt(config.SampleIntervalKey),
		FeeRateMultiplier: feeRateMultiplier,
		RepoManagerType:   dbType,
		RepoManagerConfig: repoManagerConfig,
		Registerer:        registerer,
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}
	return appCfg, nil
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %s", err)
	}
	fmt.Println(string(buf))
	return nil
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}

func printErr(err error) {
	msg := fmt.Sprintf("%s%s", colorRed, capitalize(err.Error()))
	fmt.Fprintln(os.Stderr, msg)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[0:1]) + s[1:]
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}
