package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the key to customize the coinsim datadir.
	DatadirKey = "DATADIR"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// CoinSelectorTypeKey is the key to customize the coin selection strategy.
	CoinSelectorTypeKey = "COIN_SELECTOR_TYPE"
	// PaymentPolicyKey is the key to customize what happens to the pending
	// payments of a failed withdrawal.
	PaymentPolicyKey = "PAYMENT_POLICY"
	// LongTermFeeRateKey is the key to customize the fee rate expected to
	// spend the wallet's coins in the future.
	LongTermFeeRateKey = "LONG_TERM_FEE_RATE"
	// DustLimitKey is the key to customize the min value of a change output.
	DustLimitKey = "DUST_LIMIT"
	// InputWeightKey is the key to customize the size of every input.
	InputWeightKey = "INPUT_WEIGHT"
	// OutputWeightKey is the key to customize the size of every output.
	OutputWeightKey = "OUTPUT_WEIGHT"
	// BnbMaxRoundsKey is the key to customize the number of rounds after which
	// branch and bound falls back to the sorted selection.
	BnbMaxRoundsKey = "BNB_MAX_ROUNDS"
	// SampleIntervalKey is the key to customize the number of withdrawal
	// attempts between two summaries.
	SampleIntervalKey = "SAMPLE_INTERVAL"
	// FeeRateMultiplierKey is the key to customize the factor applied to the
	// fee rates of scenarios, ie. 1e5 for files expressed in BTC/kvB.
	FeeRateMultiplierKey = "FEE_RATE_MULTIPLIER"
	// DatabaseTypeKey is the key to customize the type of results store.
	DatabaseTypeKey = "DATABASE_TYPE"
	// OutputDirKey is the key to customize the folder where the csv store
	// writes results. Defaults to the results folder inside the datadir.
	OutputDirKey = "OUTPUT_DIR"
	// ProfilerPortKey is the key to customize the port where the profiler will
	// be listening to.
	ProfilerPortKey = "PROFILER_PORT"
	// NoProfilerKey is the key to disable Prometheus profiling.
	NoProfilerKey = "NO_PROFILER"
	// StatsIntervalKey is the key to customize the interval for the profiler
	// to gather profiling stats.
	StatsIntervalKey = "STATS_INTERVAL"
	// DbUserKey is user used to connect to db
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database
	DbNameKey = "DB_NAME"
	// DbMigrationPath is the path to migration files. Embedded migrations are
	// used if not set.
	DbMigrationPath = "DB_MIGRATION_PATH"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// ResultsLocation is the folder inside the datadir containing csv results.
	ResultsLocation = "results"
	// ProfilerLocation is the folder inside the datadir containing profiler
	// stats files.
	ProfilerLocation = "stats"

	minPort = 1024
	maxPort = 49151
)

var (
	vip *viper.Viper

	defaultDatadir           = btcutil.AppDataDir("coinsim", false)
	defaultLogLevel          = 4
	defaultCoinSelectorType  = "bnb"
	defaultPaymentPolicy     = "drop"
	defaultLongTermFeeRate   = 10.0
	defaultDustLimit         = 526
	defaultInputWeight       = 68
	defaultOutputWeight      = 31
	defaultBnbMaxRounds      = 100000
	defaultSampleInterval    = 500
	defaultFeeRateMultiplier = "1"
	defaultDbType            = "csv"
	defaultProfilerPort      = 18001
	defaultStatsInterval     = 600 // 10 minutes

	SupportedDbs = supportedType{
		"csv":      {},
		"badger":   {},
		"inmemory": {},
		"postgres": {},
	}
	SupportedCoinSelectors = supportedType{
		"bnb":  {},
		"fifo": {},
	}
	SupportedPaymentPolicies = supportedType{
		"drop":         {},
		"roll_forward": {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("COINSIM")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(CoinSelectorTypeKey, defaultCoinSelectorType)
	vip.SetDefault(PaymentPolicyKey, defaultPaymentPolicy)
	vip.SetDefault(LongTermFeeRateKey, defaultLongTermFeeRate)
	vip.SetDefault(DustLimitKey, defaultDustLimit)
	vip.SetDefault(InputWeightKey, defaultInputWeight)
	vip.SetDefault(OutputWeightKey, defaultOutputWeight)
	vip.SetDefault(BnbMaxRoundsKey, defaultBnbMaxRounds)
	vip.SetDefault(SampleIntervalKey, defaultSampleInterval)
	vip.SetDefault(FeeRateMultiplierKey, defaultFeeRateMultiplier)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(OutputDirKey, "")
	vip.SetDefault(NoProfilerKey, true)
	vip.SetDefault(ProfilerPortKey, defaultProfilerPort)
	vip.SetDefault(StatsIntervalKey, defaultStatsInterval)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "coinsim-db-pg")
}

// Validate makes sure the current config is consistent. It must be called
// once flags have been bound.
func Validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	if err := validateType(
		"database", GetString(DatabaseTypeKey), SupportedDbs,
	); err != nil {
		return err
	}
	if err := validateType(
		"coin selector", GetString(CoinSelectorTypeKey), SupportedCoinSelectors,
	); err != nil {
		return err
	}
	if err := validateType(
		"payment policy", GetString(PaymentPolicyKey), SupportedPaymentPolicies,
	); err != nil {
		return err
	}

	if GetFloat64(LongTermFeeRateKey) < 0 {
		return fmt.Errorf("long-term fee rate must not be negative")
	}
	if GetInt(DustLimitKey) < 0 {
		return fmt.Errorf("dust limit must not be negative")
	}
	if GetInt(InputWeightKey) <= 0 {
		return fmt.Errorf("input weight must be greater than zero")
	}
	if GetInt(OutputWeightKey) <= 0 {
		return fmt.Errorf("output weight must be greater than zero")
	}
	if GetInt(BnbMaxRoundsKey) <= 0 {
		return fmt.Errorf("bnb max rounds must be greater than zero")
	}
	if GetInt(SampleIntervalKey) <= 0 {
		return fmt.Errorf("sample interval must be greater than zero")
	}

	multiplier, err := GetFeeRateMultiplier()
	if err != nil {
		return err
	}
	if !multiplier.IsPositive() {
		return fmt.Errorf("fee rate multiplier must be greater than zero")
	}

	if !GetBool(NoProfilerKey) {
		port := GetInt(ProfilerPortKey)
		if port < minPort || port > maxPort {
			return fmt.Errorf(
				"profiler port must be in range [%d, %d]", minPort, maxPort,
			)
		}
		if GetInt(StatsIntervalKey) <= 0 {
			return fmt.Errorf("stats interval must be greater than zero")
		}
	}

	return nil
}

// InitDatadir creates the folders required by the current config.
func InitDatadir() error {
	datadir := GetDatadir()

	switch GetString(DatabaseTypeKey) {
	case "badger":
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, DbLocation),
		); err != nil {
			return err
		}
	case "csv":
		if err := makeDirectoryIfNotExists(GetOutputDir()); err != nil {
			return err
		}
	}

	if !GetBool(NoProfilerKey) {
		if err := makeDirectoryIfNotExists(
			filepath.Join(datadir, ProfilerLocation),
		); err != nil {
			return err
		}
	}
	return nil
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetOutputDir() string {
	if outputDir := GetString(OutputDirKey); outputDir != "" {
		return outputDir
	}
	return filepath.Join(GetDatadir(), ResultsLocation)
}

func GetFeeRateMultiplier() (decimal.Decimal, error) {
	multiplier, err := decimal.NewFromString(GetString(FeeRateMultiplierKey))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid fee rate multiplier: %w", err)
	}
	return multiplier, nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

func GetFloat64(key string) float64 {
	return vip.GetFloat64(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

// All returns the current settings, db password excluded.
func All() map[string]interface{} {
	settings := vip.AllSettings()
	delete(settings, strings.ToLower(DbPassKey))
	return settings
}

func validateType(name, value string, supported supportedType) error {
	if _, ok := supported[value]; !ok {
		return fmt.Errorf(
			"unsupported %s type %q, must be one of %s", name, value, supported,
		)
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	sort.Strings(types)
	return strings.Join(types, " | ")
}
