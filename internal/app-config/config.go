package appconfig

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/coinsim/internal/config"
	"github.com/vulpemventures/coinsim/internal/core/application"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
	poolselector "github.com/vulpemventures/coinsim/internal/infrastructure/coin-selector/pool-selector"
	scenariocsv "github.com/vulpemventures/coinsim/internal/infrastructure/scenario-reader/csv"
	dbbadger "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/badger"
	dbcsv "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/csv"
	"github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/vulpemventures/coinsim/internal/infrastructure/storage/db/postgres"
)

// AppConfig is the struct holding all configuration options for the
// simulation service. This data structure acts also as a factory of the
// service and the portable services used by it.
// Public config args:
//   - CoinSelectorType - (required) One of the supported coin selector types.
//   - SelectorOpts - (required) Weights, dust limit and long-term fee rate shared by every selector.
//   - PaymentPolicy - (required) What to do with the pending payments of a failed withdrawal.
//   - SampleInterval - (optional) Number of withdrawal attempts between two summaries.
//   - FeeRateMultiplier - (optional) Factor applied to the fee rates of scenarios (defaults to 1).
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
//   - Registerer - (optional) Where simulation metrics are registered.
type AppConfig struct {
	CoinSelectorType  string
	SelectorOpts      poolselector.SelectorOpts
	PaymentPolicy     domain.PaymentPolicy
	SampleInterval    int
	FeeRateMultiplier decimal.Decimal

	RepoManagerType   string
	RepoManagerConfig interface{}

	Registerer prometheus.Registerer

	rm            ports.RepoManager
	sr            ports.ScenarioReader
	selectorFn    ports.CoinSelectorFactory
	simulationSvc *application.SimulationService
}

func (c *AppConfig) Validate() error {
	if len(c.CoinSelectorType) == 0 {
		return fmt.Errorf("missing coin selector type")
	}
	if _, ok := config.SupportedCoinSelectors[c.CoinSelectorType]; !ok {
		return fmt.Errorf(
			"coin selector type not supported, must be one of: %s",
			config.SupportedCoinSelectors,
		)
	}
	if c.SampleInterval < 0 {
		return fmt.Errorf("sample interval must not be negative")
	}
	if c.FeeRateMultiplier.IsNegative() {
		return fmt.Errorf("fee rate multiplier must not be negative")
	}
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if _, err := c.coinSelectorFactory(); err != nil {
		return err
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) ScenarioReader() ports.ScenarioReader {
	return c.scenarioReader()
}

func (c *AppConfig) SimulationService() *application.SimulationService {
	return c.simulationService()
}

func (c *AppConfig) coinSelectorFactory() (ports.CoinSelectorFactory, error) {
	if c.selectorFn != nil {
		return c.selectorFn, nil
	}

	factory, err := application.NewCoinSelectorFactory(
		c.CoinSelectorType, c.SelectorOpts,
	)
	if err != nil {
		return nil, err
	}
	c.selectorFn = factory
	return c.selectorFn, nil
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "csv":
		outputDir, ok := c.RepoManagerConfig.(string)
		if !ok || outputDir == "" {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbcsv.NewRepoManager(outputDir)
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be postgresdb.DbConfig")
		}

		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}

		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) scenarioReader() ports.ScenarioReader {
	if c.sr != nil {
		return c.sr
	}

	multiplier := c.FeeRateMultiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	c.sr = scenariocsv.NewScenarioReader(multiplier)
	return c.sr
}

func (c *AppConfig) simulationService() *application.SimulationService {
	if c.simulationSvc != nil {
		return c.simulationSvc
	}

	rm, _ := c.repoManager()
	selectorFn, _ := c.coinSelectorFactory()
	c.simulationSvc = application.NewSimulationService(
		rm, c.scenarioReader(), selectorFn,
		application.SimulationOpts{
			PaymentPolicy:  c.PaymentPolicy,
			PaymentWeight:  c.SelectorOpts.OutputWeight,
			SampleInterval: c.SampleInterval,
		},
		c.Registerer,
	)
	return c.simulationSvc
}
