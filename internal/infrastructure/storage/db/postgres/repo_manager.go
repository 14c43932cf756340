package postgresdb

import (
	"context"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	postgresDriver             = "postgres"
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"
	uniqueViolation            = "23505"
)

//go:embed migration/*.sql
var migrations embed.FS

type repoManager struct {
	pgxPool          *pgxpool.Pool
	resultRepository *resultRepositoryPg
}

// DbConfig holds the connection params. DataSource, if set, takes precedence
// over the single params. Migrations are read from MigrationSourceURL, if
// set, or from the ones embedded in the binary otherwise.
type DbConfig struct {
	DbUser             string
	DbPassword         string
	DbHost             string
	DbPort             int
	DbName             string
	DataSource         string
	MigrationSourceURL string
}

func NewRepoManager(dbConfig DbConfig) (ports.RepoManager, error) {
	dataSource := dbConfig.DataSource
	if dataSource == "" {
		dataSource = insecureDataSourceStr(dbConfig)
	}

	if err := migrateDb(dataSource, dbConfig.MigrationSourceURL); err != nil {
		return nil, fmt.Errorf("migrating db: %w", err)
	}

	pgxPool, err := connect(dataSource)
	if err != nil {
		return nil, err
	}

	return &repoManager{
		pgxPool:          pgxPool,
		resultRepository: newResultRepositoryPg(pgxPool),
	}, nil
}

func (rm *repoManager) OpenRun(
	ctx context.Context, runID string,
) (domain.ResultSink, error) {
	return rm.resultRepository.openRun(ctx, runID)
}

func (rm *repoManager) ResultRepository() domain.ResultRepository {
	return rm.resultRepository
}

func (rm *repoManager) Close() {
	rm.pgxPool.Close()
}

func connect(dataSource string) (*pgxpool.Pool, error) {
	return pgxpool.Connect(context.Background(), dataSource)
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	if migrationSourceUrl != "" {
		m, err = migrate.NewWithDatabaseInstance(
			migrationSourceUrl,
			postgresDriver,
			d,
		)
	} else {
		source, sourceErr := iofs.New(migrations, "migration")
		if sourceErr != nil {
			return sourceErr
		}
		m, err = migrate.NewWithInstance("iofs", source, postgresDriver, d)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// insecureDataSourceStr converts database configuration params to connection string
func insecureDataSourceStr(dbConfig DbConfig) string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		dbConfig.DbUser,
		dbConfig.DbPassword,
		dbConfig.DbHost,
		dbConfig.DbPort,
		dbConfig.DbName,
	)
}
