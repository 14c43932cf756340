package dbbadger

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vulpemventures/coinsim/internal/core/domain"
	"github.com/vulpemventures/coinsim/internal/core/ports"
)

// repoManager holds the badgerhold store of the simulation results.
type repoManager struct {
	resultRepository *resultRepository
	stopGC           chan struct{}
}

// NewRepoManager is the factory for creating a new badger implementation
// of the ports.RepoManager interface.
// It takes care of creating the db files on disk (or in-memory if no baseDbDir
// is provided - to be used only for testing purposes), and opening and closing
// the connection to them.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var resultsDir string
	if len(baseDbDir) > 0 {
		resultsDir = filepath.Join(baseDbDir, "results")
	}

	stopGC := make(chan struct{})
	resultsDb, err := createDb(resultsDir, logger, stopGC)
	if err != nil {
		return nil, fmt.Errorf("opening results db: %w", err)
	}

	return &repoManager{
		resultRepository: newResultRepository(resultsDb),
		stopGC:           stopGC,
	}, nil
}

func (rm *repoManager) OpenRun(
	ctx context.Context, runID string,
) (domain.ResultSink, error) {
	r := rm.resultRepository
	entry := runEntry{RunID: runID, CreatedAt: time.Now().Unix()}
	if err := r.insert(ctx, runID, entry); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunAlreadyExists, runID)
		}
		return nil, err
	}
	r.log("opened run %s", runID)
	return &resultSink{runID, r}, nil
}

func (rm *repoManager) ResultRepository() domain.ResultRepository {
	return rm.resultRepository
}

func (rm *repoManager) Close() {
	close(rm.stopGC)
	rm.resultRepository.close()
}

func createDb(
	dbDir string, logger badger.Logger, stop chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          encode,
		Decoder:          decode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
						log.Warnf("garbage collector: %s", err)
					}
				}
			}
		}()
	}

	return db, nil
}

// Records hold pointers to zero values, which gob would decode as nil.
func encode(value interface{}) ([]byte, error) {
	return json.Marshal(value)
}

func decode(data []byte, value interface{}) error {
	return json.Unmarshal(data, value)
}
