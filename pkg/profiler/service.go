package profiler

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	minPort = 1024
	maxPort = 49151

	gigabyte = 1 << 30

	statsFileTimeFormat = "20060102T150405"
)

// ServiceOpts holds configuration options for the profiler service.
type ServiceOpts struct {
	Port          int
	StatsInterval time.Duration
	Datadir       string
	// Gatherer is the source of the metrics exposed at /metrics and dumped to
	// the datadir on stop. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

func (o ServiceOpts) validate() error {
	if len(o.Datadir) == 0 {
		return fmt.Errorf("missing profiler datadir")
	}
	if o.Port < minPort || o.Port > maxPort {
		return fmt.Errorf("port must be in range [%d, %d]", minPort, maxPort)
	}
	if o.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be greater than zero")
	}
	return nil
}

func (o ServiceOpts) address() string {
	return fmt.Sprintf(":%d", o.Port)
}

// ProfilerService is a webserver exposing pprof and prometheus endpoints,
// that periodically logs memory usage.
type ProfilerService struct {
	opts   ServiceOpts
	server *http.Server
	stopFn context.CancelFunc
	done   chan struct{}

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// NewService returns a new Profiler instance.
func NewService(opts ServiceOpts) (*ProfilerService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.HandlerFor(
		opts.Gatherer, promhttp.HandlerOpts{},
	))
	server := &http.Server{
		Addr:              opts.address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("profiler: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("profiler: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	return &ProfilerService{
		opts: opts, server: server, log: logFn, warn: warnFn,
	}, nil
}

// Start starts the profiler.
func (s *ProfilerService) Start() error {
	listener, err := net.Listen("tcp", s.opts.address())
	if err != nil {
		return err
	}

	runtime.SetBlockProfileRate(1)
	go func() {
		if err := s.server.Serve(listener); err != nil &&
			err != http.ErrServerClosed {
			s.warn(err, "server stopped unexpectedly")
		}
	}()

	ctx, cancelStats := context.WithCancel(context.Background())
	s.stopFn = cancelStats
	s.done = make(chan struct{})
	s.enableMemoryStatistics(ctx)

	s.log("start at url http://localhost:%d/debug/pprof/", s.opts.Port)
	return nil
}

// Stop stops the profiler and dumps the gathered metrics to the datadir.
func (s *ProfilerService) Stop() {
	if s.stopFn == nil {
		return
	}
	s.stopFn()
	<-s.done
	s.server.Shutdown(context.Background())
	s.log("stop")
}

// DumpMetrics writes the gathered metrics to a new file in the datadir and
// returns its path.
func (s *ProfilerService) DumpMetrics() (string, error) {
	path := filepath.Join(
		s.opts.Datadir, time.Now().Format(statsFileTimeFormat),
	)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	metricFamilies, err := s.opts.Gatherer.Gather()
	if err != nil {
		return "", err
	}
	for _, mf := range metricFamilies {
		if _, err := writer.WriteString(mf.String() + "\n"); err != nil {
			return "", err
		}
	}

	return path, nil
}

// enableMemoryStatistics starts a goroutine that periodically logs memory
// usage of the go process.
func (s *ProfilerService) enableMemoryStatistics(ctx context.Context) {
	ticker := time.NewTicker(s.opts.StatsInterval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.printMemoryStatistics()
				s.log("num of go routines: %d", runtime.NumGoroutine())
			case <-ctx.Done():
				if _, err := s.DumpMetrics(); err != nil {
					s.warn(err, "error while dumping metrics")
				}
				return
			}
		}
	}()
}

func (s *ProfilerService) printMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.log(
		"total allocated: %.3fGB, heap allocated: %.3fGB, "+
			"allocated objects count: %v, freed objects count: %v",
		toGigabytes(memStats.TotalAlloc),
		toGigabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

func toGigabytes(bytes uint64) float64 {
	return float64(bytes) / gigabyte
}
