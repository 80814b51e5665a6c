// Package main implements stripedbench, a concurrency stress-test and demo
// binary for the striped map. It exercises Put, Get, Remove and the
// aggregate operations under configurable reader and writer goroutine
// counts, logs structurally with zap, and optionally serves its Prometheus
// metrics for inspection during a run.
//
// Example usage:
//
//	stripedbench run --writers 4 --readers 8 --keys 10000 --duration 10s
//	stripedbench run --writers 4 --readers 8 --metrics-addr :9090
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/stripedmap"
	"github.com/dreamware/stripedmap/cmap/metrics"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stripedbench",
	Short: "Stress-test and demo harness for the striped concurrent map",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run concurrent readers and writers against one map instance",
	RunE:  runBench,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("writers", 4, "Number of concurrent writer goroutines")
	runCmd.Flags().Int("readers", 8, "Number of concurrent reader goroutines")
	runCmd.Flags().Int("keys", 10_000, "Size of the key space writers and readers draw from")
	runCmd.Flags().Duration("duration", 5*time.Second, "How long to run before stopping")
	runCmd.Flags().Int("concurrency-level", stripedmap.DefaultConcurrencyLevel, "Map concurrency level (partition count hint)")
	runCmd.Flags().Float64("load-factor", stripedmap.DefaultLoadFactor, "Map load factor")
	runCmd.Flags().String("metrics-addr", "", "If set, serve Prometheus metrics on this address for the run's duration")
	runCmd.Flags().Bool("json-logs", false, "Emit structured logs as JSON instead of human-readable console output")
}

func runBench(cmd *cobra.Command, _ []string) error {
	writers, _ := cmd.Flags().GetInt("writers")
	readers, _ := cmd.Flags().GetInt("readers")
	keySpace, _ := cmd.Flags().GetInt("keys")
	duration, _ := cmd.Flags().GetDuration("duration")
	concurrencyLevel, _ := cmd.Flags().GetInt("concurrency-level")
	loadFactor, _ := cmd.Flags().GetFloat64("load-factor")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	logger, err := newLogger(jsonLogs)
	if err != nil {
		return fmt.Errorf("stripedbench: build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	runID := uuid.New()
	collector := metrics.New("stripedbench_" + runID.String()[:8])
	registry := prometheus.NewRegistry()
	if err := registry.Register(collector); err != nil {
		return fmt.Errorf("stripedbench: register metrics: %w", err)
	}

	var stopMetricsServer func()
	if metricsAddr != "" {
		stopMetricsServer = serveMetrics(logger, metricsAddr, registry)
		defer stopMetricsServer()
	}

	m, err := stripedmap.New[int, int64](
		stripedmap.WithConcurrencyLevel(concurrencyLevel),
		stripedmap.WithLoadFactor(loadFactor),
		stripedmap.WithLogger(logger),
		stripedmap.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("stripedbench: construct map: %w", err)
	}

	logger.Info("starting run",
		zap.String("run_id", runID.String()),
		zap.Int("writers", writers),
		zap.Int("readers", readers),
		zap.Int("key_space", keySpace),
		zap.Duration("duration", duration),
		zap.Int("partitions", m.Partitions()),
	)

	var puts, removes, gets, hits atomic.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				key := rnd.Intn(keySpace)
				if rnd.Intn(2) == 0 {
					m.Put(key, rnd.Int63())
					puts.Add(1)
				} else {
					m.Remove(key)
					removes.Add(1)
				}
			}
		}(int64(i) + 1)
	}

	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				key := rnd.Intn(keySpace)
				if _, ok, _ := m.Get(key); ok {
					hits.Add(1)
				}
				gets.Add(1)
			}
		}(int64(i) + 1000)
	}

	time.Sleep(duration)
	close(stop)
	wg.Wait()

	size := m.Size()
	logger.Info("run complete",
		zap.String("run_id", runID.String()),
		zap.Int64("puts", puts.Load()),
		zap.Int64("removes", removes.Load()),
		zap.Int64("gets", gets.Load()),
		zap.Int64("hits", hits.Load()),
		zap.Int("final_size", size),
	)

	fmt.Printf("run %s: %d puts, %d removes, %d gets (%d hits), final size %d across %d partitions\n",
		runID, puts.Load(), removes.Load(), gets.Load(), hits.Load(), size, m.Partitions())
	return nil
}

func newLogger(jsonOutput bool) (*zap.Logger, error) {
	if jsonOutput {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func serveMetrics(logger *zap.Logger, addr string, registry *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		_ = srv.Close()
	}
}
