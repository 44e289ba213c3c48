// Kunhua Huang 2026

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecstasoy/mediabench/pkg/bench"
	"github.com/ecstasoy/mediabench/pkg/checksum"
	"github.com/ecstasoy/mediabench/pkg/config"
	"github.com/ecstasoy/mediabench/pkg/logging"
	"github.com/ecstasoy/mediabench/pkg/metrics"
	"github.com/ecstasoy/mediabench/pkg/transcode"
	"github.com/ecstasoy/mediabench/pkg/transfer"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	cfgFile string
	debug   bool

	// benchmark flags
	iterations       int
	transcodeSeconds float64
	benchPort        int
	remoteAddr       string
	protocolFlag     string

	// server flags
	serverPort     int
	serverMode     string
	maxConnections int
	metricsAddr    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mediabench",
		Short:   "Benchmark media file throughput over disk, transcode and network paths",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	benchmarkCmd := &cobra.Command{
		Use:   "benchmark <file-or-glob>...",
		Short: "Time read, transcode and transfer paths for the given media files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBenchmark,
	}
	benchmarkCmd.Flags().IntVar(&iterations, "iterations", 5, "Timed runs per operation")
	benchmarkCmd.Flags().Float64Var(&transcodeSeconds, "transcode-seconds", 30, "Media time limit for the transcode path")
	benchmarkCmd.Flags().IntVar(&benchPort, "port", 1144, "Transfer server port")
	benchmarkCmd.Flags().StringVar(&remoteAddr, "remote", "", "Remote transfer server host (adds a LAN transfer path)")
	benchmarkCmd.Flags().StringVar(&protocolFlag, "protocol", "checksum", "Transfer protocol: checksum or echo")

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Run the transfer peer server",
		Args:  cobra.NoArgs,
		RunE:  runServer,
	}
	serverCmd.Flags().IntVar(&serverPort, "port", 1144, "Listen port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "checksum", "Handler mode: checksum or echo")
	serverCmd.Flags().IntVar(&maxConnections, "max-connections", 0, "Concurrent connection limit (0 = unlimited)")
	serverCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Optional address for the Prometheus /metrics endpoint")

	rootCmd.AddCommand(benchmarkCmd, serverCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Benchmark.Iterations = iterations
	}
	if flags.Changed("transcode-seconds") {
		cfg.Benchmark.TranscodeTime.Duration = secondsToDuration(transcodeSeconds)
	}
	if flags.Changed("port") {
		if cmd.Name() == "server" {
			cfg.Server.Port = serverPort
		} else {
			cfg.Benchmark.Port = benchPort
		}
	}
	if flags.Changed("remote") {
		cfg.Benchmark.RemoteAddr = remoteAddr
	}
	if flags.Changed("protocol") {
		cfg.Benchmark.Protocol = protocolFlag
	}
	if flags.Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if flags.Changed("max-connections") {
		cfg.Server.MaxConnections = maxConnections
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr = metricsAddr
	}

	return cfg, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	files, err := expandFiles(append(args, cfg.Benchmark.Files...))
	if err != nil {
		return err
	}

	protocol, err := transfer.ParseProtocol(cfg.Benchmark.Protocol)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harness := bench.NewHarness(logger)
	transcoder := transcode.NewTranscoder(
		transcode.WithBinary(cfg.Transcode.FFmpegPath),
		transcode.WithLogger(logger),
	)
	client := transfer.NewClient(
		transfer.WithProtocol(protocol),
		transfer.WithLogger(logger),
	)

	portStr := strconv.Itoa(cfg.Benchmark.Port)
	localAddr := net.JoinHostPort("127.0.0.1", portStr)

	failures := 0
	for _, file := range files {
		fmt.Printf("== %s ==\n", file)

		ops := []struct {
			label string
			op    bench.Op
		}{
			{"Read file", func(ctx context.Context) (byte, error) {
				return checksum.SumFile(file)
			}},
			{"Read file again", func(ctx context.Context) (byte, error) {
				return checksum.SumFile(file)
			}},
			{"Transcoded file", func(ctx context.Context) (byte, error) {
				return transcoder.Run(ctx, file, cfg.Benchmark.TranscodeTime.Duration)
			}},
			{"Transferred data locally", func(ctx context.Context) (byte, error) {
				return client.Transfer(ctx, file, localAddr)
			}},
		}
		if cfg.Benchmark.RemoteAddr != "" {
			remote := net.JoinHostPort(cfg.Benchmark.RemoteAddr, portStr)
			ops = append(ops, struct {
				label string
				op    bench.Op
			}{"Transferred data in LAN", func(ctx context.Context) (byte, error) {
				return client.Transfer(ctx, file, remote)
			}})
		}

		for _, o := range ops {
			result, err := harness.Run(ctx, o.label, cfg.Benchmark.Iterations, o.op)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// One failed operation must not take down the rest of
				// the run.
				failures++
				fmt.Printf("%s: FAILED: %v\n", o.label, err)
				logger.Error("operation failed", zap.String("label", o.label), zap.Error(err))
				continue
			}
			fmt.Println(result)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d operation(s) failed", failures)
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	mode, err := transfer.ParseProtocol(cfg.Server.Mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.MetricsAddr != "" {
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
			if err := http.ListenAndServe(cfg.Server.MetricsAddr, metrics.Handler()); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	server := transfer.NewServer(
		transfer.WithMode(mode),
		transfer.WithMaxConnections(cfg.Server.MaxConnections),
		transfer.WithServerLogger(logger),
	)

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Server.Port))
	if err := server.Listen(ctx, addr); err != nil {
		return err
	}

	logger.Info("server listening",
		zap.String("addr", server.Addr().String()),
		zap.String("mode", string(mode)))

	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("server stopped", zap.Int64("connections_served", server.Stats().TotalConnections))
	return nil
}

// expandFiles resolves doublestar glob patterns and literal paths into
// a deduplicated file list, preserving first-seen order.
func expandFiles(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return files, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
