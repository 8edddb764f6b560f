package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/certificates-processor/internal/app"
	"github.com/joseph-ayodele/certificates-processor/internal/common"
)

// serviceName is the health-check service reported while the watcher runs.
const serviceName = "certificates.Watcher"

func main() {
	configPath := flag.String("config", os.Getenv("CERT_CONFIG_FILE"), "optional YAML config overlay")
	skipInitial := flag.Bool("skip-initial", false, "do not process the whole root before watching")
	flag.Parse()

	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(*configPath); err != nil {
		slog.Error("failed to load config file", "error", err)
		os.Exit(2)
	}

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Daemon.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build processing stack", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, hs)
	// Reflection for grpcurl
	reflection.Register(grpcServer)
	hs.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc serving", "addr", addr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer hs.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		if !*skipInitial {
			sum, err := a.Runner.Run(gctx, cfg.Batch.Root)
			if err != nil && gctx.Err() == nil {
				return err
			}
			logger.Info("initial pass complete", "run_id", sum.RunID, "folders", sum.Folders, "total_files", sum.Totals.TotalFiles)
		}
		hs.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
		return a.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		hs.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
