package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedwagon-io/nitrosense/internal/cli"
	"github.com/speedwagon-io/nitrosense/internal/config"
	"github.com/speedwagon-io/nitrosense/internal/ec"
	"github.com/speedwagon-io/nitrosense/internal/health"
	"github.com/speedwagon-io/nitrosense/internal/history"
	"github.com/speedwagon-io/nitrosense/internal/hwprofile"
	"github.com/speedwagon-io/nitrosense/internal/ipc"
	"github.com/speedwagon-io/nitrosense/internal/keyboard"
	"github.com/speedwagon-io/nitrosense/internal/lib/logger/sl"
	"github.com/speedwagon-io/nitrosense/internal/router"
	"github.com/speedwagon-io/nitrosense/internal/settings"
	"github.com/speedwagon-io/nitrosense/internal/voltage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	daemon := flag.Bool("daemon", false, "run the hardware control daemon")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), cli.Usage) }
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	if *daemon {
		os.Exit(runDaemon(cfg, log))
	}
	os.Exit(runClient(cfg, log, flag.Args()))
}

func runDaemon(cfg *config.Config, log *slog.Logger) int {
	log.Info("starting nitrosense daemon", slog.String("env", cfg.Env))

	profile, err := hwprofile.Detect(log, cfg.Hardware)
	if err != nil {
		log.Error("unsupported hardware", sl.Err(err))
		return 1
	}

	channel, err := ec.Open(log, cfg.EC, ec.NewModprobe(log, cfg.EC.Modprobe))
	if err != nil {
		log.Error("failed to initialize EC interface (are you root?)", sl.Err(err))
		return 1
	}
	defer channel.Close()

	sampler := voltage.NewSampler(profile.Vendor, voltage.NewExecRunner(log), cfg.Voltage)
	monitor := voltage.NewMonitor(log, sampler)

	store := settings.NewStore(log, cfg.Settings)
	kb := keyboard.New(log, cfg.Keyboard)

	rt := router.New(log, channel, profile.Registers, monitor, store, kb)

	var journal *history.Journal
	if cfg.History.Enabled {
		journal, err = history.Open(log, cfg.History.Path, cfg.History.MaxAge, cfg.History.PruneInterval)
		if err != nil {
			log.Error("failed to open history", sl.Err(err))
			return 1
		}
		defer journal.Close()
		rt.SetRecorder(journal)
		log.Info("history enabled", slog.String("path", cfg.History.Path))
	}

	server := ipc.NewServer(log, cfg.Socket, rt)

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(log, cfg.Health.Address)
		healthServer.AddChecker(health.NewHardwareHealthChecker(profile.Model, profile.MatchedAs, string(profile.Vendor)))
		healthServer.AddChecker(health.NewSocketHealthChecker(cfg.Socket.Path))
		if journal != nil {
			healthServer.AddChecker(health.NewHistoryHealthChecker(journal.Count))
		}
		if err := healthServer.Start(); err != nil {
			log.Error("failed to start health server", sl.Err(err))
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// A second signal falls through to the default action and kills the process.
	context.AfterFunc(ctx, stop)

	if err := server.Listen(); err != nil {
		log.Error("failed to start ipc server", sl.Err(err))
		return 1
	}

	rt.RestoreNitroMode()

	if healthServer != nil {
		healthServer.SetReady(true)
	}

	log.Info("nitrosense daemon started")

	if err := server.Serve(ctx); err != nil {
		log.Error("ipc server stopped", sl.Err(err))
	}

	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			log.Error("failed to stop health server", sl.Err(err))
		}
	}

	log.Info("nitrosense daemon stopped")
	return 0
}

func runClient(cfg *config.Config, log *slog.Logger, args []string) int {
	req, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprint(os.Stderr, cli.Usage)
			return 2
		}
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := ipc.Dial(ctx, log, cfg.Socket.Path, ipc.DefaultDialOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Close()

	resp, err := client.Send(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := cli.Print(os.Stdout, resp); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
