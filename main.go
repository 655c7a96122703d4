package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstehr/hive/agent"
	"github.com/nstehr/hive/config"
	"github.com/nstehr/hive/ipc"
	"github.com/nstehr/hive/sim"
	"github.com/nstehr/hive/telemetry"
)

const banner = `
██╗  ██╗██╗██╗   ██╗███████╗
██║  ██║██║██║   ██║██╔════╝
███████║██║██║   ██║█████╗
██╔══██║██║╚██╗ ██╔╝██╔══╝
██║  ██║██║ ╚████╔╝ ███████╗
╚═╝  ╚═╝╚═╝  ╚═══╝  ╚══════╝

Interruptible Swarm Behavior Scheduling`

func main() {
	env, err := config.ParseEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	socketPath := flag.String("socket", env.Socket, "inspector unix socket path")
	scenarioPath := flag.String("scenario", env.Scenario, "scenario YAML file (built-in demo when empty)")
	tickRate := flag.Float64("rate", env.TickRate, "simulation ticks per second")
	seed := flag.Int64("seed", env.Seed, "random seed for damage and miss rolls")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.Level(),
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	slog.Info("starting hive")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "hive", env.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "endpoint", env.OTelEndpoint, "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		slog.Error("failed to load scenario", "path", *scenarioPath, "error", err)
		os.Exit(1)
	}

	s, err := sim.Build(sc, sim.WithSeed(*seed), sim.WithLogger(logger))
	if err != nil {
		slog.Error("failed to build simulation", "scenario", sc.Name, "error", err)
		os.Exit(1)
	}
	runner := sim.NewRunner(s, *tickRate, sim.WithDuration(sc.Duration), sim.WithRunnerLogger(logger))

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(*socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	slog.Info("listening on domain socket", "path", *socketPath)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept connection", "error", err)
				continue
			}
			slog.Info("new connection accepted")
			go handleConn(conn, runner)
		}
	}()

	if err := runner.Run(ctx); err != nil {
		slog.Error("simulation failed", "error", err)
	}
	slog.Info("shutting down")
}

func loadScenario(path string) (*config.Scenario, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func handleConn(conn net.Conn, runner *sim.Runner) {
	c := ipc.NewConnection(conn, nil)
	s := agent.New(c, runner)
	s.Register()
	c.ReadLoop()
	s.Close()
	slog.Info("session closed", "session", s.ID.String(), "client", s.Client)
}
