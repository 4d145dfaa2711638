package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/woxQAQ/vpxplugin-go/internal/bridge"
	"github.com/woxQAQ/vpxplugin-go/internal/config"
	"github.com/woxQAQ/vpxplugin-go/internal/emulator"
	"github.com/woxQAQ/vpxplugin-go/internal/logging"
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/fpscounter"
	"github.com/woxQAQ/vpxplugin-go/internal/plugins/rainbow"
	"github.com/woxQAQ/vpxplugin-go/internal/pluginpack"
	"github.com/woxQAQ/vpxplugin-go/internal/wasm"
	"github.com/woxQAQ/vpxplugin-go/pkg/protocol"
)

// builtins are the plugins compiled into vpxhost.
var builtins = map[string]bridge.Factory{
	"fpscounter": fpscounter.New,
	"rainbow":    rainbow.New,
}

// runConfig holds configuration for the run command.
type runConfig struct {
	scenario    string
	builtin     string
	hostVersion string
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cfg := &runConfig{}

	cmd := &cobra.Command{
		Use:   "run [package-dir...]",
		Short: "Run plugins against a scenario",
		Long: `Load plugins into the emulated host, play a scenario and unload them.

With --builtin the named plugin runs in process. Otherwise the given plugin
package directories are loaded, or every package under the configured
plugin_paths when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, cfg, args)
		},
	}

	cmd.Flags().StringVar(&cfg.scenario, "scenario", "", "scenario file (required)")
	cmd.Flags().StringVar(&cfg.builtin, "builtin", "", fmt.Sprintf("run a builtin plugin %v", builtinNames()))
	cmd.Flags().StringVar(&cfg.hostVersion, "host-version", emulator.Version, "VPX version the host reports to packages")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func builtinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, cfg *runConfig, args []string) error {
	if cfg.builtin != "" && len(args) > 0 {
		return fmt.Errorf("--builtin cannot be combined with package directories")
	}

	hostCfg, err := config.LoadHostConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(hostCfg.Log())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	scenario, err := emulator.LoadScenario(cfg.scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := emulator.Options{}
	if hostCfg.MetricsEnabled {
		server := emulator.NewMetricsServer(fmt.Sprintf(":%d", hostCfg.MetricsPort), logger)
		if _, err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				logger.Warn("Failed to stop metrics server", zap.Error(err))
			}
		}()
		opts.Metrics = emulator.NewMetrics(server.Registry())
	}

	host := emulator.NewHost(logger, opts)
	runner := emulator.NewRunner(host, logger)
	runner.Prepare(scenario)

	var unload func() error
	if cfg.builtin != "" {
		unload, err = loadBuiltin(cfg.builtin, hostCfg, host, logger)
	} else {
		unload, err = loadPackages(ctx, cfg, hostCfg, host, args, logger)
	}
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx, scenario)
	if err := unload(); err != nil && runErr == nil {
		runErr = err
	}

	cmd.Printf("scenario %q: %d broadcasts, %d deliveries, %d timers, %s emulated\n",
		scenario.Name, res.Broadcasts, res.Deliveries, res.TimersFired, res.Elapsed)
	return runErr
}

// loadBuiltin loads a builtin plugin in process.
func loadBuiltin(name string, hostCfg *config.HostConfig, host *emulator.Host, logger *zap.Logger) (func() error, error) {
	factory, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown builtin plugin %q (available: %v)", name, builtinNames())
	}

	loader := bridge.NewLoader(factory, logger.Named(name))
	binding := emulator.NewInProcess(host, protocol.EndpointID(hostCfg.Endpoint), loader, logger)
	if err := binding.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return binding.Unload, nil
}

// loadPackages compiles, instantiates and loads plugin packages.
func loadPackages(
	ctx context.Context,
	cfg *runConfig,
	hostCfg *config.HostConfig,
	host *emulator.Host,
	dirs []string,
	logger *zap.Logger,
) (func() error, error) {
	hostVersion, err := semver.NewVersion(cfg.hostVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid host version %q: %w", cfg.hostVersion, err)
	}

	runtime, err := wasm.NewRuntime(ctx, logger, wasm.RuntimeConfigFrom(hostCfg.Wasm))
	if err != nil {
		return nil, err
	}
	manager := pluginpack.NewManager(hostCfg, runtime, host, hostVersion, logger)
	shutdown := func() error { return manager.Shutdown(context.Background()) }

	if len(dirs) == 0 {
		err = manager.LoadAll(ctx)
	}
	for _, dir := range dirs {
		if _, err = manager.LoadPackage(ctx, dir); err != nil {
			break
		}
	}
	if err != nil {
		_ = shutdown()
		return nil, err
	}

	pkgs := manager.Registry().List()
	if len(pkgs) == 0 {
		_ = shutdown()
		return nil, fmt.Errorf("no plugin packages to run")
	}

	for _, pkg := range pkgs {
		instance, err := manager.Instantiate(ctx, pkg.ID())
		if err != nil {
			_ = shutdown()
			return nil, err
		}
		if err := instance.Load(ctx); err != nil {
			_ = shutdown()
			return nil, fmt.Errorf("load %s: %w", pkg.ID(), err)
		}
	}

	return shutdown, nil
}
