// Command batchemu serves the batch endpoint locally. Nodes are forwarded to
// --upstream when given and answered by an echo handler otherwise.
//
//	batchemu --port 8089 --upstream https://pi.example.com
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/gobatch/bootstrap"
	"github.com/kbukum/gobatch/config"
	"github.com/kbukum/gobatch/emulator"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "batchemu: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("batchemu", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "config file (default: ./config.yml)")
	envFile := fs.String("env-file", "", "dotenv file (default: ./.env)")
	upstream := fs.String("upstream", "", "forward nodes to this base URL instead of echoing them")
	fs.String("host", "", "listen host")
	fs.Int("port", 0, "listen port")
	fs.Int("max-concurrent", 0, "batches executing at once")
	fs.Int("parallel", 0, "max concurrent nodes per batch")
	fs.String("log-level", "", "log level")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Line("batchemu"))
		return nil
	}

	var cfg config.EmulatorConfig
	err := config.LoadConfig("batchemu", &cfg,
		config.WithConfigFile(*configFile),
		config.WithEnvFile(*envFile),
		config.WithFlag("emulator.server.host", fs.Lookup("host")),
		config.WithFlag("emulator.server.port", fs.Lookup("port")),
		config.WithFlag("emulator.max_concurrent", fs.Lookup("max-concurrent")),
		config.WithFlag("emulator.max_parallel", fs.Lookup("parallel")),
		config.WithFlag("logging.level", fs.Lookup("log-level")),
	)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	ops, mode := emulator.EchoHandler(), "echo"
	if *upstream != "" {
		target, err := url.Parse(*upstream)
		if err != nil || target.Host == "" {
			return fmt.Errorf("--upstream %q is not an absolute URL", *upstream)
		}
		ops, mode = emulator.ProxyHandler(target), "proxy"
	}

	telemetry := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Environment, app.Logger)
	metrics, err := telemetry.Metrics()
	if err != nil {
		return err
	}
	emu, err := emulator.New(cfg.Emulator, ops,
		emulator.WithLogger(app.Logger),
		emulator.WithRecorder(metrics),
		emulator.WithServiceName(cfg.Name),
		emulator.WithHealthChecker(app.Components.HealthAll),
	)
	if err != nil {
		return err
	}

	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(emu); err != nil {
		return err
	}
	app.OnReady(func(context.Context) error {
		app.Logger.Info("batch endpoint listening", map[string]interface{}{
			"url":      emu.BatchURL(),
			"upstream": *upstream,
			"mode":     mode,
		})
		return nil
	})
	return app.Run(ctx)
}
