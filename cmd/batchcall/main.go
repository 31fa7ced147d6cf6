// Command batchcall loads a batch definition, submits it as one call to the
// remote batch endpoint and logs the result of every node.
//
//	batchcall -d write-value.yaml --set server=pi01 --set value=12.5
//	batchcall -d write-value.yaml --local      # one request per node, no batch endpoint
//	batchcall --show 6f1c...                   # print a stored result
//	batchcall --recent 10                      # list stored batches, newest first
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/gobatch/batch"
	"github.com/kbukum/gobatch/bootstrap"
	"github.com/kbukum/gobatch/config"
	"github.com/kbukum/gobatch/dag"
	"github.com/kbukum/gobatch/httpclient"
	"github.com/kbukum/gobatch/observability"
	"github.com/kbukum/gobatch/store"
	"github.com/kbukum/gobatch/version"
)

type options struct {
	configFile string
	envFile    string
	definition string
	vars       []string
	local      bool
	show       string
	recent     int
	failOnNode bool
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "batchcall: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("batchcall", pflag.ContinueOnError)
	var opts options
	fs.StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./config.yml)")
	fs.StringVar(&opts.envFile, "env-file", "", "dotenv file (default: ./.env)")
	fs.StringVarP(&opts.definition, "definition", "d", "", "batch definition file")
	fs.StringArrayVar(&opts.vars, "set", nil, "definition variable name=value (repeatable)")
	fs.BoolVar(&opts.local, "local", false, "execute the graph locally, one request per node")
	fs.StringVar(&opts.show, "show", "", "print a stored batch result by id")
	fs.IntVar(&opts.recent, "recent", 0, "list the N most recently stored batches")
	fs.BoolVar(&opts.failOnNode, "fail-on-node", false, "exit non-zero when any node failed")
	fs.String("base-url", "", "remote API base URL")
	fs.Duration("timeout", 0, "batch call timeout")
	fs.Int("parallel", 0, "max concurrent nodes with --local")
	fs.String("log-level", "", "log level")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Line("batchcall"))
		return nil
	}

	var cfg config.ClientConfig
	err := config.LoadConfig("batchcall", &cfg,
		config.WithConfigFile(opts.configFile),
		config.WithEnvFile(opts.envFile),
		config.WithFlag("client.base_url", fs.Lookup("base-url")),
		config.WithFlag("client.timeout", fs.Lookup("timeout")),
		config.WithFlag("client.max_parallel", fs.Lookup("parallel")),
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

	var st *store.Component
	readStore := opts.show != "" || opts.recent > 0
	if cfg.Store.Enabled || readStore {
		cfg.Store.Enabled = true
		st = store.NewComponent(cfg.Store, app.Logger)
	}
	if readStore {
		if err := app.RegisterComponent(st); err != nil {
			return err
		}
		return app.RunTask(ctx, func(ctx context.Context) error {
			if opts.show != "" {
				return show(ctx, app.Logger, st.Store(), opts.show)
			}
			_, err := recent(ctx, app.Logger, st.Store(), opts.recent)
			return err
		})
	}

	if opts.definition == "" {
		return fmt.Errorf("--definition is required")
	}
	vars, err := parseVars(opts.vars)
	if err != nil {
		return err
	}
	def, err := dag.LoadDefinition(opts.definition, vars)
	if err != nil {
		return err
	}
	// Construction errors surface before anything is started.
	g, err := def.Build()
	if err != nil {
		return err
	}

	telemetry := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Environment, app.Logger)
	client := httpclient.NewComponent(cfg.Client.HTTPConfig())
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(client); err != nil {
		return err
	}
	if st != nil {
		if err := app.RegisterComponent(st); err != nil {
			return err
		}
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		rec, err := telemetry.Metrics()
		if err != nil {
			return err
		}
		sender := batch.NewHTTPSender(client.Adapter())

		var res *dag.BatchResult
		if opts.local {
			exec := &dag.Executor{MaxParallel: cfg.Client.MaxParallel, Log: app.Logger}
			inv := batch.SenderInvoker(sender, cfg.Client.Headers)
			inv = dag.WithLogging(inv, app.Logger)
			inv = dag.WithMetrics(inv, rec)
			res, err = exec.Execute(ctx, g, dag.WithTracing(inv))
		} else {
			tr := batch.NewTransport(sender,
				batch.WithURL(cfg.Client.BatchURL()),
				batch.WithHeaders(cfg.Client.Headers),
				batch.WithLogger(app.Logger),
				batch.WithRecorder(rec),
			)
			res, err = tr.Submit(ctx, g)
		}
		if err != nil {
			return err
		}

		report(app.Logger, def.Name, res)
		if st != nil {
			if err := st.Store().Save(ctx, res); err != nil {
				return err
			}
		}
		if opts.failOnNode && !res.AllSucceeded() {
			return fmt.Errorf("nodes %v did not succeed", res.Unsuccessful())
		}
		return nil
	})
}

// parseVars turns repeated name=value flags into definition variables.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", p)
		}
		vars[name] = value
	}
	return vars, nil
}
