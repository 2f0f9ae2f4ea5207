package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-guide2pdf/internal/config"
)

// serveFlags holds the command line. Flags override the config file and
// the environment.
type serveFlags struct {
	config     string
	addr       string
	workers    int
	workersSet bool
	dev        bool
	verbose    bool
	version    bool
}

// parseFlags parses the command line. Positional arguments are rejected.
func parseFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet("guide2pdf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &serveFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path (env "+config.EnvPrefix+"CONFIG)")
	fs.StringVar(&f.addr, "addr", "", "listen address, e.g. :8080")
	fs.IntVarP(&f.workers, "workers", "w", 0, fmt.Sprintf("browser instances (0 = auto, max %d)", config.MaxWorkers))
	fs.BoolVar(&f.dev, "dev", false, "human-readable development logging")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: guide2pdf [flags]\n\nServes POST /assemble, GET /header-footer, GET /healthz and GET /metrics.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %s", errUsage, strings.Join(fs.Args(), " "))
	}
	f.workersSet = fs.Changed("workers")

	return f, nil
}

// loadSettings layers defaults, config file, environment and flags.
func loadSettings(f *serveFlags, env *Environment) (*config.Config, error) {
	name := f.config
	if name == "" {
		if v, ok := env.LookupEnv(config.EnvPrefix + "CONFIG"); ok {
			name = strings.TrimSpace(v)
		}
	}

	cfg, err := config.Load(name, env.LookupEnv)
	if err != nil {
		return nil, err
	}

	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workersSet {
		cfg.Converter.Workers = f.workers
	}
	if f.dev {
		cfg.Log.Mode = "development"
	}
	if f.verbose {
		cfg.Log.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
