// Command guide2pdf serves guide document assembly over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-guide2pdf/internal/config"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := notifyContext(context.Background())
	err := run(ctx, os.Args[1:], DefaultEnv())
	stop()

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// run parses flags, loads the configuration and serves until ctx is done.
func run(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "guide2pdf %s\n", Version)
		return nil
	}

	cfg, err := loadSettings(flags, env)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Verbose)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	defer log.Sync()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	for _, name := range config.UnknownEnvVars(env.Environ()) {
		log.Warn("unknown environment variable ignored", "name", name)
	}

	return serve(ctx, cfg, log)
}
