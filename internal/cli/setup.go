package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rohan/internal/config"
	"github.com/wesleyorama2/rohan/internal/generator"
	"github.com/wesleyorama2/rohan/internal/llm"
	"github.com/wesleyorama2/rohan/internal/logging"
	"github.com/wesleyorama2/rohan/internal/metrics"
	"github.com/wesleyorama2/rohan/internal/output"
	"github.com/wesleyorama2/rohan/internal/rate"
)

// dotEnvFile is loaded from the working directory before config.
const dotEnvFile = ".env"

// env is what every command needs: settings, logger and console output.
type env struct {
	cfg *config.Config
	log *logging.Logger
	out *output.Reporter
}

func (e *env) Close() {
	e.log.Close()
}

// setup loads configuration and builds the logger and reporter.
func setup(cmd *cobra.Command) (*env, error) {
	flags := cmd.Flags()
	noColor, _ := flags.GetBool("no-color")
	verbose, _ := flags.GetBool("verbose")
	configFile, _ := flags.GetString("config")
	out := output.NewReporter(cmd.OutOrStdout(), noColor)

	if _, err := config.LoadDotEnv(dotEnvFile); err != nil {
		out.Warn("%v", err)
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: flags})
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	log, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		NoColor: noColor,
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("command", cmd.Name()).Str("config", cfg.File).Msg("configuration loaded")

	return &env{cfg: cfg, log: log, out: out}, nil
}

// engine is a generator plus the limiter and recorder it reports on.
type engine struct {
	*generator.Generator
	limiter  rate.Limiter
	recorder *metrics.Recorder
}

// newEngine wires the completion backend, limiter and recorder. observe
// sees every finished item.
func (e *env) newEngine(observe generator.Observer) (*engine, error) {
	cfg := e.cfg
	pacing, err := rate.ParsePacing(cfg.Pacing)
	if err != nil {
		return nil, err
	}
	limiter := rate.New(cfg.RPM, pacing)

	completer, err := llm.New(llm.Config{
		Model:        cfg.Model,
		APIBase:      cfg.APIBase,
		APIKey:       cfg.APIKey(),
		ResponsePath: cfg.ResponsePath,
		Timeout:      cfg.Timeout,
		Retry: llm.RetryPolicy{
			Attempts:        cfg.Retry.Attempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			Jitter:          llm.DefaultRetryPolicy().Jitter,
		},
		Limiter: limiter,
		Logger:  e.log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("completion backend: %w", err)
	}

	recorder := metrics.NewRecorder()
	gen, err := generator.New(generator.Options{
		Completer: completer,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
		PromptDir: cfg.PromptDir,
		Recorder:  recorder,
		Observer:  observe,
		Logger:    e.log.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &engine{Generator: gen, limiter: limiter, recorder: recorder}, nil
}

// summary prints the outcome of a pass.
func (e *env) summary(en *engine, report generator.Report, elapsed time.Duration) {
	e.out.Summary(report, en.recorder.Snapshot(), en.limiter.Stats(), elapsed)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
