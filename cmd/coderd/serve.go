package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"coderd/internal/config"
	"coderd/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	addr     string
	model    string
	threads  int
	maxQueue int
	cors     string
	watch    bool
}

// apply puts explicitly set serve flags on top of cfg.
func (f serveFlags) apply(cmd *cobra.Command, cfg config.Config) config.Config {
	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.Addr = f.addr
	}
	if fs.Changed("model") {
		cfg.Model.Path = f.model
	}
	if fs.Changed("threads") {
		cfg.Model.Threads = f.threads
	}
	if fs.Changed("max-queue") {
		cfg.HTTP.MaxQueue = f.maxQueue
	}
	if f.cors != "" {
		cfg.HTTP.CORS.Enabled = true
		cfg.HTTP.CORS.Origins = splitCSV(f.cors)
	}
	return cfg
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Example: "  coderd serve --model qwen2.5-coder-1.5b-instruct-q4_k_m.gguf\n" +
			"  coderd serve -c coderd.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overlay := func(c config.Config) config.Config { return f.apply(cmd, a.overrides(c)) }
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, overlay(a.cfg), overlay, f.watch)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Model id or path to load at startup")
	cmd.Flags().IntVarP(&f.threads, "threads", "t", 0, "CPU threads (0 = recommended)")
	cmd.Flags().IntVar(&f.maxQueue, "max-queue", 0, "Generation requests admitted at once (0 = unbounded)")
	cmd.Flags().StringVar(&f.cors, "cors-origins", os.Getenv("CODERD_CORS_ORIGINS"), "Comma-separated allowed CORS origins (enables CORS)")
	cmd.Flags().BoolVar(&f.watch, "watch", true, "Reload the config file when it changes")
	return cmd
}

// serve runs the server until ctx is done. overlay re-applies command line
// overrides to configs reloaded from disk.
func (a *app) serve(ctx context.Context, cfg config.Config, overlay func(config.Config) config.Config, watch bool) error {
	b := newBackend(cfg, a.log)
	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetMaxQueue(cfg.HTTP.MaxQueue)
	httpapi.SetCORSOptions(cfg.HTTP.CORS.Enabled, cfg.HTTP.CORS.Origins, cfg.HTTP.CORS.Methods, cfg.HTTP.CORS.Headers)

	if cfg.Model.Path != "" {
		if err := b.initModel(cfg.Model.Path, cfg.Model.Threads); err != nil {
			a.log.Warn().Err(err).Str("model", cfg.Model.Path).Msg("starting without a model; POST /init to load one")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("coderd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		b.Release()
		a.log.Info().Msg("coderd stopped")
		return err
	})
	if watch && a.cfgPath != "" {
		g.Go(func() error {
			current := cfg
			return config.Watch(gctx, a.cfgPath, a.log, func(next config.Config) {
				next = overlay(next)
				b.applyConfig(current, next)
				current = next
			})
		})
	}
	return g.Wait()
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
