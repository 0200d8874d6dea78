package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/viant/scorepool"
	"github.com/viant/scorepool/internal/idgen"
	"github.com/viant/scorepool/optimizer"
	"github.com/viant/scorepool/progress"
	"github.com/viant/scorepool/service/dispatcher"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SCOREPOOL"

// workload describes the synthetic inventory to score.
type workload struct {
	Seed     uint64
	Slots    int
	PerSlot  int
	Token    string
	StateURL string
	Weights  map[string]float64
}

// report is printed on completion.
type report struct {
	Token string              `yaml:"token"`
	Best  *optimizer.Response `yaml:"best"`
	State dispatcher.Snapshot `yaml:"state"`
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("scorepool", pflag.ContinueOnError)
	flags.String("config", "", "configuration URL (file, mem, cloud storage)")
	flags.Int("concurrency", 0, "execution unit limit, 0 derives it from the CPU count")
	flags.Int("buffer-capacity", 0, "scratch buffer capacity in elements")
	flags.Duration("unit-timeout", 0, "retire execution units running longer, 0 disables")
	flags.Int("max-queue", 0, "overflow queue limit, 0 is unbounded")
	flags.Bool("precise-cancel", false, "cancel only queued tasks of the cancelled token")
	flags.String("log-level", "", "log level")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Bool("trace", false, "export task spans")
	flags.String("trace-file", "", "span output file, stdout when empty")
	flags.Uint64("seed", 1, "inventory seed")
	flags.Int("slots", len(optimizer.SlotNames), "relic slots per build")
	flags.Int("per-slot", 8, "relics per slot")
	flags.String("token", "", "identity token of the run")
	flags.String("state-url", "", "write the final state snapshot to this URL")
	flags.StringToString("weight", map[string]string{"ATK%": "1", "CRIT Rate": "2", "CRIT DMG": "1", "SPD": "0.5"}, "stat weights")
	return flags
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	return v, nil
}

// buildConfig loads the optional config document and applies explicit
// flag or environment overrides.
func buildConfig(ctx context.Context, v *viper.Viper) (*scorepool.Config, error) {
	cfg := scorepool.DefaultConfig()
	if URL := v.GetString("config"); URL != "" {
		loaded, err := scorepool.LoadConfig(ctx, URL)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v.IsSet("concurrency") {
		cfg.Dispatcher.Concurrency = v.GetInt("concurrency")
	}
	if v.IsSet("buffer-capacity") {
		cfg.Dispatcher.BufferCapacity = v.GetInt("buffer-capacity")
	}
	if v.IsSet("unit-timeout") {
		cfg.Dispatcher.UnitTimeout = v.GetDuration("unit-timeout")
	}
	if v.IsSet("max-queue") {
		cfg.Dispatcher.MaxQueue = v.GetInt("max-queue")
	}
	if v.IsSet("precise-cancel") {
		cfg.Dispatcher.PreciseCancel = v.GetBool("precise-cancel")
	}
	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = v.GetString("metrics-addr")
	}
	if v.IsSet("trace") {
		cfg.Tracing.Enabled = v.GetBool("trace")
	}
	if v.IsSet("trace-file") {
		cfg.Tracing.OutputFile = v.GetString("trace-file")
	}
	return cfg, cfg.Validate()
}

func buildWorkload(v *viper.Viper) (*workload, error) {
	w := &workload{
		Seed:     v.GetUint64("seed"),
		Slots:    v.GetInt("slots"),
		PerSlot:  v.GetInt("per-slot"),
		Token:    v.GetString("token"),
		StateURL: v.GetString("state-url"),
		Weights:  map[string]float64{},
	}
	if w.Slots <= 0 || w.PerSlot <= 0 {
		return nil, fmt.Errorf("slots and per-slot must be positive: %d, %d", w.Slots, w.PerSlot)
	}
	if w.Slots > len(optimizer.SlotNames) {
		return nil, fmt.Errorf("slots must not exceed %d: %d", len(optimizer.SlotNames), w.Slots)
	}
	if _, err := optimizer.Space(slices.Repeat([]int{w.PerSlot}, w.Slots)...); err != nil {
		return nil, err
	}
	for stat, value := range v.GetStringMapString("weight") {
		var weight float64
		if _, err := fmt.Sscan(value, &weight); err != nil {
			return nil, fmt.Errorf("invalid weight %v=%v: %w", stat, value, err)
		}
		w.Weights[stat] = weight
	}
	return w, nil
}

func run(args []string) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	v, err := newViper(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := buildConfig(ctx, v)
	if err != nil {
		return err
	}
	w, err := buildWorkload(v)
	if err != nil {
		return err
	}
	return execute(ctx, cfg, w, os.Stdout)
}

func execute(ctx context.Context, cfg *scorepool.Config, w *workload, out io.Writer) error {
	var logger *zap.Logger
	srv, err := scorepool.NewFromConfig(cfg, scorepool.WithDispatcherOptions(
		dispatcher.WithProgressListener(func(c progress.Counters) {
			if logger != nil && c.Running == 0 && c.Pending == 0 {
				logger.Debug("workload idle", zap.Int("completed", c.Completed), zap.Int("lost", c.Lost))
			}
		}),
	))
	if err != nil {
		return err
	}
	logger = srv.Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		server := &http.Server{Addr: cfg.Metrics.Address, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		group.Go(func() error {
			logger.Info("serving metrics", zap.String("address", cfg.Metrics.Address))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return server.Shutdown(shutdownCtx)
		})
	}

	token := w.Token
	if token == "" {
		token = idgen.New()
	}
	var best *optimizer.Response
	group.Go(func() error {
		defer cancel()
		request := optimizer.Request{
			Weights: w.Weights,
			Slots:   optimizer.Generate(w.Seed, w.Slots, w.PerSlot),
		}
		logger.Info("optimization started",
			zap.Int("combinations", optimizer.Combinations(request.Slots)),
			zap.Int("concurrency", srv.Dispatcher().Concurrency()))
		started := time.Now()
		response, err := srv.Optimize(gctx, token, request)
		if err != nil {
			return err
		}
		best = response
		logger.Info("optimization finished", zap.Duration("elapsed", time.Since(started)), zap.Float64("score", response.Score))
		return nil
	})

	runErr := group.Wait()
	if w.StateURL != "" {
		if err := srv.SaveState(context.Background(), w.StateURL); err != nil {
			logger.Error("failed to save state", zap.Error(err))
		}
	}
	state := srv.State()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}

	encoder := yaml.NewEncoder(out)
	defer encoder.Close()
	return encoder.Encode(report{Token: token, Best: best, State: state})
}
