// Command moodrecd 运行推荐引擎：按周期刷新参与度聚合并暴露 /metrics。
// 也可以一次性执行刷新或推荐后退出。
//
//	moodrecd -config moodrec.yaml
//	moodrecd -refresh-once
//	moodrecd -recommend u1 -situation ansiedad -emotion stressed -weights '{"cf":1}'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/behuman/moodrec/config"
	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/pkg/logging"
)

var (
	configPath  = flag.String("config", "", "Path to config file (optional, MOODREC_* env vars override it)")
	refreshOnce = flag.Bool("refresh-once", false, "Refresh engagement aggregates once and exit")
	recommendTo = flag.String("recommend", "", "Print recommendations for this user id and exit")
	situationID = flag.String("situation", "", "Situation id for -recommend")
	emotion     = flag.String("emotion", "", "Emotional state for -recommend")
	weightsJSON = flag.String("weights", "", `Weight override for -recommend, e.g. {"cf":1,"tag":0}`)
	limit       = flag.Int("limit", 0, "Result limit for -recommend")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.Log).With().Str("service", "moodrecd").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("moodrecd exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("close resources")
		}
	}()

	switch {
	case *refreshOnce:
		report, err := a.engine.RefreshEngagementAggregates(ctx)
		if err != nil {
			return err
		}
		return printJSON(report)
	case *recommendTo != "":
		req, err := recommendRequest(*recommendTo, *situationID, *emotion, *weightsJSON, *limit)
		if err != nil {
			return err
		}
		res, err := a.engine.Recommend(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	return serve(ctx, cfg, a, logger)
}

func serve(ctx context.Context, cfg *config.Config, a *app, logger zerolog.Logger) error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- a.aggregator.Run(ctx)
	}()

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errCh:
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn().Err(serr).Msg("metrics server shutdown")
		}
	}
	return err
}

func recommendRequest(userID, situationID, emotion, weights string, limit int) (core.RecommendRequest, error) {
	req := core.RecommendRequest{
		UserID:         userID,
		SituationID:    situationID,
		EmotionalState: emotion,
		Limit:          limit,
	}
	if weights != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(weights), &m); err != nil {
			return req, core.NewConfigError(core.ModuleConfig, "parse -weights: %v", err)
		}
		w, err := core.WeightsFromMap(m)
		if err != nil {
			return req, err
		}
		req.Weights = &w
	}
	return req, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
