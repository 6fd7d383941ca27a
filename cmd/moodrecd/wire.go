package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/behuman/moodrec/catalog"
	"github.com/behuman/moodrec/config"
	"github.com/behuman/moodrec/core"
	"github.com/behuman/moodrec/embedding"
	"github.com/behuman/moodrec/engagement"
	"github.com/behuman/moodrec/interaction"
	"github.com/behuman/moodrec/pkg/dsl"
	"github.com/behuman/moodrec/profile"
	"github.com/behuman/moodrec/recommend"
	"github.com/behuman/moodrec/situation"
	"github.com/behuman/moodrec/store"
)

// app 持有按配置组装好的引擎及需要关闭的资源。
type app struct {
	engine     *recommend.Engine
	aggregator *engagement.Aggregator
	closers    []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, kv)

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	kb, err := situation.LoadFile(cfg.Catalog.SituationsPath)
	if err != nil {
		return nil, err
	}

	log, err := openInteractionLog(cfg.Interaction, cat)
	if err != nil {
		return nil, err
	}
	if c, ok := log.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	emb, err := openEmbeddings(cfg.Embedding, kv, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := emb.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	aggOpts := []engagement.Option{
		engagement.WithRefreshInterval(cfg.Engagement.RefreshInterval),
		engagement.WithLogger(logger),
	}
	if cfg.Engagement.Sink == config.BackendKV {
		aggOpts = append(aggOpts, engagement.WithSink(engagement.NewKVSink(kv)))
	}
	a.aggregator = engagement.NewAggregator(log, aggOpts...)

	explainer, err := dsl.NewExplainer(cfg.Scoring.Explanations, cfg.Scoring.Fallback)
	if err != nil {
		return nil, err
	}

	opts := []recommend.Option{
		recommend.WithProfiles(profile.NewKVProvider(kv)),
		recommend.WithInteractionLog(log),
		recommend.WithAggregator(a.aggregator),
		recommend.WithSituations(kb),
		recommend.WithWeights(cfg.Scoring.Weights),
		recommend.WithBoosts(cfg.Scoring.Boosts),
		recommend.WithExplainer(explainer),
		recommend.WithRecommendConfig(cfg.Scoring.RecommendConfig()),
		recommend.WithBlockedActivities(cfg.Scoring.BlockedActivities...),
		recommend.WithLogger(logger),
	}
	if emb != nil {
		opts = append(opts, recommend.WithEmbeddings(emb))
	}
	if ex := cfg.Scoring.ExcludeExposed; ex.Enabled {
		opts = append(opts, recommend.WithExposedFilter(ex.InteractionTypes(), ex.Window))
	}
	if a.engine, err = recommend.New(cat, opts...); err != nil {
		return nil, err
	}

	logger.Info().
		Str("store", cfg.Store.Backend).
		Str("embedding", cfg.Embedding.Backend).
		Str("interaction", cfg.Interaction.Backend).
		Int("activities", cat.Len()).
		Msg("engine ready")
	return a, nil
}

func openInteractionLog(cfg config.InteractionConfig, cat core.Catalog) (core.InteractionLog, error) {
	var opts []interaction.Option
	if cfg.ValidateActivities {
		opts = append(opts, interaction.WithCatalog(cat))
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		return interaction.OpenSQLiteLog(cfg.SQLitePath, opts...)
	default:
		return interaction.NewMemoryLog(opts...), nil
	}
}

func openEmbeddings(cfg config.EmbeddingConfig, kv core.Store, logger zerolog.Logger) (core.EmbeddingReader, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendSQLite:
		return embedding.OpenSQLiteStore(cfg.SQLitePath, cfg.Dims)
	case config.BackendFeast:
		return embedding.DialFeast(cfg.Feast, cfg.Dims, logger)
	default:
		return embedding.NewKVStore(kv, cfg.Dims)
	}
}
