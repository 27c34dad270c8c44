package cmd

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/iksnae/hypnojourney/internal"
	"github.com/iksnae/hypnojourney/internal/media"
	"github.com/iksnae/hypnojourney/internal/metrics"
	"github.com/iksnae/hypnojourney/internal/orchestrator"
	"github.com/iksnae/hypnojourney/internal/scriptgen"
	"github.com/iksnae/hypnojourney/internal/synth"
)

// app is the per-invocation wiring shared by the commands
type app struct {
	cfg    internal.Config
	db     *sql.DB
	store  *internal.SessionStore
	locale internal.Locale
}

// openApp loads the configuration and opens the session store
func openApp() (*app, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if cfg.StorePath == "" {
		return nil, fmt.Errorf("no store path: set --store or %s", internal.EnvStore)
	}

	db, err := internal.OpenDatabase(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	internal.LogDebug("Opened session store at %s", cfg.StorePath)

	store := internal.NewSessionStore(internal.NewSQLiteSlots(db))
	loc, err := internal.NewLocale(store.Language(), store.SetLanguage)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: db, store: store, locale: loc}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// flow selects the chat policy and prompt style of a session
type flow int

const (
	// guided is the fixed four-turn chat with the short test script
	guided flow = iota
	// consultation is the model-driven chat with the full script
	consultation
)

// pipeline is everything a session needs besides the store
type pipeline struct {
	orch     *orchestrator.Orchestrator
	registry *media.Registry
	metrics  *metrics.Metrics
	writer   *scriptgen.Client
}

func (p *pipeline) Close() {
	if err := p.orch.Close(); err != nil {
		internal.LogWarn("Failed to close session: %v", err)
	}
	if err := p.registry.Close(); err != nil {
		internal.LogWarn("Failed to remove audio handles: %v", err)
	}
}

// newPipeline wires the remote clients, the handle registry and the
// optional archive into an orchestrator for st
func (a *app) newPipeline(st internal.SessionType, f flow) (*pipeline, error) {
	httpClient := &http.Client{Timeout: a.cfg.HTTPTimeout}

	genCfg := scriptgen.Config{
		APIKey:      a.cfg.OpenAIAPIKey,
		BaseURL:     a.cfg.OpenAIBaseURL,
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Style:       scriptgen.StyleTest,
		HTTPClient:  httpClient,
	}
	if f == consultation {
		genCfg.Style = scriptgen.StyleConsultation
		genCfg.MaxTokens = 0
	}
	writer := scriptgen.New(genCfg)

	voice := synth.New(synth.Config{
		APIKey:     a.cfg.ElevenLabsAPIKey,
		BaseURL:    a.cfg.ElevenLabsBaseURL,
		HTTPClient: httpClient,
	})

	registry, err := media.NewRegistry("")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio handle directory: %w", err)
	}

	var policy orchestrator.ReadinessPolicy = orchestrator.NewFixedTurnCountReadiness(a.locale)
	if f == consultation {
		policy = &orchestrator.KeywordReadiness{Replier: writer}
	}

	m := metrics.New()
	opts := orchestrator.Options{
		SessionType: st,
		Locale:      a.locale,
		Policy:      policy,
		Generator:   writer,
		Synthesizer: voice,
		Store:       a.store,
		Media:       registry,
		Metrics:     m,
		OnStateChange: func(from, to orchestrator.State) {
			internal.LogDebug("session %s: %s -> %s", st, from, to)
		},
	}
	if a.cfg.AudioDir != "" {
		opts.Archive = media.NewArchive(a.cfg.AudioDir)
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		_ = registry.Close()
		return nil, err
	}
	return &pipeline{orch: orch, registry: registry, metrics: m, writer: writer}, nil
}
