package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/api"
	"github.com/strands/strands/internal/cache"
	"github.com/strands/strands/internal/config"
	"github.com/strands/strands/internal/controller"
	"github.com/strands/strands/internal/decision"
	"github.com/strands/strands/internal/domain"
	"github.com/strands/strands/internal/ingest"
	"github.com/strands/strands/internal/playbook"
	"github.com/strands/strands/internal/recommend"
	"github.com/strands/strands/internal/review"
	"github.com/strands/strands/internal/swarm"
	"github.com/strands/strands/internal/utils"
)

// Default metric query templates for the specialist roster; %s is the
// cluster's canonical service. Operators needing different expressions
// run a forked deployment config rather than this reference wiring.
const (
	metricsAnalystExpr    = `rate(http_requests_total{service="%s",code=~"5.."}[5m])`
	correlatorPrimaryExpr = `rate(http_requests_total{service="%s",code=~"5.."}[5m])`
	correlatorCompareExpr = `rate(node_memory_pressure_total[5m])`
	correlatorCompareName = "node-memory-pressure"
)

// app bundles every long-lived dependency a CLI command needs, built
// once from the loaded Config.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	graph       adapters.GraphStore
	vector      adapters.VectorStore
	metrics     adapters.MetricsSource
	introspect  adapters.ClusterIntrospection
	generator   adapters.TextGenerator
	store       *playbook.Store
	coordinator *swarm.Coordinator
	recommender *recommend.Recommender
	gate        *review.Gate
	webhooks    *api.WebhookQueue
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, wrapConfigError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, wrapConfigError(err)
	}
	return cfg, nil
}

// buildApp wires every adapter and component from cfg. Adapters that
// require a live connection (graph, vector, generator) are constructed
// eagerly so a startup failure surfaces before the controller's first
// tick, per spec.md section 7's "fatal configuration errors abort
// startup" rule.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	graph, err := adapters.NewNeo4jGraphStore(ctx, cfg.Graph.URL, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		return nil, wrapConfigError(fmt.Errorf("connect graph store: %w", err))
	}

	var vector adapters.VectorStore
	if cfg.Vector.URL != "" {
		v, err := adapters.NewPgVectorStore(ctx, cfg.Vector.URL, cfg.Vector.Table)
		if err != nil {
			return nil, wrapConfigError(fmt.Errorf("connect vector store: %w", err))
		}
		vector = v
	}

	var generator adapters.TextGenerator
	if cfg.Generator.APIKey != "" {
		g, err := adapters.NewGenAITextGenerator(ctx, cfg.Generator.APIKey, cfg.Generator.EmbedModel, cfg.Generator.GenerateModel)
		if err != nil {
			return nil, wrapConfigError(fmt.Errorf("connect text generator: %w", err))
		}
		generator = g
	}

	metricsSource := adapters.NewHTTPMetricsSource(
		cfg.Metrics.BaseURL,
		cfg.Metrics.MetricsPath+"/instant",
		cfg.Metrics.MetricsPath+"/range",
		cfg.Metrics.MetricsPath,
		cfg.Metrics.Timeout,
	)
	introspection := adapters.NewHTTPClusterIntrospection(cfg.Metrics.BaseURL, cfg.Metrics.Timeout)

	cacheProvider, err := newCacheProvider(cfg.Cache)
	if err != nil {
		return nil, wrapConfigError(fmt.Errorf("connect cache: %w", err))
	}

	specialists := []swarm.Specialist{
		swarm.NewMetricsSpecialist(metricsSource, metricsAnalystExpr, 15*time.Minute, 2.5),
		swarm.NewLogSpecialist(introspection, 15*time.Minute, 200),
		swarm.NewGraphSpecialist(graph, "default"),
	}
	if vector != nil && generator != nil {
		specialists = append(specialists, swarm.NewEmbeddingSpecialist(generator, vector, 5, 0.75))
	}
	specialists = append(specialists, swarm.NewCorrelatorSpecialist(metricsSource, correlatorPrimaryExpr, correlatorCompareExpr, correlatorCompareName, 15*time.Minute, cacheProvider, cfg.Cache.PatternsTTL))

	store := playbook.NewStore(graph)

	a := &app{
		cfg:         cfg,
		logger:      logger,
		graph:       graph,
		vector:      vector,
		metrics:     metricsSource,
		introspect:  introspection,
		generator:   generator,
		store:       store,
		coordinator: swarm.NewCoordinator(specialists),
		recommender: recommend.NewRecommender(store, generator, cacheProvider, cfg.Cache.PlaybookLookupTTL),
		gate:        review.NewGate(review.NewGraphStore(graph)),
		webhooks:    api.NewWebhookQueue(),
	}
	return a, nil
}

// newCacheProvider builds the Valkey-backed cache-aside provider when
// cfg.Enabled, following the teacher's eager-connect-at-startup rule;
// a disabled cache falls back to cache.NoopProvider{} so every caller
// can use the same Provider interface regardless of configuration.
func newCacheProvider(cfg config.CacheConfig) (cache.Provider, error) {
	if !cfg.Enabled {
		return cache.NoopProvider{}, nil
	}
	return cache.NewValkeyProvider(cache.ValkeyConfig{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
		TLS:          cfg.TLS,
	})
}

// newServer builds the HTTP/JSON surface around this app's wired
// components, routing review approvals through the same Controller
// instance the tick loop runs so the two entry points never see
// inconsistent in-flight state.
func (a *app) newServer(ctrl *controller.Controller) *api.Server {
	return &api.Server{
		Queue:      a.webhooks,
		Controller: ctrl,
		Playbooks:  a.store,
		Graph:      a.graph,
	}
}

func (a *app) decisionConfig() decision.Config {
	cfg := decision.DefaultConfig()
	cfg.Policy = decision.PolicyByName(a.cfg.Controller.PolicyName)
	cfg.ModelVersion = a.cfg.Controller.ModelVersion
	if a.cfg.Controller.WeightsFile != "" {
		if weights, err := decision.LoadWeights(a.cfg.Controller.WeightsFile); err == nil {
			cfg.Weights = weights
		} else {
			a.logger.Warn("failed to load weights file, using defaults", "path", a.cfg.Controller.WeightsFile, "error", err)
		}
	}
	return cfg
}

func (a *app) controllerConfig() controller.Config {
	return controller.Config{
		TickInterval:   a.cfg.Controller.TickInterval,
		GlobalDeadline: a.cfg.Controller.GlobalDeadline,
		SystemIdentity: a.cfg.Controller.SystemIdentity,
		DecisionConfig: a.decisionConfig(),
		AutoApprove:    true,
	}
}

// defaultSeverityMap maps the common provider vocabulary onto domain's
// ordered Severity enum when a provider config supplies no explicit
// severityMap override.
func defaultSeverityMap() ingest.SeverityMap {
	return ingest.SeverityMap{
		"critical": domain.SeverityCritical,
		"high":     domain.SeverityHigh,
		"warning":  domain.SeverityWarning,
		"info":     domain.SeverityInfo,
	}
}

func parseSeverityMap(overrides map[string]string) ingest.SeverityMap {
	m := defaultSeverityMap()
	for k, v := range overrides {
		switch v {
		case "critical":
			m[k] = domain.SeverityCritical
		case "high":
			m[k] = domain.SeverityHigh
		case "warning":
			m[k] = domain.SeverityWarning
		case "info":
			m[k] = domain.SeverityInfo
		}
	}
	return m
}

// newProviders builds one Provider per configured PROVIDER_* entry,
// plus the webhook queue at the highest priority so freshly-pushed
// alerts are picked up before falling back to polling. With no
// providers configured, it falls back to the single METRICS_URL source
// already built for the specialist roster, so a minimal config still
// ingests something.
func (a *app) newProviders() []ingest.Provider {
	webhookProvider := ingest.Provider{Name: "webhook", Priority: 1000, Source: a.webhooks}
	if len(a.cfg.Providers) == 0 {
		return []ingest.Provider{
			webhookProvider,
			{Name: "primary", Priority: 100, Source: a.metrics},
		}
	}
	providers := make([]ingest.Provider, 0, len(a.cfg.Providers)+1)
	providers = append(providers, webhookProvider)
	for _, pc := range a.cfg.Providers {
		if !pc.Enabled {
			continue
		}
		timeout := pc.Timeout
		if timeout <= 0 {
			timeout = a.cfg.Metrics.Timeout
		}
		source := adapters.NewHTTPMetricsSource(
			pc.Endpoint,
			a.cfg.Metrics.MetricsPath+"/instant",
			a.cfg.Metrics.MetricsPath+"/range",
			a.cfg.Metrics.MetricsPath,
			timeout,
		)
		providers = append(providers, ingest.Provider{Name: pc.Name, Priority: pc.Priority, Source: source})
	}
	return providers
}

func (a *app) severityMaps() map[string]ingest.SeverityMap {
	maps := map[string]ingest.SeverityMap{
		"webhook": defaultSeverityMap(),
	}
	if len(a.cfg.Providers) == 0 {
		maps["primary"] = defaultSeverityMap()
		return maps
	}
	for _, pc := range a.cfg.Providers {
		maps[pc.Name] = parseSeverityMap(pc.SeverityMap)
	}
	return maps
}

func (a *app) newPipeline() *ingest.Pipeline {
	collector := ingest.NewCollector(a.newProviders())
	normaliser := ingest.NewNormaliser(a.severityMaps(), nil)
	dedup := ingest.NewDeduplicator(ingest.DefaultDedupWindow)
	return ingest.NewPipeline(collector, normaliser, dedup)
}

func (a *app) newController() *controller.Controller {
	return controller.New(
		a.newPipeline(),
		a.coordinator,
		a.recommender,
		a.graph,
		a.gate,
		a.store,
		&controller.LoggingExecutor{Logger: a.logger},
		a.logger,
		a.controllerConfig(),
	)
}

func (a *app) close(ctx context.Context) {
	if a.graph != nil {
		_ = a.graph.Close(ctx)
	}
}
