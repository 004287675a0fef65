// Package railclaw wires Railclaw's orchestrator, chain adapters, and HTTP
// surface into a single embeddable App, the way pkg/cedros wires the Cedros
// paywall for its host binary.
package railclaw

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	chainevm "github.com/railclaw/orchestrator/internal/chain/evm"
	chainsolana "github.com/railclaw/orchestrator/internal/chain/solana"
	"github.com/railclaw/orchestrator/internal/circuitbreaker"
	"github.com/railclaw/orchestrator/internal/config"
	"github.com/railclaw/orchestrator/internal/httpserver"
	"github.com/railclaw/orchestrator/internal/lifecycle"
	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/internal/metrics"
	"github.com/railclaw/orchestrator/internal/monitor"
	"github.com/railclaw/orchestrator/internal/notify"
	"github.com/railclaw/orchestrator/internal/orchestrator"
	"github.com/railclaw/orchestrator/internal/policy"
	"github.com/railclaw/orchestrator/internal/recordstore"
	"github.com/railclaw/orchestrator/internal/sealing"
)

// App wires the Railclaw orchestrator components for reuse or standalone
// serving.
type App struct {
	Config       *config.Config
	Policy       *policy.Store
	Records      *recordstore.Store
	Orchestrator *orchestrator.Orchestrator

	router          chi.Router
	resourceManager *lifecycle.Manager
	metrics         *metrics.Metrics
}

// Option configures App construction.
type Option func(*options)

type options struct {
	router  chi.Router
	metrics *metrics.Metrics
}

// WithRouter allows callers to provide an existing chi.Router to register routes onto.
func WithRouter(router chi.Router) Option {
	return func(o *options) { o.router = router }
}

// WithMetrics injects a Prometheus metrics collector, letting a host process
// share one registry across several embedded apps.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewApp assembles the policy store, record store, chain adapters, and
// orchestrator, and registers the HTTP surface onto a router.
func NewApp(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("railclaw: config required")
	}

	optState := options{}
	for _, opt := range opts {
		opt(&optState)
	}

	app := &App{
		Config:          cfg,
		resourceManager: lifecycle.NewManager(),
	}

	if optState.metrics != nil {
		app.metrics = optState.metrics
	} else {
		app.metrics = metrics.New(prometheus.DefaultRegisterer)
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "railclaw-orchestrator",
		Environment: cfg.Logging.Environment,
	})

	breaker := circuitbreaker.NewManagerFromConfig(cfg.CircuitBreaker)

	app.Policy = policy.NewStore(cfg.PolicyPath)
	app.Records = recordstore.New(cfg.DataDir)

	sealer, err := sealing.NewSealer(cfg.Encryption.WalletKey)
	if err != nil {
		return nil, fmt.Errorf("railclaw: init sealer: %w", err)
	}

	evmEndpoints := make(map[string]string, len(cfg.RPC))
	for chain, url := range cfg.RPC {
		if chain == "solana" {
			continue
		}
		evmEndpoints[chain] = url
	}
	evmPool, err := chainevm.NewPool(ctx, evmEndpoints, breaker, app.metrics)
	if err != nil {
		return nil, fmt.Errorf("railclaw: init evm pool: %w", err)
	}
	app.resourceManager.Register("evm-pool", evmPool)

	var solanaClient *chainsolana.Client
	if solanaRPC, ok := cfg.RPC["solana"]; ok && solanaRPC != "" {
		solanaWS, err := config.DeriveWebsocketURL(solanaRPC)
		if err != nil {
			return nil, fmt.Errorf("railclaw: derive solana websocket url: %w", err)
		}
		solanaClient, err = chainsolana.Dial(ctx, solanaRPC, solanaWS, breaker, app.metrics)
		if err != nil {
			return nil, fmt.Errorf("railclaw: dial solana: %w", err)
		}
		app.resourceManager.Register("solana-client", solanaClient)
	}

	monitorDeps := &monitor.Deps{
		Store:    app.Records,
		EVMPool:  evmPool,
		Solana:   solanaClient,
		Sealer:   sealer,
		Config:   cfg,
		Metrics:  app.metrics,
		Registry: monitor.NewRegistry(),
	}

	app.Orchestrator = orchestrator.New(cfg, app.Policy, app.Records, sealer, app.metrics, monitorDeps, appLogger)

	notifyWorker := notify.NewWorker(app.Records, notify.Config{
		WebhookURL: cfg.Notify.WebhookURL,
		Interval:   cfg.Notify.Interval.Duration,
		Timeout:    cfg.Notify.Timeout.Duration,
	}, appLogger).WithMetrics(app.metrics)
	notifyWorker.Start(context.Background())
	app.resourceManager.RegisterFunc("notify-worker", func() error {
		notifyWorker.Stop()
		return nil
	})

	if optState.router != nil {
		app.router = optState.router
	} else {
		app.router = chi.NewRouter()
	}
	httpserver.ConfigureRouter(app.router, cfg, app.Orchestrator, app.metrics, appLogger)

	return app, nil
}

// Router returns the chi router with Railclaw routes registered.
func (a *App) Router() chi.Router { return a.router }

// Handler exposes the router as an http.Handler.
func (a *App) Handler() http.Handler { return a.router }

// Close releases resources owned by the app (chain adapters, notify worker).
func (a *App) Close() error { return a.resourceManager.Close() }

// Config is an exported alias of the internal configuration struct for embedding use.
type Config = config.Config

// LoadConfig wraps the internal loader for consumers embedding Railclaw.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
