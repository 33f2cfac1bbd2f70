package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harsheyeditor/OneBlood/api/requests"
	"github.com/harsheyeditor/OneBlood/config"
	coreauth "github.com/harsheyeditor/OneBlood/core/auth"
	"github.com/harsheyeditor/OneBlood/core/cluster"
	"github.com/harsheyeditor/OneBlood/core/donorstatus"
	"github.com/harsheyeditor/OneBlood/core/fabric"
	"github.com/harsheyeditor/OneBlood/core/match"
	"github.com/harsheyeditor/OneBlood/core/matchlog"
	coremetrics "github.com/harsheyeditor/OneBlood/core/metrics"
	coremonitoring "github.com/harsheyeditor/OneBlood/core/monitoring"
	"github.com/harsheyeditor/OneBlood/core/notify"
	"github.com/harsheyeditor/OneBlood/core/sweeper"
	infraauth "github.com/harsheyeditor/OneBlood/infra/auth"
	"github.com/harsheyeditor/OneBlood/infra/logger"
	"github.com/harsheyeditor/OneBlood/infra/metrics"
	"github.com/harsheyeditor/OneBlood/infra/monitoring"
	"github.com/harsheyeditor/OneBlood/infra/mqtt"
	memstore "github.com/harsheyeditor/OneBlood/infra/store"
	"github.com/harsheyeditor/OneBlood/infra/telemetry"
	"github.com/harsheyeditor/OneBlood/internal/eventbus"
)

// Service orchestrates the dispatch fabric, the MQTT transport and the
// expiry sweeper.
type Service struct {
	Fabric      *fabric.Fabric
	Sweeper     *sweeper.Sweeper
	Store       *memstore.Memory
	MatchLog    matchlog.LogStore
	Status      donorstatus.Store
	bus         eventbus.EventBus
	ingress     *mqtt.Ingress
	transport   *mqtt.Notifier
	telemetry   *telemetry.Manager
	log         logger.Logger
	promEnabled bool
	promPort    string
	apiAddr     string
	apiToken    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MatchSink
	promEnabled := cfg.Metrics.PrometheusEnabled
	promPort := cfg.Metrics.PrometheusPort
	if promEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if len(cfg.Metrics.Sinks) > 0 {
		sink, err := coremetrics.NewMatchSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sinks: %w", err)
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MatchSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = coremetrics.NewMultiSink(sinks...)
	}

	mem := memstore.NewMemory()
	registry := cluster.NewRegistry()
	finder := match.NewFinder(mem, logger.New("finder"))
	finder.SetScorer(match.Scorer{Weights: cfg.Match.Weights()})

	remote, err := mqtt.NewNotifier(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt notifier: %w", err)
	}
	// Cluster and broadcast rooms resolve to live connections through the
	// registry; identity events go straight to the actor topic. Splitting
	// the kinds keeps a connected actor from hearing each event twice.
	rooms := notify.Only(cluster.NewNotifier(registry), notify.KindCluster, notify.KindBroadcast)
	notifier := notify.NewMulti(rooms, remote)

	bus := eventbus.New()
	notifyTimeout := time.Duration(cfg.Fabric.NotifyTimeoutSeconds) * time.Second
	fab, err := fabric.NewFabric(registry, mem, mem, finder, match.NewAllocator(),
		notifier, notifyTimeout, sink, bus, logger.New("fabric"))
	if err != nil {
		return nil, fmt.Errorf("fabric: %w", err)
	}

	switch cfg.Auth.Mode {
	case "", "none":
	case "static":
		v := coreauth.NewStaticVerifier()
		for _, a := range cfg.Auth.Static {
			v.Register(a.Token, coreauth.Actor{Identity: a.Identity, Role: cluster.Role(a.Role), Verified: a.Verified})
		}
		fab.SetVerifier(v)
	case "oauth":
		v, err := infraauth.NewIntrospectionVerifier(cfg.Auth.OAuth)
		if err != nil {
			return nil, fmt.Errorf("oauth verifier: %w", err)
		}
		fab.SetVerifier(v)
	default:
		return nil, fmt.Errorf("unknown auth mode %s", cfg.Auth.Mode)
	}

	rep, err := monitoring.NewSentryReporter(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremonitoring.Use(rep)

	logStore, err := cfg.Logging.NewStore()
	if err != nil {
		return nil, fmt.Errorf("match log: %w", err)
	}
	fab.SetMatchLog(logStore)

	status := donorstatus.NewMemoryStore()
	fab.SetStatusStore(status)

	ingress, err := mqtt.NewIngress(cfg.MQTT, fab, remote)
	if err != nil {
		return nil, fmt.Errorf("mqtt ingress: %w", err)
	}

	interval := time.Duration(cfg.Sweeper.IntervalMinutes) * time.Minute
	swp := sweeper.New(mem, notifier, bus, sink, logger.New("sweeper"), interval)

	var tele *telemetry.Manager
	if cfg.Telemetry.Enabled {
		tele, err = telemetry.NewManager(cfg.MQTT, cfg.Telemetry, status, registry)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}

	return &Service{
		Fabric:      fab,
		Sweeper:     swp,
		Store:       mem,
		MatchLog:    logStore,
		Status:      status,
		bus:         bus,
		ingress:     ingress,
		transport:   remote,
		telemetry:   tele,
		log:         logg,
		promEnabled: promEnabled,
		promPort:    promPort,
		apiAddr:     cfg.API.Addr,
		apiToken:    cfg.API.Token,
	}, nil
}

// Bus exposes the internal event bus for collectors and tests.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Run starts the background loops and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Sweeper.Run(ctx)
	if s.telemetry != nil {
		go s.telemetry.Start(ctx)
	}
	if s.apiAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/api/requests/logs", requests.NewLogHandler(s.MatchLog, s.apiToken))
		mux.Handle("/api/requests/donors", requests.NewDonorStatusHandler(s.Status, s.apiToken))
		srv := &http.Server{Addr: s.apiAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Errorf("api shutdown: %v", err)
			}
		}()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.ingress.Close()
	s.transport.Close()
	coremonitoring.Flush(2 * time.Second)
	return s.MatchLog.Close()
}
