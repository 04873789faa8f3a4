package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"logdata/internal/alerting"
	jwttoken "logdata/internal/jwt_token"
	loghandler "logdata/internal/logs/handler"
	logmetrics "logdata/internal/logs/metrics"
	logservice "logdata/internal/logs/service"
	logstore "logdata/internal/logs/store/log"
	"logdata/internal/platform/config"
	"logdata/internal/platform/database"
	"logdata/internal/platform/health"
	"logdata/internal/platform/kafka/producer"
	"logdata/internal/platform/logger"
	"logdata/internal/platform/redis"
	"logdata/internal/platform/tracer"
	ratelimitmetrics "logdata/internal/ratelimit/metrics"
	ratelimitmw "logdata/internal/ratelimit/middleware"
	"logdata/internal/ratelimit/store/bucket"
	tenanthandler "logdata/internal/tenant/handler"
	tenantmetrics "logdata/internal/tenant/metrics"
	tenantservice "logdata/internal/tenant/service"
	"logdata/internal/tenant/store/keycache"
	tenantstore "logdata/internal/tenant/store/tenant"
	httptransport "logdata/internal/transport/http"
	"logdata/pkg/platform/circuit"
	"logdata/pkg/platform/middleware/metadata"
	"logdata/pkg/platform/middleware/request"
)

const redisPoolStatsInterval = 15 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type infra struct {
	db       *database.Pool
	redis    *redis.Client
	producer *producer.Producer
}

func (i *infra) close(log *slog.Logger) {
	if err := i.producer.Close(); err != nil {
		log.Warn("close kafka producer", "error", err)
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		log.Warn("close database", "error", err)
	}
}

func openInfra(ctx context.Context, cfg *config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	var err error

	if in.db, err = database.New(cfg.Database); err != nil {
		return nil, err
	}
	if in.db != nil {
		if err := in.db.Migrate(ctx); err != nil {
			in.close(log)
			return nil, err
		}
		log.Info("postgres storage enabled")
	} else {
		log.Info("no database configured, using in-memory storage")
	}

	if in.redis, err = redis.New(cfg.Redis); err != nil {
		in.close(log)
		return nil, err
	}
	if in.producer, err = producer.New(cfg.Kafka, log); err != nil {
		in.close(log)
		return nil, err
	}
	return in, nil
}

func run(ctx context.Context, cfg *config.Server, log *slog.Logger) error {
	log.Info("initializing logdata", "addr", cfg.Addr, "env", cfg.Env)

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close(log)

	var (
		tenants tenantservice.TenantStore = tenantstore.NewInMemory()
		logs    logservice.LogStore       = logstore.NewInMemory()
	)
	if in.db != nil {
		tenants = tenantstore.NewPostgres(in.db.DB())
		logs = logstore.NewPostgres(in.db.DB())
	}

	tr := tracer.NewOTel()
	directory := tenantservice.NewDirectory(tenants)

	var keys jwttoken.KeyResolver = directory
	if in.redis != nil {
		keys = keycache.NewResolver(directory,
			keycache.NewRedisCache(in.redis.Client, cfg.Redis.KeyCacheTTL),
			keycache.WithLogger(log),
			keycache.WithTracer(tr),
			keycache.WithMetrics(keycache.NewMetrics()),
		)
		log.Info("tenant key cache enabled", "ttl", cfg.Redis.KeyCacheTTL)
	}

	notifier := buildNotifier(cfg, in.producer, log)
	registrationTokens, err := jwttoken.NewRegistrationTokenService(cfg.Registration.Secret, cfg.Registration.TokenTTL)
	if err != nil {
		return err
	}
	registration := tenantservice.NewRegistration(directory, registrationTokens, notifier,
		tenantservice.WithLogger(log),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)

	dispatcher := alerting.NewDispatcher(notifier,
		alerting.WithTimeout(cfg.Alerting.Timeout),
		alerting.WithLogger(log),
		alerting.WithTracer(tr),
		alerting.WithMetrics(alerting.NewMetrics()),
	)
	logSvc := logservice.New(logs, directory, dispatcher,
		logservice.WithLogger(log),
		logservice.WithMetrics(logmetrics.New()),
		logservice.WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
	)
	verifier := jwttoken.NewLogTokenVerifier(keys,
		jwttoken.WithLogger(log),
		jwttoken.WithTracer(tr),
		jwttoken.WithOutcomeObserver(jwttoken.NewMetrics()),
	)

	healthHandler := health.New(cfg.Env)
	if in.db != nil {
		healthHandler.RegisterCheck("database", in.db.Health)
	}
	if in.redis != nil {
		healthHandler.RegisterCheck("redis", in.redis.Health)
	}
	if in.producer != nil {
		healthHandler.RegisterCheck("kafka", in.producer.Health)
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(
		httptransport.Config{RequestTimeout: cfg.RequestTimeout, BodyLimitBytes: cfg.BodyLimitBytes},
		log,
		tenanthandler.New(registration, log,
			tenanthandler.WithRequestLimit(buildRegistrationLimit(cfg, in, log)),
		),
		loghandler.New(logSvc, log),
		verifier,
		httptransport.WithHealth(healthHandler),
		httptransport.WithClientMetadata(metadata.NewMiddleware(metadata.Config{TrustedProxies: proxies})),
		httptransport.WithMetrics(request.NewMetrics()),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{srv}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			log.Info("starting http listener", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	if in.redis != nil {
		g.Go(func() error {
			in.redis.RunPoolStats(gctx, redisPoolStatsInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// buildRegistrationLimit shares counters through Redis when configured and
// falls back to per-process windows while Redis is unreachable.
func buildRegistrationLimit(cfg *config.Server, in *infra, log *slog.Logger) func(http.Handler) http.Handler {
	m := ratelimitmetrics.New()
	memory := bucket.NewInMemoryBucketStore()
	var limiter ratelimitmw.Limiter = memory
	if in.redis != nil {
		limiter = bucket.NewFailoverBucketStore(
			bucket.NewRedisBucketStore(in.redis.Client),
			memory,
			circuit.New("ratelimit-redis", circuit.WithCooldown(cfg.RateLimit.BreakerCooldown)),
			bucket.WithLogger(log),
			bucket.WithStateObserver(func(s circuit.State) { m.SetDegraded(s == circuit.StateOpen) }),
		)
	}
	mw := ratelimitmw.New(limiter, log, ratelimitmw.WithMetrics(m))
	return mw.PerIP("request_registration", cfg.RateLimit.RegistrationLimit, cfg.RateLimit.RegistrationWindow)
}

// buildNotifier chains every configured transport. Without SMTP or Kafka,
// notifications are only logged.
func buildNotifier(cfg *config.Server, p *producer.Producer, log *slog.Logger) alerting.Notifier {
	var chain alerting.Multi
	if smtp := alerting.NewSMTPNotifier(cfg.SMTP); smtp != nil {
		chain = append(chain, smtp)
		log.Info("smtp notifications enabled", "host", cfg.SMTP.Host)
	}
	if p != nil {
		chain = append(chain, alerting.NewKafkaNotifier(p, cfg.Kafka.AlertTopic))
		log.Info("kafka notifications enabled", "topic", cfg.Kafka.AlertTopic)
	}
	if len(chain) == 0 {
		return alerting.NewLogNotifier(log)
	}
	return chain
}
