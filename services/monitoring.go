package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Domain metrics
var (
	paraphraseRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paraphrase_requests_total",
			Help: "Total paraphrase inference calls by mode",
		},
		[]string{"mode"},
	)

	paraphraseCharactersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "paraphrase_characters_total",
			Help: "Total characters sent through the paraphraser",
		},
	)

	paraphraseDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "paraphrase_duration_seconds",
			Help:    "Inference call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	quotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Entitlement checks rejected for exceeding the plan limit",
		},
		[]string{"plan"},
	)

	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

type MonitoringService struct {
	appContext.DefaultService

	port     int
	register *prometheus.Registry
	server   *fiber.App
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		paraphraseRequestsTotal,
		paraphraseCharactersTotal,
		paraphraseDurationSeconds,
		quotaRejectionsTotal,
		rateLimitRejectionsTotal,
	)

	svc.register = reg

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	svc.server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// HTTPMetrics records per-route counters and latency on the main listener.
func HTTPMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		endpoint := c.Route().Path
		method := c.Method()

		httpRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(endpoint, method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())

		return err
	}
}
