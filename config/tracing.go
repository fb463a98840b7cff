package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

const (
	defaultOTLPEndpoint   = "http://localhost:4318"
	defaultOTLPTracesPath = "/v1/traces"
)

// TracingConfig is read from the standard OTEL_* variables plus
// SERVICE_VERSION and OTEL_TRACES_SAMPLE_RATIO.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	SampleRatio    float64
}

// otlpTarget is what otlptracehttp needs from an endpoint URL.
type otlpTarget struct {
	HostPort string
	Path     string
	Insecure bool
}

func NewTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    utils.OTelServiceName(),
		ServiceVersion: utils.GetEnvTrimmedOrDefault("SERVICE_VERSION", "dev"),
		Environment:    utils.GetEnvTrimmedOrDefault(AppEnvKey, EnvDevelopment),
		Endpoint:       utils.GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint),
		SampleRatio:    sampleRatio(utils.GetEnvTrimmed("OTEL_TRACES_SAMPLE_RATIO")),
	}
}

// sampleRatio keeps every trace unless raw is a ratio in [0, 1].
func sampleRatio(raw string) float64 {
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}
	return ratio
}

// SetupTracing installs a global OTLP/HTTP tracer provider when
// OTEL_TRACES_ENABLED is true. The returned shutdown is nil when tracing is off.
func SetupTracing(ctx context.Context, logger *log.Logger) (func(context.Context) error, error) {
	if !utils.IsTracingEnabled() {
		return nil, nil
	}

	cfg := NewTracingConfig()

	target, err := parseOTLPEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(target.HostPort),
		otlptracehttp.WithURLPath(target.Path),
	}
	if target.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: exporter: %w", err)
	}

	res, err := tracingResource(cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"endpoint", cfg.Endpoint,
		"sample_ratio", cfg.SampleRatio)

	return tp.Shutdown, nil
}

func tracingResource(cfg TracingConfig) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: resource: %w", err)
	}
	return res, nil
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
// A bare host:port is plain HTTP on the default traces path.
func parseOTLPEndpoint(raw string) (otlpTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpTarget{}, fmt.Errorf("tracing: empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return otlpTarget{}, fmt.Errorf("tracing: OTLP endpoint %q has a path but no scheme", raw)
		}
		return otlpTarget{HostPort: raw, Path: defaultOTLPTracesPath, Insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpTarget{}, fmt.Errorf("tracing: OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpTarget{}, fmt.Errorf("tracing: OTLP endpoint %q has no host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return otlpTarget{}, fmt.Errorf("tracing: OTLP endpoint scheme %q is not http or https", u.Scheme)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = defaultOTLPTracesPath
	}

	return otlpTarget{HostPort: u.Host, Path: path, Insecure: scheme == "http"}, nil
}
