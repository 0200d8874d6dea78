package tracing

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/viant/scorepool"

// Config controls span export.
type Config struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	ServiceName string `yaml:"serviceName" json:"serviceName"`
	Version     string `yaml:"version" json:"version"`
	// OutputFile receives stdout-exporter JSON; empty means os.Stdout.
	OutputFile string `yaml:"outputFile" json:"outputFile"`
}

// DefaultConfig returns a disabled configuration.
func DefaultConfig() Config {
	return Config{ServiceName: "scorepool", Version: "0.0.1"}
}

// Setup installs the stdout exporter when cfg.Enabled is set.
func Setup(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	return Init(cfg.ServiceName, cfg.Version, cfg.OutputFile)
}

// Init configures OpenTelemetry with the stdout exporter. If outputFile is an
// empty string traces are written to os.Stdout. The first successful
// initialisation wins until Shutdown.
func Init(serviceName, serviceVersion, outputFile string) error {
	providerMu.Lock()
	defer providerMu.Unlock()
	if provider != nil {
		return nil
	}

	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w, closer = f, f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err == nil {
		err = installProvider(serviceName, serviceVersion, exporter)
	}
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return err
	}
	output = closer
	return nil
}

// Shutdown flushes and stops the installed provider and closes its output
// file. It is a no-op when tracing was never initialised.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	defer providerMu.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	if output != nil {
		err = errors.Join(err, output.Close())
	}
	provider, output = nil, nil
	return err
}

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
	output     io.Closer
)

func installProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Span wraps an OpenTelemetry span.
type Span struct {
	span trace.Span
}

// WithAttributes attaches string attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.SetAttributes(otelAttrs...)
	return s
}

// WithUnit records the execution unit a task was dispatched to.
func (s *Span) WithUnit(unitID int) *Span {
	if s == nil {
		return s
	}
	s.span.SetAttributes(attribute.String("unit.id", strconv.Itoa(unitID)))
	return s
}

// AddEvent records a named point in time on the span.
func (s *Span) AddEvent(name string) {
	if s == nil {
		return
	}
	s.span.AddEvent(name)
}

// SetStatus records an error status on the span, or OK when err is nil.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return
	}
	s.span.SetStatus(codes.Ok, "")
}

// StartSpan starts a new internal span.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracer := otel.Tracer(instrumentation)
	parent := trace.SpanFromContext(ctx)

	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	if sc := parent.SpanContext(); sc.IsValid() {
		span.SetAttributes(
			attribute.String("parent.trace_id", sc.TraceID().String()),
			attribute.String("parent.span_id", sc.SpanID().String()),
		)
	}
	return ctx, &Span{span: span}
}

// EndSpan finalises the span and records status depending on err.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}
