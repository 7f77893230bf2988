package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/meister/internal/core/ports"
)

// InstrumentationName names the tracer of the build.
const InstrumentationName = "meister"

// Setup installs a global tracer provider that forwards spans to the renderer and
// returns a tracer streaming task output to it. The returned function shuts the
// provider down, which also stops the renderer.
func Setup(renderer ports.Renderer) (*OTelTracer, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(renderer)),
	)
	otel.SetTracerProvider(tp)

	return NewOTelTracer(InstrumentationName).WithRenderer(renderer), tp.Shutdown
}
