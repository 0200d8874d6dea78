// Package tracing wraps OpenTelemetry so the dispatcher can open one span per
// dispatched task without importing the SDK directly. Applications that do not
// call Init get the global no-op provider and pay nothing for the spans.
package tracing
