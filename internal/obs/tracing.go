// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package obs

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// ServiceName identifies this module to every exporter backend.
const ServiceName = "cxgraph"

// Exporter selects how traces/metrics leave the process.
type Exporter int

const (
	// ExporterStdout writes human-readable spans/metrics to stdout, for
	// local runs and CI.
	ExporterStdout Exporter = iota
	// ExporterOTLP ships to a collector over gRPC, for production.
	ExporterOTLP
)

// Providers bundles the two SDK providers a run needs; Shutdown flushes
// and closes both.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *metric.MeterProvider
}

// Shutdown flushes pending spans/metrics and releases exporter resources.
// Call once, at the end of a run, after every span has ended.
func (p *Providers) Shutdown(ctx context.Context) error {
	if err := p.Tracer.Shutdown(ctx); err != nil {
		return fmt.Errorf("obs: shutdown tracer provider: %w", err)
	}
	if err := p.Meter.Shutdown(ctx); err != nil {
		return fmt.Errorf("obs: shutdown meter provider: %w", err)
	}
	return nil
}

// NewProviders builds and globally installs the tracer/meter providers
// for the given exporter target. otlpEndpoint is only consulted when
// exporter is ExporterOTLP.
func NewProviders(ctx context.Context, exporter Exporter, otlpEndpoint string) (*Providers, error) {
	res, err := sdkresource.New(ctx, sdkresource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("%w: build otel resource: %v", model.ErrIO, err)
	}

	tp, err := newTracerProvider(ctx, exporter, otlpEndpoint, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, exporter, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &Providers{Tracer: tp, Meter: mp}, nil
}

func newTracerProvider(ctx context.Context, exporter Exporter, otlpEndpoint string, res *sdkresource.Resource) (*sdktrace.TracerProvider, error) {
	var spanExporter sdktrace.SpanExporter
	var err error

	switch exporter {
	case ExporterOTLP:
		spanExporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(otlpEndpoint), otlptracegrpc.WithInsecure())
	default:
		spanExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: build span exporter: %v", model.ErrIO, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, exporter Exporter, res *sdkresource.Resource) (*metric.MeterProvider, error) {
	var reader metric.Reader
	var err error

	switch exporter {
	case ExporterOTLP:
		// A production run scrapes /metrics (internal/statussrv) rather
		// than pushing OTLP metrics, so the Prometheus exporter doubles
		// as the OTLP-mode reader.
		reader, err = prometheus.New()
	default:
		var exp metric.Exporter
		exp, err = stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err == nil {
			reader = metric.NewPeriodicReader(exp)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: build metric reader: %v", model.ErrIO, err)
	}

	return metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithResource(res),
	), nil
}

// Tracer returns the named tracer the pipeline's pass boundaries start
// spans on, following the teacher's
// `var xTracer = otel.Tracer("name")` package-level convention.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
