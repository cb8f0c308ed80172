// Package telemetry wires the OTLP trace, metric and log pipelines for the
// payment engine and the span and instrument helpers its services use.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long a pipeline may spend flushing on exit
const shutdownTimeout = 10 * time.Second

// serviceResource describes this process to the collector. An empty version
// is reported as "dev"; an empty environment is left out.
func serviceResource(name, version, environment string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
	}
	if environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentName(environment))
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
	if err != nil {
		return nil, fmt.Errorf("build %s resource: %w", name, err)
	}
	return res, nil
}

// shutdownPipeline runs stop under shutdownTimeout and logs the outcome
// under the pipeline's name ("traces", "metrics", "logs").
func shutdownPipeline(ctx context.Context, logger *zap.Logger, pipeline string, stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Error("otel pipeline shutdown failed", zap.String("pipeline", pipeline), zap.Error(err))
		return fmt.Errorf("shutdown %s pipeline: %w", pipeline, err)
	}
	logger.Info("otel pipeline stopped", zap.String("pipeline", pipeline))
	return nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
