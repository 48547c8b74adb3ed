package server

import (
	"context"
	"errors"
	"time"

	"github.com/kyunghoon/twasm/internal/config"
	"github.com/kyunghoon/twasm/pkg/transpiler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

type Telemetry struct {
	transpileDurInstrument   api.Float64Histogram
	transpileCountInstrument api.Int64Counter
	loadDurInstrument        api.Float64Histogram
	cacheCountInstrument     api.Int64Counter
	errorCountInstrument     api.Int64Counter
}

func NewServerMetrics() *Telemetry {
	return &Telemetry{}
}

func (tm *Telemetry) Setup(conf *config.TwasmConfig) {
	if conf.DisableMetrics {
		return
	}
	meter := otel.Meter("twasm-server-metrics", api.WithInstrumentationAttributes(
		attribute.KeyValue{
			Key: "node_id", Value: attribute.StringValue(conf.NodeId),
		},
		attribute.KeyValue{
			Key: "tag", Value: attribute.StringSliceValue(conf.Tags),
		},
	))

	tm.transpileDurInstrument, _ = meter.Float64Histogram(
		"transpile_duration", api.WithUnit("ms"))
	tm.loadDurInstrument, _ = meter.Float64Histogram(
		"load_duration", api.WithUnit("ms"))
	tm.transpileCountInstrument, _ = meter.Int64Counter(
		"transpile_count")
	tm.cacheCountInstrument, _ = meter.Int64Counter(
		"load_cache_lookups")
	tm.errorCountInstrument, _ = meter.Int64Counter(
		"error_count")
}

func (tm *Telemetry) MeasureTranspile(
	ctx context.Context, filename, format string,
	start time.Time, err error,
) {
	if tm.transpileDurInstrument == nil || tm.transpileCountInstrument == nil {
		return
	}
	elasped := time.Since(start)
	attrSet := attribute.NewSet(
		attribute.String("filename", filename),
		attribute.String("format", format),
		attribute.String("outcome", transpileOutcome(err)),
	)
	tm.addError("transpile", err, attrSet)

	tm.transpileDurInstrument.Record(ctx,
		float64(elasped)/float64(time.Millisecond),
		api.WithAttributeSet(attrSet))

	tm.transpileCountInstrument.Add(ctx, 1,
		api.WithAttributeSet(attrSet))
}

func (tm *Telemetry) MeasureLoad(
	ctx context.Context, path string, cacheHit bool,
	start time.Time, err error,
) {
	if tm.loadDurInstrument == nil || tm.cacheCountInstrument == nil {
		return
	}
	elasped := time.Since(start)
	attrSet := attribute.NewSet(
		attribute.String("path", path),
		attribute.Bool("cache_hit", cacheHit),
	)
	tm.addError("load", err, attrSet)

	tm.loadDurInstrument.Record(ctx,
		float64(elasped)/float64(time.Millisecond),
		api.WithAttributeSet(attrSet))

	tm.cacheCountInstrument.Add(ctx, 1,
		api.WithAttributeSet(attrSet))
}

func transpileOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var terr *transpiler.Error
	if errors.As(err, &terr) {
		return terr.Kind.String()
	}
	return "error"
}

func (tm *Telemetry) addError(
	operation string, err error,
	attrs ...attribute.Set,
) {
	if tm.errorCountInstrument == nil || err == nil {
		return
	}
	attrSet := attribute.NewSet(
		attribute.String("error_value", err.Error()),
		attribute.String("operation", operation),
	)

	attrSets := []api.AddOption{
		api.WithAttributeSet(attrSet),
	}
	for _, attr := range attrs {
		attrSets = append(attrSets, api.WithAttributeSet(attr))
	}

	tm.errorCountInstrument.Add(context.TODO(), 1, attrSets...)
}
