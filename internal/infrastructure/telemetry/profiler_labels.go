package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profile label keys. Values must stay low-cardinality: a route pattern or a
// rail, never an obligation or gateway transaction id.
const (
	ProfilingLabelRoute    = "route"
	ProfilingLabelMethod   = "method"
	ProfilingLabelResource = "resource"
	ProfilingLabelRail     = "rail"
	ProfilingLabelJob      = "job"
)

// MaxLabelValueLength truncates longer label values
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped even if a caller passes them
var highCardinalityLabels = map[string]bool{
	"request_id":     true,
	"trace_id":       true,
	"span_id":        true,
	"user_id":        true,
	"obligation_id":  true,
	"transaction_id": true,
	"gateway_tx":     true,
}

// WithProfilingLabels runs fn with labels attached to the CPU samples it
// produces. Labels are sanitized first; none left means fn runs unlabeled.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels returns key/value pairs in key order, without empty or
// high-cardinality entries
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(labels)*2)
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		v := labels[k]
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), " ", "_"))
		if key == "" || v == "" || highCardinalityLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}
