package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelResource  = "resource"
	ProfilingLabelOperation = "operation"
)

// Operations labelled in profiles
const (
	OperationDunningSweep  = "dunning_sweep"
	OperationConvertOffers = "convert_offers"
	OperationRenderPDF     = "render_pdf"
)

// maxLabelValueLength caps label values so a stray long value cannot blow up cardinality
const maxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles
var highCardinalityLabels = map[string]bool{
	"request_id": true,
	"trace_id":   true,
	"span_id":    true,
	"offer_id":   true,
	"invoice_id": true,
	"client_id":  true,
}

// WithProfilingLabels runs fn with the labels attached to every sample it produces.
// Labels are pprof labels, so they also show up in plain pprof output.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels labels a named operation plus any extra low-cardinality labels
func OperationLabels(operation string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		labels[k] = v
	}
	labels[ProfilingLabelOperation] = operation
	return labels
}

// HTTPRequestLabels labels a request by route pattern, method and the first path
// resource, e.g. /api/v1/offers/:id -> offers
func HTTPRequestLabels(route, method string) map[string]string {
	labels := make(map[string]string, 3)
	if route != "" {
		labels[ProfilingLabelRoute] = route
		if resource := resourceOfRoute(route); resource != "" {
			labels[ProfilingLabelResource] = resource
		}
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

func resourceOfRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || (s[0] != 'v' && s[0] != 'V') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// sanitizeLabels returns sorted key/value pairs without empty or high-cardinality
// entries. Keys become snake_case and values are truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > maxLabelValueLength {
			value = value[:maxLabelValueLength]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		}
	}
	return string(out)
}
