package metrics

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orsh",
		Name:      "dispatches_total",
		Help:      "Command lines dispatched, by execution pattern.",
	}, []string{"pattern"})

	childFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orsh",
		Name:      "child_failures_total",
		Help:      "Children that failed before becoming the requested program, by failing operation.",
	}, []string{"op"})

	childrenReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orsh",
		Name:      "children_reaped_total",
		Help:      "Background children reclaimed asynchronously.",
	})

	backgroundTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "orsh",
		Name:      "background_tracked",
		Help:      "Background children started but not yet reclaimed.",
	})

	interrupts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orsh",
		Name:      "interrupts_absorbed_total",
		Help:      "Interrupt signals absorbed by the controlling process.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "orsh",
		Name:      "build_info",
		Help:      "Build metadata for the running orsh binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(dispatches, childFailures, childrenReaped, backgroundTracked, interrupts, buildInfo)
}

// Registry returns the Prometheus registry containing all orsh metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncDispatch counts one dispatched command line.
func IncDispatch(pattern string) {
	if pattern == "" {
		return
	}
	dispatches.WithLabelValues(pattern).Inc()
}

// IncChildFailure counts a child that failed at op.
func IncChildFailure(op string) {
	if op == "" {
		op = "unknown"
	}
	childFailures.WithLabelValues(op).Inc()
}

// IncReaped counts one reclaimed background child.
func IncReaped() {
	childrenReaped.Inc()
}

// SetBackgroundTracked records the number of unreclaimed background children.
func SetBackgroundTracked(n int) {
	backgroundTracked.Set(float64(n))
}

// IncInterrupts counts one absorbed interrupt.
func IncInterrupts() {
	interrupts.Inc()
}

// WriteTextfile writes every metric to path in the text exposition format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
