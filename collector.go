/*
File: collector.go
Description: Signal collector contract and the deadline-bounded fan-out
             runner. Collector problems are values on the bundle, never
             errors: a timed-out or panicking collector degrades to neutral
             defaults instead of failing the assessment.
*/

package urlguard

import (
	"context"
	"sync"
	"time"
)

// SignalStatus is the per-collector outcome.
type SignalStatus string

const (
	StatusOK      SignalStatus = "ok"
	StatusFailed  SignalStatus = "failed"
	StatusTimeout SignalStatus = "timeout"
	StatusSkipped SignalStatus = "skipped"
)

// SignalBundle is one collector's partial result. On anything but StatusOK
// the feature map is ignored by the vector builder and schema defaults
// apply.
type SignalBundle struct {
	Collector  string
	Status     SignalStatus
	Features   map[string]float64
	Indicators []ThreatIndicator
	Err        string
	Elapsed    time.Duration
}

// Collector produces one slice of the feature vector. Implementations are
// independent and order-insensitive; network collectors must honor the
// context deadline.
type Collector interface {
	Name() string

	// Applies reports whether the collector runs for this decomposition
	// under the given options (non-web categories skip TLS/content; network
	// collectors require DeepScan).
	Applies(dec *Decomposition, opts Options) bool

	Collect(ctx context.Context, dec *Decomposition) SignalBundle
}

// runCollectors fans out all applicable collectors with a shared deadline
// and waits for every bundle. Partial signal failure never prevents an
// assessment: panics become StatusFailed, deadline overruns StatusTimeout,
// and skipped collectors report StatusSkipped so the merge stays
// deterministic.
func runCollectors(ctx context.Context, collectors []Collector, dec *Decomposition, opts Options, deadline time.Duration) []SignalBundle {
	bundles := make([]SignalBundle, len(collectors))
	var wg sync.WaitGroup

	for i, c := range collectors {
		if !c.Applies(dec, opts) {
			bundles[i] = SignalBundle{Collector: c.Name(), Status: StatusSkipped}
			continue
		}

		wg.Add(1)
		go func(i int, c Collector) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()

			start := time.Now()
			bundles[i] = collectSafely(cctx, c, dec)
			bundles[i].Elapsed = time.Since(start)

			if bundles[i].Status != StatusOK && IsDebugEnabled() {
				LogDebug("[COLLECT] %s -> %s (%v) %s", c.Name(), bundles[i].Status, bundles[i].Elapsed, bundles[i].Err)
			}
		}(i, c)
	}

	wg.Wait()
	return bundles
}

func collectSafely(ctx context.Context, c Collector, dec *Decomposition) (bundle SignalBundle) {
	defer func() {
		if r := recover(); r != nil {
			LogError("[COLLECT] %s panicked: %v", c.Name(), r)
			bundle = SignalBundle{Collector: c.Name(), Status: StatusFailed, Err: "collector panic"}
		}
	}()

	bundle = c.Collect(ctx, dec)
	bundle.Collector = c.Name()

	if bundle.Status == "" {
		bundle.Status = StatusOK
	}
	if ctx.Err() == context.DeadlineExceeded && bundle.Status == StatusFailed {
		bundle.Status = StatusTimeout
	}
	return bundle
}
