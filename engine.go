/*
File: engine.go
Description: The analysis engine: tokenize, consult the fingerprint cache,
             coalesce identical in-flight requests, fan out signal
             collectors under a concurrency cap, score with the ensemble,
             and assemble the explained verdict. Also batch analysis and
             hot model reload.
*/

package urlguard

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const EngineVersion = "1.2.0"

// Options tune a single analysis call.
type Options struct {
	// DeepScan enables the network collectors (DNS, TLS, page content).
	// Off, the verdict is lexical-only and never touches the network.
	DeepScan bool

	// UseCache consults and populates the fingerprint cache.
	UseCache bool
}

// DefaultOptions is a cached, lexical-only analysis.
func DefaultOptions() Options {
	return Options{UseCache: true}
}

// Engine is the URL risk analysis engine. Safe for concurrent use; create
// once and share.
type Engine struct {
	cfg        *Config
	collectors []Collector
	ensemble   atomic.Pointer[ensemble]
	cache      *AssessmentCache
	flights    *shardedFlightGroup
	sem        *semaphore.Weighted
	metrics    *engineMetrics
}

// NewEngine builds an engine from configuration; nil selects defaults.
// Failing to load or compile the model snapshot is fatal here, never at
// scoring time.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	snap, err := loadSnapshot(cfg.Ensemble.SnapshotFile)
	if err != nil {
		return nil, err
	}
	ens, err := newEnsemble(snap, cfg.Ensemble)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		cache:   NewAssessmentCache(cfg.Cache.Size, cfg.Cache.parsedTTL),
		flights: newShardedFlightGroup(),
		sem:     semaphore.NewWeighted(int64(cfg.Engine.MaxConcurrent)),
		metrics: newEngineMetrics(),
	}
	e.ensemble.Store(ens)

	e.collectors = append(e.collectors, NewLexicalCollector(cfg.Lexical))
	if cfg.Collectors.DNS.Enabled {
		e.collectors = append(e.collectors, NewDNSCollector(cfg.Collectors, cfg.Reputation))
	}
	if cfg.Collectors.TLS.Enabled {
		e.collectors = append(e.collectors, NewTLSCollector())
	}
	if cfg.Collectors.Content.Enabled {
		e.collectors = append(e.collectors, NewContentCollector(cfg.Collectors))
	}

	LogInfo("[ENGINE] Ready: version=%s schema=%s collectors=%d models=%d",
		EngineVersion, FeatureSchemaVersion, len(e.collectors), len(ens.members))
	return e, nil
}

// Analyze produces a risk assessment for one URL. Identical fingerprints
// already in flight share a single analysis; cached verdicts are returned
// unchanged except for the in-memory FromCache marker.
func (e *Engine) Analyze(ctx context.Context, rawURL string, opts Options) (*RiskAssessment, error) {
	dec, err := Tokenize(rawURL)
	if err != nil {
		e.metrics.analysisErrors.Inc()
		return nil, err
	}

	if opts.UseCache {
		if cached, ok := e.cache.Get(dec.Fingerprint); ok {
			e.metrics.cacheHits.Inc()
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		}
		e.metrics.cacheMisses.Inc()
	}

	v, err, shared := e.flights.Do(dec.Fingerprint, func() (interface{}, error) {
		// Re-check inside the flight: a flight that just completed may
		// have populated the cache between the lookup above and here.
		if opts.UseCache {
			if cached, ok := e.cache.Get(dec.Fingerprint); ok {
				e.metrics.cacheHits.Inc()
				hit := *cached
				hit.FromCache = true
				return &hit, nil
			}
		}
		return e.analyzeUncached(ctx, dec, opts)
	})
	if err != nil {
		e.metrics.analysisErrors.Inc()
		return nil, err
	}
	if shared {
		e.metrics.coalescedFlights.Inc()
	}
	return v.(*RiskAssessment), nil
}

func (e *Engine) analyzeUncached(ctx context.Context, dec *Decomposition, opts Options) (*RiskAssessment, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	start := time.Now()

	bundles := runCollectors(ctx, e.collectors, dec, opts, e.cfg.Collectors.parsedDeadline)
	for _, b := range bundles {
		switch b.Status {
		case StatusFailed:
			e.metrics.collectorFailures.WithLabelValues(b.Collector).Inc()
		case StatusTimeout:
			e.metrics.collectorTimeouts.WithLabelValues(b.Collector).Inc()
		}
	}

	vector := BuildFeatureVector(bundles)
	score := e.ensemble.Load().score(vector)

	level := LevelForProbability(score.Probability)
	threats := e.gatherThreats(bundles)
	elapsed := time.Since(start)

	assessment := &RiskAssessment{
		ID:              uuid.NewString(),
		URL:             dec.Raw,
		Fingerprint:     dec.Fingerprint,
		Category:        dec.Category,
		Probability:     score.Probability,
		RiskScore:       int(score.Probability*100 + 0.5),
		RiskLevel:       level,
		Confidence:      score.Confidence,
		LowConfidence:   score.LowConfidence,
		Threats:         threats,
		TopFeatures:     topContributions(score.Contributions, e.cfg.Engine.TopFeatures),
		Predictions:     score.Predictions,
		Recommendations: recommendations(level, threats),
		SchemaVersion:   FeatureSchemaVersion,
		EngineVersion:   EngineVersion,
		Timestamp:       time.Now().UTC(),
		ElapsedMillis:   elapsed.Milliseconds(),
	}

	e.metrics.analysesTotal.WithLabelValues(string(level)).Inc()
	e.metrics.analysisSeconds.Observe(elapsed.Seconds())

	if IsDebugEnabled() {
		LogDebug("[ENGINE] %s -> score=%d level=%s conf=%.2f (%v)",
			dec.Fingerprint, assessment.RiskScore, level, score.Confidence, elapsed)
	}

	if opts.UseCache {
		e.cache.Add(dec.Fingerprint, assessment)
	}
	return assessment, nil
}

// gatherThreats merges collector indicators, drops those below the
// configured severity floor, and orders them by weight (heaviest first,
// ties by kind) so identical inputs explain identically.
func (e *Engine) gatherThreats(bundles []SignalBundle) []ThreatIndicator {
	threats := make([]ThreatIndicator, 0, 8)
	for _, b := range bundles {
		if b.Status != StatusOK {
			continue
		}
		for _, t := range b.Indicators {
			if t.Weight >= e.cfg.Ensemble.MinIndicatorWeight {
				threats = append(threats, t)
			}
		}
	}
	sort.Slice(threats, func(i, j int) bool {
		if threats[i].Weight != threats[j].Weight {
			return threats[i].Weight > threats[j].Weight
		}
		return threats[i].Kind < threats[j].Kind
	})
	return threats
}

// AnalyzeBatch analyzes URLs concurrently under the batch worker cap and
// returns one result per input, in input order. Per-URL failures land in
// the result slot, never abort the batch.
func (e *Engine) AnalyzeBatch(ctx context.Context, urls []string, opts Options) []BatchResult {
	results := make([]BatchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Engine.BatchWorkers)

	for i, raw := range urls {
		i, raw := i, raw
		g.Go(func() error {
			assessment, err := e.Analyze(gctx, raw, opts)
			results[i] = BatchResult{URL: raw, Assessment: assessment, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}

	// Workers never return errors; Wait only fences completion.
	_ = g.Wait()
	return results
}

// ReloadModels swaps in a new snapshot without interrupting in-flight
// analyses. The cache is flushed since cached verdicts reflect the old
// parameters. An invalid snapshot leaves the current one in place.
func (e *Engine) ReloadModels(path string) error {
	snap, err := loadSnapshot(path)
	if err != nil {
		return err
	}
	ens, err := newEnsemble(snap, e.cfg.Ensemble)
	if err != nil {
		return err
	}
	e.ensemble.Store(ens)
	e.cache.Flush()
	LogInfo("[ENGINE] Model snapshot reloaded: models=%d", len(ens.members))
	return nil
}

// FlushCache drops every cached assessment.
func (e *Engine) FlushCache() {
	e.cache.Flush()
}

// Close releases pooled network resources. The engine must not be used
// after Close.
func (e *Engine) Close() {
	for _, c := range e.collectors {
		if cc, ok := c.(*ContentCollector); ok {
			cc.client.CloseIdleConnections()
		}
	}
	e.cache.Flush()
}
