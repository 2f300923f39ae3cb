package signal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/analytics"
	"github.com/permutive/signalbridge/internal/models"
	"github.com/permutive/signalbridge/internal/observability"
	"github.com/permutive/signalbridge/internal/sdk"
	"github.com/permutive/signalbridge/internal/store"
)

// Pass labels for metrics and analytics.
const (
	PassFirst  = "first"
	PassSecond = "second"
)

// Engine orchestrates one full aggregation pass per auction
// preparation: resolve config, collect signals, route them and write
// every bidder's fragment. All mutable orchestration state (the
// platform-config cache inside the resolver and the SDK ready latch)
// is owned by the instance, so independent engines never interact.
type Engine struct {
	resolver  *Resolver
	sdk       sdk.Client
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
	analytics analytics.Service

	mu       sync.Mutex
	sdkReady bool // set once the SDK has ever reported ready
}

// NewEngine constructs an Engine. client and sink may be nil when the
// identity SDK or the analytics pipeline is absent.
func NewEngine(resolver *Resolver, client sdk.Client, logger *zap.Logger, metrics observability.MetricsRegistry, sink analytics.Service) *Engine {
	return &Engine{
		resolver:  resolver,
		sdk:       client,
		logger:    logger,
		metrics:   metrics,
		analytics: sink,
	}
}

// Prepare runs the signal pipeline against the request's per-bidder
// fragments, mutating them in place. The returned channel is closed
// exactly once, when enrichment for this auction is complete.
//
// The first pass always runs synchronously. When the resolved config
// asks to wait for the identity SDK and the SDK has never been ready,
// completion is deferred: a one-shot ready listener re-resolves the
// config, runs a second full pass over the same fragments and then
// closes the channel. If the SDK never becomes ready the channel is
// never closed and the first-pass data stands.
//
// A nil request or fragment container is a no-op, not an error.
func (e *Engine) Prepare(ctx context.Context, reader store.Reader, req *models.EnrichmentRequest, caller Config) <-chan struct{} {
	done := make(chan struct{})

	if req == nil || req.Fragments == nil {
		close(done)
		return done
	}

	cfg := e.resolver.Resolve(caller)
	e.runPass(ctx, reader, req, cfg, PassFirst)

	e.mu.Lock()
	known := e.sdkReady
	e.mu.Unlock()

	if cfg.WaitForReady && e.sdk != nil && !known && !e.sdk.Ready() {
		e.sdk.OnReady(func() {
			e.mu.Lock()
			e.sdkReady = true
			e.mu.Unlock()

			// Re-resolve: the SDK may publish its config only once ready.
			cfg := e.resolver.Resolve(caller)
			e.runPass(ctx, reader, req, cfg, PassSecond)
			close(done)
		})
		return done
	}

	if e.sdk != nil && e.sdk.Ready() {
		e.mu.Lock()
		e.sdkReady = true
		e.mu.Unlock()
	}
	close(done)
	return done
}

// runPass executes one collect/route/write cycle. A failing bidder is
// logged and skipped; the pass continues for the rest.
func (e *Engine) runPass(ctx context.Context, reader store.Reader, req *models.EnrichmentRequest, cfg Resolved, pass string) {
	start := time.Now()

	bundle := NewCollector(reader, e.logger, e.metrics).Collect(ctx, cfg.MaxSegs)
	routed := Route(bundle, cfg)

	if req.Fragments.Bidder == nil && len(routed) > 0 {
		req.Fragments.Bidder = make(map[string]*models.Fragment, len(routed))
	}
	for bidder, signals := range routed {
		frag := req.Fragments.Bidder[bidder]
		if frag == nil {
			frag = &models.Fragment{}
			req.Fragments.Bidder[bidder] = frag
		}
		if err := WriteFragment(frag, signals, cfg.Transformations); err != nil {
			e.logger.Warn("bidder fragment write skipped",
				zap.String("bidder", bidder), zap.Error(err))
			e.metrics.IncrementWriteFailures(bidder)
		}
	}

	applyOverwrites(req.AdUnits, routed, cfg.Overwrites)

	e.metrics.IncrementPasses(pass)
	e.metrics.AddSignalsRouted("ac", len(bundle.AC))
	e.metrics.AddSignalsRouted("ssp", len(bundle.SSP.Cohorts))
	e.metrics.AddSignalsRouted("cc", len(bundle.CustomCohorts))
	e.metrics.AddSignalsRouted("topics", len(bundle.Topics))

	e.record(ctx, req, bundle, routed, pass, time.Since(start))
}

// record writes the pass to the analytics sink. Recording is
// best-effort and never affects the pass outcome.
func (e *Engine) record(ctx context.Context, req *models.EnrichmentRequest, bundle Bundle, routed map[string]Signals, pass string, elapsed time.Duration) {
	if e.analytics == nil {
		return
	}
	rec := analytics.PassRecord{
		Timestamp:     time.Now().UTC(),
		PassID:        uuid.NewString(),
		UserID:        req.UserID,
		Pass:          pass,
		Bidders:       len(routed),
		ACCohorts:     len(bundle.AC),
		SSPCohorts:    len(bundle.SSP.Cohorts),
		CustomCohorts: len(bundle.CustomCohorts),
		TopicVersions: len(bundle.Topics),
		DurationMS:    elapsed.Milliseconds(),
	}
	if err := e.analytics.RecordPass(ctx, rec); err != nil {
		e.logger.Warn("enrichment pass not recorded", zap.Error(err))
		e.metrics.IncrementAnalyticsErrors()
	}
}
