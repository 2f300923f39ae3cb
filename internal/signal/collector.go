package signal

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/observability"
	"github.com/permutive/signalbridge/internal/store"
)

// Store keys written by the identity SDK. Each is independently
// optional; a missing or malformed value degrades to that source's
// default without affecting the others.
const (
	KeySegmentsStandard = "_psegs"     // numeric standard cohorts
	KeySegmentsDCR      = "_pdcrprs"   // data-clean-room cohorts
	KeyCustomCohorts    = "_pcrprs"    // unified custom cohorts
	KeyCohortsAppnexus  = "_papns"     // legacy custom cohorts, appnexus destination
	KeyCohortsRubicon   = "_prubicons" // legacy custom cohorts, rubicon destination
	KeyCohortsIndex     = "_pindexs"   // legacy custom cohorts, index destination
	KeyCohortsGAM       = "_pdfps"     // legacy custom cohorts, gam destination
	KeySSP              = "_pssps"     // curation cohorts + eligible ssp codes
	KeyTopics           = "_ppsts"     // per-taxonomy-version topic ids
	KeyPlatformConfig   = "_pprebid"   // cached platform configuration
)

// Standard cohorts live in the platform-wide id range; anything below
// this threshold is an internal identifier and is filtered out.
const standardCohortMin = 1_000_000

// SSPSignals couples curation cohort ids with the bidder codes
// entitled to receive them. The ssps list is a routing key set, not a
// signal payload, so it is never capped.
type SSPSignals struct {
	Cohorts []string
	SSPs    []string
}

// Bundle is an immutable snapshot of every signal class for one pass.
// A fresh Bundle is built on every collection; nothing is shared
// between passes.
type Bundle struct {
	AC            []string
	CustomCohorts []string
	SSP           SSPSignals
	Topics        map[string][]string
}

// Collector reads and normalizes the raw cohort sources for one user.
type Collector struct {
	reader  store.Reader
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewCollector builds a Collector over the given per-user reader.
func NewCollector(reader store.Reader, logger *zap.Logger, metrics observability.MetricsRegistry) *Collector {
	return &Collector{reader: reader, logger: logger, metrics: metrics}
}

// Collect builds the signal bundle for one pass. Every source read is
// fault-isolated: a failure substitutes that source's default and
// collection continues.
func (c *Collector) Collect(ctx context.Context, maxSegs int) Bundle {
	return Bundle{
		AC:            c.auctionCohorts(ctx, maxSegs),
		CustomCohorts: c.customCohorts(ctx, maxSegs),
		SSP:           c.sspSignals(ctx, maxSegs),
		Topics:        c.topics(ctx, maxSegs),
	}
}

// auctionCohorts concatenates DCR cohorts first, then standard cohorts
// filtered to the platform-wide id range, capped at maxSegs.
func (c *Collector) auctionCohorts(ctx context.Context, maxSegs int) []string {
	ac := c.strings(ctx, KeySegmentsDCR)
	for _, v := range c.values(ctx, KeySegmentsStandard) {
		if id, ok := standardCohort(v); ok {
			ac = append(ac, id)
		}
	}
	return truncate(ac, maxSegs)
}

// customCohorts unions the primary source with the legacy
// per-destination sources, deduplicated in encounter order.
func (c *Collector) customCohorts(ctx context.Context, maxSegs int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, key := range []string{
		KeyCustomCohorts,
		KeyCohortsAppnexus,
		KeyCohortsRubicon,
		KeyCohortsIndex,
		KeyCohortsGAM,
	} {
		for _, id := range c.strings(ctx, key) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return truncate(out, maxSegs)
}

func (c *Collector) sspSignals(ctx context.Context, maxSegs int) SSPSignals {
	var raw struct {
		Cohorts []any `json:"cohorts"`
		SSPs    []any `json:"ssps"`
	}
	if err := store.JSON(ctx, c.reader, KeySSP, &raw); err != nil {
		c.fault(KeySSP, err)
		return SSPSignals{}
	}
	return SSPSignals{
		Cohorts: truncate(coerceStrings(raw.Cohorts), maxSegs),
		SSPs:    coerceStrings(raw.SSPs),
	}
}

// topics decodes each taxonomy version independently so one malformed
// entry only empties that version's list.
func (c *Collector) topics(ctx context.Context, maxSegs int) map[string][]string {
	var raw map[string]json.RawMessage
	if err := store.JSON(ctx, c.reader, KeyTopics, &raw); err != nil {
		c.fault(KeyTopics, err)
		return map[string][]string{}
	}
	out := make(map[string][]string, len(raw))
	for version, entry := range raw {
		var vals []any
		if err := json.Unmarshal(entry, &vals); err != nil {
			out[version] = []string{}
			continue
		}
		out[version] = truncate(coerceStrings(vals), maxSegs)
	}
	return out
}

// strings reads a string-list source, substituting an empty list on
// any fault.
func (c *Collector) strings(ctx context.Context, key string) []string {
	vals, err := store.Strings(ctx, c.reader, key)
	if err != nil {
		c.fault(key, err)
		return nil
	}
	return vals
}

// values reads a raw scalar-list source, substituting an empty list on
// any fault.
func (c *Collector) values(ctx context.Context, key string) []any {
	vals, err := store.Values(ctx, c.reader, key)
	if err != nil {
		c.fault(key, err)
		return nil
	}
	return vals
}

// fault records a source read that fell back to its default. Missing
// keys are the normal case and are not counted.
func (c *Collector) fault(key string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	c.logger.Debug("signal source unreadable, using default",
		zap.String("key", key), zap.Error(err))
	c.metrics.IncrementSourceFaults(key)
}

// standardCohort reports whether a raw scalar is a numeric cohort id
// in the standard range and returns its string form.
func standardCohort(v any) (string, bool) {
	s, ok := store.CoerceString(v)
	if !ok {
		return "", false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < standardCohortMin {
		return "", false
	}
	return s, true
}

func coerceStrings(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := store.CoerceString(v); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(ids []string, max int) []string {
	if max > 0 && len(ids) > max {
		return ids[:max]
	}
	return ids
}
