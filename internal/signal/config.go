package signal

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/models"
	"github.com/permutive/signalbridge/internal/sdk"
	"github.com/permutive/signalbridge/internal/store"
)

// DefaultMaxSegs caps every emitted signal list unless configured otherwise.
const DefaultMaxSegs = 500

// OverwriteFunc patches the params of one ad-unit bid with the signals
// routed to that bidder. Publishers register these per bidder id; they
// only exist for the legacy ad-unit mutation path.
type OverwriteFunc func(signals Signals, bid *models.AdUnitBid)

// TransformationParams configures one taxonomy mapping: the taxonomy
// id to stamp on the output entry and the internal-to-external id map.
type TransformationParams struct {
	Segtax int               `json:"segtax"`
	IABIDs map[string]string `json:"iabIds"`
}

// TransformationConfig names a transformation variant and its
// parameters. Unknown ids are skipped at write time.
type TransformationConfig struct {
	ID     string               `json:"id"`
	Config TransformationParams `json:"config"`
}

// Config is one layer of module configuration. Pointer and nil-able
// fields distinguish "unset" from zero so layering can tell which
// values a layer actually provides.
type Config struct {
	WaitForReady *bool  `json:"waitForIt,omitempty"`
	Params       Params `json:"params,omitempty"`
}

// Params holds the tunable engine parameters of one config layer.
// Overwrites never travels as JSON; only the caller layer can carry it.
type Params struct {
	MaxSegs         *int                     `json:"maxSegs,omitempty"`
	ACBidders       []string                 `json:"acBidders,omitempty"`
	CCBidders       []string                 `json:"ccBidders,omitempty"`
	Overwrites      map[string]OverwriteFunc `json:"-"`
	Transformations []TransformationConfig   `json:"transformations,omitempty"`
}

// Resolved is the effective configuration after layering, with every
// field populated.
type Resolved struct {
	WaitForReady    bool
	MaxSegs         int
	ACBidders       []string
	CCBidders       []string
	Overwrites      map[string]OverwriteFunc
	Transformations []TransformationConfig
}

// apply merges one layer into cfg. Scalars and arrays the layer sets
// replace outright; the overwrites map merges key-wise. The schema is
// closed, so the merge is spelled out field by field instead of
// walking arbitrary JSON.
func apply(cfg *Resolved, layer Config) {
	if layer.WaitForReady != nil {
		cfg.WaitForReady = *layer.WaitForReady
	}
	if layer.Params.MaxSegs != nil && *layer.Params.MaxSegs > 0 {
		cfg.MaxSegs = *layer.Params.MaxSegs
	}
	if layer.Params.ACBidders != nil {
		cfg.ACBidders = layer.Params.ACBidders
	}
	if layer.Params.CCBidders != nil {
		cfg.CCBidders = layer.Params.CCBidders
	}
	if layer.Params.Transformations != nil {
		cfg.Transformations = layer.Params.Transformations
	}
	for bidder, fn := range layer.Params.Overwrites {
		if cfg.Overwrites == nil {
			cfg.Overwrites = make(map[string]OverwriteFunc)
		}
		cfg.Overwrites[bidder] = fn
	}
}

// Resolver produces the effective configuration for a pass. The
// platform layer is read live from the SDK when reachable; otherwise a
// value cached once at construction from the signal store stands in.
type Resolver struct {
	sdk    sdk.Client
	cached Config
	logger *zap.Logger
}

// NewResolver builds a Resolver, populating the platform-config cache
// from the store exactly once. A missing or malformed cache entry
// degrades to an empty layer.
func NewResolver(ctx context.Context, reader store.Reader, client sdk.Client, logger *zap.Logger) *Resolver {
	r := &Resolver{sdk: client, logger: logger}
	if reader == nil {
		return r
	}
	var cached Config
	if err := store.JSON(ctx, reader, KeyPlatformConfig, &cached); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Debug("platform config cache unavailable", zap.Error(err))
		}
		return r
	}
	r.cached = cached
	return r
}

// Resolve layers defaults, the platform config and the caller config,
// in that priority order. It never fails; unreadable platform config
// falls back to the cached layer, which itself defaults to empty.
func (r *Resolver) Resolve(caller Config) Resolved {
	cfg := Resolved{MaxSegs: DefaultMaxSegs}

	platform := r.cached
	if r.sdk != nil {
		if raw, ok := r.sdk.LiveConfig(); ok {
			var live Config
			if err := decodeConfig(raw, &live); err != nil {
				r.logger.Debug("live platform config malformed, using cache", zap.Error(err))
			} else {
				platform = live
			}
		}
	}

	apply(&cfg, platform)
	apply(&cfg, caller)
	return cfg
}

func decodeConfig(raw []byte, v *Config) error {
	return json.Unmarshal(raw, v)
}
