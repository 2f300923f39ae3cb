package signal

import "github.com/permutive/signalbridge/internal/models"

// BidderAdapter is one variant of the legacy ad-unit mutation path: a
// bidder id paired with the patch applied to that bidder's ad-unit
// params. Bidders without a configured overwrite resolve to a no-op
// variant; there is no built-in per-bidder default logic.
type BidderAdapter struct {
	BidderID string
	Apply    func(signals Signals, bid *models.AdUnitBid)
}

func noopApply(Signals, *models.AdUnitBid) {}

// adapterFor resolves the adapter variant for a bidder from the
// configured overwrites.
func adapterFor(overwrites map[string]OverwriteFunc, bidder string) BidderAdapter {
	if fn, ok := overwrites[bidder]; ok && fn != nil {
		return BidderAdapter{BidderID: bidder, Apply: fn}
	}
	return BidderAdapter{BidderID: bidder, Apply: noopApply}
}

// applyOverwrites runs the adapter for every ad-unit bid that has
// routed signals. Ad units without bids, and bids for bidders outside
// the candidate set, are left alone.
func applyOverwrites(adUnits []models.AdUnit, routed map[string]Signals, overwrites map[string]OverwriteFunc) {
	if len(adUnits) == 0 || len(overwrites) == 0 {
		return
	}
	for ui := range adUnits {
		bids := adUnits[ui].Bids
		for bi := range bids {
			signals, ok := routed[bids[bi].Bidder]
			if !ok {
				continue
			}
			adapterFor(overwrites, bids[bi].Bidder).Apply(signals, &bids[bi])
		}
	}
}
