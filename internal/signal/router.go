package signal

// Bidders that historically received custom cohorts without any
// configuration. They stay in the candidate set for compatibility.
var legacyCCBidders = []string{"appnexus", "rubicon", "ix", "ozone"}

// Signals is the subset of a bundle one bidder is entitled to receive.
type Signals struct {
	// Merged is the deduplicated AC∪SSP union, AC entries first,
	// re-capped at maxSegs.
	Merged []string
	// SSP holds the curation cohorts when the bidder is an eligible
	// ssp code; they additionally surface under the audience keyword.
	SSP []string
	// Custom is the unified custom-cohort list, passed through
	// unmodified for CC-entitled bidders.
	Custom []string
	// Topics is delivered to every candidate regardless of role.
	Topics map[string][]string
}

// Route computes, for every bidder appearing in any role list, the
// signals that bidder receives. Role membership is tested
// independently per class; a bidder may hold several roles at once.
func Route(b Bundle, cfg Resolved) map[string]Signals {
	candidates := unionBidders(cfg.ACBidders, b.SSP.SSPs, cfg.CCBidders, legacyCCBidders)

	out := make(map[string]Signals, len(candidates))
	for _, bidder := range candidates {
		var s Signals

		if containsBidder(cfg.ACBidders, bidder) {
			s.Merged = append(s.Merged, b.AC...)
		}
		if containsBidder(b.SSP.SSPs, bidder) {
			s.SSP = b.SSP.Cohorts
			s.Merged = appendUnique(s.Merged, b.SSP.Cohorts)
		}
		// The union can exceed either class cap, so re-truncate.
		s.Merged = truncate(dedup(s.Merged), cfg.MaxSegs)

		if containsBidder(cfg.CCBidders, bidder) || containsBidder(legacyCCBidders, bidder) {
			s.Custom = b.CustomCohorts
		}
		s.Topics = b.Topics

		out[bidder] = s
	}
	return out
}

func unionBidders(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, b := range list {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}

func containsBidder(list []string, bidder string) bool {
	for _, b := range list {
		if b == bidder {
			return true
		}
	}
	return false
}

func dedup(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:0:0]
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func appendUnique(dst []string, ids []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, id := range dst {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}
