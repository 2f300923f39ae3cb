package models

// This package models the slice of an OpenRTB 2.x bid request that the
// signal engine is allowed to touch. Recognized paths are typed; the
// ext objects stay as generic maps because they are caller-owned and
// may carry arbitrary publisher data that must survive a merge pass
// untouched.

// DataSegment is a single cohort id inside a user.data entry.
type DataSegment struct {
	ID string `json:"id"`
}

// DataEntryExt carries the taxonomy tag for a user.data entry. A zero
// Segtax (entry untagged) is omitted on the wire.
type DataEntryExt struct {
	Segtax int `json:"segtax,omitempty"`
}

// DataEntry is one element of the user.data array: a named provider
// with an ordered list of segment ids and an optional taxonomy tag.
type DataEntry struct {
	Name    string        `json:"name"`
	Ext     *DataEntryExt `json:"ext,omitempty"`
	Segment []DataSegment `json:"segment"`
}

// UserFragment is the user object of a per-bidder fragment. Ext is a
// free-form map so sibling keys written by the publisher are preserved
// byte-for-byte; the engine only deep-sets its own reserved paths.
type UserFragment struct {
	Data     []DataEntry    `json:"data,omitempty"`
	Keywords string         `json:"keywords,omitempty"`
	Ext      map[string]any `json:"ext,omitempty"`
}

// SiteFragment is the site object of a per-bidder fragment.
type SiteFragment struct {
	Ext map[string]any `json:"ext,omitempty"`
}

// Fragment is the per-bidder slice of the bid request. It is owned by
// the caller; the engine mutates it in place and retains no reference
// after a write returns.
type Fragment struct {
	User *UserFragment `json:"user,omitempty"`
	Site *SiteFragment `json:"site,omitempty"`
}

// RequestFragments groups the global fragment and the per-bidder
// fragments of one auction, mirroring the ortb2Fragments container the
// host auction passes around.
type RequestFragments struct {
	Global *Fragment            `json:"global,omitempty"`
	Bidder map[string]*Fragment `json:"bidder,omitempty"`
}

// AdUnitBid is one bid entry of an ad unit. Params is the legacy
// bidder-specific parameter bag that configured overwrite functions
// may patch.
type AdUnitBid struct {
	Bidder string         `json:"bidder"`
	Params map[string]any `json:"params,omitempty"`
}

// AdUnit is one ad slot of the auction. Only the bids list is relevant
// to the engine; everything else stays with the host.
type AdUnit struct {
	Code string      `json:"code"`
	Bids []AdUnitBid `json:"bids,omitempty"`
}

// EnrichmentRequest is the mutable auction-preparation payload handed
// to the engine: the fragment container plus the legacy ad-unit list.
type EnrichmentRequest struct {
	UserID    string            `json:"user_id,omitempty"`
	Fragments *RequestFragments `json:"ortb2_fragments"`
	AdUnits   []AdUnit          `json:"ad_units,omitempty"`
}
