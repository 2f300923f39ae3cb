package signal

import "github.com/permutive/signalbridge/internal/models"

// Cohorts with no entry in the configured id map resolve to this
// sentinel and are then filtered out of the transformed entry.
const unknownIABID = "unknown"

// transformations maps a transformation id to its implementation.
// Configured ids with no implementation are skipped at write time.
var transformations = map[string]func(models.DataEntry, TransformationParams) models.DataEntry{
	"iab": transformIAB,
}

// Transform applies the configured taxonomy transformation to a
// user-data entry. It is pure: the input entry is not modified. The
// second return is false when the transformation id is unknown.
func Transform(entry models.DataEntry, cfg TransformationConfig) (models.DataEntry, bool) {
	fn, ok := transformations[cfg.ID]
	if !ok {
		return models.DataEntry{}, false
	}
	return fn(entry, cfg.Config), true
}

// transformIAB maps every segment id through the configured IAB id
// map. Unmapped ids are dropped, so the output segment list may be
// empty. The output always carries the configured segtax and the
// input's name.
func transformIAB(entry models.DataEntry, params TransformationParams) models.DataEntry {
	out := models.DataEntry{
		Name:    entry.Name,
		Ext:     &models.DataEntryExt{Segtax: params.Segtax},
		Segment: []models.DataSegment{},
	}
	for _, seg := range entry.Segment {
		id, ok := params.IABIDs[seg.ID]
		if !ok {
			id = unknownIABID
		}
		if id == unknownIABID {
			continue
		}
		out.Segment = append(out.Segment, models.DataSegment{ID: id})
	}
	return out
}
