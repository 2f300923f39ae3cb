package signal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/permutive/signalbridge/internal/models"
)

// Reserved output literals. These are the only names the writer is
// allowed to remove from a fragment; everything else in the caller's
// object survives a merge pass byte-for-byte.
const (
	StandardKeyword     = "p_standard"
	AudienceKeyword     = "p_standard_aud"
	CustomCohortKeyword = "permutive"
	ProviderName        = "permutive.com"
)

// WriteFragment merges one bidder's signals into its fragment across
// four independent locations: the user.data array, the user.keywords
// string, the user.ext.data object and the site.ext.permutive object.
// The write is idempotent and non-destructive outside the reserved
// paths. On error the fragment is left exactly as it was.
func WriteFragment(frag *models.Fragment, s Signals, cfgs []TransformationConfig) error {
	if frag == nil {
		return nil
	}

	// Path conflicts are detected up front so a failing bidder's
	// fragment is never partially written.
	if len(s.Merged) > 0 || len(s.Custom) > 0 {
		if frag.User != nil {
			if err := checkExtObject(frag.User.Ext, "data"); err != nil {
				return fmt.Errorf("user.ext: %w", err)
			}
		}
	}
	if len(s.Merged) > 0 {
		if frag.Site != nil {
			if err := checkExtObject(frag.Site.Ext, "permutive"); err != nil {
				return fmt.Errorf("site.ext: %w", err)
			}
		}
	}

	writeUserData(frag, userDataEntries(s, cfgs))
	writeKeywords(frag, s)
	writeUserExtData(frag, s)
	writeSiteExt(frag, s)
	return nil
}

// userDataEntries builds the ordered user.data additions: the merged
// AC∪SSP entry, one entry per configured taxonomy transformation, the
// custom-cohort entry, and one tagged entry per topics taxonomy
// version.
func userDataEntries(s Signals, cfgs []TransformationConfig) []models.DataEntry {
	var entries []models.DataEntry

	if len(s.Merged) > 0 {
		merged := models.DataEntry{Name: ProviderName, Segment: segments(s.Merged)}
		entries = append(entries, merged)
		for _, cfg := range cfgs {
			if out, ok := Transform(merged, cfg); ok {
				entries = append(entries, out)
			}
		}
	}

	if len(s.Custom) > 0 {
		entries = append(entries, models.DataEntry{
			Name:    CustomCohortKeyword,
			Segment: segments(s.Custom),
		})
	}

	versions := make([]string, 0, len(s.Topics))
	for v := range s.Topics {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	for _, version := range versions {
		ids := s.Topics[version]
		if len(ids) == 0 {
			continue
		}
		segtax, err := strconv.Atoi(version)
		if err != nil {
			continue
		}
		entries = append(entries, models.DataEntry{
			Name:    ProviderName,
			Ext:     &models.DataEntryExt{Segtax: segtax},
			Segment: segments(ids),
		})
	}

	return entries
}

// writeUserData strips previous entries under the two reserved names
// and appends the new ones. The strip is the only destructive step of
// the whole write and makes repeated writes converge.
func writeUserData(frag *models.Fragment, entries []models.DataEntry) {
	if frag.User == nil && len(entries) == 0 {
		return
	}
	user := ensureUser(frag)

	kept := user.Data[:0:0]
	for _, entry := range user.Data {
		if entry.Name == ProviderName || entry.Name == CustomCohortKeyword {
			continue
		}
		kept = append(kept, entry)
	}
	user.Data = append(kept, entries...)
}

// writeKeywords unions the new key=value tokens into the existing
// comma-separated keywords string. Existing tokens keep their order; a
// token already present is not duplicated.
func writeKeywords(frag *models.Fragment, s Signals) {
	var fresh []string
	for _, id := range s.Merged {
		fresh = append(fresh, StandardKeyword+"="+id)
	}
	for _, id := range s.SSP {
		fresh = append(fresh, AudienceKeyword+"="+id)
	}
	for _, id := range s.Custom {
		fresh = append(fresh, CustomCohortKeyword+"="+id)
	}
	if len(fresh) == 0 {
		return
	}

	user := ensureUser(frag)
	var tokens []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(user.Keywords, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	for _, tok := range fresh {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	user.Keywords = strings.Join(tokens, ",")
}

// writeUserExtData sets user.ext.data.p_standard and
// user.ext.data.permutive. Empty signal sets leave the corresponding
// path untouched rather than clearing it.
func writeUserExtData(frag *models.Fragment, s Signals) {
	if len(s.Merged) == 0 && len(s.Custom) == 0 {
		return
	}
	user := ensureUser(frag)
	if user.Ext == nil {
		user.Ext = make(map[string]any)
	}
	if len(s.Merged) > 0 {
		deepSet(user.Ext, []string{"data", StandardKeyword}, s.Merged)
	}
	if len(s.Custom) > 0 {
		deepSet(user.Ext, []string{"data", CustomCohortKeyword}, s.Custom)
	}
}

// writeSiteExt sets site.ext.permutive.p_standard when merged signals
// exist.
func writeSiteExt(frag *models.Fragment, s Signals) {
	if len(s.Merged) == 0 {
		return
	}
	if frag.Site == nil {
		frag.Site = &models.SiteFragment{}
	}
	if frag.Site.Ext == nil {
		frag.Site.Ext = make(map[string]any)
	}
	deepSet(frag.Site.Ext, []string{"permutive", StandardKeyword}, s.Merged)
}

func ensureUser(frag *models.Fragment) *models.UserFragment {
	if frag.User == nil {
		frag.User = &models.UserFragment{}
	}
	return frag.User
}

// checkExtObject verifies that an intermediate ext key is absent or an
// object, so a deep-set cannot clobber a caller scalar.
func checkExtObject(ext map[string]any, key string) error {
	if ext == nil {
		return nil
	}
	v, ok := ext[key]
	if !ok || v == nil {
		return nil
	}
	if _, ok := v.(map[string]any); !ok {
		return fmt.Errorf("reserved path %q holds a non-object value", key)
	}
	return nil
}

// deepSet writes value at the given path, creating intermediate
// objects as needed. Sibling keys are never replaced. Paths must have
// been validated with checkExtObject first.
func deepSet(ext map[string]any, path []string, value any) {
	m := ext
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func segments(ids []string) []models.DataSegment {
	out := make([]models.DataSegment, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.DataSegment{ID: id})
	}
	return out
}
