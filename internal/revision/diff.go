package revision

import "github.com/digitorus/svtpades/internal/core"

// diffXref computes changed_xref (keys present in both tables with a
// different offset) and added_xref (keys new to cur), per spec.md section
// 4.4's "Xref diffing".
func diffXref(prev, cur map[core.ObjectKey]int64) (changed, added map[core.ObjectKey]int64) {
	changed = map[core.ObjectKey]int64{}
	added = map[core.ObjectKey]int64{}
	for key, offset := range cur {
		prevOffset, ok := prev[key]
		if !ok {
			added[key] = offset
			continue
		}
		if prevOffset != offset {
			changed[key] = offset
		}
	}
	return changed, added
}

// diffRoot compares every entry of the current root dictionary against the
// prior one, per spec.md section 4.4's "Root diffing". It returns the sets
// of changed and added keys and whether every value observed had a
// recognized type ("legal_root_object").
func diffRoot(prev, cur map[string]core.COSValue) (changed, added map[string]bool, legal bool) {
	changed = map[string]bool{}
	added = map[string]bool{}
	legal = true

	for key, curVal := range cur {
		if curVal.Kind == core.COSOther {
			legal = false
		}
		prevVal, ok := prev[key]
		if !ok {
			added[key] = true
			continue
		}
		if !equalCOSValue(prevVal, curVal) {
			changed[key] = true
		}
	}
	return changed, added, legal
}

// classify implements spec.md section 4.4's "Classification" rules:
// valid_dss and safe_update.
func classify(rec *core.RevisionRecord) {
	nonDSSOrAcroForm := false
	for item := range rec.AddedRootItems {
		if item != "DSS" && item != "AcroForm" {
			nonDSSOrAcroForm = true
			break
		}
	}

	onlyDSSAdded := len(rec.AddedRootItems) == 1 && rec.AddedRootItems["DSS"]

	rec.ValidDSS = rec.RootUpdate && !rec.NonRootUpdate && rec.LegalRootObject &&
		len(rec.ChangedRootItems) == 0 && onlyDSSAdded

	rec.SafeUpdate = !rec.NonRootUpdate && rec.LegalRootObject &&
		len(rec.ChangedRootItems) == 0 &&
		(rec.IsSignature || rec.IsDocTimestamp || rec.ValidDSS) &&
		!nonDSSOrAcroForm
}
