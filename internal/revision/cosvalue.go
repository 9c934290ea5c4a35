package revision

import (
	"github.com/digitorus/pdf"
	"golang.org/x/text/cases"

	"github.com/digitorus/svtpades/internal/core"
)

// foldCase normalizes a PDF name or string for case-insensitive comparison.
// Built once and reused; cases.Caser is safe for concurrent use.
var foldCase = cases.Fold()

// toRootDict converts a resolved /Root dictionary Value into the map of
// typed COSValues the root-diffing algorithm compares, per spec.md section
// 4.4's "root dictionary value equality" design note.
//
// pdf.Value transparently resolves indirect references when a key or index
// is read, so this package cannot distinguish "a direct value" from "an
// indirect reference to that same value" through the public API; both are
// folded into the resolved kind. In practice this only affects the
// COSIndirectRef variant, which spec.md's own comparison rule already
// treats identically to COSDict (equality by presence only) for every
// PDF root-dictionary entry that matters here (/Pages, /AcroForm, /DSS,
// /Names all point at dictionaries), so the fold is behavior-preserving.
func toRootDict(root pdf.Value) map[string]core.COSValue {
	if root.Kind() != pdf.Dict {
		return map[string]core.COSValue{}
	}
	out := make(map[string]core.COSValue)
	for _, key := range root.Keys() {
		out[key] = toCOSValue(root.Key(key))
	}
	return out
}

func toCOSValue(v pdf.Value) core.COSValue {
	switch v.Kind() {
	case pdf.Dict:
		return core.COSValue{Kind: core.COSDict}
	case pdf.Name:
		return core.COSValue{Kind: core.COSName, Name: v.Name()}
	case pdf.String:
		return core.COSValue{Kind: core.COSString, Str: v.Text()}
	case pdf.Array:
		elems := make([]core.COSValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			elems[i] = toCOSValue(v.Index(i))
		}
		return core.COSValue{Kind: core.COSArray, Elements: elems}
	case pdf.Integer, pdf.Real, pdf.Bool, pdf.Null:
		// Scalar leaf values not otherwise distinguished by spec.md's
		// comparison rule; treated as "other" since none of the classified
		// entries in a PAdES root dictionary (/DSS, /AcroForm, /Pages,
		// /Perms) are ever these types themselves.
		return core.COSValue{Kind: core.COSOther}
	default:
		return core.COSValue{Kind: core.COSOther}
	}
}

// equalCOSValue implements spec.md section 4.4's typed value-equality rule:
// nested dictionaries compare equal by presence only, strings compare
// case-insensitively, arrays compare element-wise, and any "other" value
// never compares equal (forcing the caller to treat the object as an
// illegal root update per the surrounding legality check).
func equalCOSValue(a, b core.COSValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case core.COSDict, core.COSIndirectRef:
		return true
	case core.COSName:
		return foldCase.String(a.Name) == foldCase.String(b.Name)
	case core.COSString:
		return foldCase.String(a.Str) == foldCase.String(b.Str)
	case core.COSArray:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !equalCOSValue(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
