package pdfverify

import (
	"github.com/digitorus/pdf"

	"github.com/digitorus/svtpades/internal/core"
)

// docMDPPolicy implements the DocMDP permission check as a supplemented
// policy check feeding policy_validation_results, adapted from the
// teacher's checkDocMDP: a signature that declares a DocMDP transform with
// P=1 (no changes permitted) but is nonetheless followed by an incremental
// update fails outright; P=2 (form filling) and P=3 (annotations) are
// reported as passed here since the shape of the permitted change is
// judged by C4's own root/xref classification, not by this policy.
func docMDPPolicy(sig pdf.Value, fileSize int64) []core.PolicyResult {
	refs := sig.Key("Reference")
	if refs.IsNull() || refs.Kind() != pdf.Array {
		return nil
	}

	var results []core.PolicyResult
	for i := 0; i < refs.Len(); i++ {
		ref := refs.Index(i)
		if ref.Key("TransformMethod").Name() != "DocMDP" {
			continue
		}

		perms := 2
		if p := ref.Key("TransformParams").Key("P"); !p.IsNull() {
			perms = int(p.Int64())
		}

		br := sig.Key("ByteRange")
		if br.Len() < 4 {
			continue
		}
		signedEnd := br.Index(2).Int64() + br.Index(3).Int64()

		if fileSize <= signedEnd {
			results = append(results, core.PolicyResult{PolicyID: "docmdp-permission", Conclusion: core.Passed})
			continue
		}

		if perms == 1 {
			results = append(results, core.PolicyResult{PolicyID: "docmdp-permission", Conclusion: core.Failed})
			continue
		}
		results = append(results, core.PolicyResult{PolicyID: "docmdp-permission", Conclusion: core.Passed})
	}
	return results
}
