// Package render turns a DocumentResult into its output representations.
//
// All writers are pure: the same DocumentResult always serializes to the same
// bytes, so re-running a writer is byte-identical. Anything time-dependent
// (processing timestamps) lives in the metadata artifact, not here.
package render

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/docmill/internal/domain"
)

const visionSectionLabel = "[Vision Analysis]"

// Text renders the plain-text representation: raw page text in page order,
// separated by page-break markers, with vision analysis appended under a
// labeled section per page.
func Text(doc *domain.DocumentResult) []byte {
	var b strings.Builder

	for i, page := range doc.Pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", page.Index+1)
		b.WriteString(page.Text)

		if page.VisionAnalysis != "" {
			if !strings.HasSuffix(page.Text, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("\n" + visionSectionLabel + "\n")
			b.WriteString(page.VisionAnalysis)
			b.WriteString("\n")
		}
	}

	return []byte(b.String())
}
