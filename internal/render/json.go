package render

import (
	"encoding/json"

	"github.com/spherical-ai/docmill/internal/domain"
)

// pageJSON is the stable per-page schema. Every field is always present;
// absent values serialize as null or an empty sequence, never as a missing
// key, so downstream consumers can rely on the shape.
type pageJSON struct {
	Index          int                `json:"index"`
	Text           string             `json:"text"`
	Blocks         []domain.TextBlock `json:"blocks"`
	VisionAnalysis *string            `json:"vision_analysis"`
}

// documentJSON is the stable document schema.
type documentJSON struct {
	Filename       string                `json:"filename"`
	PageCount      int                   `json:"page_count"`
	Pages          []pageJSON            `json:"pages"`
	ProcessingMode domain.ProcessingMode `json:"processing_mode"`
	Errors         []string              `json:"errors"`
}

// JSON renders the structured representation of a document.
func JSON(doc *domain.DocumentResult) ([]byte, error) {
	out := documentJSON{
		Filename:       doc.Filename,
		PageCount:      doc.PageCount,
		Pages:          make([]pageJSON, 0, len(doc.Pages)),
		ProcessingMode: doc.Mode,
		Errors:         doc.Errors,
	}
	if out.Errors == nil {
		out.Errors = []string{}
	}

	for _, page := range doc.Pages {
		p := pageJSON{
			Index:  page.Index,
			Text:   page.Text,
			Blocks: page.Blocks,
		}
		if p.Blocks == nil {
			p.Blocks = []domain.TextBlock{}
		}
		if page.VisionAnalysis != "" {
			analysis := page.VisionAnalysis
			p.VisionAnalysis = &analysis
		}
		out.Pages = append(out.Pages, p)
	}

	return json.MarshalIndent(out, "", "  ")
}
