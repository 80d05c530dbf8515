package render

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/docmill/internal/domain"
)

// Markdown renders the markdown representation. When positioned blocks are
// available they drive the structure (headings, list items, paragraphs);
// otherwise the raw page text is emitted as-is. Vision analysis, already
// markdown-shaped by the model prompt, goes in its own subsection.
func Markdown(doc *domain.DocumentResult) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", doc.Filename)

	for _, page := range doc.Pages {
		fmt.Fprintf(&b, "\n## Page %d\n\n", page.Index+1)

		if len(page.Blocks) > 0 {
			writeBlocks(&b, page.Blocks)
		} else if page.Text != "" {
			b.WriteString(strings.TrimRight(page.Text, "\n"))
			b.WriteString("\n")
		}

		if page.VisionAnalysis != "" {
			b.WriteString("\n### Vision Analysis\n\n")
			b.WriteString(strings.TrimRight(page.VisionAnalysis, "\n"))
			b.WriteString("\n")
		}
	}

	return []byte(b.String())
}

func writeBlocks(b *strings.Builder, blocks []domain.TextBlock) {
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		text := strings.TrimSpace(block.Text)
		switch block.Role {
		case domain.RoleHeading:
			fmt.Fprintf(b, "### %s\n", text)
		case domain.RoleListItem:
			fmt.Fprintf(b, "- %s\n", strings.TrimLeft(text, "•◦▪-* \t"))
		default:
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
}
