package pdf

import (
	"math"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/spherical-ai/docmill/internal/domain"
)

const (
	// rowTolerance groups glyphs whose baselines differ by less than this
	// many points into one line.
	rowTolerance = 5.0
	// headingScale marks a block as a heading when its font size exceeds the
	// page median by this factor.
	headingScale = 1.2
	// blockGapScale ends a block when the vertical gap to the next line
	// exceeds this multiple of the line's font size.
	blockGapScale = 1.8
)

var bulletPrefixes = []string{"•", "‣", "▪", "●", "- ", "* ", "·"}

type line struct {
	y        float64
	fontSize float64
	glyphs   []lpdf.Text
}

// BuildBlocks groups positioned glyphs into ordered text blocks with bounding
// boxes and inferred roles.
func BuildBlocks(texts []lpdf.Text) []domain.TextBlock {
	if len(texts) == 0 {
		return nil
	}

	lines := groupLines(texts)
	median := medianFontSize(lines)

	var blocks []domain.TextBlock
	var current []line

	flush := func() {
		if len(current) == 0 {
			return
		}
		blocks = append(blocks, blockFromLines(current, median))
		current = nil
	}

	for _, ln := range lines {
		if len(current) > 0 {
			prev := current[len(current)-1]
			gap := prev.y - ln.y // Y grows up; reading order descends
			if gap > blockGapScale*math.Max(prev.fontSize, 1) ||
				math.Abs(prev.fontSize-ln.fontSize) > 1.0 ||
				startsWithBullet(lineText(ln)) {
				flush()
			}
		}
		current = append(current, ln)
	}
	flush()

	return blocks
}

// groupLines buckets glyphs by baseline and orders them top-to-bottom,
// left-to-right within a line.
func groupLines(texts []lpdf.Text) []line {
	sorted := make([]lpdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []line
	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}
		if n := len(lines); n > 0 && math.Abs(lines[n-1].y-t.Y) <= rowTolerance {
			lines[n-1].glyphs = append(lines[n-1].glyphs, t)
			if t.FontSize > lines[n-1].fontSize {
				lines[n-1].fontSize = t.FontSize
			}
			continue
		}
		lines = append(lines, line{y: t.Y, fontSize: t.FontSize, glyphs: []lpdf.Text{t}})
	}
	return lines
}

func lineText(ln line) string {
	var b strings.Builder
	var prev *lpdf.Text
	for i := range ln.glyphs {
		g := ln.glyphs[i]
		// Insert a space on a visible horizontal jump between glyphs.
		if prev != nil && g.X-(prev.X+prev.W) > prev.FontSize*0.3 {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		prev = &ln.glyphs[i]
	}
	return strings.TrimSpace(b.String())
}

func blockFromLines(lines []line, medianSize float64) domain.TextBlock {
	var parts []string
	bbox := domain.BoundingBox{
		X0: math.Inf(1), Y0: math.Inf(1),
		X1: math.Inf(-1), Y1: math.Inf(-1),
	}
	maxFont := 0.0

	for _, ln := range lines {
		parts = append(parts, lineText(ln))
		if ln.fontSize > maxFont {
			maxFont = ln.fontSize
		}
		for _, g := range ln.glyphs {
			bbox.X0 = math.Min(bbox.X0, g.X)
			bbox.X1 = math.Max(bbox.X1, g.X+g.W)
			bbox.Y0 = math.Min(bbox.Y0, g.Y)
			bbox.Y1 = math.Max(bbox.Y1, g.Y+g.FontSize)
		}
	}

	text := strings.Join(parts, " ")
	return domain.TextBlock{
		Text: text,
		BBox: bbox,
		Role: inferRole(text, maxFont, medianSize, len(lines)),
	}
}

func inferRole(text string, fontSize, medianSize float64, lineCount int) domain.BlockRole {
	if startsWithBullet(text) {
		return domain.RoleListItem
	}
	if medianSize > 0 && fontSize >= headingScale*medianSize && lineCount <= 2 {
		return domain.RoleHeading
	}
	return domain.RoleParagraph
}

func startsWithBullet(text string) bool {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	// Numbered list items: "1. ", "12) "
	for i, r := range text {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && (r == '.' || r == ')') && strings.HasPrefix(text[i+1:], " ") {
			return true
		}
		break
	}
	return false
}

func medianFontSize(lines []line) float64 {
	if len(lines) == 0 {
		return 0
	}
	sizes := make([]float64, 0, len(lines))
	for _, ln := range lines {
		sizes = append(sizes, ln.fontSize)
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// BlocksFromRawText segments plain extracted text into blocks when no
// positional information is available. Bounding boxes are zero-valued.
func BlocksFromRawText(raw string) []domain.TextBlock {
	var blocks []domain.TextBlock
	for _, para := range strings.Split(raw, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		role := domain.RoleParagraph
		switch {
		case startsWithBullet(para):
			role = domain.RoleListItem
		case looksLikeHeading(para):
			role = domain.RoleHeading
		}
		blocks = append(blocks, domain.TextBlock{
			Text: strings.Join(strings.Fields(para), " "),
			Role: role,
		})
	}
	return blocks
}

func looksLikeHeading(para string) bool {
	if strings.Contains(para, "\n") || len(para) > 60 {
		return false
	}
	return !strings.HasSuffix(para, ".") && !strings.HasSuffix(para, ",")
}
