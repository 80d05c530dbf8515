package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Worker pool bounds for per-document page processing.
const (
	MinWorkers = 1
	MaxWorkers = 8
)

// DefaultModel is used when the caller does not name one.
const DefaultModel = "granite3.2-vision:latest"

// BlockRole classifies a text block's structural role on the page.
type BlockRole string

const (
	RoleHeading   BlockRole = "heading"
	RoleParagraph BlockRole = "paragraph"
	RoleListItem  BlockRole = "list-item"
)

// BoundingBox is the rectangle a block occupies, in PDF points.
// X grows right, Y grows up, matching the extraction library.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// TextBlock is one positioned run of text with an inferred role.
type TextBlock struct {
	Text string      `json:"text"`
	BBox BoundingBox `json:"bbox"`
	Role BlockRole   `json:"role"`
}

// SourceDocument identifies the PDF being processed. Immutable once loaded;
// owned by a single pipeline invocation.
type SourceDocument struct {
	Path      string
	Filename  string
	PageCount int
	ByteSize  int64
}

// Stem returns the filename without its extension, used to name the
// per-document output folder and artifacts.
func (d *SourceDocument) Stem() string {
	base := filepath.Base(d.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Options is the processing-options snapshot taken at fan-out time.
type Options struct {
	Model      string
	UseVision  bool
	MaxWorkers int
}

// Normalize clamps MaxWorkers into [MinWorkers, MaxWorkers] and fills in the
// default model. Clamping (rather than rejecting) keeps batch processing total
// under misconfigured input.
func (o Options) Normalize() Options {
	if o.MaxWorkers < MinWorkers {
		o.MaxWorkers = MinWorkers
	}
	if o.MaxWorkers > MaxWorkers {
		o.MaxWorkers = MaxWorkers
	}
	if strings.TrimSpace(o.Model) == "" {
		o.Model = DefaultModel
	}
	return o
}

// PageTask is the unit of independent work for one page. Created at fan-out,
// consumed by exactly one worker invocation.
type PageTask struct {
	Index    int
	Document *SourceDocument
	Options  Options
}

// PageContent is the fully materialized extraction output for one page. It
// holds no handles into the source document, so it is safe to pass across
// worker boundaries.
type PageContent struct {
	RawText   string
	Blocks    []TextBlock
	ImageJPEG []byte
	Width     int
	Height    int
}

// PageResult is the outcome for one page. Exactly one PageResult exists per
// dispatched PageTask, even on failure: a failed extraction yields a stub with
// empty text and Err set, never a missing entry.
type PageResult struct {
	Index          int
	Text           string
	Blocks         []TextBlock
	VisionAnalysis string
	Duration       time.Duration
	Err            error
}

// ProcessingMode records how a document was processed.
type ProcessingMode struct {
	Model      string `json:"model"`
	UseVision  bool   `json:"use_vision"`
	MaxWorkers int    `json:"max_workers"`
}

// DocumentResult is the merged, ordered result for one document.
// Invariant: len(Pages) == PageCount and Pages[i].Index == i.
type DocumentResult struct {
	Filename  string
	PageCount int
	Pages     []PageResult
	Mode      ProcessingMode
	Duration  time.Duration
	Errors    []string
}

// ExportArtifact describes one written output file.
type ExportArtifact struct {
	Format   string `json:"format"`
	Path     string `json:"path"`
	ByteSize int64  `json:"byte_size"`
}

// DocumentArtifacts holds the artifact set for one processed document.
type DocumentArtifacts struct {
	TxtPath      string           `json:"txt_path"`
	JSONPath     string           `json:"json_path"`
	MarkdownPath string           `json:"md_path"`
	MetadataPath string           `json:"metadata_path"`
	Artifacts    []ExportArtifact `json:"artifacts"`
}

// BatchEntry is the per-document outcome of a batch call.
type BatchEntry struct {
	Filename  string             `json:"filename"`
	Success   bool               `json:"success"`
	Artifacts *DocumentArtifacts `json:"artifacts,omitempty"`
	Error     string             `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a user-supplied filename to a safe path component.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "document"
	}
	return base
}
