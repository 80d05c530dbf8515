// Package export bundles processed document artifacts into portable zip
// packages suitable for importing into Open WebUI collections.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

const importInstructions = `# Open WebUI Import Instructions

1. Go to your Open WebUI installation
2. Navigate to Collections
3. Click "Create Collection" or select an existing collection
4. Click "Import" and select this zip file
5. Configure chunking settings as needed
6. Start using your documents in RAG conversations!
`

// manifestFile describes one bundled artifact inside the package manifest.
type manifestFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type manifest struct {
	ID      string         `json:"id"`
	Created string         `json:"created"`
	Files   []manifestFile `json:"files"`
}

// Result summarizes a completed export.
type Result struct {
	ExportID  string   `json:"export_id"`
	Path      string   `json:"export_path"`
	FileCount int      `json:"file_count"`
	Documents []string `json:"documents"`
	Formats   []string `json:"formats"`
}

// Exporter packages processed artifacts from an output directory.
type Exporter struct {
	outputDir string
	logger    *observability.Logger
}

// NewExporter creates an exporter rooted at the processed-output directory.
func NewExporter(outputDir string, logger *observability.Logger) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		logger:    logger.WithComponent("export"),
	}
}

// Package collects the named documents' artifacts in the given formats and
// writes them into a single zip alongside a manifest and import instructions.
// Formats are extensions with the leading dot, e.g. ".txt", ".md".
func (e *Exporter) Package(docNames, formats []string) (*Result, error) {
	var files []string
	for _, name := range docNames {
		docDir := filepath.Join(e.outputDir, domain.SanitizeFilename(name))
		info, err := os.Stat(docDir)
		if err != nil || !info.IsDir() {
			e.logger.Warn().Str("document", name).Msg("document directory not found, skipping")
			continue
		}
		for _, format := range formats {
			matches, err := filepath.Glob(filepath.Join(docDir, "*"+format))
			if err != nil {
				continue
			}
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return nil, domain.ValidationError("no matching files found for export", nil)
	}

	exportID := e.exportID(docNames)
	zipPath := filepath.Join(e.outputDir, exportID+".zip")

	if err := e.writeZip(zipPath, exportID, files); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("export_id", exportID).
		Int("files", len(files)).
		Msg("export package created")

	return &Result{
		ExportID:  exportID,
		Path:      zipPath,
		FileCount: len(files),
		Documents: docNames,
		Formats:   formats,
	}, nil
}

// exportID names the bundle after the document for single-document exports
// and falls back to a unique id otherwise.
func (e *Exporter) exportID(docNames []string) string {
	if len(docNames) == 1 {
		return "openwebui_" + domain.SanitizeFilename(docNames[0])
	}
	return "openwebui_export_" + uuid.New().String()
}

func (e *Exporter) writeZip(zipPath, exportID string, files []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot create export package %s", zipPath), err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	man := manifest{
		ID:      exportID,
		Created: time.Now().UTC().Format(time.RFC3339),
		Files:   make([]manifestFile, 0, len(files)),
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			e.logger.Warn().Str("path", path).Err(err).Msg("file vanished before packaging, skipping")
			continue
		}
		name := filepath.Base(path)
		if err := addFile(zw, path, name); err != nil {
			zw.Close()
			return domain.IOError(fmt.Sprintf("cannot add %s to package", name), err)
		}
		man.Files = append(man.Files, manifestFile{
			Name: name,
			Path: name,
			Size: info.Size(),
			Type: fileType(name),
		})
	}

	manBytes, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		zw.Close()
		return domain.IOError("cannot encode manifest", err)
	}
	if err := addBytes(zw, "manifest.json", manBytes); err != nil {
		zw.Close()
		return domain.IOError("cannot write manifest", err)
	}
	if err := addBytes(zw, "README.md", []byte(importInstructions)); err != nil {
		zw.Close()
		return domain.IOError("cannot write instructions", err)
	}

	if err := zw.Close(); err != nil {
		return domain.IOError("cannot finalize export package", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func addBytes(zw *zip.Writer, name string, data []byte) error {
	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = dst.Write(data)
	return err
}

func fileType(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "txt"
	}
	return ext
}
