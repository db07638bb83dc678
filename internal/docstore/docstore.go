// Package docstore manages the on-disk per-case document layout:
//
//	<root>/legal_docs/<case>/index.csv
//	<root>/legal_docs/<case>/<filename>.pdf
//	<root>/legal_docs/<case>/home_page.html
//	<root>/legal_docs/<case>/docs_page.html
//	<root>/legal_docs/<case>/failed.txt
package docstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// Store is rooted at a data directory and owns the legal_docs tree.
type Store struct {
	root string
}

// New creates a Store rooted at dataRoot, creating legal_docs/ if needed.
func New(dataRoot string) (*Store, error) {
	if strings.TrimSpace(dataRoot) == "" {
		return nil, fmt.Errorf("data root is required")
	}
	docs := filepath.Join(dataRoot, "legal_docs")
	if err := os.MkdirAll(docs, 0o750); err != nil {
		return nil, fmt.Errorf("create legal_docs dir: %w", err)
	}
	return &Store{root: dataRoot}, nil
}

// CaseDir returns the folder for a case.
func (s *Store) CaseDir(caseName string) string {
	return filepath.Join(s.root, "legal_docs", caseName)
}

// CaseExists reports whether the case folder is already on disk. Folder
// existence short-circuits re-fetching an entire case.
func (s *Store) CaseExists(caseName string) bool {
	info, err := os.Stat(s.CaseDir(caseName))
	return err == nil && info.IsDir()
}

// EnsureCase creates the case folder.
func (s *Store) EnsureCase(caseName string) error {
	if err := os.MkdirAll(s.CaseDir(caseName), 0o750); err != nil {
		return fmt.Errorf("create case dir: %w", err)
	}
	return nil
}

// RemoveCase deletes the whole case folder (rollback on scrape failure).
func (s *Store) RemoveCase(caseName string) error {
	if err := os.RemoveAll(s.CaseDir(caseName)); err != nil {
		return fmt.Errorf("remove case dir: %w", err)
	}
	return nil
}

// ListCases returns the case names present under legal_docs, sorted.
func (s *Store) ListCases() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "legal_docs"))
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	var cases []string
	for _, e := range entries {
		if e.IsDir() {
			cases = append(cases, e.Name())
		}
	}
	sort.Strings(cases)
	return cases, nil
}

// PDFPath returns the deterministic path of a document's PDF.
func (s *Store) PDFPath(caseName, filename string) string {
	return filepath.Join(s.CaseDir(caseName), filename+".pdf")
}

// ListPDFs returns the filenames (without extension) of the PDFs in a case
// folder, sorted.
func (s *Store) ListPDFs(caseName string) ([]string, error) {
	entries, err := os.ReadDir(s.CaseDir(caseName))
	if err != nil {
		return nil, fmt.Errorf("list pdfs for %s: %w", caseName, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".pdf"))
	}
	sort.Strings(names)
	return names, nil
}

// WritePDF stores a downloaded document body.
func (s *Store) WritePDF(caseName, filename string, body []byte) error {
	if err := os.WriteFile(s.PDFPath(caseName, filename), body, 0o640); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// HomePagePath returns the saved homepage HTML path for a case.
func (s *Store) HomePagePath(caseName string) string {
	return filepath.Join(s.CaseDir(caseName), "home_page.html")
}

// DocsPagePath returns the saved documents-page HTML path for a case.
func (s *Store) DocsPagePath(caseName string) string {
	return filepath.Join(s.CaseDir(caseName), "docs_page.html")
}

// MaybeWriteHTML writes text to path only when the file does not exist yet.
func (s *Store) MaybeWriteHTML(path, text string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0o640); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// AppendFailure records a fetch failure in the per-case failure log.
func (s *Store) AppendFailure(caseName string, statusCode int, url string) error {
	path := filepath.Join(s.CaseDir(caseName), "failed.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d,%s\n", statusCode, url); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	return nil
}

// WriteIndex writes the case index.csv. The link column is included only when
// at least one entry carries a source link.
func (s *Store) WriteIndex(caseName string, entries []pipeline.IndexEntry) error {
	f, err := os.Create(filepath.Join(s.CaseDir(caseName), "index.csv"))
	if err != nil {
		return fmt.Errorf("create index.csv: %w", err)
	}
	defer f.Close()

	withLinks := false
	for _, e := range entries {
		if e.Link != "" {
			withLinks = true
			break
		}
	}

	w := csv.NewWriter(f)
	header := []string{"filename", "full_name"}
	if withLinks {
		header = append(header, "link")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	for _, e := range entries {
		row := []string{e.Filename, e.FullName}
		if withLinks {
			row = append(row, e.Link)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write index row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush index.csv: %w", err)
	}
	return nil
}

// ReadIndex loads a case index.csv. A missing file is not an error; it
// returns an empty slice.
func (s *Store) ReadIndex(caseName string) ([]pipeline.IndexEntry, error) {
	f, err := os.Open(filepath.Join(s.CaseDir(caseName), "index.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open index.csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read index.csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	entries := make([]pipeline.IndexEntry, 0, len(records)-1)
	for _, rec := range records[1:] {
		var e pipeline.IndexEntry
		if i, ok := cols["filename"]; ok && i < len(rec) {
			e.Filename = strings.TrimSpace(rec[i])
		}
		if i, ok := cols["full_name"]; ok && i < len(rec) {
			e.FullName = strings.TrimSpace(rec[i])
		}
		if i, ok := cols["link"]; ok && i < len(rec) {
			e.Link = strings.TrimSpace(rec[i])
		}
		if e.Filename == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
