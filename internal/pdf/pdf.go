// Package pdf extracts page-level text and table regions from the downloaded
// legal filings using pdfcpu.
package pdf

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an opened PDF with its per-page text.
type Document struct {
	pages []string
}

// Open reads and parses a PDF, extracting text for every page. A corrupt or
// missing file returns an error; callers treat that as "no data" and skip the
// document.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		pages = append(pages, pageText(ctx, nr))
	}
	return &Document{pages: pages}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// PageText returns the text of a page (1-based).
func (d *Document) PageText(nr int) string {
	if nr < 1 || nr > len(d.pages) {
		return ""
	}
	return d.pages[nr-1]
}

// FirstPageText returns the text of page one.
func (d *Document) FirstPageText() string { return d.PageText(1) }

// Text returns the concatenated text of all pages.
func (d *Document) Text() string {
	return strings.Join(d.pages, "\n")
}

// BodyText returns a page's text with header and footer noise stripped:
// leading court-caption boilerplate stays, but bare page numbers and
// "Page N of M" footer lines are dropped.
func (d *Document) BodyText(nr int) string {
	return StripPageFurniture(d.PageText(nr))
}

var footerRe = regexp.MustCompile(`(?i)^(-?\s*\d+\s*-?|page\s+\d+(\s+of\s+\d+)?)$`)

// StripPageFurniture removes page-number and footer lines from page text.
func StripPageFurniture(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if footerRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ExtractPage writes page nr of inPath as a standalone one-page PDF and
// returns its path. Used to hand a single table page to the renderer.
func ExtractPage(inPath string, nr int, outDir string) (string, error) {
	if err := api.ExtractPagesFile(inPath, outDir, []string{fmt.Sprintf("%d", nr)}, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("extract page %d: %w", nr, err)
	}
	base := strings.TrimSuffix(strings.TrimSuffix(inPath[strings.LastIndex(inPath, "/")+1:], ".pdf"), ".PDF")
	return fmt.Sprintf("%s/%s_page_%d.pdf", outDir, base, nr), nil
}

// pageText extracts the text of one page from the content stream.
func pageText(ctx *model.Context, nr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, nr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return streamText(data)
}

var literalRe = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// streamText walks the content stream's text-showing operators. Tj/TJ append
// to the current line; Td/TD/T* and the quote operators start a new line.
func streamText(data []byte) string {
	var sb strings.Builder
	line := func(s string) {
		if s == "" {
			return
		}
		sb.WriteString(s)
	}
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for _, raw := range strings.Split(string(data), "\n") {
		op := strings.TrimSpace(raw)
		if op == "" {
			continue
		}
		switch {
		case strings.HasSuffix(op, "Tj") || strings.HasSuffix(op, "TJ"):
			for _, m := range literalRe.FindAllStringSubmatch(op, -1) {
				line(unescape(m[1]))
			}
		case strings.HasSuffix(op, "'") || strings.HasSuffix(op, "\""):
			if strings.Contains(op, "(") {
				newline()
				for _, m := range literalRe.FindAllStringSubmatch(op, -1) {
					line(unescape(m[1]))
				}
			}
		case op == "T*":
			newline()
		case strings.HasSuffix(op, "Td") || strings.HasSuffix(op, "TD"):
			newline()
		}
	}
	return tidy(sb.String())
}

// unescape resolves PDF string escapes, including octal codes.
func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			if s[i] >= '0' && s[i] <= '7' {
				val := int(s[i] - '0')
				for n := 0; n < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(s[i])
			}
		}
	}
	return sb.String()
}

// tidy collapses runs of blank lines and strips unprintable runes.
func tidy(text string) string {
	var sb strings.Builder
	blankRun := 0
	for _, rawLine := range strings.Split(text, "\n") {
		var lb strings.Builder
		for _, r := range rawLine {
			if r == '\t' || unicode.IsPrint(r) {
				lb.WriteRune(r)
			}
		}
		l := strings.TrimRight(lb.String(), " ")
		if strings.TrimSpace(l) == "" {
			blankRun++
			if blankRun > 1 {
				continue
			}
		} else {
			blankRun = 0
		}
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}
