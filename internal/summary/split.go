package summary

import (
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"

	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
)

// SubDocument is one section of a filing: the main body, or one exhibit.
type SubDocument struct {
	Name string
	Text string
}

// MainSubDocument names the text before the first exhibit heading.
const MainSubDocument = "main"

var exhibitRe = regexp.MustCompile(`^EXHIBIT [^\s]{1,3}$`)

// SplitSubDocuments scans page bodies for exhibit headings on their own line
// and cuts the document at each one. Page furniture is stripped first so a
// heading in a running header cannot start a section. Sections that end up
// empty are dropped.
func SplitSubDocuments(pages []string) []SubDocument {
	current := MainSubDocument
	var (
		subs []SubDocument
		buf  strings.Builder
	)
	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if text != "" {
			subs = append(subs, SubDocument{Name: current, Text: text})
		}
	}

	for _, page := range pages {
		for _, line := range strings.Split(pdf.StripPageFurniture(page), "\n") {
			trimmed := strings.TrimSpace(line)
			if exhibitRe.MatchString(trimmed) {
				flush()
				current = trimmed
				continue
			}
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()
	return subs
}

// ChunkText splits text into pieces of at most maxChars, preferring sentence
// boundaries, then whitespace, then a fixed-width cut for unbroken runs.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 1000
	}

	var (
		chunks []string
		buf    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
	}

	iter := sentences.FromString(text)
	for iter.Next() {
		sentence := iter.Value()
		if buf.Len()+len(sentence) > maxChars && buf.Len() > 0 {
			flush()
		}
		if len(sentence) > maxChars {
			flush()
			chunks = append(chunks, splitOversized(sentence, maxChars)...)
			continue
		}
		buf.WriteString(sentence)
	}
	flush()
	return chunks
}

// splitOversized breaks a single overlong sentence on whitespace, falling
// back to fixed-width slices when a run has no whitespace at all.
func splitOversized(s string, maxChars int) []string {
	var (
		out []string
		buf strings.Builder
	)
	flush := func() {
		if t := strings.TrimSpace(buf.String()); t != "" {
			out = append(out, t)
		}
		buf.Reset()
	}

	for _, word := range strings.Fields(s) {
		if buf.Len()+len(word)+1 > maxChars && buf.Len() > 0 {
			flush()
		}
		for len(word) > maxChars {
			flush()
			out = append(out, word[:maxChars])
			word = word[maxChars:]
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(word)
	}
	flush()

	if len(out) == 0 {
		// no whitespace anywhere, cut by width
		for len(s) > maxChars {
			out = append(out, s[:maxChars])
			s = s[maxChars:]
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
