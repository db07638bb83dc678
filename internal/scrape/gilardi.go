package scrape

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// gilardi handles the flat list template: one documents page with a fixed
// class-scoped link container. Page HTML is persisted first, then each link
// is downloaded in order, recovering per link.
func (s *Scraper) gilardi(ctx context.Context, site pipeline.Site, homeHTML string) error {
	if err := s.gilardiPage(ctx, site, homeHTML); err != nil {
		return err
	}
	return s.gilardiDocs(ctx, site)
}

// gilardiPage saves home_page.html and docs_page.html for the case.
func (s *Scraper) gilardiPage(ctx context.Context, site pipeline.Site, homeHTML string) error {
	body, err := s.fetcher.Get(ctx, join(site.URL, "case-documents.aspx"))
	if err != nil {
		return fmt.Errorf("fetch docs page: %w", err)
	}
	if err := s.docs.EnsureCase(site.Name); err != nil {
		return err
	}
	if err := s.docs.MaybeWriteHTML(s.docs.HomePagePath(site.Name), homeHTML); err != nil {
		return err
	}
	return s.docs.MaybeWriteHTML(s.docs.DocsPagePath(site.Name), string(body))
}

// gilardiDocs parses the saved docs page, writes the index with source links,
// and downloads any PDF not already on disk.
func (s *Scraper) gilardiDocs(ctx context.Context, site pipeline.Site) error {
	raw, err := os.ReadFile(s.docs.DocsPagePath(site.Name))
	if err != nil {
		return fmt.Errorf("read docs page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse docs page: %w", err)
	}
	links := doc.Find(".table_legalRights").First().Find("a")
	if links.Length() == 0 {
		return fmt.Errorf("no document links found for %s", site.Name)
	}

	entries := make([]pipeline.IndexEntry, 0, links.Length())
	links.Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		entries = append(entries, pipeline.IndexEntry{
			Filename: strconv.Itoa(i + 1),
			FullName: a.Text(),
			Link:     join(site.URL, href),
		})
	})
	if err := s.docs.WriteIndex(site.Name, entries); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.docs.PDFPath(site.Name, entry.Filename)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		body, err := s.fetcher.Get(ctx, entry.Link)
		if err != nil {
			if fe, ok := pipeline.AsFetchError(err); ok {
				s.logger.Warn("document fetch failed",
					zap.String("site", site.Name),
					zap.Int("status", fe.StatusCode),
					zap.String("url", fe.URL),
				)
				continue
			}
			return fmt.Errorf("fetch %s: %w", entry.Link, err)
		}
		if err := s.docs.WritePDF(site.Name, entry.Filename, body); err != nil {
			return err
		}
	}
	return nil
}
