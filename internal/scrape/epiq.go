package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// epiq handles the multi-level nested list template. The documents page holds
// a tree of <ul>/<li> links; every leaf is a PDF. The whole case is fetched in
// one pass and the folder's existence short-circuits any re-fetch.
func (s *Scraper) epiq(ctx context.Context, site pipeline.Site, homeHTML string) error {
	if s.docs.CaseExists(site.Name) {
		return nil
	}

	docsURL := join(site.URL, "Home/Documents")
	body, err := s.fetcher.Get(ctx, docsURL)
	if err != nil {
		return fmt.Errorf("fetch documents page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse documents page: %w", err)
	}
	container := doc.Find("#Documents").First()
	if container.Length() == 0 {
		return fmt.Errorf("documents container not found at %s", docsURL)
	}

	if err := s.docs.EnsureCase(site.Name); err != nil {
		return err
	}
	if err := s.docs.MaybeWriteHTML(s.docs.HomePagePath(site.Name), homeHTML); err != nil {
		return err
	}
	if err := s.docs.MaybeWriteHTML(s.docs.DocsPagePath(site.Name), string(body)); err != nil {
		return err
	}

	entries, walkErr := s.walkDocTree(ctx, site, container, "")
	if walkErr != nil {
		if fe, ok := pipeline.AsFetchError(walkErr); ok {
			// Bad responses are logged and the partial folder is kept so the
			// rest of the catalog continues.
			if logErr := s.docs.AppendFailure(site.Name, fe.StatusCode, fe.URL); logErr != nil {
				return logErr
			}
			s.logger.Warn("document fetch failed",
				zap.String("site", site.Name),
				zap.Int("status", fe.StatusCode),
				zap.String("url", fe.URL),
			)
			return nil
		}
		// Anything else rolls back the whole case folder.
		if rmErr := s.docs.RemoveCase(site.Name); rmErr != nil {
			return rmErr
		}
		return fmt.Errorf("walk document tree: %w", walkErr)
	}

	return s.docs.WriteIndex(site.Name, entries)
}

// walkDocTree recursively downloads the nested document list, returning an
// owned index slice merged by the caller. Sibling order is shuffled at each
// level so repeated runs do not hammer the remote host in a fixed pattern.
func (s *Scraper) walkDocTree(
	ctx context.Context,
	site pipeline.Site,
	node *goquery.Selection,
	prefix string,
) ([]pipeline.IndexEntry, error) {
	list := node.Find("ul").First()
	if list.Length() == 0 {
		return nil, nil
	}

	type sibling struct {
		counter int
		item    *goquery.Selection
	}
	var level []sibling
	list.ChildrenFiltered("li").Each(func(i int, item *goquery.Selection) {
		level = append(level, sibling{counter: i + 1, item: item})
	})
	s.rng.Shuffle(len(level), func(i, j int) {
		level[i], level[j] = level[j], level[i]
	})

	var entries []pipeline.IndexEntry
	for _, sib := range level {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		anchor := sib.item.Find("a").First()
		href, _ := anchor.Attr("href")
		fname := prefix + strconv.Itoa(sib.counter) + "."

		body, err := s.fetcher.Get(ctx, join(site.URL, href))
		if err != nil {
			return entries, err
		}
		if err := s.docs.WritePDF(site.Name, fname, body); err != nil {
			return entries, err
		}

		if sib.item.Find("ul").Length() > 0 {
			children, err := s.walkDocTree(ctx, site, sib.item, fname)
			entries = append(entries, children...)
			if err != nil {
				return entries, err
			}
		}
		entries = append(entries, pipeline.IndexEntry{
			Filename: fname,
			FullName: anchor.Text(),
		})
	}
	return entries, nil
}
