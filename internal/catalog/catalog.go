// Package catalog loads the input list of settlement websites.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// Load reads the {Company, Website} CSV catalog and returns an owned slice of
// sites. It is invoked once at process start; nothing is loaded implicitly.
func Load(path string) ([]pipeline.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}

	companyIdx, websiteIdx := -1, -1
	for i, col := range records[0] {
		switch strings.TrimSpace(col) {
		case "Company":
			companyIdx = i
		case "Website":
			websiteIdx = i
		}
	}
	if companyIdx < 0 || websiteIdx < 0 {
		return nil, fmt.Errorf("catalog %s is missing Company/Website columns", path)
	}

	sites := make([]pipeline.Site, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) <= companyIdx || len(rec) <= websiteIdx {
			continue
		}
		name := strings.TrimSpace(rec[companyIdx])
		url := strings.TrimSpace(rec[websiteIdx])
		if name == "" || url == "" {
			continue
		}
		sites = append(sites, pipeline.Site{Name: name, URL: url})
	}
	return sites, nil
}

// ByName returns the site with the given name, if present.
func ByName(sites []pipeline.Site, name string) (pipeline.Site, bool) {
	for _, s := range sites {
		if s.Name == name {
			return s, true
		}
	}
	return pipeline.Site{}, false
}
