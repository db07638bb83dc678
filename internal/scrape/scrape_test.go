package scrape

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

type fakeGetter struct {
	responses map[string][]byte
	errs      map[string]error
	calls     []string
}

func (f *fakeGetter) Get(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if body, ok := f.responses[url]; ok {
		return body, nil
	}
	return nil, &pipeline.FetchError{StatusCode: 404, URL: url}
}

const epiqDocsPage = `<html><body><div id="Documents"><ul>
<li><a href="/doc/top1">Stipulation of Settlement</a></li>
<li><a href="/doc/top2">Notices</a><ul>
<li><a href="/doc/nested1">Notice of Proposed Settlement</a></li>
</ul></li>
</ul></div></body></html>`

func newScrapeFixture(t *testing.T) (*fakeGetter, *docstore.Store, *Scraper) {
	t.Helper()
	docs, err := docstore.New(t.TempDir())
	require.NoError(t, err)
	getter := &fakeGetter{responses: map[string][]byte{}, errs: map[string]error{}}
	s := New(getter, docs, zap.NewNop(), WithRand(rand.New(rand.NewSource(1))))
	return getter, docs, s
}

func TestEpiqWalksNestedTree(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "Airbus", URL: "https://airbus.example.com/"}
	getter.responses["https://airbus.example.com/Home/Documents"] = []byte(epiqDocsPage)
	getter.responses["https://airbus.example.com/doc/top1"] = []byte("pdf-1")
	getter.responses["https://airbus.example.com/doc/top2"] = []byte("pdf-2")
	getter.responses["https://airbus.example.com/doc/nested1"] = []byte("pdf-2.1")

	require.NoError(t, s.epiq(context.Background(), site, "<html>epiq home</html>"))

	names, err := docs.ListPDFs("Airbus")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"1.", "2.", "2.1."}, names)

	entries, err := docs.ReadIndex("Airbus")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	byName := map[string]string{}
	for _, e := range entries {
		byName[e.Filename] = e.FullName
	}
	require.Equal(t, "Stipulation of Settlement", byName["1."])
	require.Equal(t, "Notice of Proposed Settlement", byName["2.1."])

	home, err := os.ReadFile(docs.HomePagePath("Airbus"))
	require.NoError(t, err)
	require.Equal(t, "<html>epiq home</html>", string(home))
}

func TestEpiqSkipsExistingCaseFolder(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "Airbus", URL: "https://airbus.example.com/"}
	require.NoError(t, docs.EnsureCase("Airbus"))

	require.NoError(t, s.epiq(context.Background(), site, "<html>epiq home</html>"))
	require.Empty(t, getter.calls)
}

func TestEpiqFetchErrorKeepsFolderAndLogs(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "Airbus", URL: "https://airbus.example.com/"}
	getter.responses["https://airbus.example.com/Home/Documents"] = []byte(epiqDocsPage)
	getter.responses["https://airbus.example.com/doc/top1"] = []byte("pdf-1")
	getter.errs["https://airbus.example.com/doc/top2"] =
		&pipeline.FetchError{StatusCode: 403, URL: "https://airbus.example.com/doc/top2"}
	getter.errs["https://airbus.example.com/doc/nested1"] =
		&pipeline.FetchError{StatusCode: 403, URL: "https://airbus.example.com/doc/nested1"}

	require.NoError(t, s.epiq(context.Background(), site, "<html>epiq home</html>"))

	require.True(t, docs.CaseExists("Airbus"))
	failed, err := os.ReadFile(docs.CaseDir("Airbus") + "/failed.txt")
	require.NoError(t, err)
	require.Contains(t, string(failed), "403,https://airbus.example.com/doc/")

	// the walk aborted, so no index was written
	entries, err := docs.ReadIndex("Airbus")
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestEpiqUnknownErrorRollsBackCase(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "Airbus", URL: "https://airbus.example.com/"}
	getter.responses["https://airbus.example.com/Home/Documents"] = []byte(epiqDocsPage)
	getter.errs["https://airbus.example.com/doc/top1"] = fmt.Errorf("connection reset")
	getter.errs["https://airbus.example.com/doc/top2"] = fmt.Errorf("connection reset")

	require.Error(t, s.epiq(context.Background(), site, "<html>epiq home</html>"))
	require.False(t, docs.CaseExists("Airbus"))
}

const gilardiDocsPage = `<html><body><table class="table_legalRights">
<tr><td><a href="/docs/notice.pdf">NOTICE OF PROPOSED SETTLEMENT</a></td></tr>
<tr><td><a href="/docs/claim.pdf">PROOF OF CLAIM</a></td></tr>
</table></body></html>`

func TestGilardiDownloadsFlatList(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "AAC", URL: "https://aac.example.com/"}
	getter.responses["https://aac.example.com/case-documents.aspx"] = []byte(gilardiDocsPage)
	getter.responses["https://aac.example.com/docs/notice.pdf"] = []byte("pdf-notice")
	getter.responses["https://aac.example.com/docs/claim.pdf"] = []byte("pdf-claim")

	require.NoError(t, s.gilardi(context.Background(), site, "<html>home</html>"))

	entries, err := docs.ReadIndex("AAC")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "1", entries[0].Filename)
	require.Equal(t, "NOTICE OF PROPOSED SETTLEMENT", entries[0].FullName)
	require.Equal(t, "https://aac.example.com/docs/notice.pdf", entries[0].Link)

	home, err := os.ReadFile(docs.HomePagePath("AAC"))
	require.NoError(t, err)
	require.Equal(t, "<html>home</html>", string(home))

	names, err := docs.ListPDFs("AAC")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, names)
}

func TestGilardiRecoversPerLink(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "AAC", URL: "https://aac.example.com/"}
	getter.responses["https://aac.example.com/case-documents.aspx"] = []byte(gilardiDocsPage)
	getter.errs["https://aac.example.com/docs/notice.pdf"] =
		&pipeline.FetchError{StatusCode: 500, URL: "https://aac.example.com/docs/notice.pdf"}
	getter.responses["https://aac.example.com/docs/claim.pdf"] = []byte("pdf-claim")

	require.NoError(t, s.gilardi(context.Background(), site, "home"))

	// the failed link is skipped, the rest still lands
	names, err := docs.ListPDFs("AAC")
	require.NoError(t, err)
	require.Equal(t, []string{"2"}, names)
}

func TestGilardiSkipsPDFsAlreadyOnDisk(t *testing.T) {
	t.Parallel()

	getter, _, s := newScrapeFixture(t)
	site := pipeline.Site{Name: "AAC", URL: "https://aac.example.com/"}
	getter.responses["https://aac.example.com/case-documents.aspx"] = []byte(gilardiDocsPage)
	getter.responses["https://aac.example.com/docs/notice.pdf"] = []byte("pdf-notice")
	getter.responses["https://aac.example.com/docs/claim.pdf"] = []byte("pdf-claim")

	require.NoError(t, s.gilardi(context.Background(), site, "home"))
	firstRunCalls := len(getter.calls)

	require.NoError(t, s.gilardi(context.Background(), site, "home"))
	// second run refreshes the docs page but fetches no PDFs
	require.Equal(t, firstRunCalls+1, len(getter.calls))
}

func TestRunDispatchesBySignature(t *testing.T) {
	t.Parallel()

	getter, docs, s := newScrapeFixture(t)
	sites := []pipeline.Site{
		{Name: "AAC", URL: "https://aac.example.com/"},
		{Name: "Down", URL: "https://down.example.com/"},
	}
	getter.responses["https://aac.example.com/"] = []byte(`<html>served by www.gilardi.com</html>`)
	getter.responses["https://aac.example.com/case-documents.aspx"] = []byte(gilardiDocsPage)
	getter.responses["https://aac.example.com/docs/notice.pdf"] = []byte("pdf")
	getter.responses["https://aac.example.com/docs/claim.pdf"] = []byte("pdf")
	getter.errs["https://down.example.com/"] =
		&pipeline.FetchError{StatusCode: 503, URL: "https://down.example.com/"}

	require.NoError(t, s.Run(context.Background(), sites))
	require.True(t, docs.CaseExists("AAC"))
	require.False(t, docs.CaseExists("Down"))
}
