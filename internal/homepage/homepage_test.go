package homepage

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

type fakeExtractor struct {
	reply string
	calls int
	texts []string
}

func (f *fakeExtractor) ExtractStructured(_ context.Context, _, user string, _ map[string]any, out any) error {
	f.calls++
	f.texts = append(f.texts, user)
	return json.Unmarshal([]byte(f.reply), out)
}

type memStore struct {
	pipeline.Store
	cases map[string]pipeline.Case
}

func newMemStore() *memStore { return &memStore{cases: map[string]pipeline.Case{}} }

func (m *memStore) InsertCase(_ context.Context, c pipeline.Case) error {
	m.cases[c.Case] = c
	return nil
}

func (m *memStore) CaseExists(_ context.Context, name string) (bool, error) {
	_, ok := m.cases[name]
	return ok, nil
}

func seedHomepage(t *testing.T, root, caseName, html string) *docstore.Store {
	t.Helper()
	docs, err := docstore.New(root)
	require.NoError(t, err)
	require.NoError(t, docs.EnsureCase(caseName))
	require.NoError(t, os.WriteFile(docs.HomePagePath(caseName), []byte(html), 0o640))
	return docs
}

func TestRunExtractsCaseRow(t *testing.T) {
	t.Parallel()

	docs := seedHomepage(t, t.TempDir(), "enzymotec",
		`<html><body><div class="content_body">Settlement of $30,000,000 reached.</div><div class="nav">menu</div></body></html>`)
	store := newMemStore()
	extractor := &fakeExtractor{
		reply: `{"settlement_date":"2024-03-01","settlement_amount":30000000,"class_period":null,"allegations":"securities fraud"}`,
	}
	sites := []pipeline.Site{{Name: "enzymotec", URL: "https://example.com/enzymotec"}}

	stage := New(docs, store, extractor, sites, zap.NewNop())
	require.NoError(t, stage.Run(context.Background()))

	require.Equal(t, 1, extractor.calls)
	require.Equal(t, "Settlement of $30,000,000 reached.", extractor.texts[0])

	row := store.cases["enzymotec"]
	require.Equal(t, "https://example.com/enzymotec", row.Website)
	require.NotNil(t, row.SettlementAmount)
	require.Equal(t, int64(30000000), *row.SettlementAmount)
	require.Nil(t, row.ClassPeriod)
}

func TestRunSkipsExistingCasesWithoutModelCalls(t *testing.T) {
	t.Parallel()

	docs := seedHomepage(t, t.TempDir(), "enzymotec", `<html><body>text</body></html>`)
	store := newMemStore()
	store.cases["enzymotec"] = pipeline.Case{Case: "enzymotec"}
	extractor := &fakeExtractor{reply: `{}`}

	stage := New(docs, store, extractor, nil, zap.NewNop())
	require.NoError(t, stage.Run(context.Background()))
	require.Zero(t, extractor.calls)
}

func TestRunSkipsCaseWithoutHomepage(t *testing.T) {
	t.Parallel()

	docs, err := docstore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, docs.EnsureCase("nofile"))
	store := newMemStore()
	extractor := &fakeExtractor{reply: `{}`}

	stage := New(docs, store, extractor, nil, zap.NewNop())
	require.NoError(t, stage.Run(context.Background()))
	require.Zero(t, extractor.calls)
	require.Empty(t, store.cases)
}

func TestHomepageTextFallsBackToBody(t *testing.T) {
	t.Parallel()

	docs := seedHomepage(t, t.TempDir(), "plain",
		`<html><body><p>Plain body text only.</p></body></html>`)
	stage := New(docs, newMemStore(), &fakeExtractor{reply: `{}`}, nil, zap.NewNop())

	text, err := stage.homepageText("plain")
	require.NoError(t, err)
	require.Equal(t, "Plain body text only.", text)
}
