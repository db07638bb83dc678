package summary

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

type fakeCompleter struct {
	calls int
	users []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.users = append(f.users, user)
	return fmt.Sprintf("summary %d", f.calls), nil
}

type countingEmbedder struct{ calls int }

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	c.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(i), float64(len(texts[i])), 1}
	}
	return out, nil
}

type memStore struct {
	pipeline.Store
	docs []pipeline.Document
	rows []pipeline.Summary
	have map[string]bool
}

func newMemStore(docs ...pipeline.Document) *memStore {
	return &memStore{docs: docs, have: map[string]bool{}}
}

func (m *memStore) ListDocuments(context.Context) ([]pipeline.Document, error) {
	return m.docs, nil
}

func (m *memStore) SummaryExists(_ context.Context, c, f string) (bool, error) {
	return m.have[c+"/"+f], nil
}

func (m *memStore) InsertSummaries(_ context.Context, rows []pipeline.Summary) error {
	m.rows = append(m.rows, rows...)
	for _, r := range rows {
		m.have[r.Case+"/"+r.Filename] = true
	}
	return nil
}

func newDocs(t *testing.T) *docstore.Store {
	t.Helper()
	docs, err := docstore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, docs.EnsureCase("enzymotec"))
	return docs
}

func engFiller(n int) string {
	return strings.TrimSpace(strings.Repeat("The settlement fund shall be distributed to the class members. ", n))
}

func TestRunSummarizesShortDocumentDirectly(t *testing.T) {
	t.Parallel()

	store := newMemStore(pipeline.Document{Case: "enzymotec", Filename: "enzymotec2", Title: "STIPULATION"})
	completer := &fakeCompleter{}
	embedder := &countingEmbedder{}

	stage := New(newDocs(t), store, completer, embedder, Config{}, zap.NewNop()).
		WithPagesReader(func(string) ([]string, error) {
			return []string{engFiller(5)}, nil
		})

	require.NoError(t, stage.Run(context.Background()))
	require.Equal(t, 1, completer.calls)
	require.Zero(t, embedder.calls)
	require.Len(t, store.rows, 1)
	require.Equal(t, MainSubDocument, store.rows[0].SubDocument)
	require.Contains(t, completer.users[0], "enzymotec")
}

func TestRunOneRowPerSubDocument(t *testing.T) {
	t.Parallel()

	store := newMemStore(pipeline.Document{Case: "enzymotec", Filename: "enzymotec2", Title: "STIPULATION"})
	completer := &fakeCompleter{}

	stage := New(newDocs(t), store, completer, &countingEmbedder{}, Config{}, zap.NewNop()).
		WithPagesReader(func(string) ([]string, error) {
			return []string{engFiller(3), "EXHIBIT A", engFiller(3)}, nil
		})

	require.NoError(t, stage.Run(context.Background()))
	require.Len(t, store.rows, 2)
	require.Equal(t, MainSubDocument, store.rows[0].SubDocument)
	require.Equal(t, "EXHIBIT A", store.rows[1].SubDocument)
}

func TestRunLongDocumentUsesClusterReduction(t *testing.T) {
	t.Parallel()

	store := newMemStore(pipeline.Document{Case: "enzymotec", Filename: "enzymotec3", Title: "DECLARATION"})
	completer := &fakeCompleter{}
	embedder := &countingEmbedder{}

	long := engFiller(250) // well past the direct limit
	require.Greater(t, len(long), 10000)

	stage := New(newDocs(t), store, completer, embedder, Config{}, zap.NewNop()).
		WithPagesReader(func(string) ([]string, error) { return []string{long}, nil })

	require.NoError(t, stage.Run(context.Background()))
	require.Equal(t, 1, completer.calls)
	require.Equal(t, 1, embedder.calls)

	// at most 8 representative chunks of ~1000 chars each, regardless of length
	require.Less(t, len(completer.users[0]), len(long))
	require.LessOrEqual(t, strings.Count(completer.users[0], chunkSeparator), 7)
}

func TestRunNonEnglishGateSkipsModel(t *testing.T) {
	t.Parallel()

	store := newMemStore(pipeline.Document{Case: "enzymotec", Filename: "enzymotec5", Title: "SCAN"})
	completer := &fakeCompleter{}
	embedder := &countingEmbedder{}

	stage := New(newDocs(t), store, completer, embedder, Config{}, zap.NewNop()).
		WithPagesReader(func(string) ([]string, error) {
			return []string{strings.Repeat("zqx wvj kkfh plmtr ", 50)}, nil
		})

	require.NoError(t, stage.Run(context.Background()))
	require.Zero(t, completer.calls)
	require.Zero(t, embedder.calls)
	require.Len(t, store.rows, 1)
	require.Equal(t, NotEnglishSentinel, store.rows[0].Summary)
}

func TestRunSkipsSummarizedDocumentsWithoutModelCalls(t *testing.T) {
	t.Parallel()

	store := newMemStore(pipeline.Document{Case: "enzymotec", Filename: "enzymotec2", Title: "STIPULATION"})
	store.have["enzymotec/enzymotec2"] = true
	completer := &fakeCompleter{}

	stage := New(newDocs(t), store, completer, &countingEmbedder{}, Config{}, zap.NewNop()).
		WithPagesReader(func(string) ([]string, error) { return []string{engFiller(2)}, nil })

	require.NoError(t, stage.Run(context.Background()))
	require.Zero(t, completer.calls)
	require.Len(t, store.rows, 0)
}
