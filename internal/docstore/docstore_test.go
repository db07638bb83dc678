package docstore

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestCaseLifecycle(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.False(t, s.CaseExists("Airbus"))

	require.NoError(t, s.EnsureCase("Airbus"))
	require.True(t, s.CaseExists("Airbus"))

	require.NoError(t, s.WritePDF("Airbus", "1.", []byte("%PDF-1.4")))
	names, err := s.ListPDFs("Airbus")
	require.NoError(t, err)
	require.Equal(t, []string{"1."}, names)

	cases, err := s.ListCases()
	require.NoError(t, err)
	require.Equal(t, []string{"Airbus"}, cases)

	require.NoError(t, s.RemoveCase("Airbus"))
	require.False(t, s.CaseExists("Airbus"))
}

func TestIndexRoundTripWithLinks(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.EnsureCase("AAC"))

	entries := []pipeline.IndexEntry{
		{Filename: "1", FullName: "Notice of Proposed Settlement", Link: "https://x.example.com/1.pdf"},
		{Filename: "2", FullName: "Proof of Claim", Link: "https://x.example.com/2.pdf"},
	}
	require.NoError(t, s.WriteIndex("AAC", entries))

	got, err := s.ReadIndex("AAC")
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestIndexWithoutLinksOmitsColumn(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.EnsureCase("AAC"))
	require.NoError(t, s.WriteIndex("AAC", []pipeline.IndexEntry{{Filename: "1.", FullName: "Exhibit A"}}))

	data, err := os.ReadFile(s.CaseDir("AAC") + "/index.csv")
	require.NoError(t, err)
	require.Equal(t, "filename,full_name\n1.,Exhibit A\n", string(data))
}

func TestReadIndexMissingFile(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.EnsureCase("Empty"))
	entries, err := s.ReadIndex("Empty")
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestMaybeWriteHTMLDoesNotOverwrite(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.EnsureCase("AAC"))
	path := s.HomePagePath("AAC")

	require.NoError(t, s.MaybeWriteHTML(path, "first"))
	require.NoError(t, s.MaybeWriteHTML(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first", string(data))
}

func TestAppendFailure(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.EnsureCase("AAC"))
	require.NoError(t, s.AppendFailure("AAC", 403, "https://x.example.com/1.pdf"))
	require.NoError(t, s.AppendFailure("AAC", 500, "https://x.example.com/2.pdf"))

	data, err := os.ReadFile(s.CaseDir("AAC") + "/failed.txt")
	require.NoError(t, err)
	require.Equal(t, "403,https://x.example.com/1.pdf\n500,https://x.example.com/2.pdf\n", string(data))
}
