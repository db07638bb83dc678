package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// dictEmbedder embeds a text as counts of marker words, making similarity
// predictable in tests.
type dictEmbedder struct {
	markers []string
	calls   int
}

func (d *dictEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	d.calls++
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, len(d.markers))
		for j, marker := range d.markers {
			vec[j] = float64(strings.Count(strings.ToLower(text), marker))
		}
		out[i] = vec
	}
	return out, nil
}

func TestSplitTokenWindows(t *testing.T) {
	t.Parallel()

	tokens := make([]string, 250)
	for i := range tokens {
		tokens[i] = "w"
	}
	windows := SplitTokenWindows(strings.Join(tokens, " "), 100, 50)
	// starts at 0, 50, 100, 150, 200
	require.Len(t, windows, 5)
	require.Len(t, strings.Fields(windows[0]), 100)
	require.Len(t, strings.Fields(windows[4]), 50)
}

func TestSplitTokenWindowsShortText(t *testing.T) {
	t.Parallel()

	windows := SplitTokenWindows("only three tokens", 100, 50)
	require.Equal(t, []string{"only three tokens"}, windows)
	require.Nil(t, SplitTokenWindows("   ", 100, 50))
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	t.Parallel()

	emb := &dictEmbedder{markers: []string{"fees", "share", "firm"}}
	windows := []string{
		"the firm of smith and jones represents the class",
		"average distribution per damaged share is $0.42",
		"attorney fees of 25% of the fund fees requested",
		"unrelated boilerplate about mailing notices",
	}
	ix, err := BuildIndex(context.Background(), emb, windows)
	require.NoError(t, err)

	got, err := ix.Retrieve(context.Background(), "requested attorney fees", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, windows[2], got[0])
}

func TestJoinChunksMarkers(t *testing.T) {
	t.Parallel()

	joined := JoinChunks([]string{"alpha", "beta"})
	require.Equal(t, "\n\nCHUNK 1\nalpha\n\nCHUNK 2\nbeta", joined)
}
