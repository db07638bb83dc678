package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	require.Equal(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{1}))
	require.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
}

func TestKMeansSeparatesObviousClusters(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{
		{0.1, 0}, {0.2, 0}, {0.15, 0},
		{10, 10}, {10.2, 9.9}, {9.8, 10.1},
	}
	assign := KMeans(vectors, 2, 50)
	require.Len(t, assign, 6)
	require.Equal(t, assign[0], assign[1])
	require.Equal(t, assign[0], assign[2])
	require.Equal(t, assign[3], assign[4])
	require.Equal(t, assign[3], assign[5])
	require.NotEqual(t, assign[0], assign[3])
}

func TestClusterRepresentativesBound(t *testing.T) {
	t.Parallel()

	// many vectors, fixed k: at most k representatives come back
	var vectors [][]float64
	for i := 0; i < 100; i++ {
		vectors = append(vectors, []float64{float64(i), float64(i % 7)})
	}
	reps := ClusterRepresentatives(vectors, 8)
	require.NotEmpty(t, reps)
	require.LessOrEqual(t, len(reps), 8)
	seen := map[int]bool{}
	for _, r := range reps {
		require.GreaterOrEqual(t, r, 0)
		require.Less(t, r, len(vectors))
		require.False(t, seen[r])
		seen[r] = true
	}
}

func TestClusterRepresentativesFewerVectorsThanClusters(t *testing.T) {
	t.Parallel()

	vectors := [][]float64{{1, 0}, {0, 1}}
	reps := ClusterRepresentatives(vectors, 8)
	require.Len(t, reps, 2)
}

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embedResponse{}
		// reply out of order on purpose
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{float64(i)}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL, BatchSize: 2})
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	require.Equal(t, []float64{0}, vecs[0])
	require.Equal(t, []float64{1}, vecs[1])
	require.Equal(t, []float64{0}, vecs[2]) // second batch restarts indexing
}
