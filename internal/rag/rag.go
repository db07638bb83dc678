// Package rag builds ephemeral per-document retrieval indexes: overlapping
// token windows are embedded once, then the top-k windows for a query narrow
// a long filing down to the passages likely to contain one specific fact.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/settlementwatch/settlement-pipeline/internal/embed"
)

// SplitTokenWindows splits text into overlapping windows of windowTokens
// whitespace tokens, advancing by windowTokens-overlapTokens each step.
func SplitTokenWindows(text string, windowTokens, overlapTokens int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	step := windowTokens - overlapTokens
	if step <= 0 {
		step = windowTokens
	}
	var windows []string
	for start := 0; start < len(tokens); start += step {
		end := min(start+windowTokens, len(tokens))
		windows = append(windows, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return windows
}

// Index is an in-memory nearest-neighbour index over one document's windows.
type Index struct {
	embedder embed.Embedder
	windows  []string
	vectors  [][]float64
}

// BuildIndex embeds all windows in one batch and returns the index.
func BuildIndex(ctx context.Context, embedder embed.Embedder, windows []string) (*Index, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows to index")
	}
	vectors, err := embedder.EmbedBatch(ctx, windows)
	if err != nil {
		return nil, fmt.Errorf("embed windows: %w", err)
	}
	return &Index{embedder: embedder, windows: windows, vectors: vectors}, nil
}

// Retrieve returns the k windows most similar to query, best first.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	qv, err := ix.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		i     int
		score float64
	}
	ranked := make([]scored, len(ix.windows))
	for i, v := range ix.vectors {
		ranked[i] = scored{i: i, score: embed.CosineSimilarity(qv[0], v)}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, ix.windows[r.i])
	}
	return out, nil
}

// JoinChunks concatenates retrieved windows with chunk-boundary markers so
// the extraction prompt can tell disjoint passages apart.
func JoinChunks(chunks []string) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "\n\nCHUNK %d\n%s", i+1, chunk)
	}
	return sb.String()
}
