package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

func TestGetReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "test-agent", Timeout: 5 * time.Second})
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("<html>ok</html>"), body)
}

func TestGetNon200IsTypedFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)

	fe, ok := pipeline.AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, fe.StatusCode)
	require.Equal(t, srv.URL, fe.URL)
}

func TestGetHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Config{})
	_, err := f.Get(ctx, "http://127.0.0.1:0/never")
	require.ErrorIs(t, err, context.Canceled)
}
