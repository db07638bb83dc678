package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParsesSites(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, "Company,Website\nAirbus,https://airbussettlement.example.com\nAAC,https://aacsettlement.example.com\n")
	sites, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	require.Equal(t, "Airbus", sites[0].Name)
	require.Equal(t, "https://airbussettlement.example.com", sites[0].URL)

	site, ok := ByName(sites, "AAC")
	require.True(t, ok)
	require.Equal(t, "https://aacsettlement.example.com", site.URL)

	_, ok = ByName(sites, "Unknown")
	require.False(t, ok)
}

func TestLoadSkipsBlankRows(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, "Company,Website\n,\nAirbus,https://airbus.example.com\n")
	sites, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sites, 1)
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	path := writeCatalog(t, "Name,URL\na,b\n")
	_, err := Load(path)
	require.Error(t, err)
}
