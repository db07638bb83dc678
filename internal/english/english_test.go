package english

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRatioLegalProse(t *testing.T) {
	t.Parallel()

	text := "Notice of proposed settlement of class action and hearing on the proposed settlement"
	require.Greater(t, Ratio(text), 0.5)
}

func TestRatioScannerGarbage(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("xj qzv wkfh plmtr bzzrq ", 40)
	require.Less(t, Ratio(text), DefaultThreshold)
}

func TestRatioEmptyText(t *testing.T) {
	t.Parallel()

	require.Zero(t, Ratio(""))
	require.Zero(t, Ratio("1234 5678 !!!"))
}

func TestIsEnglishThreshold(t *testing.T) {
	t.Parallel()

	text := "the settlement fund shall be distributed to class members"
	require.True(t, IsEnglish(text, 0.05))
	require.True(t, IsEnglish(text, 0))
	require.False(t, IsEnglish("zzk qqj vvw", 0.05))
}
