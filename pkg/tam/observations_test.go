package tam

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseObservations(t *testing.T) {
	in := "# E\tTAM\n10\t12\n\n20\t18   # inline\n 30 \t 25\n"
	obs, err := ParseObservations(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Observation{{10, 12}, {20, 18}, {30, 25}}, obs)
}

func TestParseObservations_ExtraColumns(t *testing.T) {
	obs, err := ParseObservations(strings.NewReader("1\t2\t3\n4\t5\t6\n"))
	require.NoError(t, err)
	assert.Equal(t, []Observation{{1, 2}, {4, 5}}, obs)
}

func TestParseObservations_Errors(t *testing.T) {
	cases := map[string]string{
		"header_row":      "Energy\tTAM_max\n10\t12\n",
		"non_numeric":     "10\t12\n20\tabc\n",
		"single_column":   "10\n20\n",
		"column_mismatch": "10\t12\n20\t18\t4\n",
		"empty":           "",
		"only_comments":   "# nothing\n\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseObservations(strings.NewReader(in))
			require.ErrorIs(t, err, ErrFile)
			t.Logf("%v", err)
		})
	}
}

func TestReadObservations(t *testing.T) {
	path := writeFile(t, "TAM_max.dat", "70\t35\n80\t40\n")
	obs, err := ReadObservations(path)
	require.NoError(t, err)
	assert.Len(t, obs, 2)

	_, err = ReadObservations(filepath.Join(t.TempDir(), "missing.dat"))
	require.ErrorIs(t, err, ErrFile)
}

func TestFilter(t *testing.T) {
	obs := []Observation{{50, 1}, {60, 2}, {61, 3}, {10, 4}, {100, 5}}
	got := Filter(obs, 60)
	assert.Equal(t, []Observation{{61, 3}, {100, 5}}, got, "strictly greater, order kept")

	assert.Empty(t, Filter(obs, 1000))
	assert.Len(t, Filter(obs, -1), len(obs))
}
