package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIngestNewsgroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "comp.graphics", "201"), "Rendering polygons\nwith a new graphics card\n")
	writeFile(t, filepath.Join(dir, "comp.graphics", "202"), "   \n")
	writeFile(t, filepath.Join(dir, "alt.atheism", "101"), "Subject: faith\n\nArguments about faith")
	writeFile(t, filepath.Join(dir, "alt.atheism", "102"), "More arguments")
	writeFile(t, filepath.Join(dir, "alt.atheism", "README"), "not a message")
	writeFile(t, filepath.Join(dir, "index.txt"), "ignored")

	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	index := NewMemoryIndex()
	stats, err := IngestNewsgroups(context.Background(), dir, index, analyzer, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, []LabelInfo{
		{Label: 0, Name: "alt.atheism", Documents: 2},
		{Label: 1, Name: "comp.graphics", Documents: 1},
	}, stats.Labels)

	doc, err := index.Document(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 201, doc.ExternalID)
	assert.Equal(t, 1, doc.Label)
	assert.Equal(t, 1, doc.Terms["polygon"])

	names, err := NewsgroupLabels(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alt.atheism", "comp.graphics"}, names)
}

func TestIngestNewsgroupsMissingDir(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	_, err = IngestNewsgroups(context.Background(), filepath.Join(t.TempDir(), "none"), NewMemoryIndex(), analyzer, testLogger())
	assert.True(t, errors.Is(err, ErrDatasetNotFound))
}

func TestIngestPatents(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("semiconductor wafer etching process ", 4)

	writeFile(t, filepath.Join(dir, PatentsMappingFile), "1 501\n2 502\n# comment\n3 503\nbroken\n")
	writeFile(t, filepath.Join(dir, PatentsLabelFile), "2\n1\n1\n")

	csv := strings.Join([]string{
		`1,501,"` + long + `"`,
		`2,502,"` + long + `engine"`,
		`3,999,"` + long + `"`,
		`4,503,"short abstract"`,
		`5,503,""`,
		`bad line`,
		`6,x,"` + long + `"`,
		`7,503,` + long,
		``,
	}, "\n")
	encoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(csv)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, PatentsFile), encoded)

	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	index := NewMemoryIndex()
	stats, err := IngestPatents(context.Background(), dir, index, analyzer, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Documents)
	// unmapped, short, empty, bad line, invalid id, unquoted
	assert.Equal(t, 6, stats.Skipped)
	assert.Equal(t, []LabelInfo{
		{Label: 0, Name: "1", Documents: 1},
		{Label: 1, Name: "2", Documents: 1},
	}, stats.Labels)

	first, err := index.Document(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 501, first.ExternalID)
	assert.Equal(t, 1, first.Label)
	assert.Equal(t, 4, first.Terms["wafer"])

	second, err := index.Document(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Label)
	assert.Equal(t, 1, second.Terms["engin"])
}

func TestIngestPatentsMissingFiles(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultAnalyzerConfig())
	require.NoError(t, err)
	defer analyzer.Close()

	_, err = IngestPatents(context.Background(), filepath.Join(t.TempDir(), "none"), NewMemoryIndex(), analyzer, testLogger())
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	_, err = IngestPatents(context.Background(), t.TempDir(), NewMemoryIndex(), analyzer, testLogger())
	assert.Error(t, err)
}
