package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/filmexport/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []models.Record{
	{Title: "Alpha", Year: "2001", Directors: []string{"Dir A"}, Rating: "7"},
	{Title: "Beta", Year: "1999", Directors: []string{"Dir B"}, Rating: ""},
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, SaveCSV(sample, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Title,Year,Directors,Rating10\n\"Alpha\",2001,\"Dir A\",7\n\"Beta\",1999,\"Dir B\",\n", string(content))
}

func TestSaveCSV_EmptyWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, SaveCSV(nil, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.CSVHeader+"\n", string(content))
}

func TestSaveCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0644))

	require.NoError(t, SaveCSV(sample[:1], path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "stale")
}

func TestFileSink_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	sink, err := NewFileSink(path, models.FormatJSON)
	require.NoError(t, err)

	require.NoError(t, sink.Flush(sample))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []models.Record
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, sample, got)
}

func TestNewFileSink_Validation(t *testing.T) {
	_, err := NewFileSink("out.xml", "xml")
	assert.Error(t, err)

	_, err = NewFileSink("", models.FormatCSV)
	assert.Error(t, err)

	sink, err := NewFileSink("out.csv", "")
	require.NoError(t, err)
	assert.Equal(t, models.FormatCSV, sink.Format)
}

func TestCleanHTML(t *testing.T) {
	raw := `<html><head><script>var x = 1;</script><style>.a{}</style></head>
<body><div class="mb-4" data-track="x" onclick="y()"><a href="/film1.html" target="_blank">Alpha</a></div></body></html>`

	cleaned, err := CleanHTML(raw)
	require.NoError(t, err)

	assert.NotContains(t, cleaned, "<script")
	assert.NotContains(t, cleaned, "<style")
	assert.NotContains(t, cleaned, "onclick")
	assert.NotContains(t, cleaned, "data-track")
	assert.Contains(t, cleaned, `class="mb-4"`)
	assert.Contains(t, cleaned, `href="/film1.html"`)
}

func TestSaveSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	raw := `<html><body><h1>Blocked</h1><p>Checking your browser</p><a href="/help">help</a></body></html>`

	paths, err := SaveSnapshot(dir, 4, "https://www.filmaffinity.com/en/userratings.php", raw)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	htmlContent, err := os.ReadFile(filepath.Join(dir, "page-4.html"))
	require.NoError(t, err)
	assert.Contains(t, string(htmlContent), "Checking your browser")

	mdContent, err := os.ReadFile(filepath.Join(dir, "page-4.md"))
	require.NoError(t, err)
	assert.Contains(t, string(mdContent), "# Blocked")
	assert.Contains(t, string(mdContent), "(https://www.filmaffinity.com/help)")
}

func TestToMarkdown_ResolvesFilmLinks(t *testing.T) {
	cleaned := `<div class="mc-title"><a href="/en/film123456.html">Alpha</a> <a href="#top">top</a></div>`

	out, err := ToMarkdown(cleaned, "https://www.filmaffinity.com/en/userratings.php?user_id=1")
	require.NoError(t, err)
	assert.Contains(t, out, "[Alpha](https://www.filmaffinity.com/en/film123456.html)")
	assert.Contains(t, out, "[top](#top)")
}
