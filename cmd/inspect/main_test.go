package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfobj/builder"
)

func writeSample(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	d, err := builder.New(&buf, builder.Config{Title: "Sample", Deterministic: true})
	require.NoError(t, err)
	p, err := d.AddPage(300, 300)
	require.NoError(t, err)
	p.Append("0 0 m 100 100 l S")
	require.NoError(t, d.Close())
	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRunJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(options{pdfPath: writeSample(t), objects: true, pages: true, asJSON: true}, &out))

	var r report
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Equal(t, "1.7", r.Version)
	assert.Equal(t, 6, r.Objects)
	assert.Equal(t, 6, r.Root)
	require.Len(t, r.List, 6)
	assert.Equal(t, "/Catalog", r.List[5].Type)
	require.Len(t, r.Pages, 1)
	assert.Equal(t, "[ 0 0 300 300 ]", r.Pages[0].MediaBox)
	assert.Equal(t, []int{2}, r.Pages[0].Contents)
}

func TestRunDumpObject(t *testing.T) {
	path := writeSample(t)
	var out bytes.Buffer
	require.NoError(t, run(options{pdfPath: path, object: 2}, &out))
	assert.Contains(t, out.String(), "2 0 obj")
	assert.Contains(t, out.String(), "0 0 m 100 100 l S")

	out.Reset()
	assert.Error(t, run(options{pdfPath: path, object: 42}, &out))
}

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(options{pdfPath: writeSample(t), pages: true}, &out))
	assert.Contains(t, out.String(), "PDF 1.7, 6 objects, root 6, info 5")
	assert.Contains(t, out.String(), "page 1: object 3")
}
