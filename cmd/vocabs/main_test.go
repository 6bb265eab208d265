package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/vocabs/internal/config"
	"github.com/aleksaelezovic/vocabs/internal/storage"
	"github.com/aleksaelezovic/vocabs/pkg/rdf"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

func TestWritePrefixes_Text(t *testing.T) {
	ns, err := rdf.NewNamespaceManager(map[string]string{"ex": "http://example.org/"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writePrefixes(&buf, ns, "text"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(ns.Namespaces()))
	assert.True(t, strings.HasPrefix(lines[0], "dc:"), lines[0])
	assert.Contains(t, buf.String(), "http://example.org/\n")
}

func TestWritePrefixes_YAML(t *testing.T) {
	ns, err := rdf.NewNamespaceManager(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writePrefixes(&buf, ns, "yaml"))

	var doc struct {
		Namespaces map[string]string `yaml:"namespaces"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", doc.Namespaces["foaf"])

	assert.Error(t, writePrefixes(&buf, ns, "xml"))
}

func newTestService(t *testing.T) *vocab.Service {
	t.Helper()
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver: config.DriverBadger,
		Path:   filepath.Join(t.TempDir(), "data"),
	}}
	repo, err := storage.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ns, err := rdf.NewNamespaceManager(nil)
	require.NoError(t, err)
	return vocab.NewService(repo, ns, zap.NewNop())
}

func TestExportVocabulary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	v, err := svc.CreateVocabulary(ctx, "urn:test:")
	require.NoError(t, err)
	_, err = svc.AddTerm(ctx, v.ID, "Thing", "owl:Class")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exportVocabulary(ctx, &buf, svc, "urn:test:", rdf.FormatNTriples))
	assert.Equal(t, "<urn:test:Thing> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .\n", buf.String())

	err = exportVocabulary(ctx, &buf, svc, "urn:missing:", rdf.FormatJSONLD)
	assert.ErrorIs(t, err, vocab.ErrNotFound)
}

func TestImportVocabulary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	input := "@prefix ex: <urn:test:> .\n" +
		"@prefix owl: <http://www.w3.org/2002/07/owl#> .\n" +
		"ex:Thing a owl:Class .\n" +
		"<urn:other:Thing> a owl:Class .\n"
	summary, err := importVocabulary(ctx, strings.NewReader(input), svc, "urn:test:", rdf.FormatTurtle)
	require.NoError(t, err)
	assert.Equal(t, vocab.ImportSummary{Terms: 1, Properties: 1, Skipped: 1}, summary)

	var buf bytes.Buffer
	require.NoError(t, exportVocabulary(ctx, &buf, svc, "urn:test:", rdf.FormatNTriples))
	assert.Equal(t, "<urn:test:Thing> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .\n", buf.String())

	_, err = importVocabulary(ctx, strings.NewReader("not turtle"), svc, "urn:test:", rdf.FormatTurtle)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "vocabs version 0.1.0\n", out.String())
}
