package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/distrocompare/internal/store"
	"github.com/HerbHall/distrocompare/internal/testutil"
)

const testTemplate = `{
	// relaxed syntax is fine
	name: "",
	secure_boot: true,
	stability: 7,
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func testConfig(records ...string) Config {
	return Config{
		Template:     "template.json5",
		Descriptions: "descriptions.json",
		RecordDir:    "distros",
		Records:      records,
		Concurrency:  2,
	}
}

type countingObserver struct {
	mu    sync.Mutex
	kinds map[string]int
}

func (o *countingObserver) ObserveFetchFailure(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.kinds == nil {
		o.kinds = map[string]int{}
	}
	o.kinds[kind]++
}

func TestLoad_IsolatesRecordFailures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"template.json5":      testTemplate,
		"descriptions.json":   `{"descriptions": {"secure_boot": "UEFI Secure Boot"}}`,
		"distros/a.json":      `{"name": "A", "secure_boot": true, "stability": 9}`,
		"distros/broken.json": `{"name": "Broken",`,
		"distros/noname.json": `{"stability": 3}`,
		"distros/c.json":      `{"name": "C", "secure_boot": false}`,
	})
	obs := &countingObserver{}
	l := New(NewFileSource(dir), testConfig("a.json", "missing.json", "broken.json", "noname.json", "c.json"),
		testutil.Logger(), WithObserver(obs))

	snap, report, err := l.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Records, 2)
	assert.Equal(t, "A", snap.Records[0].Name)
	assert.Equal(t, "C", snap.Records[1].Name)
	assert.Equal(t, "UEFI Secure Boot", snap.Descriptions["secure_boot"])
	assert.Equal(t, 5, report.Requested)
	assert.Equal(t, 2, report.Loaded)
	assert.Len(t, report.Failures, 3)
	assert.Equal(t, 3, obs.kinds[KindRecord])
}

func TestLoad_MissingTemplateIsFatal(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"distros/a.json": `{"name": "A"}`,
	})
	l := New(NewFileSource(dir), testConfig("a.json"), testutil.Logger())

	_, report, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
	require.NotNil(t, report)

	kinds := map[string]bool{}
	for _, f := range report.Failures {
		kinds[f.Kind] = true
	}
	assert.True(t, kinds[KindTemplate])
	assert.True(t, kinds[KindDescriptions])
}

func TestLoad_DescriptionsOptional(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"template.json5": testTemplate,
		"distros/a.json": `{"name": "A"}`,
	})
	snap, report, err := New(NewFileSource(dir), testConfig("a.json"), testutil.Logger()).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Descriptions)
	assert.Empty(t, snap.Descriptions)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, KindDescriptions, report.Failures[0].Kind)
}

func TestLoad_DuplicateNamesKeepFirst(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"template.json5":    testTemplate,
		"descriptions.json": `{}`,
		"distros/mx.json":   `{"name": "MX Linux", "stability": 8}`,
		"distros/mx-v.json": `{"name": "MX Linux", "stability": 2}`,
		"distros/void.json": `{"name": "Void"}`,
	})
	snap, report, err := New(NewFileSource(dir), testConfig("mx.json", "mx-v.json", "void.json"), testutil.Logger()).
		Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	n, _ := snap.Records[0].Get("stability").AsNumber()
	assert.Equal(t, float64(8), n)
	assert.Equal(t, []string{"MX Linux"}, report.Duplicates)
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.json": `{"name": "A", "secure_boot": true}`,
	})
	cfg := Config{Records: []string{"a.json"}}
	snap, report, err := New(NewFileSource(dir), cfg, testutil.Logger()).Load(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, snap.Template.Len(), 80)
	assert.NotEmpty(t, snap.Descriptions)
	assert.Empty(t, report.Failures)
}

func TestLoad_HTTPSource(t *testing.T) {
	docs := map[string]string{
		"/data/template.json5":      testTemplate,
		"/data/descriptions.json":   `{"descriptions": {}}`,
		"/data/distros/fedora.json": `{"name": "Fedora", "secure_boot": true}`,
		"/data/distros/ubuntu.json": `{"name": "Ubuntu", "secure_boot": true}`,
	}
	var mu sync.Mutex
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		mu.Unlock()
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	src, err := ParseSource(srv.URL + "/data/")
	require.NoError(t, err)
	snap, report, err := New(src, testConfig("fedora.json", "ubuntu.json", "gone.json"), testutil.Logger()).
		Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Loaded)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "gone.json", report.Failures[0].Name)
	assert.Equal(t, "Fedora", snap.Records[0].Name)
	for _, ua := range agents {
		assert.True(t, strings.HasPrefix(ua, "distrocompare/"), ua)
	}
}

func TestLoad_ContextCancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"template.json5": testTemplate})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(NewFileSource(dir), testConfig(), testutil.Logger()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotSource(t *testing.T) {
	ctx := context.Background()
	repo, err := store.NewCatalogRepository(ctx, testutil.NewStore(t))
	require.NoError(t, err)

	_, _, err = NewSnapshotSource(repo).Load(ctx)
	assert.ErrorIs(t, err, store.ErrNoSnapshot)

	require.NoError(t, repo.SaveSnapshot(ctx, testutil.NewSnapshot(t, testutil.SampleTemplate, testutil.SampleRecords()...)))
	snap, report, err := NewSnapshotSource(repo).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Records, 3)
	assert.Equal(t, 3, report.Loaded)
}
