// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confharvest/internal/acquire"
	"github.com/pdiddy/confharvest/internal/store"
	"github.com/pdiddy/confharvest/internal/testutil"
	"github.com/pdiddy/confharvest/pkg/types"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := loadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), c)
}

func TestLoadConfig_FileRoundTrip(t *testing.T) {
	want := types.DefaultConfig()
	want.Harvest.Workers = 4
	want.Search.Interval = 7 * time.Second
	want.Match.Threshold = 0.55
	want.Pipeline.Jobs = []types.Job{{Venue: "iclr", Year: 2023, EventTypes: []string{"oral", "spotlight"}}}

	data, err := marshalConfig(want)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "confharvest.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	got, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CONFHARVEST_HARVEST_WORKERS", "6")
	t.Setenv("CONFHARVEST_SEARCH_INTERVAL", "10s")

	v := viper.New()
	bindEnv(v)
	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Harvest.Workers)
	assert.Equal(t, 10*time.Second, c.Search.Interval)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CONFHARVEST_MATCH_THRESHOLD", "1.5")

	v := viper.New()
	bindEnv(v)
	_, err := loadConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.threshold")
}

func TestSearchConfig_FindsFileInConfigDir(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "confharvest")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, configName+".yaml")
	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  workers: 3\n"), 0o644))

	v := viper.New()
	searchConfig(v, "", []string{t.TempDir(), dir})
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, path, v.ConfigFileUsed())

	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Harvest.Workers)

	usage := rootCmd.PersistentFlags().Lookup("config").Usage
	assert.Contains(t, usage, "~/.config/confharvest/"+configName+".yaml")
}

func TestVenueSlug(t *testing.T) {
	assert.Equal(t, "cvpr", venueSlug("cvpr"))
	assert.Equal(t, "iclr_cc", venueSlug("https://iclr.cc"))
	assert.Equal(t, "127_0_0_1", venueSlug("http://127.0.0.1:8080/"))
}

func TestSummaryTable(t *testing.T) {
	out := summaryTable(acquire.Summary{
		Total: 4, Success: 2, Exists: 1, Failed: 1, SuccessRate: 75,
		Methods: map[types.Method]int{types.MethodDirectReference: 1, types.MethodSearchMatch: 1},
		Reasons: map[types.FailureReason]int{types.ReasonNoMatch: 1},
	})
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "method direct_reference")
	assert.Contains(t, out, "method search_match")
	assert.Contains(t, out, "reason no_match")
	assert.NotContains(t, out, "pending")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestWriteReport(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	var buf bytes.Buffer
	require.NoError(t, writeReport(ctx, &buf, st, 5))
	assert.Contains(t, buf.String(), "No runs recorded.")

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.BeginRun(ctx, store.Run{ID: "run-1", Venue: "iclr", Year: 2024, EventType: "oral", StartedAt: started}))
	require.NoError(t, st.RecordOutcome(ctx, "run-1", types.Paper{
		ID: "1", Title: "Vision Transformers Need Registers",
		DownloadStatus: types.StatusSuccess, DownloadMethod: types.MethodDirectReference,
	}))
	require.NoError(t, st.RecordOutcome(ctx, "run-1", types.Paper{
		ID: "2", Title: "An Unfindable Paper",
		DownloadStatus: types.StatusFailed, FailureReason: types.ReasonNoMatch, FailureDetail: "best score 0.21",
	}))
	require.NoError(t, st.FinishRun(ctx, store.Run{
		ID: "run-1", FinishedAt: started.Add(time.Minute), Total: 2, Success: 1, Failed: 1, SuccessRate: 50,
	}))

	buf.Reset()
	require.NoError(t, writeReport(ctx, &buf, st, 5))
	out := buf.String()
	assert.Contains(t, out, "Latest run run-1")
	assert.Contains(t, out, "iclr")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "method direct_reference")
	assert.Contains(t, out, "An Unfindable Paper")
	assert.Contains(t, out, "best score 0.21")
	assert.Contains(t, out, "no_match")
}

func TestResolverLeavesSearchNilWhenDisabled(t *testing.T) {
	c := types.DefaultConfig()
	c.Search.Enabled = false
	comp, err := newComponents(c, testLogger())
	require.NoError(t, err)

	r := comp.resolver(c, nil, t.TempDir(), testLogger())
	assert.Nil(t, r.Search)
	assert.Nil(t, r.Reference)
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

// newVirtualSite serves a two-paper virtual-conference listing. Only the
// first paper links to a review forum.
func newVirtualSite(t *testing.T) *httptest.Server {
	t.Helper()
	pdf := testutil.PDF(2)
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/virtual/2024/events/oral", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="virtual-card"><a class="small-title" href="/virtual/2024/oral/101">Registers for Vision Transformers</a></div>
<div class="author-str">Ada Lovelace &middot; Alan Turing</div>
<div class="virtual-card"><a class="small-title" href="/virtual/2024/oral/102">A Paper Without Links</a></div>
<div class="author-str">Grace Hopper</div>
</body></html>`)
	})
	mux.HandleFunc("/virtual/2024/oral/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><a title="OpenReview" href="%s/forum?id=abc">OpenReview</a></body></html>`, srv.URL)
	})
	mux.HandleFunc("/virtual/2024/oral/102", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHarvest_VirtualSiteEndToEnd(t *testing.T) {
	srv := newVirtualSite(t)
	dir := t.TempDir()

	c := types.DefaultConfig()
	c.Search.Enabled = false
	c.HTTP.RetryBackoff = time.Millisecond
	c.Reference.PDFTemplate = srv.URL + "/pdf?id=%s"
	c.Log.Level = "error"

	report, err := harvest(context.Background(), c, types.Job{Venue: srv.URL, Year: 2024, EventTypes: []string{"oral"}}, dir)
	require.NoError(t, err)
	require.Len(t, report.Papers, 2)

	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Success)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Methods[types.MethodDirectReference])

	byID := map[string]types.Paper{}
	for _, p := range report.Papers {
		byID[p.ID] = p
	}
	assert.Equal(t, srv.URL+"/pdf?id=abc", byID["101"].PDFURL)
	assert.Equal(t, 2, byID["101"].PDFPages)
	assert.FileExists(t, byID["101"].LocalPDFPath)
	assert.Equal(t, types.ReasonNoReferenceLink, byID["102"].FailureReason)

	assert.FileExists(t, filepath.Join(dir, "download_summary.json"))
	assert.FileExists(t, filepath.Join(dir, "download_log.txt"))
	assert.FileExists(t, filepath.Join(dir, store.DBFile))

	// A second run finds the PDF on disk.
	again, err := harvest(context.Background(), c, types.Job{Venue: srv.URL, Year: 2024, EventTypes: []string{"oral"}}, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Summary.Exists)
	assert.Equal(t, 0, again.Summary.Success)
}
