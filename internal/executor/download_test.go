package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/haul/internal/task"
)

func newFileServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownload_WritesFileAndReportsProgress(t *testing.T) {
	body := strings.Repeat("x", 64*1024)
	srv := newFileServer(t, body, nil)
	dir := t.TempDir()
	d := NewDownload(dir, 0)

	var got []float64
	err := d.Execute(context.Background(), task.Task{Name: "pkg.deb", URL: srv.URL + "/pkg.deb"}, func(p float64) {
		got = append(got, p)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "0-pkg.deb"))
	require.NoError(t, err)
	require.Equal(t, body, string(data))

	require.NotEmpty(t, got)
	require.Equal(t, 0.0, got[0], "progress starts at 0 once the response arrives")
	require.Equal(t, 100.0, got[len(got)-1])

	parts, err := filepath.Glob(filepath.Join(dir, "*.part"))
	require.NoError(t, err)
	require.Empty(t, parts, "partial file is renamed away")
}

func TestDownload_HTTPErrorStatus(t *testing.T) {
	srv := newFileServer(t, "", nil)
	d := NewDownload(t.TempDir(), 0)

	err := d.Execute(context.Background(), task.Task{Name: "gone", URL: srv.URL + "/missing"}, func(float64) {})
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestDownload_ConnectionError(t *testing.T) {
	srv := newFileServer(t, "", nil)
	url := srv.URL
	srv.Close()

	d := NewDownload(t.TempDir(), 0)
	err := d.Execute(context.Background(), task.Task{Name: "x", URL: url + "/x"}, func(float64) {})
	require.ErrorContains(t, err, "fetching")
}

func TestDownload_NoURL(t *testing.T) {
	d := NewDownload(t.TempDir(), 0)

	err := d.Execute(context.Background(), task.Task{Name: "git", Size: 10}, func(float64) {})
	require.ErrorIs(t, err, ErrNoURL)
}

func TestDownload_RepeatURLUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := newFileServer(t, "payload", &hits)
	d := NewDownload(t.TempDir(), 0)
	tk := task.Task{Name: "a.deb", URL: srv.URL + "/a.deb", Installable: true}

	require.NoError(t, d.Execute(context.Background(), tk, func(float64) {}))

	var got []float64
	require.NoError(t, d.Execute(context.Background(), tk, func(p float64) { got = append(got, p) }))
	require.Equal(t, []float64{100}, got)
	require.Equal(t, int32(1), hits.Load())
}

func TestDownload_RefetchesWhenFileRemoved(t *testing.T) {
	var hits atomic.Int32
	srv := newFileServer(t, "payload", &hits)
	dir := t.TempDir()
	d := NewDownload(dir, 0)
	tk := task.Task{Name: "a.deb", URL: srv.URL + "/a.deb"}

	require.NoError(t, d.Execute(context.Background(), tk, func(float64) {}))
	require.NoError(t, os.Remove(filepath.Join(dir, "0-a.deb")))
	require.NoError(t, d.Execute(context.Background(), tk, func(float64) {}))

	require.Equal(t, int32(2), hits.Load())
}

func TestDownload_Artifacts(t *testing.T) {
	srv := newFileServer(t, "payload", nil)
	dir := t.TempDir()
	d := NewDownload(dir, 0)

	tasks := []task.Task{
		{ID: 0, Name: "a.deb", URL: srv.URL + "/a.deb", Installable: true},
		{ID: 1, Name: "b.txt", URL: srv.URL + "/b.txt"},
		{ID: 2, Name: "local", Size: 10},
		{ID: 3, Name: "never.deb", URL: srv.URL + "/never.deb"},
	}
	for _, tk := range tasks[:2] {
		require.NoError(t, d.Execute(context.Background(), tk, func(float64) {}))
	}

	arts := d.Artifacts(context.Background(), tasks)
	require.Len(t, arts, 2)
	require.Equal(t, Artifact{Name: "a.deb", Path: filepath.Join(dir, "0-a.deb"), Size: 7, Installable: true}, arts[0])
	require.Equal(t, "b.txt", arts[1].Name)
	require.False(t, arts[1].Installable)

	require.Nil(t, d.Artifacts(context.Background(), tasks[2:3]))
}

func TestDownload_SameNameTasksRunConcurrently(t *testing.T) {
	// Both requests are held until both have arrived so the two downloads
	// overlap on disk.
	var arrived sync.WaitGroup
	arrived.Add(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived.Done()
		arrived.Wait()
		fill := strings.TrimPrefix(r.URL.Path, "/")
		for i := 0; i < 50; i++ {
			_, _ = w.Write([]byte(strings.Repeat(fill, 10)))
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d := NewDownload(dir, 0)
	tasks := []task.Task{
		{ID: 0, Name: "pkg.deb", URL: srv.URL + "/a", Installable: true},
		{ID: 1, Name: "pkg.deb", URL: srv.URL + "/b", Installable: true},
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.Execute(context.Background(), tk, func(float64) {})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	a, err := os.ReadFile(filepath.Join(dir, "0-pkg.deb"))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("a", 500), string(a))
	b, err := os.ReadFile(filepath.Join(dir, "1-pkg.deb"))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("b", 500), string(b))

	arts := d.Artifacts(context.Background(), tasks)
	require.Len(t, arts, 2)
	require.NotEqual(t, arts[0].Path, arts[1].Path)
}

func TestDownload_PathLikeNameStaysInDir(t *testing.T) {
	srv := newFileServer(t, "payload", nil)
	root := t.TempDir()
	dir := filepath.Join(root, "downloads")
	d := NewDownload(dir, 0)

	err := d.Execute(context.Background(), task.Task{ID: 4, Name: "../escape.deb", URL: srv.URL + "/e"}, func(float64) {})
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "4-escape.deb"))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "nothing is written beside the download dir")
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		name string
		task task.Task
		want string
	}{
		{"plain", task.Task{ID: 0, Name: "git.deb"}, "0-git.deb"},
		{"nested", task.Task{ID: 1, Name: "pool/main/git.deb"}, "1-git.deb"},
		{"parent", task.Task{ID: 2, Name: ".."}, "2-artifact"},
		{"escape", task.Task{ID: 3, Name: "../../etc/passwd"}, "3-passwd"},
		{"dot", task.Task{ID: 4, Name: "."}, "4-artifact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, artifactName(tt.task))
		})
	}
}

func TestProgressWriter_UnknownTotal(t *testing.T) {
	var got []float64
	pw := &progressWriter{total: -1, report: func(p float64) { got = append(got, p) }}

	_, _ = pw.Write(make([]byte, 100))
	require.Empty(t, got, "no percentage without a known total")
}

func TestProgressWriter_WholePercentSteps(t *testing.T) {
	var got []float64
	pw := &progressWriter{total: 1000, report: func(p float64) { got = append(got, p) }}

	_, _ = pw.Write(make([]byte, 5))   // 0%
	_, _ = pw.Write(make([]byte, 10))  // 1%
	_, _ = pw.Write(make([]byte, 3))   // still 1%
	_, _ = pw.Write(make([]byte, 982)) // 100%

	require.Equal(t, []float64{1, 100}, got)
}
