package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/haul/internal/cachemanager"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/task"
)

// ErrNoURL is returned for tasks without a URL.
var ErrNoURL = errors.New("task has no url")

// DefaultDownloadTimeout bounds a single download.
const DefaultDownloadTimeout = 10 * time.Minute

// Artifact is a file a download produced.
type Artifact struct {
	Name        string
	Path        string
	Size        int64
	Installable bool
}

// Download fetches task URLs over HTTP into Dir.
type Download struct {
	Client  *http.Client
	Dir     string
	Timeout time.Duration
	cache   cachemanager.CacheManager[string, Artifact]
}

// NewDownload creates a downloader writing into dir. Completed artifacts are
// remembered by URL so a repeated URL is not fetched twice.
func NewDownload(dir string, timeout time.Duration) *Download {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Download{
		Client:  &http.Client{},
		Dir:     dir,
		Timeout: timeout,
		cache: cachemanager.NewInMemoryCacheManager[string, Artifact]("artifacts",
			cachemanager.NoExpiration, cachemanager.DefaultCleanupInterval),
	}
}

// Execute implements pool.Executor.
func (d *Download) Execute(ctx context.Context, t task.Task, report func(percent float64)) error {
	if t.URL == "" {
		return fmt.Errorf("%s: %w", t.Name, ErrNoURL)
	}

	if a, ok := d.cache.Get(ctx, t.URL); ok && present(a) {
		log.Debug(log.CatFetch, "Artifact already downloaded", "url", t.URL, "path", a.Path)
		report(100)
		return nil
	}

	if err := os.MkdirAll(d.Dir, 0o750); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", t.URL, err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", t.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetching %s: unexpected status %s", t.URL, resp.Status)
	}

	// Percent stays at 0 until the response says how big the body is.
	report(0)
	total := resp.ContentLength
	if total <= 0 && t.Size > 0 {
		total = int64(t.Size)
	}

	dest := filepath.Join(d.Dir, artifactName(t))
	f, err := os.CreateTemp(d.Dir, artifactName(t)+".*.part")
	if err != nil {
		return fmt.Errorf("creating partial file for %s: %w", t.Name, err)
	}
	part := f.Name()

	pw := &progressWriter{total: total, report: report}
	n, copyErr := io.Copy(f, io.TeeReader(resp.Body, pw))
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(part)
		return fmt.Errorf("downloading %s: %w", t.URL, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(part)
		return fmt.Errorf("writing %s: %w", part, closeErr)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("finalising %s: %w", dest, err)
	}

	report(100)
	d.cache.Set(ctx, t.URL, Artifact{Name: t.Name, Path: dest, Size: n, Installable: t.Installable}, cachemanager.NoExpiration)
	log.Debug(log.CatFetch, "Downloaded", "url", t.URL, "path", dest, "bytes", n)
	return nil
}

// Artifacts returns the downloaded artifacts for tasks, in task order.
// Tasks that were not downloaded are skipped.
func (d *Download) Artifacts(ctx context.Context, tasks []task.Task) []Artifact {
	urls := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.URL != "" {
			urls = append(urls, t.URL)
		}
	}
	found, ok := d.cache.GetMultiple(ctx, urls)
	if !ok {
		return nil
	}

	out := make([]Artifact, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, u := range urls {
		a, ok := found[u]
		if !ok || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, a)
	}
	return out
}

// artifactName is the file name for t's download inside Dir. The task ID
// prefix keeps tasks that share a name apart, and only the last path element
// of the name is used.
func artifactName(t task.Task) string {
	base := filepath.Base(filepath.Clean("/" + t.Name))
	if base == "/" || base == "." || base == ".." {
		base = "artifact"
	}
	return fmt.Sprintf("%d-%s", int(t.ID), base)
}

func present(a Artifact) bool {
	info, err := os.Stat(a.Path)
	return err == nil && info.Size() == a.Size
}

// progressWriter turns byte counts into whole-percent reports.
type progressWriter struct {
	total   int64
	written int64
	last    int64
	report  func(percent float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	pct := min(p.written*100/p.total, 100)
	if pct > p.last {
		p.last = pct
		p.report(float64(pct))
	}
	return len(b), nil
}
