// internal/downloader/downloader.go
package downloader

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is one file to fetch
type Job struct {
	URL  string
	Path string // destination file
}

// Result represents the result of a download operation
type Result struct {
	Job
	Size     int64
	Existed  bool // the destination was already present and left untouched
	Err      error
	Duration time.Duration
}

// OK reports whether the file is present after the job
func (r *Result) OK() bool { return r.Err == nil }

// Downloader fetches listing images with streaming I/O
type Downloader struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// NewDownloader creates a new Downloader instance
func NewDownloader(timeout time.Duration, userAgent string, headers map[string]string) *Downloader {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Downloader{
		client:    client,
		userAgent: userAgent,
		headers:   headers,
	}
}

// Download fetches one file. An existing destination is kept, which makes
// repeated runs only fetch images that are new.
func (d *Downloader) Download(ctx context.Context, job Job) *Result {
	start := time.Now()
	result := &Result{Job: job}
	defer func() { result.Duration = time.Since(start) }()

	if info, err := os.Stat(job.Path); err == nil && info.Size() > 0 {
		result.Existed = true
		result.Size = info.Size()
		return result
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.Err = fmt.Errorf("checking %s: %w", job.Path, err)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(job.Path), 0o755); err != nil {
		result.Err = fmt.Errorf("failed to create output directory: %w", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		result.Err = fmt.Errorf("failed to create request: %w", err)
		return result
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("request failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Err = fmt.Errorf("bad status: %s", resp.Status)
		return result
	}

	// Stream into a temp file so an interrupted download never looks complete
	tmp, err := os.CreateTemp(filepath.Dir(job.Path), "."+filepath.Base(job.Path)+".*.part")
	if err != nil {
		result.Err = fmt.Errorf("failed to create file: %w", err)
		return result
	}
	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), job.Path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		result.Err = fmt.Errorf("failed to write file: %w", err)
		return result
	}

	result.Size = written
	log.Debug().
		Str("url", job.URL).
		Str("file", job.Path).
		Int64("bytes", written).
		Dur("duration", time.Since(start)).
		Msg("Download completed")

	return result
}

// FileName derives a safe file name for an image URL. Query strings are
// folded into a short hash so resized variants do not collide.
func FileName(rawURL string) string {
	name := rawURL
	var queryHash string
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = u.Path[strings.LastIndex(u.Path, "/")+1:]
		if u.RawQuery != "" {
			queryHash = "_" + hashString(u.RawQuery)
		}
	}

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.Trim(strings.TrimSpace(name), ".")

	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext) + queryHash + ext

	if name == "" || name == queryHash {
		name = "image_" + hashString(rawURL) + ext
	}
	if len(name) > 200 {
		name = name[len(name)-200:]
	}
	return name
}

func hashString(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
