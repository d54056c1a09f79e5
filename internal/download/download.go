package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"accentscan/internal/logging"
	"accentscan/internal/services"
)

const stageName = "download"

// Methods reported on Video.
const (
	MethodLocal = "local"
	MethodHTTP  = "http"
	MethodYtDlp = "yt-dlp"
)

var mediaExtensions = map[string]struct{}{
	".mp4": {}, ".m4v": {}, ".mkv": {}, ".webm": {}, ".mov": {}, ".avi": {},
	".mp3": {}, ".m4a": {}, ".wav": {}, ".flac": {}, ".ogg": {}, ".opus": {},
}

// Video describes a fetched source ready for audio extraction.
type Video struct {
	Path   string
	Source string
	Title  string
	Method string
	// Temporary is false for local files, which are never removed.
	Temporary bool
	SizeBytes int64
}

// Config captures downloader settings.
type Config struct {
	YtDlpBinary       string
	Format            string
	MergeOutputFormat string
	Timeout           time.Duration
	MaxBytes          int64
}

// LineRunner executes a command and hands each stdout line to onLine.
type LineRunner func(ctx context.Context, name string, args []string, onLine func(string)) error

// Downloader fetches videos from URLs or local paths.
type Downloader struct {
	cfg    Config
	logger *slog.Logger
	client *http.Client
	run    LineRunner
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the client used for direct media links.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLineRunner overrides yt-dlp execution (for testing).
func WithLineRunner(run LineRunner) Option {
	return func(d *Downloader) {
		if run != nil {
			d.run = run
		}
	}
}

// New constructs a Downloader.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Downloader {
	if strings.TrimSpace(cfg.YtDlpBinary) == "" {
		cfg.YtDlpBinary = "yt-dlp"
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "bestvideo+bestaudio/best"
	}
	if strings.TrimSpace(cfg.MergeOutputFormat) == "" {
		cfg.MergeOutputFormat = "mp4"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Minute
	}
	d := &Downloader{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "download"),
		client: &http.Client{},
		run:    runLines,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch resolves source to a local video file inside destDir.
func (d *Downloader) Fetch(ctx context.Context, source, destDir string) (Video, error) {
	return d.FetchWithProgress(ctx, source, destDir, nil)
}

// FetchWithProgress is Fetch with a callback receiving download percentages
// (0-100). Local files report no progress.
//
// Resolution order: an existing local file (or file:// URL) is used in place;
// an http(s) URL whose path ends in a media extension is fetched directly;
// any other http(s) URL goes through yt-dlp.
func (d *Downloader) FetchWithProgress(ctx context.Context, source, destDir string, onProgress func(float64)) (Video, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Video{}, services.Wrap(services.ErrValidation, stageName, "validate", "video URL required", nil)
	}

	if local, ok := localPath(source); ok {
		return d.useLocal(source, local)
	}

	parsed, err := ParseURL(source)
	if err != nil {
		return Video{}, err
	}
	if strings.TrimSpace(destDir) == "" {
		return Video{}, services.Wrap(services.ErrValidation, stageName, "validate", "destination directory required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Video{}, services.Wrap(services.ErrTransient, stageName, "prepare", "create download directory", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	var video Video
	if IsDirectMedia(parsed) {
		video, err = d.fetchHTTP(ctx, parsed, destDir, onProgress)
	} else {
		video, err = d.fetchYtDlp(ctx, parsed.String(), destDir, onProgress)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Video{}, services.Wrap(services.ErrTimeout, stageName, "fetch",
				fmt.Sprintf("download exceeded %s", d.cfg.Timeout), err)
		}
		return Video{}, err
	}
	video.Source = source
	return video, nil
}

// ParseURL validates a remote video URL.
func ParseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate", "malformed URL", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "":
		return nil, services.Wrap(services.ErrValidation, stageName, "validate",
			fmt.Sprintf("%q is neither a URL nor an existing file", raw), nil)
	default:
		return nil, services.Wrap(services.ErrValidation, stageName, "validate",
			fmt.Sprintf("unsupported URL scheme %q", parsed.Scheme), nil)
	}
	if parsed.Host == "" {
		return nil, services.Wrap(services.ErrValidation, stageName, "validate", "URL has no host", nil)
	}
	return parsed, nil
}

// IsDirectMedia reports whether u points straight at a media file.
func IsDirectMedia(u *url.URL) bool {
	if u == nil {
		return false
	}
	_, ok := mediaExtensions[strings.ToLower(path.Ext(u.Path))]
	return ok
}

func localPath(source string) (string, bool) {
	candidate := source
	if strings.HasPrefix(strings.ToLower(source), "file://") {
		parsed, err := url.Parse(source)
		if err != nil {
			return "", false
		}
		candidate = parsed.Path
	}
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}

func (d *Downloader) useLocal(source, local string) (Video, error) {
	abs, err := filepath.Abs(local)
	if err != nil {
		return Video{}, services.Wrap(services.ErrValidation, stageName, "local", "resolve path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Video{}, services.Wrap(services.ErrNotFound, stageName, "local", "file not found", err)
	}
	d.logger.Info("using local file", logging.String("path", abs), logging.Int64("bytes", info.Size()))
	return Video{
		Path:      abs,
		Source:    source,
		Title:     strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		Method:    MethodLocal,
		Temporary: false,
		SizeBytes: info.Size(),
	}, nil
}

func (d *Downloader) fetchHTTP(ctx context.Context, u *url.URL, destDir string, onProgress func(float64)) (Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Video{}, services.Wrap(services.ErrValidation, stageName, "http", "build request", err)
	}
	req.Header.Set("User-Agent", "accentscan")

	resp, err := d.client.Do(req)
	if err != nil {
		return Video{}, services.Wrap(services.ErrExternalTool, stageName, "http", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return Video{}, services.Wrap(services.ErrNotFound, stageName, "http", fmt.Sprintf("server returned %s", resp.Status), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Video{}, services.Wrap(services.ErrExternalTool, stageName, "http", fmt.Sprintf("server returned %s", resp.Status), nil)
	}
	if d.cfg.MaxBytes > 0 && resp.ContentLength > d.cfg.MaxBytes {
		return Video{}, services.Wrap(services.ErrValidation, stageName, "http",
			fmt.Sprintf("file is %d bytes, larger than the %d byte limit", resp.ContentLength, d.cfg.MaxBytes), nil)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	target := filepath.Join(destDir, "video"+ext)
	file, err := os.Create(target)
	if err != nil {
		return Video{}, services.Wrap(services.ErrTransient, stageName, "http", "create file", err)
	}

	var reader io.Reader = resp.Body
	if d.cfg.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, d.cfg.MaxBytes+1)
	}
	counter := &progressWriter{total: resp.ContentLength, onProgress: onProgress}
	written, copyErr := io.Copy(file, io.TeeReader(reader, counter))
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(target)
		return Video{}, services.Wrap(services.ErrExternalTool, stageName, "http", "download interrupted", copyErr)
	}
	if d.cfg.MaxBytes > 0 && written > d.cfg.MaxBytes {
		_ = os.Remove(target)
		return Video{}, services.Wrap(services.ErrValidation, stageName, "http",
			fmt.Sprintf("file exceeds the %d byte limit", d.cfg.MaxBytes), nil)
	}

	d.logger.Info("direct download complete", logging.String("path", target), logging.Int64("bytes", written))
	return Video{
		Path:      target,
		Title:     strings.TrimSuffix(path.Base(u.Path), ext),
		Method:    MethodHTTP,
		Temporary: true,
		SizeBytes: written,
	}, nil
}

type progressWriter struct {
	total      int64
	written    int64
	onProgress func(float64)
	last       int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.onProgress != nil && p.total > 0 {
		percent := int(p.written * 100 / p.total)
		if percent != p.last {
			p.last = percent
			p.onProgress(float64(percent))
		}
	}
	return len(b), nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
