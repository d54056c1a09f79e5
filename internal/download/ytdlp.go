package download

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"accentscan/internal/logging"
	"accentscan/internal/services"
)

// resultMarker prefixes the line yt-dlp prints once the merged file is in place.
const resultMarker = "accentscan-result:"

var progressPattern = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)

func (d *Downloader) buildArgs(videoURL, destDir string) []string {
	return []string{
		"--format", d.cfg.Format,
		"--merge-output-format", d.cfg.MergeOutputFormat,
		"--no-playlist",
		"--no-part",
		"--restrict-filenames",
		"--progress",
		"--newline",
		"--print", "after_move:" + resultMarker + "%(filepath)s\t%(title)s",
		"--output", filepath.Join(destDir, "video.%(ext)s"),
		"--",
		videoURL,
	}
}

func (d *Downloader) fetchYtDlp(ctx context.Context, videoURL, destDir string, onProgress func(float64)) (Video, error) {
	args := d.buildArgs(videoURL, destDir)
	sampler := logging.NewProgressSampler(10)

	var filePath, title string
	onLine := func(line string) {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, resultMarker); ok {
			filePath, title, _ = strings.Cut(rest, "\t")
			return
		}
		if percent, ok := parseProgress(line); ok {
			if sampler.ShouldLog("download", percent) {
				d.logger.Debug("yt-dlp progress", logging.Float64("percent", percent))
			}
			if onProgress != nil {
				onProgress(percent)
			}
		}
	}

	d.logger.Info("downloading video", logging.String("url", videoURL), logging.String("format", d.cfg.Format))
	if err := d.run(ctx, d.cfg.YtDlpBinary, args, onLine); err != nil {
		if isNotFound(err) {
			return Video{}, services.Wrap(services.ErrConfiguration, stageName, "yt-dlp",
				fmt.Sprintf("%s not found; install yt-dlp or set download.ytdlp_binary", d.cfg.YtDlpBinary), err)
		}
		return Video{}, services.Wrap(services.ErrExternalTool, stageName, "yt-dlp", "video download failed", err)
	}

	if filePath == "" {
		filePath = findDownloaded(destDir)
	}
	if filePath == "" {
		return Video{}, services.Wrap(services.ErrNotFound, stageName, "yt-dlp", "yt-dlp finished without producing a file", nil)
	}
	size := fileSize(filePath)
	if size == 0 {
		return Video{}, services.Wrap(services.ErrNotFound, stageName, "yt-dlp",
			fmt.Sprintf("downloaded file %s is missing or empty", filepath.Base(filePath)), nil)
	}

	d.logger.Info("download complete",
		logging.String("path", filePath),
		logging.String("title", title),
		logging.Int64("bytes", size),
	)
	return Video{
		Path:      filePath,
		Title:     strings.TrimSpace(title),
		Method:    MethodYtDlp,
		Temporary: true,
		SizeBytes: size,
	}, nil
}

func parseProgress(line string) (float64, bool) {
	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// findDownloaded returns the first video.* file in dir, used when yt-dlp did
// not print the final path (older releases ignore after_move prints).
func findDownloaded(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "video.*"))
	if err != nil {
		return ""
	}
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			return match
		}
	}
	return ""
}

func runLines(ctx context.Context, name string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	if scanner.Err() != nil {
		// An oversized line stops the scanner; keep the pipe moving so the
		// process can exit.
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if idx := strings.LastIndex(detail, "ERROR:"); idx >= 0 {
			detail = strings.TrimSpace(detail[idx:])
		}
		if detail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return scanner.Err()
}
