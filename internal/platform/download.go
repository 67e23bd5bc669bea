package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/model"
)

// Download builds yt-dlp's argument vector, spawns it, streams stdout
// through ParseProgressLine into sink, and honors cancel. Standard error is
// captured verbatim for diagnostic inclusion in a failure's message.
func (p *YouTubeProvider) Download(ctx context.Context, url string, options model.DownloadOptions, savePath string, sink ProgressSink, cancel *CancelSignal) error {
	args := []string{
		"--newline",
		"--no-color",
		"--progress",
		"--no-warnings",
		"--no-playlist",
		"-o", savePath,
		"--ffmpeg-location", p.muxToolPath,
		"-f", buildFormatString(options),
	}
	if options.AudioOnly {
		args = append(args, "-x", "--audio-format", string(options.Format))
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, p.downloaderPath, args...)
	cmd.Env = downloaderEnv()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errs.Newf(errs.DownloadFailed, "failed to capture stdout: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errs.Newf(errs.DownloadFailed, "failed to capture stderr: %v", err)
	}

	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			return errs.New(errs.MissingDependency, "yt-dlp executable not found")
		}
		return errs.Newf(errs.DownloadFailed, "failed to spawn yt-dlp: %v", err)
	}

	var stderrBuf strings.Builder
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			stderrBuf.WriteString(sc.Text())
			stderrBuf.WriteString("\n")
		}
	}()

	stdoutDone := make(chan struct{})
	go func() {
		defer close(stdoutDone)
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if progress := ParseProgressLine(line); progress != nil {
				sink(*progress)
			}
		}
	}()

	<-stdoutDone
	<-stderrDone
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		// The context was cancelled or timed out; the child has already
		// been signalled to terminate by exec's CommandContext machinery.
		if ctx.Err() == context.DeadlineExceeded {
			return errs.New(errs.Timeout, "download exceeded the wall-clock timeout")
		}
		return errs.New(errs.OperationCancelled, "download cancelled")
	}

	if waitErr != nil {
		msg := friendlyStderr(stderrBuf.String())
		return classifyDownloadFailure(msg)
	}

	// Always synthesize a terminal 100% update on clean exit — downloads
	// complete successfully even if no progress line was ever parsed.
	sink(Progress{Percentage: 100})
	return nil
}

// downloaderEnv extends the inherited environment with the UTF-8/locale
// vars yt-dlp needs to emit consistently parseable progress and metadata
// output, matching the original's Command::env calls (youtube.rs). It must
// never replace os.Environ() outright: yt-dlp resolves its own cache and
// config paths from HOME, and spawns ffmpeg by searching PATH.
func downloaderEnv() []string {
	return append(os.Environ(), "PYTHONIOENCODING=utf-8", "LANG=en_US.UTF-8")
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory") ||
		strings.Contains(err.Error(), "executable file not found")
}

// friendlyStderr trims noisy prefixes and caps length, matching the
// original's message-simplification hygiene for opaque failures.
func friendlyStderr(raw string) string {
	msg := strings.TrimSpace(raw)
	for _, prefix := range []string{"ERROR:", "Error:", "error:"} {
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimSpace(msg[len(prefix):])
		}
	}
	const maxLen = 200
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	if msg == "" {
		msg = "yt-dlp exited with a nonzero status"
	}
	return msg
}

// classifyDownloadFailure applies the retryable allow-list documented in
// DESIGN.md's Open Question decision for retry classification.
var transientSubstrings = []string{
	"timed out", "connection reset", "temporary failure", "503", "429",
}

func classifyDownloadFailure(msg string) error {
	lower := strings.ToLower(msg)
	for _, s := range transientSubstrings {
		if strings.Contains(lower, s) {
			return errs.New(errs.DownloadFailed, msg).WithRetryable(true)
		}
	}
	return errs.New(errs.DownloadFailed, fmt.Sprintf("yt-dlp failed: %s", msg))
}
