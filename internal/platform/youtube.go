package platform

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/model"
)

// DownloadTimeout is the hard wall-clock ceiling on a single download.
// Exceeding it is semantically identical to cancellation but surfaces as
// errs.Timeout.
const DownloadTimeout = 30 * time.Minute

var youTubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/watch\?v=[\w-]+`),
	regexp.MustCompile(`^(?i:https?://youtu\.be)/[\w-]+`),
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/playlist\?list=[\w-]+`),
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/@[\w-]+`),
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/channel/[\w-]+`),
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/user/[\w-]+`),
	regexp.MustCompile(`^(?i:https?://(www\.)?youtube\.com)/c/[\w-]+`),
}

// YouTubeProvider drives yt-dlp as a subprocess for metadata extraction and
// download execution, and ffmpeg as its mux companion.
type YouTubeProvider struct {
	downloaderPath string
	muxToolPath    string
	log            *logrus.Entry
}

// NewYouTubeProvider returns a provider that shells out to the given
// downloader (yt-dlp) and mux tool (ffmpeg) binaries.
func NewYouTubeProvider(downloaderPath, muxToolPath string) *YouTubeProvider {
	return &YouTubeProvider{
		downloaderPath: downloaderPath,
		muxToolPath:    muxToolPath,
		log:            logrus.WithField("platform", "YouTube"),
	}
}

func (p *YouTubeProvider) Name() string { return "YouTube" }

// MatchesURL is case-insensitive on scheme/host (the (?i:...) groups in the
// regexes above) and case-sensitive on path, matching URL-matching
// semantics generally.
func (p *YouTubeProvider) MatchesURL(url string) bool {
	for _, re := range youTubeURLPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

func (p *YouTubeProvider) SupportedPatterns() []string {
	return []string{
		"https://www.youtube.com/watch?v=VIDEO_ID",
		"https://youtu.be/VIDEO_ID",
		"https://www.youtube.com/playlist?list=PLAYLIST_ID",
		"https://www.youtube.com/@handle",
		"https://www.youtube.com/channel/CHANNEL_ID",
	}
}

func (p *YouTubeProvider) VerifyDependencies(ctx context.Context) []Dependency {
	deps := []Dependency{
		p.checkDependency(ctx, "yt-dlp", p.downloaderPath),
		p.checkDependency(ctx, "ffmpeg", p.muxToolPath),
	}
	return deps
}

func (p *YouTubeProvider) checkDependency(ctx context.Context, name, path string) Dependency {
	cmd := exec.CommandContext(ctx, path, "--version")
	out, err := cmd.Output()
	if err != nil {
		return Dependency{Name: name, Installed: false}
	}
	return Dependency{Name: name, Installed: true, Version: strings.TrimSpace(string(out))}
}

func (p *YouTubeProvider) PlatformSettings() []PlatformSetting {
	return []PlatformSetting{
		{Key: "subtitles", Label: "Download subtitles", Type: SettingBoolean, Default: false},
		{Key: "sponsorblock", Label: "Skip sponsor segments", Type: SettingBoolean, Default: false},
	}
}

// GetVideoInfo invokes the downloader with flags that yield a single-line
// JSON document describing the video.
func (p *YouTubeProvider) GetVideoInfo(ctx context.Context, url string) (model.VideoRecord, error) {
	raw, err := p.dumpJSON(ctx, url)
	if err != nil {
		return model.VideoRecord{}, err
	}
	return parseVideoRecord(raw, url), nil
}

// GetPlaylistInfo fetches the flat playlist listing and its constituent
// videos in one dump-json invocation (yt-dlp emits one JSON object per
// line for a playlist URL).
func (p *YouTubeProvider) GetPlaylistInfo(ctx context.Context, url string) (model.PlaylistRecord, error) {
	lines, err := p.dumpJSONLines(ctx, url)
	if err != nil {
		return model.PlaylistRecord{}, err
	}
	if len(lines) == 0 {
		return model.PlaylistRecord{}, errs.New(errs.VideoUnavailable, "playlist has no videos or is unavailable")
	}

	videos := make([]model.VideoRecord, 0, len(lines))
	for _, raw := range lines {
		videos = append(videos, parseVideoRecord(raw, url))
	}

	title := stringField(lines[0], "playlist_title")
	if title == "" {
		title = stringField(lines[0], "playlist")
	}
	uploader := stringField(lines[0], "uploader")
	id := stringField(lines[0], "playlist_id")

	return model.PlaylistRecord{
		ID:         id,
		Title:      title,
		Uploader:   uploader,
		VideoCount: len(videos),
		Videos:     videos,
		Platform:   p.Name(),
		URL:        url,
		Page:       1,
		PageSize:   len(videos),
		HasMore:    false,
	}, nil
}

// GetChannelInfo issues the channel-level listing, then expands the
// channel's "uploads" pseudo-playlist into AllVideos. No other playlists of
// the channel are discovered or expanded: Playlists is always empty. A
// failure to expand the uploads playlist leaves AllVideos empty rather than
// failing the call.
func (p *YouTubeProvider) GetChannelInfo(ctx context.Context, url string) (model.ChannelRecord, error) {
	raw, err := p.dumpJSON(ctx, url)
	if err != nil {
		return model.ChannelRecord{}, err
	}

	name := stringField(raw, "channel")
	if name == "" {
		name = stringField(raw, "uploader")
	}
	channelID := stringField(raw, "channel_id")

	uploadsURL := url
	if channelID != "" {
		uploadsURL = uploadsPlaylistURL(channelID)
	}

	all, err := p.GetPlaylistInfo(ctx, uploadsURL)
	var allVideos []model.VideoRecord
	if err == nil {
		allVideos = all.Videos
	}

	return model.ChannelRecord{
		ID:        channelID,
		Name:      name,
		Playlists: nil,
		AllVideos: allVideos,
		Platform:  p.Name(),
		URL:       url,
	}, nil
}

// uploadsPlaylistURL derives the synthetic "uploads" playlist id for a
// channel: YouTube's convention swaps a "UC" channel id prefix for "UU".
func uploadsPlaylistURL(channelID string) string {
	id := channelID
	if strings.HasPrefix(id, "UC") {
		id = "UU" + id[2:]
	}
	return "https://www.youtube.com/playlist?list=" + id
}

func (p *YouTubeProvider) dumpJSON(ctx context.Context, url string) (map[string]interface{}, error) {
	lines, err := p.dumpJSONLines(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errs.New(errs.VideoUnavailable, "no metadata returned")
	}
	return lines[0], nil
}

func (p *YouTubeProvider) dumpJSONLines(ctx context.Context, url string) ([]map[string]interface{}, error) {
	cmd := exec.CommandContext(ctx, p.downloaderPath, "--dump-json", "--no-warnings", "--flat-playlist", url)
	cmd.Env = downloaderEnv()
	out, err := cmd.Output()
	if err != nil {
		return nil, classifyExecError(err)
	}

	var records []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			p.log.WithError(err).Warn("skipping unparseable metadata line")
			continue
		}
		records = append(records, obj)
	}
	return records, nil
}

func classifyExecError(err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok {
		stderr := string(exitErr.Stderr)
		switch {
		case strings.Contains(stderr, "Video unavailable"), strings.Contains(stderr, "Private video"):
			return errs.New(errs.VideoUnavailable, stderr)
		case strings.Contains(stderr, "network"), strings.Contains(stderr, "timeout"):
			return errs.New(errs.NetworkError, stderr)
		default:
			return errs.New(errs.DownloadFailed, stderr)
		}
	}
	return errs.New(errs.MissingDependency, err.Error())
}

func parseVideoRecord(raw map[string]interface{}, fallbackURL string) model.VideoRecord {
	title := stringField(raw, "title")
	if title == "" {
		title = "Unknown Title"
	}
	uploader := stringField(raw, "uploader")
	if uploader == "" {
		uploader = stringField(raw, "channel")
	}
	if uploader == "" {
		uploader = "Unknown"
	}

	url := stringField(raw, "webpage_url")
	if url == "" {
		url = fallbackURL
	}

	return model.VideoRecord{
		ID:          stringField(raw, "id"),
		Title:       title,
		Description: stringField(raw, "description"),
		Thumbnail:   stringField(raw, "thumbnail"),
		Duration:    intField(raw, "duration"),
		Uploader:    uploader,
		UploadDate:  stringField(raw, "upload_date"),
		ViewCount:   int64(intField(raw, "view_count")),
		Platform:    "YouTube",
		URL:         url,
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// buildFormatString implements the format-selection rule: audio-only picks
// the best audio track; "best" spans the format's best video and audio;
// any other closed-set resolution caps the video height.
func buildFormatString(options model.DownloadOptions) string {
	if options.AudioOnly {
		return "bestaudio"
	}

	format := string(options.Format)
	switch options.Quality {
	case model.QualityBest, "":
		return fmt.Sprintf("bestvideo[ext=%s]+bestaudio/best[ext=%s]/best", format, format)
	case model.Quality1080:
		return heightCappedFormat(format, 1080)
	case model.Quality720:
		return heightCappedFormat(format, 720)
	case model.Quality480:
		return heightCappedFormat(format, 480)
	default:
		return fmt.Sprintf("bestvideo[ext=%s]+bestaudio/best[ext=%s]/best", format, format)
	}
}

func heightCappedFormat(format string, height int) string {
	return fmt.Sprintf("bestvideo[height<=%d][ext=%s]+bestaudio/best[height<=%d]", height, format, height)
}
