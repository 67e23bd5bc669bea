package platform

import (
	"testing"

	"github.com/ytget/dlcore/internal/model"
)

func TestMatchesURLCaseInsensitiveHost(t *testing.T) {
	p := NewYouTubeProvider("yt-dlp", "ffmpeg")
	urls := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"HTTPS://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/playlist?list=PLtest",
		"https://www.youtube.com/@somechannel",
	}
	for _, u := range urls {
		if !p.MatchesURL(u) {
			t.Errorf("MatchesURL(%q) = false, want true", u)
		}
	}
}

func TestMatchesURLRejectsOtherHosts(t *testing.T) {
	p := NewYouTubeProvider("yt-dlp", "ffmpeg")
	if p.MatchesURL("https://vimeo.com/123456") {
		t.Errorf("expected vimeo URL to not match")
	}
	if p.MatchesURL("not a url") {
		t.Errorf("expected garbage input to not match")
	}
}

func TestMatchesURLCaseSensitivePath(t *testing.T) {
	p := NewYouTubeProvider("yt-dlp", "ffmpeg")
	if p.MatchesURL("https://www.youtube.com/WATCH?v=dQw4w9WgXcQ") {
		t.Errorf("expected path segment casing to matter")
	}
}

func TestBuildFormatStringAudioOnly(t *testing.T) {
	got := buildFormatString(model.DownloadOptions{AudioOnly: true})
	if got != "bestaudio" {
		t.Errorf("got %q, want bestaudio", got)
	}
}

func TestBuildFormatStringBest(t *testing.T) {
	got := buildFormatString(model.DownloadOptions{Quality: model.QualityBest, Format: model.ContainerMP4})
	want := "bestvideo[ext=mp4]+bestaudio/best[ext=mp4]/best"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildFormatStringResolutionCap(t *testing.T) {
	got := buildFormatString(model.DownloadOptions{Quality: model.Quality720, Format: model.ContainerMP4})
	want := "bestvideo[height<=720][ext=mp4]+bestaudio/best[height<=720]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUploadsPlaylistURLFromUCPrefix(t *testing.T) {
	got := uploadsPlaylistURL("UCabcdef123")
	want := "https://www.youtube.com/playlist?list=UUabcdef123"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFriendlyStderrTrimsPrefixAndCaps(t *testing.T) {
	msg := friendlyStderr("ERROR: " + string(make([]byte, 250)))
	if len(msg) > 203 { // 200 + "..."
		t.Errorf("message too long: %d", len(msg))
	}
	if len(msg) >= len("ERROR:") && msg[:len("ERROR:")] == "ERROR:" {
		t.Errorf("ERROR: prefix not trimmed")
	}
}
