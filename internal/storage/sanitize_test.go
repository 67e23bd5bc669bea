package storage

import "testing"

func TestSanitizeFilenameReplacesDisallowedChars(t *testing.T) {
	got := SanitizeFilename(`Example / Title: "Test" | video?`)
	want := `Example _ Title_ _Test_ _ video_`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeFilenameCollapsesUnderscores(t *testing.T) {
	got := SanitizeFilename("a///b")
	if got != "a_b" {
		t.Errorf("got %q, want a_b", got)
	}
}

func TestSanitizeFilenameEmptyBecomesUntitled(t *testing.T) {
	if got := SanitizeFilename("   ...   "); got != "untitled" {
		t.Errorf("got %q, want untitled", got)
	}
	if got := SanitizeFilename(""); got != "untitled" {
		t.Errorf("got %q, want untitled", got)
	}
}

func TestSanitizeFilenameTrimsDotsAndSpaces(t *testing.T) {
	if got := SanitizeFilename("  .file.  "); got != "file" {
		t.Errorf("got %q, want file", got)
	}
}

func TestSanitizeFilenameIsIdempotent(t *testing.T) {
	inputs := []string{
		`weird/\:*?"<>|name`,
		"plain name",
		"",
		"   ",
		"a////b////c",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		twice := SanitizeFilename(once)
		if once != twice {
			t.Errorf("SanitizeFilename not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestSanitizeFilenameClampsLength(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	got := SanitizeFilename(string(long))
	if len(got) > maxComponentBytes {
		t.Errorf("len = %d, want <= %d", len(got), maxComponentBytes)
	}
}
