package storage

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ytget/dlcore/internal/command/errs"
)

func TestValidatePathRejectsNullByte(t *testing.T) {
	_, err := ValidatePath("/tmp/foo\x00bar", "/tmp")
	assertPermissionDenied(t, err)
}

func TestValidatePathRejectsTraversal(t *testing.T) {
	_, err := ValidatePath("/tmp/../etc/passwd", "/tmp")
	assertPermissionDenied(t, err)
}

func TestValidatePathNormalizesRelative(t *testing.T) {
	got, err := ValidatePath("sub/dir", "/tmp/root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/tmp/root", "sub/dir")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValidatePathRejectsRestrictedSystemRoot(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("restricted system roots are only enforced on darwin")
	}
	_, err := ValidatePath("/usr/local/bin", "/tmp")
	assertPermissionDenied(t, err)
}

func TestValidatePathAllowsSiblingOfRestrictedRoot(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("restricted system roots are only enforced on darwin")
	}
	got, err := ValidatePath("/usrlocal/data", "/tmp")
	if err != nil {
		t.Fatalf("unexpected error for a path that merely shares a prefix with /usr: %v", err)
	}
	if got != "/usrlocal/data" {
		t.Errorf("got %q, want /usrlocal/data", got)
	}
}

func assertPermissionDenied(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error")
	}
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.PermissionDenied {
		t.Errorf("err = %v, want PermissionDenied", err)
	}
}

func TestCreateDirectoryStructureSoloVideo(t *testing.T) {
	root := t.TempDir()
	got, err := CreateDirectoryStructure(root, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != root {
		t.Errorf("got %q, want %q", got, root)
	}
}

func TestCreateDirectoryStructureChannelAndPlaylist(t *testing.T) {
	root := t.TempDir()
	got, err := CreateDirectoryStructure(root, "My Channel", "Best Of: 2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "My Channel", "Best Of_ 2024")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCreateDirectoryStructurePreExistingIsSuccess(t *testing.T) {
	root := t.TempDir()
	if _, err := CreateDirectoryStructure(root, "chan", ""); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := CreateDirectoryStructure(root, "chan", ""); err != nil {
		t.Fatalf("second call on pre-existing dir should succeed: %v", err)
	}
}
