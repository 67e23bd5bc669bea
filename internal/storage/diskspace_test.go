package storage

import "testing"

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{
		1024:              "1.00 KB",
		1024 * 1024:       "1.00 MB",
		1024 * 1024 * 1024: "1.00 GB",
		1536 * 1024 * 1024: "1.50 GB",
	}
	for in, want := range cases {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckFreeSpaceZeroRequiredSanityCheck(t *testing.T) {
	dir := t.TempDir()
	if err := CheckFreeSpace(dir, 0); err != nil {
		t.Errorf("unexpected error on a real, presumably non-full filesystem: %v", err)
	}
}

func TestCheckFreeSpaceUnreasonableRequirementFails(t *testing.T) {
	dir := t.TempDir()
	// No real filesystem has an exabyte free; this should always trip
	// InsufficientSpace without depending on the test host's actual
	// capacity.
	const absurd = uint64(1) << 60
	if err := CheckFreeSpace(dir, absurd); err == nil {
		t.Errorf("expected InsufficientSpace for an absurd requirement")
	}
}
