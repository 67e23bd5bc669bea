package model

import "testing"

func TestHistoryAppendCap(t *testing.T) {
	var h History
	for i := 0; i < MaxHistoryEntries+10; i++ {
		h.Append(CompletedDownload{ID: string(rune('a' + i%26))})
	}
	if len(h.Downloads) != MaxHistoryEntries {
		t.Fatalf("len = %d, want %d", len(h.Downloads), MaxHistoryEntries)
	}
}

func TestClampConcurrency(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 3: 3, 5: 5, 6: 5, -2: 1}
	for in, want := range cases {
		if got := ClampConcurrency(in); got != want {
			t.Errorf("ClampConcurrency(%d) = %d, want %d", in, got, want)
		}
	}
}
