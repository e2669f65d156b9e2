package main

import (
	"testing"

	"github.com/joyride-robotics/joyride/internal/board"
)

func TestBuildBoardDisabled(t *testing.T) {
	conn, err := buildBoard(true, false, "", 0)
	if err != nil {
		t.Fatalf("buildBoard: %v", err)
	}
	if _, ok := conn.(*board.DisabledMux); !ok {
		t.Errorf("expected a disabled board, got %T", conn)
	}
	if !conn.Healthy() {
		t.Error("a disabled board reports healthy")
	}
}

func TestBuildBoardDevRequiresFixtures(t *testing.T) {
	// Run from a directory without fixtures.txt.
	t.Chdir(t.TempDir())
	if _, err := buildBoard(false, true, "", 0); err == nil {
		t.Error("expected an error without a fixtures file")
	}
}
