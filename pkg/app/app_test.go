package app

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/arcadefe/pkg/gamedb"
	"github.com/decker502/arcadefe/pkg/settings"
)

func TestEmulatorCommand(t *testing.T) {
	emu := settings.Emulator{
		Executable: "mame",
		Args:       []string{"-rompath", "/roms", "[name]", "-sound=[name].wav"},
	}
	cmd := emulatorCommand(emu, "pacman")
	got := strings.Join(cmd.Args[1:], " ")
	want := "-rompath /roms pacman -sound=pacman.wav"
	if got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestLoadGames(t *testing.T) {
	db, err := gamedb.Open(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if l := loadGames(db, ""); l.Size() != 0 {
		t.Errorf("empty database: size = %d, want 0", l.Size())
	}

	romlist := "pacman;Pac-Man;mame\ngalaga;Galaga;mame\n"
	if _, err := db.ImportRomlist("Arcade", strings.NewReader(romlist)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		list     string
		expected int
	}{
		{"first list by default", "", 2},
		{"named list", "Arcade", 2},
		{"unknown list", "Consoles", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if l := loadGames(db, tt.list); l.Size() != tt.expected {
				t.Errorf("size = %d, want %d", l.Size(), tt.expected)
			}
		})
	}
}

func TestLoadSettings_MissingFileFallsBack(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	sm, err := loadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if sm.LayoutPath("basic") == "" {
		t.Error("defaults should provide a layout path")
	}
}
