package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSidecar(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing sidecar: %v", err)
	}
	return path
}

func TestLoadRequiresTitle(t *testing.T) {
	dir := t.TempDir()
	path := writeSidecar(t, dir, "clip.wav.json", `{"artist":"someone"}`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing title field")
	}
}

func TestLoadParsesOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := writeSidecar(t, dir, "clip.wav.json", `{
		"title": "Track One",
		"artist": "Some Artist",
		"tags": ["live", "remaster"]
	}`)

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Title != "Track One" {
		t.Errorf("Title = %q, want %q", sc.Title, "Track One")
	}
	if sc.Artist != "Some Artist" {
		t.Errorf("Artist = %q, want %q", sc.Artist, "Some Artist")
	}
	if len(sc.Tags) != 2 || sc.Tags[0] != "live" || sc.Tags[1] != "remaster" {
		t.Errorf("Tags = %v, want [live remaster]", sc.Tags)
	}
}

func TestTitleForFallsBackWhenSidecarMissing(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clip.wav")

	got := TitleFor(audioPath, "clip")
	if got != "clip" {
		t.Errorf("TitleFor() = %q, want fallback %q", got, "clip")
	}
}

func TestTitleForUsesSidecarWhenPresent(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clip.wav")
	writeSidecar(t, dir, "clip.wav.json", `{"title":"Real Title"}`)

	got := TitleFor(audioPath, "clip")
	if got != "Real Title" {
		t.Errorf("TitleFor() = %q, want %q", got, "Real Title")
	}
}

func TestResolveSurfacesFullSidecar(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clip.wav")
	writeSidecar(t, dir, "clip.wav.json", `{
		"title": "Real Title",
		"artist": "Some Artist",
		"album": "Some Album",
		"tags": ["live"]
	}`)

	sc := Resolve(audioPath, "clip")
	if sc.Title != "Real Title" || sc.Artist != "Some Artist" || sc.Album != "Some Album" {
		t.Errorf("Resolve() = %+v, want title/artist/album populated from sidecar", sc)
	}
	if len(sc.Tags) != 1 || sc.Tags[0] != "live" {
		t.Errorf("Tags = %v, want [live]", sc.Tags)
	}
}

func TestResolveFallsBackWhenSidecarMissing(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clip.wav")

	sc := Resolve(audioPath, "clip")
	if sc.Title != "clip" {
		t.Errorf("Resolve().Title = %q, want fallback %q", sc.Title, "clip")
	}
	if sc.Artist != "" || sc.Album != "" || sc.Tags != nil {
		t.Errorf("Resolve() without sidecar should have no artist/album/tags, got %+v", sc)
	}
}
