// Package metadata reads the optional "<clip>.json" sidecar file next
// to an ingested audio file, supplying the track title/artist the
// distilled pipeline otherwise has no source for beyond the bare
// filename.
package metadata

import (
	"fmt"
	"os"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/tidwall/gjson"

	"landmarkfp/errs"
)

const stage = "metadata"

// Sidecar holds the fields a clip's JSON sidecar can supply. Title is
// required when a sidecar exists at all; everything else is optional.
type Sidecar struct {
	Title    string
	Artist   string
	Album    string
	Tags     []string
}

// SidecarPath returns the expected sidecar path for an audio file path,
// e.g. "track.mp3" -> "track.mp3.json".
func SidecarPath(audioPath string) string {
	return audioPath + ".json"
}

// Load reads and parses the sidecar at path. jsonparser pulls the
// required top-level scalars without an intermediate struct allocation;
// gjson reads the optional top-level "tags" array of strings.
func Load(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, errs.Wrap(stage, errs.InputError, fmt.Errorf("reading %s: %w", path, err))
	}

	title, err := jsonparser.GetString(data, "title")
	if err != nil {
		return Sidecar{}, errs.Wrap(stage, errs.InputError, fmt.Errorf("%s missing required \"title\" field: %w", path, err))
	}

	sc := Sidecar{Title: strings.TrimSpace(title)}

	if artist, err := jsonparser.GetString(data, "artist"); err == nil {
		sc.Artist = strings.TrimSpace(artist)
	}
	if album, err := jsonparser.GetString(data, "album"); err == nil {
		sc.Album = strings.TrimSpace(album)
	}

	tagsResult := gjson.GetBytes(data, "tags")
	if tagsResult.IsArray() {
		for _, t := range tagsResult.Array() {
			if s := strings.TrimSpace(t.String()); s != "" {
				sc.Tags = append(sc.Tags, s)
			}
		}
	}

	return sc, nil
}

// Resolve reads the sidecar next to audioPath, if any, falling back to
// fallback as the title when no usable sidecar exists. The returned
// Sidecar's Title is always non-empty.
func Resolve(audioPath, fallback string) Sidecar {
	sidecarPath := SidecarPath(audioPath)
	if _, err := os.Stat(sidecarPath); err != nil {
		return Sidecar{Title: fallback}
	}

	sc, err := Load(sidecarPath)
	if err != nil || sc.Title == "" {
		return Sidecar{Title: fallback}
	}
	return sc
}

// TitleFor returns the sidecar's title when a usable one exists next
// to audioPath, otherwise fallback.
func TitleFor(audioPath, fallback string) string {
	return Resolve(audioPath, fallback).Title
}
