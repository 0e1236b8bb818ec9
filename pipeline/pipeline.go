// Package pipeline wires the fingerprinting stages (stft, peaks,
// landmark) and a store together into the add/match operations the
// rest of the tool exposes (component C6, the orchestrator).
package pipeline

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"landmarkfp/audio"
	"landmarkfp/config"
	"landmarkfp/errs"
	"landmarkfp/landmark"
	"landmarkfp/match"
	"landmarkfp/metadata"
	"landmarkfp/peaks"
	"landmarkfp/stft"
	"landmarkfp/store"
)

const stage = "pipeline"

// Pipeline bundles a store and the fingerprint parameters every stage
// is run with.
type Pipeline struct {
	Store  store.Store
	Params config.Parameters
}

// New returns a Pipeline backed by st, run with p.
func New(st store.Store, p config.Parameters) *Pipeline {
	return &Pipeline{Store: st, Params: p}
}

// Fingerprint runs C1-C3 over samples and returns the resulting
// hash -> PairRecord set.
func (pl *Pipeline) Fingerprint(samples []int16, sampleRate int) (map[uint32]landmark.PairRecord, error) {
	spectrogram, err := stft.Spectrogram(samples, sampleRate, pl.Params.WindowLengthSec)
	if err != nil {
		return nil, err
	}

	filtered, err := peaks.MaxFilter(spectrogram, pl.Params.KernelSize)
	if err != nil {
		return nil, err
	}

	peakSeq, err := peaks.Find(spectrogram, filtered, pl.Params.MagThreshold)
	if err != nil {
		return nil, err
	}

	return landmark.Hash(peakSeq, pl.Params)
}

// Add decodes path, fingerprints it, resolves a title (sidecar JSON if
// present, else the bare filename), and stores the result under that
// title, replacing any prior fingerprints for the same track.
func (pl *Pipeline) Add(path string) (title string, fingerprintCount int, err error) {
	start := time.Now()

	samples, sampleRate, err := audio.Decode(path)
	if err != nil {
		return "", 0, errs.Wrap(stage, errs.InputError, err)
	}

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sc := metadata.Resolve(path, fallback)
	title = sc.Title

	records, err := pl.Fingerprint(samples, sampleRate)
	if err != nil {
		return "", 0, err
	}

	trackID, err := pl.Store.AddTrack(title)
	if err != nil {
		return "", 0, errs.Wrap(stage, errs.StoreError, err)
	}

	if err := pl.Store.ReplaceFingerprints(trackID, records); err != nil {
		return "", 0, errs.Wrap(stage, errs.StoreError, err)
	}

	slog.Info("track added",
		slog.String("title", title),
		slog.String("artist", sc.Artist),
		slog.String("album", sc.Album),
		slog.Any("tags", sc.Tags),
		slog.Uint64("track_id", uint64(trackID)),
		slog.Int("fingerprints", len(records)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return title, len(records), nil
}

// AddPath processes a single file or walks a directory non-recursively
// for .wav files, fingerprinting each with a bounded worker pool the
// way a large batch ingest needs to avoid starving the machine.
func (pl *Pipeline) AddPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errs.Wrap(stage, errs.InputError, err)
	}

	if !info.IsDir() {
		title, count, err := pl.Add(path)
		if err != nil {
			return err
		}
		log.Printf("[pipeline] added %q (%d fingerprints)", title, count)
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return errs.Wrap(stage, errs.InputError, err)
	}

	var filePaths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			filePaths = append(filePaths, filepath.Join(path, e.Name()))
		}
	}

	pl.processFilesConcurrently(filePaths)
	return nil
}

func (pl *Pipeline) processFilesConcurrently(filePaths []string) {
	numFiles := len(filePaths)
	if numFiles == 0 {
		return
	}

	maxWorkers := runtime.NumCPU() / 2
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if numFiles < maxWorkers {
		maxWorkers = numFiles
	}

	jobs := make(chan string, numFiles)
	results := make(chan error, numFiles)

	for w := 0; w < maxWorkers; w++ {
		go func() {
			for fp := range jobs {
				_, _, err := pl.Add(fp)
				results <- err
			}
		}()
	}

	for _, fp := range filePaths {
		jobs <- fp
	}
	close(jobs)

	successCount, errorCount := 0, 0
	for i := 0; i < numFiles; i++ {
		if err := <-results; err != nil {
			log.Printf("[pipeline] error: %v", err)
			errorCount++
		} else {
			successCount++
		}
	}

	log.Printf("[pipeline] processed %d files: %d ok, %d failed", numFiles, successCount, errorCount)
}

// Match decodes path, fingerprints it, and scores the result against
// the store.
func (pl *Pipeline) Match(path string) ([]match.Candidate, error) {
	start := time.Now()

	samples, sampleRate, err := audio.Decode(path)
	if err != nil {
		return nil, errs.Wrap(stage, errs.InputError, err)
	}

	records, err := pl.Fingerprint(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	candidates, err := match.Score(records, pl.Store)
	if err != nil {
		return nil, err
	}

	slog.Info("match scored",
		slog.Int("query_fingerprints", len(records)),
		slog.Int("candidates", len(candidates)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return candidates, nil
}

// Erase removes every track and fingerprint from the store. audioDir,
// when non-empty, also removes every audio file directly inside it.
func Erase(st store.Store, audioDir string) error {
	if err := st.EraseAll(); err != nil {
		return errs.Wrap(stage, errs.StoreError, err)
	}

	if audioDir == "" {
		return nil
	}

	entries, err := os.ReadDir(audioDir)
	if err != nil {
		return errs.Wrap(stage, errs.InputError, err)
	}

	var removed int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch ext {
		case ".wav", ".mp3", ".m4a", ".flac", ".ogg":
			if err := os.Remove(filepath.Join(audioDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	log.Printf("[pipeline] removed %d audio files from %s", removed, audioDir)
	return nil
}
