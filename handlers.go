package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"landmarkfp/audio"
	"landmarkfp/config"
	"landmarkfp/metadata"
	"landmarkfp/pipeline"
	"landmarkfp/utils"
)

const maxUploadSize = 5000 << 20 // 5 GB

type addResponse struct {
	Title           string `json:"title"`
	Fingerprints    int    `json:"fingerprints"`
	StorageEstimate string `json:"storageEstimate"`
}

type matchResult struct {
	Title         string  `json:"title"`
	Count         int     `json:"count"`
	BestOffset    int     `json:"bestOffset"`
	BestOffsetSec float64 `json:"bestOffsetSec"`
	DistinctBins  int     `json:"distinctBins"`
}

type statsResponse struct {
	TotalTracks       int    `json:"totalTracks"`
	TotalFingerprints int    `json:"totalFingerprints"`
	StorageEstimate   string `json:"storageEstimate"`
}

type trackResponse struct {
	ID    uint32 `json:"id"`
	Title string `json:"title"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	log.Printf("[error] %d: %s", status, msg)
	writeJSON(w, status, map[string]string{"error": msg})
}

func logMemUsage(label string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("[mem] %s: alloc=%s, sys=%s, heap_in_use=%s",
		label, formatBytes(int64(m.Alloc)), formatBytes(int64(m.Sys)), formatBytes(int64(m.HeapInuse)))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func saveUploadedFile(r *http.Request) (string, string, int64, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", 0, fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	if err := utils.CreateFolder("tmp"); err != nil {
		return "", "", 0, fmt.Errorf("failed to create tmp dir: %w", err)
	}

	tmpPath := filepath.Join("tmp", header.Filename)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return tmpPath, header.Filename, written, nil
}

func handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqStart := time.Now()
	log.Printf("[add] received request from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	tmpPath, filename, fileSize, err := saveUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(tmpPath)

	log.Printf("[add] file saved: %s (%s)", filename, formatBytes(fileSize))

	var sc metadata.Sidecar
	if loaded, err := metadata.Load(metadata.SidecarPath(tmpPath)); err == nil {
		sc = loaded
	}

	title := r.FormValue("title")
	if title == "" {
		title = sc.Title
	}
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	st, err := openStore()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	defer st.Close()
	pl := pipeline.New(st, config.Defaults())

	logMemUsage("before processing")

	samples, sampleRate, err := audio.Decode(tmpPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := pl.Fingerprint(samples, sampleRate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	trackID, err := st.AddTrack(title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := st.ReplaceFingerprints(trackID, records); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logMemUsage("after processing")

	resp := addResponse{
		Title:           title,
		Fingerprints:    len(records),
		StorageEstimate: formatBytes(int64(len(records)) * 8),
	}

	slog.Info("http add completed",
		slog.String("title", title),
		slog.String("artist", sc.Artist),
		slog.String("album", sc.Album),
		slog.Any("tags", sc.Tags),
		slog.Int("fingerprints", len(records)),
		slog.Duration("elapsed", time.Since(reqStart)),
	)
	writeJSON(w, http.StatusOK, resp)
}

func handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqStart := time.Now()
	log.Printf("[match] received request from %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	tmpPath, filename, fileSize, err := saveUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(tmpPath)

	log.Printf("[match] file saved: %s (%s)", filename, formatBytes(fileSize))
	logMemUsage("before processing")

	st, err := openStore()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	defer st.Close()
	pl := pipeline.New(st, config.Defaults())

	candidates, err := pl.Match(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("match error: %v", err))
		return
	}
	logMemUsage("after processing")

	limit := 20
	if len(candidates) < limit {
		limit = len(candidates)
	}

	results := make([]matchResult, 0, limit)
	for _, c := range candidates[:limit] {
		results = append(results, matchResult{
			Title:         c.Title,
			Count:         c.Count,
			BestOffset:    c.BestOffset,
			BestOffsetSec: float64(c.BestOffset) * pl.Params.WindowLengthSec,
			DistinctBins:  c.DistinctBins,
		})
	}

	slog.Info("http match completed",
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(reqStart)),
	)
	writeJSON(w, http.StatusOK, map[string]any{"matches": results})
}

func handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st, err := openStore()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	defer st.Close()

	trackCount, fpCount, err := st.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalTracks:       trackCount,
		TotalFingerprints: fpCount,
		StorageEstimate:   formatBytes(int64(fpCount) * 8),
	})
}

func handleTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	st, err := openStore()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	defer st.Close()

	tracks, err := st.ListTracks()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}

	out := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, trackResponse{ID: t.ID, Title: t.Title})
	}

	writeJSON(w, http.StatusOK, out)
}
