package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"

	"landmarkfp/config"
	"landmarkfp/pipeline"
	"landmarkfp/store/sqlitestore"
)

var (
	successColor = color.New(color.FgGreen)
	errColor     = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
)

func openStore() (*sqlitestore.DB, error) {
	return sqlitestore.Open(dbPath)
}

func newPipeline() (*pipeline.Pipeline, *sqlitestore.DB, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(st, config.Defaults()), st, nil
}

func matchCmd(filePath string) {
	pl, st, err := newPipeline()
	if err != nil {
		errColor.Printf("error opening store: %v\n", err)
		return
	}
	defer st.Close()

	start := time.Now()
	candidates, err := pl.Match(filePath)
	if err != nil {
		errColor.Printf("error matching: %v\n", err)
		return
	}
	elapsed := time.Since(start)

	if len(candidates) == 0 {
		fmt.Println("no match found.")
		fmt.Printf("search took: %s\n", elapsed)
		return
	}

	limit := 20
	if len(candidates) < limit {
		limit = len(candidates)
	}

	fmt.Println("matches:")
	for _, c := range candidates[:limit] {
		offsetSec := float64(c.BestOffset) * pl.Params.WindowLengthSec
		fmt.Printf("\t- %s (count=%d, bins=%d, offset=%d, offset_sec=%.2f)\n",
			c.Title, c.Count, c.DistinctBins, c.BestOffset, offsetSec)
	}

	fmt.Printf("\nsearch took: %s\n", elapsed)
	top := candidates[0]
	successColor.Printf("\nfinal prediction: %s (count=%d)\n", top.Title, top.Count)
}

func addPathCmd(path string) {
	pl, st, err := newPipeline()
	if err != nil {
		errColor.Printf("error opening store: %v\n", err)
		return
	}
	defer st.Close()

	if err := pl.AddPath(path); err != nil {
		errColor.Printf("error adding %s: %v\n", path, err)
	}
}

func eraseCmd(removeAudioFiles bool) {
	st, err := openStore()
	if err != nil {
		errColor.Printf("error opening store: %v\n", err)
		return
	}
	defer st.Close()

	audioDir := ""
	if removeAudioFiles {
		audioDir = songsDir
	}

	if err := pipeline.Erase(st, audioDir); err != nil {
		errColor.Printf("error erasing: %v\n", err)
		return
	}
	successColor.Println("erase complete")
}

func serve(port string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/add", handleAdd)
	mux.HandleFunc("/api/match", handleMatch)
	mux.HandleFunc("/api/stats", handleStats)
	mux.HandleFunc("/api/tracks", handleTracks)

	mux.Handle("/", http.FileServer(http.Dir("static")))

	handler := requestLogger(corsMiddleware(mux))

	infoColor.Printf("starting server on port %s\n", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
