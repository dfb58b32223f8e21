package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/netdoctor/netdoctor/internal/models"
	"github.com/netdoctor/netdoctor/internal/probe"
)

// Serves /network-health for local runs of the http health probe. With
// -target it measures for real, otherwise it reports the fixed flag values.
func main() {
	addr := flag.String("addr", ":5000", "listen address")
	target := flag.String("target", "", "host:port to sample with TCP handshakes; empty serves fixed values")
	count := flag.Int("count", 4, "handshakes per measurement")
	latency := flag.Float64("latency", 40, "fixed latency in ms")
	loss := flag.Float64("loss", 0, "fixed packet loss in percent")
	jitter := flag.Float64("jitter", 5, "fixed jitter in ms")
	errorCount := flag.Int("errors", 0, "fixed error count")
	flag.Parse()

	fixed := models.HealthMeasurement{LatencyMS: *latency, PacketLoss: *loss, JitterMS: *jitter, ErrorCount: *errorCount}
	var sampler *probe.TCPSampler
	if *target != "" {
		sampler = probe.NewTCPSampler(*target, *count, 100*time.Millisecond, 2*time.Second)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/network-health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if sampler == nil {
			writeJSON(w, probe.NewHealthPayload(fixed))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		m, err := sampler.Measure(ctx)
		if err != nil {
			writeJSON(w, probe.HealthPayload{Status: "critical", Reason: "Error: " + err.Error()})
			return
		}
		writeJSON(w, probe.NewHealthPayload(m))
	})

	logger := log.New(os.Stdout, "mock-health ", log.LstdFlags|log.Lmsgprefix)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
