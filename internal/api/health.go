package api

import (
	"fmt"
	"net/http"
	"time"
)

type healthResult struct {
	Healthy      bool   `json:"healthy"`
	Status       string `json:"status"`
	UptimeMs     int64  `json:"uptime_ms"`
	RequestCount uint64 `json:"request_count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.requestCount.Add(1)
	result := healthResult{
		Healthy:      true,
		Status:       "ok",
		UptimeMs:     time.Since(s.startTime).Milliseconds(),
		RequestCount: s.requestCount.Load(),
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	fmt.Fprintf(w, "# HELP autocompeter_requests_total Total number of requests\n")
	fmt.Fprintf(w, "# TYPE autocompeter_requests_total counter\n")
	fmt.Fprintf(w, "autocompeter_requests_total %d\n", s.requestCount.Load())

	fmt.Fprintf(w, "# HELP autocompeter_uptime_seconds Server uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE autocompeter_uptime_seconds gauge\n")
	fmt.Fprintf(w, "autocompeter_uptime_seconds %.2f\n", time.Since(s.startTime).Seconds())
}
