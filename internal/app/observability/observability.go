package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"elearning/internal/auth"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type Collector struct {
	db *sql.DB

	mu           sync.RWMutex
	requestStats map[key]stat
	gradedTotal  map[string]int64
	startedAt    time.Time
}

func NewCollector(db *sql.DB) *Collector {
	return &Collector{
		db:           db,
		requestStats: make(map[key]stat),
		gradedTotal:  make(map[string]int64),
		startedAt:    time.Now(),
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

type userSlotKey struct{}

// userSlot is filled by TagUser once authentication has run further down the
// chain, so the access log line can carry the learner id.
type userSlot struct {
	id string
}

// TagUser copies the authenticated user into the request's log slot. Mount it
// after auth middleware.
func TagUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(userSlotKey{}).(*userSlot); ok {
			if u, ok := auth.CurrentUser(r.Context()); ok {
				slot.id = u.ID
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slot := &userSlot{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), userSlotKey{}, slot)))

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		entry := map[string]any{
			"request_id":    middleware.GetReqID(r.Context()),
			"user_id":       slot.id,
			"submission_id": extractSubmissionID(r.URL.Path),
			"method":        r.Method,
			"path":          path,
			"status":        rec.status,
			"latency_ms":    latencyMS,
			"remote_ip":     strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

// RecordGraded counts a graded submission by outcome status.
func (c *Collector) RecordGraded(status string) {
	c.mu.Lock()
	c.gradedTotal[status]++
	c.mu.Unlock()
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	graded := make(map[string]int64, len(c.gradedTotal))
	for k, v := range c.gradedTotal {
		graded[k] = v
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# elearning observability metrics\n")
	sb.WriteString("# TYPE elearning_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("elearning_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE elearning_http_requests_total counter\n")
	sb.WriteString("# TYPE elearning_http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE elearning_http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("elearning_http_requests_total{%s} %d\n", labels, s.Count))
		sb.WriteString(fmt.Sprintf("elearning_http_request_latency_ms_sum{%s} %.3f\n", labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("elearning_http_request_latency_ms_avg{%s} %.3f\n", labels, avg))
	}

	statuses := make([]string, 0, len(graded))
	for st := range graded {
		statuses = append(statuses, st)
	}
	sort.Strings(statuses)
	sb.WriteString("# TYPE elearning_quiz_submissions_total counter\n")
	for _, st := range statuses {
		sb.WriteString(fmt.Sprintf("elearning_quiz_submissions_total{status=\"%s\"} %d\n", st, graded[st]))
	}

	if c.db != nil {
		dbs := c.db.Stats()
		sb.WriteString("# TYPE elearning_db_open_connections gauge\n")
		sb.WriteString(fmt.Sprintf("elearning_db_open_connections %d\n", dbs.OpenConnections))
		sb.WriteString("# TYPE elearning_db_in_use_connections gauge\n")
		sb.WriteString(fmt.Sprintf("elearning_db_in_use_connections %d\n", dbs.InUse))
		sb.WriteString("# TYPE elearning_db_idle_connections gauge\n")
		sb.WriteString(fmt.Sprintf("elearning_db_idle_connections %d\n", dbs.Idle))
		sb.WriteString("# TYPE elearning_db_wait_count counter\n")
		sb.WriteString(fmt.Sprintf("elearning_db_wait_count %d\n", dbs.WaitCount))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// normalizedPath collapses numeric and UUID segments to {id} so metric labels
// stay bounded.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = "{id}"
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func extractSubmissionID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "quiz_submission" && parts[i+1] != "submit_quiz" {
			return parts[i+1]
		}
	}
	return ""
}
