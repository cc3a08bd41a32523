package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	applog "github.com/Amr-9/SeedHunter/internal/logger"
	"github.com/Amr-9/SeedHunter/pkg/generator"
	"github.com/Amr-9/SeedHunter/pkg/grind"
)

// GrindResponse is the JSON body of a successful grind.
type GrindResponse struct {
	Address           string  `json:"address" yaml:"address"`
	Seed              string  `json:"seed" yaml:"seed"`
	SeedBytes         []int   `json:"seed_bytes" yaml:"seed_bytes,flow"`
	Base              string  `json:"base" yaml:"base"`
	Owner             string  `json:"owner" yaml:"owner"`
	Prefix            *string `json:"prefix" yaml:"prefix"`
	Suffix            *string `json:"suffix" yaml:"suffix"`
	CaseInsensitive   bool    `json:"case_insensitive" yaml:"case_insensitive"`
	Attempts          uint64  `json:"attempts" yaml:"attempts"`
	DurationSeconds   float64 `json:"duration_seconds" yaml:"duration_seconds"`
	AttemptsPerSecond uint64  `json:"attempts_per_second" yaml:"attempts_per_second"`
}

// NewGrindResponse converts a search result into its wire form.
func NewGrindResponse(r *generator.Result) GrindResponse {
	raw := r.SeedBytes()
	seedBytes := make([]int, len(raw))
	for i, b := range raw {
		seedBytes[i] = int(b)
	}

	return GrindResponse{
		Address:           r.Address,
		Seed:              r.SeedText(),
		SeedBytes:         seedBytes,
		Base:              r.Base.String(),
		Owner:             r.Owner.String(),
		Prefix:            optional(r.Prefix),
		Suffix:            optional(r.Suffix),
		CaseInsensitive:   r.CaseInsensitive,
		Attempts:          r.Attempts,
		DurationSeconds:   r.DurationSeconds(),
		AttemptsPerSecond: r.AttemptsPerSecond,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":     serviceName,
		"version":     s.version,
		"description": "Grinds Solana create_with_seed vanity addresses",
		"endpoints": map[string]string{
			"GET /":             "API documentation (this endpoint)",
			"GET /health":       "Health check",
			"GET /grind":        "Grind a vanity address synchronously",
			"GET /grind/stream": "Grind over a WebSocket with live progress",
			"GET /metrics":      "Prometheus metrics",
		},
		"query_parameters": map[string]string{
			"prefix":           "Overrides VANITY_DEFAULT_PREFIX",
			"suffix":           "Overrides VANITY_DEFAULT_SUFFIX",
			"case_insensitive": "Overrides VANITY_DEFAULT_CASE_INSENSITIVE",
			"cpus":             "Overrides VANITY_DEFAULT_CPUS; rejected above VANITY_MAX_CONCURRENT_WORKERS",
			"timeout":          "Overrides VANITY_TIMEOUT (e.g. 30s, or whole seconds)",
		},
		"configuration": map[string]interface{}{
			"note":          "Default grinding parameters are configured via environment variables",
			"cpus_note":     "VANITY_DEFAULT_CPUS above VANITY_MAX_CONCURRENT_WORKERS (default: all CPUs) is clamped to it",
			"required_vars": []string{"VANITY_DEFAULT_BASE", "VANITY_DEFAULT_OWNER"},
			"optional_vars": []string{
				"VANITY_DEFAULT_PREFIX",
				"VANITY_DEFAULT_SUFFIX",
				"VANITY_DEFAULT_CPUS",
				"VANITY_DEFAULT_CASE_INSENSITIVE",
				"VANITY_TIMEOUT",
				"VANITY_HOST",
				"VANITY_PORT",
				"VANITY_MAX_CONCURRENT_WORKERS",
				"VANITY_TRUST_PROXY_HEADERS",
			},
		},
		"example_usage": map[string]string{
			"curl":        "curl -X GET http://localhost:8080/grind",
			"description": "Returns vanity address result when found",
		},
		"response_format": map[string]string{
			"address":             "Generated vanity address",
			"seed":                "Seed used to generate the address (string)",
			"seed_bytes":          "Seed used to generate the address (byte array)",
			"base":                "Base pubkey used",
			"owner":               "Owner pubkey used",
			"prefix":              "Target prefix (if specified)",
			"suffix":              "Target suffix (if specified)",
			"case_insensitive":    "Whether case-insensitive matching was used",
			"attempts":            "Number of attempts made",
			"duration_seconds":    "Time taken in seconds",
			"attempts_per_second": "Performance metric",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: s.version,
	})
}

func (s *Server) handleGrind(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.prepare(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.grindContext(r.Context())
	defer cancel()

	result, err := s.grind(ctx, sess)
	if err != nil {
		switch {
		case s.ctx.Err() != nil:
			writeError(w, http.StatusServiceUnavailable, shutdownMessage)
		case r.Context().Err() != nil:
			applog.FromContext(ctx).Info("grind abandoned by client", zap.Error(err))
		default:
			status, msg := grindFailure(err)
			writeError(w, status, msg)
		}
		return
	}

	writeJSON(w, http.StatusOK, NewGrindResponse(result))
}

// prepare builds the session for r, answering the request itself on failure.
func (s *Server) prepare(w http.ResponseWriter, r *http.Request) (*grind.Session, bool) {
	req, err := s.requestFromQuery(r.URL.Query())
	if err != nil {
		s.metrics.GrindsTotal.WithLabelValues(outcomeInvalid).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	sess, err := grind.NewSession(req, s.grindOptions...)
	if err != nil {
		s.metrics.GrindsTotal.WithLabelValues(outcomeInvalid).Inc()
		applog.FromContext(r.Context()).Error("invalid grind configuration", zap.Error(err))
		_, msg := grindFailure(err)
		writeError(w, http.StatusInternalServerError, msg)
		return nil, false
	}

	return sess, true
}

// requestFromQuery merges the configured defaults with query overrides.
func (s *Server) requestFromQuery(q url.Values) (grind.Request, error) {
	d := s.config.Grind
	req := grind.Request{
		Base:            d.Base,
		Owner:           d.Owner,
		Prefix:          d.Prefix,
		Suffix:          d.Suffix,
		CaseInsensitive: d.CaseInsensitive,
		Workers:         s.defaultCPUs,
		Timeout:         d.Timeout,
	}

	if q.Has("prefix") {
		req.Prefix = q.Get("prefix")
	}
	if q.Has("suffix") {
		req.Suffix = q.Get("suffix")
	}
	if q.Has("case_insensitive") {
		v, err := strconv.ParseBool(q.Get("case_insensitive"))
		if err != nil {
			return req, fmt.Errorf("invalid case_insensitive %q: must be a boolean", q.Get("case_insensitive"))
		}
		req.CaseInsensitive = v
	}
	if q.Has("cpus") {
		n, err := strconv.Atoi(q.Get("cpus"))
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid cpus %q: must be a non-negative integer", q.Get("cpus"))
		}
		req.Workers = n
	}
	if q.Has("timeout") {
		timeout, err := parseTimeout(q.Get("timeout"))
		if err != nil {
			return req, err
		}
		req.Timeout = timeout
	}

	if req.Workers == 0 {
		req.Workers = s.defaultWorkers()
	}
	if req.Workers > s.workerLimit {
		return req, fmt.Errorf("invalid cpus %d: exceeds the server limit of %d", req.Workers, s.workerLimit)
	}

	return req, nil
}

// parseTimeout accepts a Go duration ("90s", "2m") or whole seconds ("90").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("invalid timeout %q: must not be negative", v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be a duration such as 30s", v)
	}
	return d, nil
}

const shutdownMessage = "Grinding failed: server shutting down"

// grindContext returns a context for one grind that ends with parent or when
// the server stops, whichever comes first.
func (s *Server) grindContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// grind runs sess within the host worker budget and records metrics.
func (s *Server) grind(ctx context.Context, sess *grind.Session) (*generator.Result, error) {
	log := applog.FromContext(ctx)

	weight := int64(sess.Workers())
	if err := s.workers.Acquire(ctx, weight); err != nil {
		s.metrics.GrindsTotal.WithLabelValues(outcomeCanceled).Inc()
		return nil, err
	}
	defer s.workers.Release(weight)

	s.metrics.GrindsInFlight.Inc()
	s.metrics.WorkersInUse.Add(float64(weight))
	defer func() {
		s.metrics.GrindsInFlight.Dec()
		s.metrics.WorkersInUse.Sub(float64(weight))
	}()

	criteria := sess.Criteria()
	log.Debug("grind started",
		zap.String("prefix", criteria.Prefix),
		zap.String("suffix", criteria.Suffix),
		zap.Bool("case_insensitive", criteria.CaseInsensitive),
		zap.Int("workers", sess.Workers()),
	)

	start := time.Now()
	result, err := sess.Run(ctx)
	s.metrics.GrindDuration.Observe(time.Since(start).Seconds())

	attempts := sess.Stats().Attempts
	if result != nil && result.Attempts > attempts {
		attempts = result.Attempts
	}
	s.metrics.AttemptsTotal.Add(float64(attempts))
	s.metrics.GrindsTotal.WithLabelValues(outcomeOf(err)).Inc()

	if err != nil {
		log.Warn("grind failed", zap.Error(err), zap.Uint64("attempts", attempts))
		return nil, err
	}

	log.Info("grind succeeded",
		zap.String("address", result.Address),
		zap.Uint64("attempts", result.Attempts),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeFound
	case errors.Is(err, generator.ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeFailed
	}
}

// grindFailure maps a grind error to its HTTP status and message.
func grindFailure(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrInvalidBase):
		return http.StatusInternalServerError, fmt.Sprintf("Invalid base pubkey in config: %v", err)
	case errors.Is(err, generator.ErrInvalidOwner):
		return http.StatusInternalServerError, fmt.Sprintf("Invalid owner pubkey in config: %v", err)
	case errors.Is(err, generator.ErrTimeout):
		return http.StatusGatewayTimeout, fmt.Sprintf("Grinding failed: %v", err)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Grinding failed: %v", err)
	}
}
