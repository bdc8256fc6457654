// Package httpapi exposes the calendar engine over plain net/http: a day
// endpoint and a range endpoint, both backed by a record.Assembler.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hsato/toki/astronomy/ephemeris"
	"github.com/hsato/toki/cache"
	"github.com/hsato/toki/log"
	"github.com/hsato/toki/lunisolar"
	"github.com/hsato/toki/record"
	"github.com/rs/cors"
)

var logger = log.Logger()

// Server is the HTTP surface over a record.Assembler, with an optional
// Redis cache for day records and a handle on the ephemeris manager for
// health/cache-stat reporting.
type Server struct {
	assembler      *record.Assembler
	manager        *ephemeris.Manager
	cache          *cache.RedisCache
	ephemerisLabel string
	addr           string
	server         *http.Server
}

// NewServer constructs a Server. redisCache may be nil to disable response
// caching; manager may be nil if the caller has no health/cache-stat
// reporting to offer (e.g. in tests against a bare assembler).
func NewServer(addr string, assembler *record.Assembler, manager *ephemeris.Manager, redisCache *cache.RedisCache, ephemerisLabel string) *Server {
	return &Server{
		assembler:      assembler,
		manager:        manager,
		cache:          redisCache,
		ephemerisLabel: ephemerisLabel,
		addr:           addr,
	}
}

// Start builds the router and blocks serving HTTP until the listener
// closes or returns an error.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/days/", s.handleDay)
	mux.HandleFunc("/v1/ranges/", s.handleRange)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/admin/cache", s.handleCache)

	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = corsMiddleware().Handler(handler)

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("HTTP server starting", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleDay serves GET /v1/days/{date}?lat=&lon=.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set("X-Request-Id", requestID)

	if r.Method != http.MethodGet {
		writeError(w, r, requestID, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported", nil)
		return
	}

	dateStr := strings.TrimPrefix(r.URL.Path, "/v1/days/")
	d, err := parseCivilDate(dateStr)
	if err != nil {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), map[string]interface{}{"date": dateStr})
		return
	}

	lat, lon, err := parseLatLon(r)
	if err != nil {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var day *record.DayRecord
	cacheHit := false

	if s.cache != nil {
		key := s.cache.GenerateCacheKey(d.String(), s.ephemerisLabel, lat, lon)
		if entry, err := s.cache.Get(ctx, key); err != nil {
			logger.Error("cache get error", "error", err, "key", key)
		} else if entry != nil {
			day = entry.Day
			cacheHit = true
		}
	}

	if day == nil {
		day, err = s.assembler.Day(ctx, d)
		if err != nil {
			writeDomainError(w, r, requestID, err)
			return
		}
		if s.cache != nil {
			key := s.cache.GenerateCacheKey(d.String(), s.ephemerisLabel, lat, lon)
			if err := s.cache.Set(ctx, key, day); err != nil {
				logger.Error("cache set error", "error", err, "key", key)
			}
		}
	}

	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	writeJSON(w, day)
}

// handleRange serves GET /v1/ranges/{start}/{end}?lat=&lon=.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set("X-Request-Id", requestID)

	if r.Method != http.MethodGet {
		writeError(w, r, requestID, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is supported", nil)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/ranges/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", "path must be /v1/ranges/{start}/{end}", nil)
		return
	}

	start, err := parseCivilDate(parts[0])
	if err != nil {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), map[string]interface{}{"start": parts[0]})
		return
	}
	end, err := parseCivilDate(parts[1])
	if err != nil {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), map[string]interface{}{"end": parts[1]})
		return
	}

	lat, lon, err := parseLatLon(r)
	if err != nil {
		writeError(w, r, requestID, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	rangeRecord, cacheHit, err := s.rangeWithCache(ctx, start, end, lat, lon)
	if err != nil {
		writeDomainError(w, r, requestID, err)
		return
	}

	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	writeJSON(w, rangeRecord)
}

// rangeWithCache serves a range from the per-day Redis cache when every day
// in [start, end] is already cached under the given ephemeris/location, and
// falls back to a full Assembler.Range computation otherwise, populating the
// per-day cache from the result with a single SetBatch for next time.
func (s *Server) rangeWithCache(ctx context.Context, start, end lunisolar.CivilDate, lat, lon float64) (*record.RangeRecord, bool, error) {
	if s.cache == nil {
		rng, err := s.assembler.Range(ctx, start, end)
		return rng, false, err
	}

	dates := civilDatesBetween(start, end)
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = s.cache.GenerateCacheKey(d.String(), s.ephemerisLabel, lat, lon)
	}

	hits, err := s.cache.GetBatch(ctx, keys)
	if err != nil {
		logger.Error("cache batch get error", "error", err)
		hits = nil
	}

	if len(hits) == len(keys) {
		days := make([]record.DayRecord, len(dates))
		for i, key := range keys {
			days[i] = *hits[key].Day
		}
		return rangeRecordFromDays(start, end, days), true, nil
	}

	rng, err := s.assembler.Range(ctx, start, end)
	if err != nil {
		return nil, false, err
	}

	batch := make(map[string]*record.DayRecord, len(rng.Days))
	for i, d := range dates {
		if i < len(rng.Days) {
			day := rng.Days[i]
			batch[keys[i]] = &day
		}
	}
	if err := s.cache.SetBatch(ctx, batch); err != nil {
		logger.Error("cache batch set error", "error", err)
	}

	return rng, false, nil
}

// civilDatesBetween enumerates the inclusive [start, end] civil date range.
func civilDatesBetween(start, end lunisolar.CivilDate) []lunisolar.CivilDate {
	var dates []lunisolar.CivilDate
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// rangeRecordFromDays reconstructs a RangeRecord from individually cached
// DayRecords, flattening each day's own Sekki/phase-event fields back into
// the range-level event lists the way Assembler.Range builds them directly.
func rangeRecordFromDays(start, end lunisolar.CivilDate, days []record.DayRecord) *record.RangeRecord {
	var sekki []record.SekkiEvent
	var phases []record.PhaseEvent
	for _, day := range days {
		if day.Sekki != nil {
			sekki = append(sekki, day.Sekki.Events...)
		}
		if day.Astronomy.PhaseEvent != nil {
			phases = append(phases, *day.Astronomy.PhaseEvent)
		}
	}

	meta := record.Meta{TZ: "Asia/Tokyo", DayBasis: "jst"}
	if len(days) > 0 {
		meta = days[0].Meta
	}

	return &record.RangeRecord{
		Meta:  meta,
		Range: record.RangeSpan{Start: start.String(), End: end.String()},
		Days:  days,
		Events: record.RangeEvents{
			Sekki:      sekki,
			MoonPhases: phases,
		},
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func parseCivilDate(s string) (lunisolar.CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return lunisolar.CivilDate{}, &lunisolar.ErrInvalidInput{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return lunisolar.CivilDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func parseLatLon(r *http.Request) (lat, lon float64, err error) {
	lat = 35.681236
	lon = 139.767125

	if s := r.URL.Query().Get("lat"); s != "" {
		lat, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, &lunisolar.ErrInvalidInput{Field: "lat", Reason: "must be a float"}
		}
	}
	if s := r.URL.Query().Get("lon"); s != "" {
		lon, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, &lunisolar.ErrInvalidInput{Field: "lon", Reason: "must be a float"}
		}
	}
	if lat < -90 || lat > 90 {
		return 0, 0, &lunisolar.ErrInvalidInput{Field: "lat", Reason: "must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return 0, 0, &lunisolar.ErrInvalidInput{Field: "lon", Reason: "must be between -180 and 180"}
	}
	return lat, lon, nil
}

func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return generateRequestID()
}

// loggingMiddleware logs each request with its outcome status and timing.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", wrapper.statusCode,
			"duration", duration,
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleHealth serves GET /v1/health: the ephemeris providers' polled
// availability plus in-memory cache hit rates, and the Redis response
// cache's own ping, when those collaborators are configured.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := struct {
		Status         string                                `json:"status"`
		Timestamp      string                                `json:"timestamp"`
		Service        string                                `json:"service"`
		ProviderHealth map[string]*astronomyHealthView        `json:"provider_health,omitempty"`
		EphemerisCache *ephemeris.CacheStats                  `json:"ephemeris_cache,omitempty"`
		ResponseCache  *responseCacheHealthView               `json:"response_cache,omitempty"`
	}{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "toki",
	}

	if s.manager != nil {
		if providerStatus, err := s.manager.GetHealthStatus(ctx); err == nil {
			status.ProviderHealth = make(map[string]*astronomyHealthView, len(providerStatus))
			for name, h := range providerStatus {
				status.ProviderHealth[name] = &astronomyHealthView{Available: h.Available, Version: h.Version}
				if !h.Available {
					status.Status = "degraded"
				}
			}
		}
		status.EphemerisCache = s.manager.CacheStats(ctx)
	}

	if s.cache != nil {
		view := &responseCacheHealthView{Healthy: s.cache.HealthCheck(ctx) == nil}
		status.ResponseCache = view
		if !view.Healthy {
			status.Status = "degraded"
		}
	}

	writeJSON(w, status)
}

type astronomyHealthView struct {
	Available bool   `json:"available"`
	Version   string `json:"version"`
}

type responseCacheHealthView struct {
	Healthy bool `json:"healthy"`
}

// handleCache serves the Redis response cache's operational endpoints:
// GET for its key count/TTL/Redis INFO snapshot, DELETE to flush it.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFor(r)
	w.Header().Set("X-Request-Id", requestID)

	if s.cache == nil {
		writeError(w, r, requestID, http.StatusServiceUnavailable, "CACHE_DISABLED", "no response cache configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		stats, err := s.cache.GetStats(ctx)
		if err != nil {
			writeError(w, r, requestID, http.StatusInternalServerError, "CACHE_STATS_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, stats)
	case http.MethodDelete:
		if err := s.cache.Clear(ctx); err != nil {
			writeError(w, r, requestID, http.StatusInternalServerError, "CACHE_CLEAR_FAILED", err.Error(), nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, requestID, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET and DELETE are supported", nil)
	}
}

func corsMiddleware() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func corsOrigins() []string {
	defaultOrigins := []string{"http://localhost:5173", "http://localhost:3000"}

	env := os.Getenv("TOKI_CORS_ALLOWED_ORIGINS")
	if env == "" {
		return defaultOrigins
	}

	var origins []string
	for _, origin := range strings.Split(env, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return defaultOrigins
	}
	return origins
}

// statusRecorder wraps http.ResponseWriter to capture the status code for
// logging.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
