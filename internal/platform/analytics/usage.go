package analytics

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindhaven/mindhaven/internal/platform/auth"
)

// RequestMetric captures a single API request's metadata for usage tracking.
type RequestMetric struct {
	Timestamp    time.Time     `json:"timestamp"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	StatusCode   int           `json:"status_code"`
	Duration     time.Duration `json:"duration"`
	ActorID      string        `json:"actor_id"`
	EntityType   string        `json:"entity_type"`
	RequestSize  int64         `json:"request_size"`
	ResponseSize int64         `json:"response_size"`
}

type endpointStats struct {
	Path          string
	TotalRequests int64
	TotalErrors   int64
	TotalDuration int64 // nanoseconds
	StatusCounts  map[int]int64
	mu            sync.Mutex
}

type actorStats struct {
	ActorID       string
	TotalRequests int64
	TotalErrors   int64
	LastRequestAt time.Time
	mu            sync.Mutex
}

type entityStats struct {
	EntityType  string
	ReadCount   int64
	CreateCount int64
	UpdateCount int64
	DeleteCount int64
	ListCount   int64
	mu          sync.Mutex
}

// EndpointSummary provides aggregated statistics for a single API endpoint.
type EndpointSummary struct {
	Path            string        `json:"path"`
	TotalRequests   int64         `json:"total_requests"`
	ErrorRate       float64       `json:"error_rate"`
	AvgLatency      time.Duration `json:"avg_latency"`
	StatusBreakdown map[int]int64 `json:"status_breakdown"`
}

// ActorSummary provides aggregated statistics for a single admin user.
type ActorSummary struct {
	ActorID       string    `json:"actor_id"`
	TotalRequests int64     `json:"total_requests"`
	ErrorRate     float64   `json:"error_rate"`
	LastSeen      time.Time `json:"last_seen"`
}

// EntitySummary provides a CRUD breakdown for a single entity type.
type EntitySummary struct {
	EntityType  string `json:"entity_type"`
	ReadCount   int64  `json:"read_count"`
	CreateCount int64  `json:"create_count"`
	UpdateCount int64  `json:"update_count"`
	DeleteCount int64  `json:"delete_count"`
	ListCount   int64  `json:"list_count"`
	Total       int64  `json:"total"`
}

// UsageOverview provides a high-level summary of API usage.
type UsageOverview struct {
	TotalRequests   int64              `json:"total_requests"`
	TotalErrors     int64              `json:"total_errors"`
	ErrorRate       float64            `json:"error_rate"`
	AvgLatency      time.Duration      `json:"avg_latency"`
	UniqueActors    int                `json:"unique_actors"`
	UniqueEndpoints int                `json:"unique_endpoints"`
	TopEndpoints    []*EndpointSummary `json:"top_endpoints"`
	TopActors       []*ActorSummary    `json:"top_actors"`
}

// TimeSeriesBucket holds aggregated metrics for a single time bucket.
type TimeSeriesBucket struct {
	Timestamp    time.Time     `json:"timestamp"`
	RequestCount int64         `json:"request_count"`
	ErrorCount   int64         `json:"error_count"`
	AvgLatency   time.Duration `json:"avg_latency"`
}

// UsageTracker provides thread-safe API usage tracking with a bounded ring
// buffer of recent requests plus per-endpoint, per-actor, and per-entity
// counters.
type UsageTracker struct {
	metrics          []*RequestMetric
	maxMetrics       int
	writePos         int
	full             bool
	endpointCounters map[string]*endpointStats
	actorCounters    map[string]*actorStats
	entityCounters   map[string]*entityStats
	mu               sync.RWMutex
	totalRequests    int64
	totalErrors      int64
	totalDuration    int64 // nanoseconds
}

// NewUsageTracker creates a tracker with the given ring buffer capacity.
func NewUsageTracker(maxMetrics int) *UsageTracker {
	if maxMetrics <= 0 {
		maxMetrics = 100000
	}
	return &UsageTracker{
		metrics:          make([]*RequestMetric, 0, maxMetrics),
		maxMetrics:       maxMetrics,
		endpointCounters: make(map[string]*endpointStats),
		actorCounters:    make(map[string]*actorStats),
		entityCounters:   make(map[string]*entityStats),
	}
}

// Record appends a metric to the ring buffer and updates all counters.
func (ut *UsageTracker) Record(metric *RequestMetric) {
	isError := metric.StatusCode >= 400

	atomic.AddInt64(&ut.totalRequests, 1)
	if isError {
		atomic.AddInt64(&ut.totalErrors, 1)
	}
	atomic.AddInt64(&ut.totalDuration, int64(metric.Duration))

	ut.mu.Lock()

	if ut.full {
		ut.metrics[ut.writePos] = metric
	} else if len(ut.metrics) < ut.maxMetrics {
		ut.metrics = append(ut.metrics, metric)
	}
	ut.writePos++
	if ut.writePos >= ut.maxMetrics {
		ut.writePos = 0
		ut.full = true
	}

	ep, ok := ut.endpointCounters[metric.Path]
	if !ok {
		ep = &endpointStats{
			Path:         metric.Path,
			StatusCounts: make(map[int]int64),
		}
		ut.endpointCounters[metric.Path] = ep
	}

	var as *actorStats
	if metric.ActorID != "" {
		as, ok = ut.actorCounters[metric.ActorID]
		if !ok {
			as = &actorStats{ActorID: metric.ActorID}
			ut.actorCounters[metric.ActorID] = as
		}
	}

	var es *entityStats
	if metric.EntityType != "" {
		es, ok = ut.entityCounters[metric.EntityType]
		if !ok {
			es = &entityStats{EntityType: metric.EntityType}
			ut.entityCounters[metric.EntityType] = es
		}
	}

	ut.mu.Unlock()

	// Per-endpoint mutex to reduce contention on the tracker lock.
	ep.mu.Lock()
	ep.TotalRequests++
	if isError {
		ep.TotalErrors++
	}
	ep.TotalDuration += int64(metric.Duration)
	ep.StatusCounts[metric.StatusCode]++
	ep.mu.Unlock()

	if as != nil {
		as.mu.Lock()
		as.TotalRequests++
		if isError {
			as.TotalErrors++
		}
		as.LastRequestAt = metric.Timestamp
		as.mu.Unlock()
	}

	if es != nil {
		es.mu.Lock()
		switch metric.Method {
		case "POST":
			es.CreateCount++
		case "PUT", "PATCH":
			es.UpdateCount++
		case "DELETE":
			es.DeleteCount++
		case "GET":
			if isGetByID(metric.Path, metric.EntityType) {
				es.ReadCount++
			} else {
				es.ListCount++
			}
		}
		es.mu.Unlock()
	}
}

// isGetByID checks whether a GET targets a specific entity by ID
// (e.g. /api/v1/assessments/123) rather than a list (/api/v1/assessments).
func isGetByID(path, entityType string) bool {
	if entityType == "" {
		return false
	}
	idx := strings.Index(path, entityType)
	if idx < 0 {
		return false
	}
	rest := path[idx+len(entityType):]
	return len(rest) > 1 && rest[0] == '/'
}

// GetEndpointStats returns aggregated stats for a single endpoint path.
func (ut *UsageTracker) GetEndpointStats(path string) *EndpointSummary {
	ut.mu.RLock()
	ep, ok := ut.endpointCounters[path]
	ut.mu.RUnlock()
	if !ok {
		return nil
	}
	return buildEndpointSummary(ep)
}

// GetActorStats returns aggregated stats for a single admin user.
func (ut *UsageTracker) GetActorStats(actorID string) *ActorSummary {
	ut.mu.RLock()
	as, ok := ut.actorCounters[actorID]
	ut.mu.RUnlock()
	if !ok {
		return nil
	}
	return buildActorSummary(as)
}

// GetEntityStats returns the CRUD breakdown for an entity type.
func (ut *UsageTracker) GetEntityStats(entityType string) *EntitySummary {
	ut.mu.RLock()
	es, ok := ut.entityCounters[entityType]
	ut.mu.RUnlock()
	if !ok {
		return nil
	}
	return buildEntitySummary(es)
}

// GetOverview returns a high-level usage summary.
func (ut *UsageTracker) GetOverview() *UsageOverview {
	total := atomic.LoadInt64(&ut.totalRequests)
	errors := atomic.LoadInt64(&ut.totalErrors)
	dur := atomic.LoadInt64(&ut.totalDuration)

	var errorRate float64
	var avgLatency time.Duration
	if total > 0 {
		errorRate = float64(errors) / float64(total)
		avgLatency = time.Duration(dur / total)
	}

	ut.mu.RLock()
	uniqueActors := len(ut.actorCounters)
	uniqueEndpoints := len(ut.endpointCounters)
	ut.mu.RUnlock()

	return &UsageOverview{
		TotalRequests:   total,
		TotalErrors:     errors,
		ErrorRate:       errorRate,
		AvgLatency:      avgLatency,
		UniqueActors:    uniqueActors,
		UniqueEndpoints: uniqueEndpoints,
		TopEndpoints:    ut.GetTopEndpoints(5),
		TopActors:       ut.GetTopActors(5),
	}
}

// GetTopEndpoints returns the top N endpoints sorted by request count descending.
func (ut *UsageTracker) GetTopEndpoints(limit int) []*EndpointSummary {
	ut.mu.RLock()
	summaries := make([]*EndpointSummary, 0, len(ut.endpointCounters))
	for _, ep := range ut.endpointCounters {
		summaries = append(summaries, buildEndpointSummary(ep))
	}
	ut.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalRequests > summaries[j].TotalRequests
	})

	if limit > len(summaries) {
		limit = len(summaries)
	}
	return summaries[:limit]
}

// GetTopActors returns the top N admin users sorted by request count descending.
func (ut *UsageTracker) GetTopActors(limit int) []*ActorSummary {
	ut.mu.RLock()
	summaries := make([]*ActorSummary, 0, len(ut.actorCounters))
	for _, as := range ut.actorCounters {
		summaries = append(summaries, buildActorSummary(as))
	}
	ut.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalRequests > summaries[j].TotalRequests
	})

	if limit > len(summaries) {
		limit = len(summaries)
	}
	return summaries[:limit]
}

// GetEntityBreakdown returns the CRUD breakdown for every tracked entity type.
func (ut *UsageTracker) GetEntityBreakdown() []*EntitySummary {
	ut.mu.RLock()
	summaries := make([]*EntitySummary, 0, len(ut.entityCounters))
	for _, es := range ut.entityCounters {
		summaries = append(summaries, buildEntitySummary(es))
	}
	ut.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Total > summaries[j].Total
	})
	return summaries
}

// GetTimeSeries returns request counts bucketed by the given interval over
// the specified lookback duration.
func (ut *UsageTracker) GetTimeSeries(interval, duration time.Duration) []*TimeSeriesBucket {
	now := time.Now()
	start := now.Add(-duration).Truncate(interval)
	numBuckets := int(duration/interval) + 1

	buckets := make([]*TimeSeriesBucket, numBuckets)
	for i := 0; i < numBuckets; i++ {
		buckets[i] = &TimeSeriesBucket{
			Timestamp: start.Add(time.Duration(i) * interval),
		}
	}

	ut.mu.RLock()
	metricsCopy := make([]*RequestMetric, len(ut.metrics))
	copy(metricsCopy, ut.metrics)
	ut.mu.RUnlock()

	for _, m := range metricsCopy {
		if m == nil {
			continue
		}
		if m.Timestamp.Before(start) || m.Timestamp.After(now) {
			continue
		}
		idx := int(m.Timestamp.Sub(start) / interval)
		if idx < 0 || idx >= numBuckets {
			continue
		}
		buckets[idx].RequestCount++
		if m.StatusCode >= 400 {
			buckets[idx].ErrorCount++
		}
		buckets[idx].AvgLatency += m.Duration // accumulate, averaged below
	}

	for _, b := range buckets {
		if b.RequestCount > 0 {
			b.AvgLatency = time.Duration(int64(b.AvgLatency) / b.RequestCount)
		}
	}

	return buckets
}

// GetErrorRate returns the overall error rate as a float between 0 and 1.
func (ut *UsageTracker) GetErrorRate() float64 {
	total := atomic.LoadInt64(&ut.totalRequests)
	errors := atomic.LoadInt64(&ut.totalErrors)
	if total == 0 {
		return 0
	}
	return float64(errors) / float64(total)
}

// GetAverageLatency returns the average request duration.
func (ut *UsageTracker) GetAverageLatency() time.Duration {
	total := atomic.LoadInt64(&ut.totalRequests)
	dur := atomic.LoadInt64(&ut.totalDuration)
	if total == 0 {
		return 0
	}
	return time.Duration(dur / total)
}

func buildEndpointSummary(ep *endpointStats) *EndpointSummary {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	var errorRate float64
	var avgLatency time.Duration
	if ep.TotalRequests > 0 {
		errorRate = float64(ep.TotalErrors) / float64(ep.TotalRequests)
		avgLatency = time.Duration(ep.TotalDuration / ep.TotalRequests)
	}

	statusBreakdown := make(map[int]int64, len(ep.StatusCounts))
	for code, count := range ep.StatusCounts {
		statusBreakdown[code] = count
	}

	return &EndpointSummary{
		Path:            ep.Path,
		TotalRequests:   ep.TotalRequests,
		ErrorRate:       errorRate,
		AvgLatency:      avgLatency,
		StatusBreakdown: statusBreakdown,
	}
}

func buildActorSummary(as *actorStats) *ActorSummary {
	as.mu.Lock()
	defer as.mu.Unlock()

	var errorRate float64
	if as.TotalRequests > 0 {
		errorRate = float64(as.TotalErrors) / float64(as.TotalRequests)
	}

	return &ActorSummary{
		ActorID:       as.ActorID,
		TotalRequests: as.TotalRequests,
		ErrorRate:     errorRate,
		LastSeen:      as.LastRequestAt,
	}
}

func buildEntitySummary(es *entityStats) *EntitySummary {
	es.mu.Lock()
	defer es.mu.Unlock()

	return &EntitySummary{
		EntityType:  es.EntityType,
		ReadCount:   es.ReadCount,
		CreateCount: es.CreateCount,
		UpdateCount: es.UpdateCount,
		DeleteCount: es.DeleteCount,
		ListCount:   es.ListCount,
		Total:       es.ReadCount + es.CreateCount + es.UpdateCount + es.DeleteCount + es.ListCount,
	}
}

// extractEntityType parses the entity type from an admin API path.
// Examples:
//   - "/api/v1/assessments/123" → "assessments"
//   - "/api/v1/assessments"     → "assessments"
//   - "/health"                 → ""
func extractEntityType(path string) string {
	const apiPrefix = "/api/v1/"
	if !strings.HasPrefix(path, apiPrefix) {
		return ""
	}

	rest := path[len(apiPrefix):]
	if rest == "" {
		return ""
	}

	if slashIdx := strings.Index(rest, "/"); slashIdx >= 0 {
		return rest[:slashIdx]
	}
	return rest
}

// UsageMiddleware returns echo middleware that records every request into
// the provided tracker.
func UsageMiddleware(tracker *UsageTracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := req.URL.Path

			err := next(c)

			duration := time.Since(start)
			resp := c.Response()

			var requestSize int64
			if req.ContentLength > 0 {
				requestSize = req.ContentLength
			}

			tracker.Record(&RequestMetric{
				Timestamp:    start,
				Method:       req.Method,
				Path:         path,
				StatusCode:   resp.Status,
				Duration:     duration,
				ActorID:      auth.UserIDFromContext(req.Context()),
				EntityType:   extractEntityType(path),
				RequestSize:  requestSize,
				ResponseSize: resp.Size,
			})

			return err
		}
	}
}

// UsageHandler provides HTTP endpoints for querying API usage analytics.
type UsageHandler struct {
	tracker *UsageTracker
}

// NewUsageHandler creates a new handler backed by the given tracker.
func NewUsageHandler(tracker *UsageTracker) *UsageHandler {
	return &UsageHandler{tracker: tracker}
}

// RegisterRoutes registers the usage endpoints on the provided group.
func (h *UsageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/analytics/usage", h.HandleOverview)
	g.GET("/analytics/usage/endpoints", h.HandleTopEndpoints)
	g.GET("/analytics/usage/actors", h.HandleTopActors)
	g.GET("/analytics/usage/entities", h.HandleEntities)
	g.GET("/analytics/usage/timeseries", h.HandleTimeSeries)
}

// HandleOverview returns overall API usage statistics.
func (h *UsageHandler) HandleOverview(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.GetOverview())
}

// HandleTopEndpoints returns the top endpoints sorted by request count.
func (h *UsageHandler) HandleTopEndpoints(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.GetTopEndpoints(queryLimit(c, 20)))
}

// HandleTopActors returns the most active admin users.
func (h *UsageHandler) HandleTopActors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.GetTopActors(queryLimit(c, 20)))
}

// HandleEntities returns the CRUD breakdown for all entity types.
func (h *UsageHandler) HandleEntities(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.GetEntityBreakdown())
}

// HandleTimeSeries returns time-bucketed request counts.
func (h *UsageHandler) HandleTimeSeries(c echo.Context) error {
	interval := parseDurationParam(c.QueryParam("interval"), time.Minute)
	duration := parseDurationParam(c.QueryParam("duration"), time.Hour)

	return c.JSON(http.StatusOK, h.tracker.GetTimeSeries(interval, duration))
}

func queryLimit(c echo.Context, def int) int {
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// parseDurationParam parses a duration string like "1m", "5m", "1h", "24h",
// or "7d" into a time.Duration.
func parseDurationParam(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}

	if strings.HasSuffix(s, "d") {
		numStr := strings.TrimSuffix(s, "d")
		if n, err := strconv.Atoi(numStr); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
		return defaultVal
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
