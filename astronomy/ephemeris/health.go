package ephemeris

import (
	"context"
	"sync"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/observability"
	"go.opentelemetry.io/otel/attribute"
)

// HealthChecker monitors the health of astronomy providers
type HealthChecker struct {
	providers    []astronomy.Provider
	statuses     map[string]*astronomy.HealthStatus
	mutex        sync.RWMutex
	observer     observability.ObserverInterface
	ticker       *time.Ticker
	stopChan     chan struct{}
	interval     time.Duration
	timeout      time.Duration
	isRunning    bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(providers []astronomy.Provider) *HealthChecker {
	return &HealthChecker{
		providers: providers,
		statuses:  make(map[string]*astronomy.HealthStatus),
		observer:  observability.Observer(),
		interval:  30 * time.Second,
		timeout:   5 * time.Second,
		stopChan:  make(chan struct{}),
	}
}

// Start starts the health checking routine
func (h *HealthChecker) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	
	if h.isRunning {
		return
	}
	
	h.isRunning = true
	h.ticker = time.NewTicker(h.interval)
	
	// Initial health check
	go h.checkHealth()
	
	// Start periodic health checks
	go h.run()
}

// Stop stops the health checking routine
func (h *HealthChecker) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	
	if !h.isRunning {
		return
	}
	
	h.isRunning = false
	
	// Close the channel if it's not already closed
	select {
	case <-h.stopChan:
		// Already closed
	default:
		close(h.stopChan)
	}
	
	if h.ticker != nil {
		h.ticker.Stop()
	}
}

// GetAllStatuses returns all health statuses
func (h *HealthChecker) GetAllStatuses() map[string]*astronomy.HealthStatus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	statuses := make(map[string]*astronomy.HealthStatus)
	for name, status := range h.statuses {
		statuses[name] = status
	}
	
	return statuses
}

// IsHealthy returns true if all providers are healthy
func (h *HealthChecker) IsHealthy() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	
	for _, status := range h.statuses {
		if !status.Available {
			return false
		}
	}
	
	return len(h.statuses) > 0
}

// run runs the health checking loop
func (h *HealthChecker) run() {
	for {
		select {
		case <-h.ticker.C:
			h.checkHealth()
		case <-h.stopChan:
			return
		}
	}
}

// checkHealth checks the health of all providers
func (h *HealthChecker) checkHealth() {
	ctx, span := h.observer.CreateSpan(context.Background(), "ephemeris.health.CheckHealth")
	defer span.End()
	
	span.SetAttributes(
		attribute.Int("provider_count", len(h.providers)),
		attribute.String("operation", "health_check"),
	)
	
	var wg sync.WaitGroup
	
	for _, provider := range h.providers {
		if provider == nil {
			continue
		}
		
		wg.Add(1)
		go func(p astronomy.Provider) {
			defer wg.Done()
			h.checkProviderHealth(ctx, p)
		}(provider)
	}
	
	wg.Wait()
	
	// Update overall health status
	healthyCount := 0
	for _, status := range h.statuses {
		if status.Available {
			healthyCount++
		}
	}
	
	span.SetAttributes(
		attribute.Int("healthy_providers", healthyCount),
		attribute.Int("total_providers", len(h.statuses)),
		attribute.Bool("overall_healthy", healthyCount > 0),
	)
	
	span.AddEvent("Health check completed")
}

// checkProviderHealth checks the health of a single provider
func (h *HealthChecker) checkProviderHealth(ctx context.Context, provider astronomy.Provider) {
	ctx, span := h.observer.CreateSpan(ctx, "ephemeris.health.CheckProvider")
	defer span.End()

	providerName := provider.Name()

	span.SetAttributes(
		attribute.String("provider_name", providerName),
		attribute.String("provider_version", provider.Version()),
	)

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()

	// Check if provider is available
	available := provider.IsAvailable(timeoutCtx)
	responseTime := time.Since(start)

	status := &astronomy.HealthStatus{
		Available:    available,
		LastCheck:    time.Now(),
		ResponseTime: responseTime,
		Version:      provider.Version(),
		Source:       providerName,
	}

	// Get data range if available
	if available {
		rangeStart, rangeEnd := provider.DataRange()
		status.DataStartJD = astronomy.TimeToJulianDay(rangeStart)
		status.DataEndJD = astronomy.TimeToJulianDay(rangeEnd)

		// Try to get detailed health status
		if detailedStatus, err := provider.HealthStatus(timeoutCtx); err == nil {
			status.ErrorMessage = detailedStatus.ErrorMessage
		}
	} else {
		status.ErrorMessage = "Provider not available"
	}
	
	// Update status
	h.mutex.Lock()
	h.statuses[providerName] = status
	h.mutex.Unlock()
	
	span.SetAttributes(
		attribute.Bool("available", available),
		attribute.Int64("response_time_ms", responseTime.Milliseconds()),
		attribute.Float64("data_start_jd", status.DataStartJD),
		attribute.Float64("data_end_jd", status.DataEndJD),
	)
	
	if available {
		span.AddEvent("Provider health check passed")
	} else {
		span.AddEvent("Provider health check failed")
	}
}

