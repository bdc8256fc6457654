// Package ephemeris wraps astronomy.Provider instances with caching,
// primary/fallback failover, and background health checking, so the rest of
// the module can depend on one stable handle regardless of which concrete
// provider is backing it.
package ephemeris

import (
	"context"
	"fmt"
	"time"

	"github.com/hsato/toki/astronomy"
	"github.com/hsato/toki/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Manager manages a primary and fallback astronomy.Provider with caching
// and failover.
type Manager struct {
	primary       astronomy.Provider
	fallback      astronomy.Provider
	cache         Cache
	observer      observability.ObserverInterface
	healthChecker *HealthChecker
}

// NewManager creates a new ephemeris manager. fallback may be nil.
func NewManager(primary, fallback astronomy.Provider, cache Cache) *Manager {
	manager := &Manager{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		observer: observability.Observer(),
	}

	providers := []astronomy.Provider{primary}
	if fallback != nil {
		providers = append(providers, fallback)
	}
	manager.healthChecker = NewHealthChecker(providers)
	manager.healthChecker.Start()

	return manager
}

// SunEclipticLongitude retrieves the Sun's ecliptic longitude with caching
// and fallback.
func (m *Manager) SunEclipticLongitude(ctx context.Context, t time.Time) (float64, error) {
	ctx, span := m.observer.CreateSpan(ctx, "ephemeris.SunEclipticLongitude")
	defer span.End()

	cacheKey := fmt.Sprintf("sun_lon_%d", t.UnixNano())
	if cached, found := m.cache.Get(ctx, cacheKey); found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if lon, ok := cached.(float64); ok {
			return lon, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	result, err := m.withFallback(ctx, span, func(p astronomy.Provider) (interface{}, error) {
		return p.SunEclipticLongitude(ctx, t)
	})
	if err != nil {
		return 0, fmt.Errorf("sun ecliptic longitude: %w", err)
	}

	lon := result.(float64)
	m.cache.Set(ctx, cacheKey, lon, time.Hour)
	return lon, nil
}

// MoonPhase retrieves the Moon's phase angle with caching and fallback.
func (m *Manager) MoonPhase(ctx context.Context, t time.Time) (float64, error) {
	ctx, span := m.observer.CreateSpan(ctx, "ephemeris.MoonPhase")
	defer span.End()

	cacheKey := fmt.Sprintf("moon_phase_%d", t.UnixNano())
	if cached, found := m.cache.Get(ctx, cacheKey); found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if phase, ok := cached.(float64); ok {
			return phase, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	result, err := m.withFallback(ctx, span, func(p astronomy.Provider) (interface{}, error) {
		return p.MoonPhase(ctx, t)
	})
	if err != nil {
		return 0, fmt.Errorf("moon phase: %w", err)
	}

	phase := result.(float64)
	m.cache.Set(ctx, cacheKey, phase, time.Hour)
	return phase, nil
}

// MoonAge retrieves the Moon's age in days for a civil date at JST 00:00.
func (m *Manager) MoonAge(ctx context.Context, civilDateJST time.Time) (float64, error) {
	ctx, span := m.observer.CreateSpan(ctx, "ephemeris.MoonAge")
	defer span.End()

	cacheKey := fmt.Sprintf("moon_age_%d", civilDateJST.UnixNano())
	if cached, found := m.cache.Get(ctx, cacheKey); found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if age, ok := cached.(float64); ok {
			return age, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	result, err := m.withFallback(ctx, span, func(p astronomy.Provider) (interface{}, error) {
		return p.MoonAge(ctx, civilDateJST)
	})
	if err != nil {
		return 0, fmt.Errorf("moon age: %w", err)
	}

	age := result.(float64)
	m.cache.Set(ctx, cacheKey, age, time.Hour)
	return age, nil
}

// sunriseSunsetPair bundles the two pointers so they can travel through the
// interface{} return value of tryProvider/withFallback as a single value.
type sunriseSunsetPair struct {
	sunrise *time.Time
	sunset  *time.Time
}

// SunriseSunset retrieves sunrise/sunset instants with caching and
// fallback. A nil pointer pair means no convergence (polar day/night), not
// an error, and is not cached as failure.
func (m *Manager) SunriseSunset(ctx context.Context, date time.Time, lat, lon float64) (*time.Time, *time.Time, error) {
	ctx, span := m.observer.CreateSpan(ctx, "ephemeris.SunriseSunset")
	defer span.End()

	cacheKey := fmt.Sprintf("sunrise_sunset_%d_%f_%f", date.Unix(), lat, lon)
	if cached, found := m.cache.Get(ctx, cacheKey); found {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		if pair, ok := cached.(sunriseSunsetPair); ok {
			return pair.sunrise, pair.sunset, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	result, err := m.withFallback(ctx, span, func(p astronomy.Provider) (interface{}, error) {
		sunrise, sunset, err := p.SunriseSunset(ctx, date, lat, lon)
		if err != nil {
			return nil, err
		}
		return sunriseSunsetPair{sunrise: sunrise, sunset: sunset}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sunrise/sunset: %w", err)
	}

	pair := result.(sunriseSunsetPair)
	m.cache.Set(ctx, cacheKey, pair, time.Hour)
	return pair.sunrise, pair.sunset, nil
}

// withFallback tries the primary provider, then the fallback provider if
// the primary fails.
func (m *Manager) withFallback(ctx context.Context, span trace.Span, operation func(astronomy.Provider) (interface{}, error)) (interface{}, error) {
	result, err := m.tryProvider(ctx, m.primary, "primary", operation)
	if err == nil {
		return result, nil
	}

	if m.fallback == nil {
		return nil, err
	}

	result, fallbackErr := m.tryProvider(ctx, m.fallback, "fallback", operation)
	if fallbackErr != nil {
		combined := fmt.Errorf("primary failed (%v) and fallback failed (%w)", err, fallbackErr)
		observability.RecordError(ctx, combined, observability.ErrorContext{
			Severity:  observability.SeverityHigh,
			Category:  observability.CategoryEphemeris,
			Operation: "ephemeris.withFallback",
			Component: "ephemeris.Manager",
			Retryable: true,
		})
		return nil, combined
	}
	return result, nil
}

// tryProvider attempts to get data from a provider with observability.
func (m *Manager) tryProvider(ctx context.Context, provider astronomy.Provider, providerType string, operation func(astronomy.Provider) (interface{}, error)) (interface{}, error) {
	if provider == nil {
		return nil, fmt.Errorf("%s provider is nil", providerType)
	}

	ctx, span := m.observer.CreateSpan(ctx, fmt.Sprintf("ephemeris.try_%s_provider", providerType))
	defer span.End()

	span.SetAttributes(
		attribute.String("provider_type", providerType),
		attribute.String("provider_name", provider.Name()),
		attribute.String("provider_version", provider.Version()),
	)

	start := time.Now()
	result, err := operation(provider)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.Bool("success", err == nil),
	)

	if err != nil {
		span.RecordError(err)
		span.AddEvent("Provider operation failed")
		return nil, err
	}

	span.AddEvent("Provider operation succeeded")
	return result, nil
}

// Name reports the primary provider's name, so a Manager can stand in
// anywhere an astronomy.Provider is expected.
func (m *Manager) Name() string {
	if m.primary != nil {
		return m.primary.Name()
	}
	return "ephemeris-manager"
}

// Version reports the primary provider's version.
func (m *Manager) Version() string {
	if m.primary != nil {
		return m.primary.Version()
	}
	return "unknown"
}

// DataRange reports the primary provider's valid data range.
func (m *Manager) DataRange() (start, end time.Time) {
	if m.primary != nil {
		return m.primary.DataRange()
	}
	return time.Time{}, time.Time{}
}

// IsAvailable reports whether the primary or fallback provider can
// currently answer queries.
func (m *Manager) IsAvailable(ctx context.Context) bool {
	if m.primary != nil && m.primary.IsAvailable(ctx) {
		return true
	}
	return m.fallback != nil && m.fallback.IsAvailable(ctx)
}

// HealthStatus returns the primary provider's health snapshot.
func (m *Manager) HealthStatus(ctx context.Context) (*astronomy.HealthStatus, error) {
	if m.primary != nil {
		return m.primary.HealthStatus(ctx)
	}
	return nil, fmt.Errorf("no primary provider configured")
}

// GetHealthStatus returns the most recently polled status of every
// provider the background health checker watches, keyed by provider
// name. It does not itself call out to the providers; checkHealth
// refreshes these on its own interval so this call is always cheap.
func (m *Manager) GetHealthStatus(ctx context.Context) (map[string]*astronomy.HealthStatus, error) {
	_, span := m.observer.CreateSpan(ctx, "ephemeris.GetHealthStatus")
	defer span.End()

	statuses := m.healthChecker.GetAllStatuses()

	span.SetAttributes(
		attribute.Int("provider_count", len(statuses)),
		attribute.Bool("all_healthy", m.healthChecker.IsHealthy()),
	)
	return statuses, nil
}

// CacheStats reports the underlying cache's hit/miss counters, broken down
// by which astronomy query each key belongs to.
func (m *Manager) CacheStats(ctx context.Context) *CacheStats {
	if m.cache == nil {
		return &CacheStats{}
	}
	return m.cache.GetStats(ctx)
}

// ClearCache discards every cached ephemeris lookup, forcing the next
// request for each query to go back to the primary/fallback providers.
func (m *Manager) ClearCache(ctx context.Context) error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Clear(ctx)
}

// Close closes all providers and releases resources.
func (m *Manager) Close() error {
	var errs []error

	if m.primary != nil {
		if err := m.primary.Close(); err != nil {
			errs = append(errs, fmt.Errorf("primary provider close error: %w", err))
		}
	}

	if m.fallback != nil {
		if err := m.fallback.Close(); err != nil {
			errs = append(errs, fmt.Errorf("fallback provider close error: %w", err))
		}
	}

	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache close error: %w", err))
		}
	}

	if m.healthChecker != nil {
		m.healthChecker.Stop()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}
