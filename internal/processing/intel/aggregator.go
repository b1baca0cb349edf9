package intel

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var sourceLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intel_source_lookups_total",
		Help: "Outcome of individual intelligence source lookups",
	},
	[]string{"source", "outcome"},
)

// Aggregator fans a lookup out to every configured source concurrently,
// bounds each with the same timeout, and merges whatever came back.
// One source failing never aborts its siblings; the lookup as a whole
// succeeds when at least one source answered.
type Aggregator struct {
	sources    []Source
	timeout    time.Duration
	fallbackIP string
}

func NewAggregator(timeout time.Duration, fallbackIP string, sources ...Source) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		sources:    sources,
		timeout:    timeout,
		fallbackIP: fallbackIP,
	}
}

// NormalizeIP substitutes loopback and private client addresses with the
// configured public fallback. Internal test traffic is classified through
// a known-clean address instead of failing the lookup.
func (a *Aggregator) NormalizeIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ip
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return a.fallbackIP
	}
	return ip
}

// Lookup queries all sources for ip and merges the successful answers.
// The returned bool is false only when every source failed; the caller
// must then treat the classification as indeterminate rather than guess.
// Per-source outcomes are returned for logging and metrics.
func (a *Aggregator) Lookup(ctx context.Context, ip string) (*Intelligence, []SourceResult, bool) {
	ip = a.NormalizeIP(ip)

	results := make([]SourceResult, len(a.sources))
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			lookupCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			data, err := src.Lookup(lookupCtx, ip)
			results[i] = SourceResult{Source: src.Name(), Data: data, Err: err}
		}(i, src)
	}
	wg.Wait()

	merged := &Intelligence{IP: ip}
	ok := false
	for _, res := range results {
		if res.Err != nil {
			sourceLookups.WithLabelValues(res.Source, "error").Inc()
			logger.Warn("intelligence source failed",
				zap.String("source", res.Source),
				zap.String("ip", ip),
				zap.Error(res.Err),
			)
			continue
		}
		sourceLookups.WithLabelValues(res.Source, "ok").Inc()
		ok = true
		merge(merged, res.Data)
	}

	return merged, results, ok
}

// merge copies non-empty fields of src into dst, keeping whatever dst
// already holds. Sources are visited in configuration order, so field
// conflicts resolve in that order; an accepted imprecision since the
// sources rarely disagree on the fields they share.
func merge(dst, src *Intelligence) {
	if src == nil {
		return
	}
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if src.BotFlag {
		dst.BotFlag = true
	}
	if dst.ASNDescription == "" {
		dst.ASNDescription = src.ASNDescription
	}
	if dst.Country == "" {
		dst.Country = src.Country
	}
	if dst.CountryCode == "" {
		dst.CountryCode = src.CountryCode
	}
	if dst.Region == "" {
		dst.Region = src.Region
	}
	if dst.City == "" {
		dst.City = src.City
	}
	if dst.Latitude == 0 {
		dst.Latitude = src.Latitude
	}
	if dst.Longitude == 0 {
		dst.Longitude = src.Longitude
	}
	if dst.Timezone == "" {
		dst.Timezone = src.Timezone
	}
	if dst.ISP == "" {
		dst.ISP = src.ISP
	}
	if dst.FlagImg == "" {
		dst.FlagImg = src.FlagImg
	}
}
