// Package analytics computes campaign performance rates from raw tracking
// counters. All rate calculations guard their denominators; a campaign with
// no traffic reports zero rates, never NaN.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/cache"
)

// Stats are the raw counters tracked per campaign.
type Stats struct {
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Conversions int64           `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Performance is the derived view served to the authoring surface.
type Performance struct {
	Stats
	// CTR and ConversionRate are percentages rounded to 2 decimals.
	CTR               float64         `json:"ctr"`
	ConversionRate    float64         `json:"conversion_rate"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// Compute derives the performance rates from raw counters.
func Compute(s Stats) Performance {
	p := Performance{Stats: s, AverageOrderValue: decimal.Zero}
	if s.Impressions > 0 {
		p.CTR = roundRate(float64(s.Clicks) / float64(s.Impressions) * 100)
	}
	if s.Clicks > 0 {
		p.ConversionRate = roundRate(float64(s.Conversions) / float64(s.Clicks) * 100)
	}
	if s.Conversions > 0 {
		p.AverageOrderValue = s.Revenue.Div(decimal.NewFromInt(s.Conversions)).Round(2)
	}
	return p
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}

// Source supplies raw counters; the tracking pipeline that populates them is
// an external collaborator.
type Source interface {
	CampaignStats(ctx context.Context, campaignID string, from, to time.Time) (Stats, error)
}

// Service caches derived performance under the analytics cache group, so
// campaign lifecycle invalidation also drops stale reports.
type Service struct {
	source Source
	cache  *cache.Cache
}

// NewService creates an analytics service. cache may be nil.
func NewService(source Source, c *cache.Cache) *Service {
	return &Service{source: source, cache: c}
}

// CampaignPerformance returns derived rates for a campaign over a window.
func (s *Service) CampaignPerformance(ctx context.Context, campaignID string, from, to time.Time) (Performance, error) {
	if s.cache == nil {
		return s.compute(ctx, campaignID, from, to)
	}

	key := fmt.Sprintf("performance:%s:%d:%d", campaignID, from.Unix(), to.Unix())
	var p Performance
	err := s.cache.Remember(ctx, cache.GroupAnalytics, key, &p, func(ctx context.Context) (any, error) {
		return s.compute(ctx, campaignID, from, to)
	})
	return p, err
}

func (s *Service) compute(ctx context.Context, campaignID string, from, to time.Time) (Performance, error) {
	stats, err := s.source.CampaignStats(ctx, campaignID, from, to)
	if err != nil {
		return Performance{}, err
	}
	return Compute(stats), nil
}
