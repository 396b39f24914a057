package labstats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"LaborPulse/internal/domain/models"
	drepo "LaborPulse/internal/domain/repository"
	"LaborPulse/pkg/http"
	"LaborPulse/pkg/logger"
)

const defaultTrailingN = 6

// Client fetches labor statistics series over the provider's JSON API. It
// implements SeriesProvider: one request per tracked series, fanned out
// concurrently, with per-series failures downgraded to stale readings that
// keep the previous good value.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	series      map[string]string // sector id -> provider series id
	totalSeries string
	trailingN   int
	log         *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTrailingN sets how many recent observations to retain per series.
func WithTrailingN(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.trailingN = n
		}
	}
}

// New creates a provider client for the given series map.
func New(httpClient *http.Client, baseURL, apiKey string, series map[string]string, totalSeries string, log *logger.Logger, opts ...Option) drepo.SeriesProvider {
	c := &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      apiKey,
		series:      series,
		totalSeries: totalSeries,
		trailingN:   defaultTrailingN,
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type observation struct {
	Period string  `json:"period"` // e.g. "2026-06"
	Value  float64 `json:"value"`
}

type seriesResponse struct {
	SeriesID     string        `json:"series_id"`
	Observations []observation `json:"observations"` // newest first
}

// Fetch pulls every tracked series plus the overall total concurrently.
// previous carries the last batch's readings so a failed series keeps its
// last good value instead of going null.
func (c *Client) Fetch(ctx context.Context, previous []models.SeriesReading) (*models.RefreshBatch, error) {
	prevByCategory := make(map[string]models.SeriesReading, len(previous))
	for _, r := range previous {
		prevByCategory[r.Category] = r
	}

	categories := make([]string, 0, len(c.series))
	for cat := range c.series {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	readings := make([]models.SeriesReading, len(categories))
	var total *float64
	var totalErr string
	var totalAsOf string

	var wg sync.WaitGroup
	for i, cat := range categories {
		wg.Add(1)
		go func(i int, cat string) {
			defer wg.Done()
			readings[i] = c.fetchOne(ctx, cat, c.series[cat], prevByCategory[cat])
		}(i, cat)
	}

	if c.totalSeries != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.fetchSeries(ctx, c.totalSeries)
			if err != nil {
				totalErr = err.Error()
				c.log.Warn("total series fetch failed", logger.String("series", c.totalSeries), logger.Error(err))
				return
			}
			if len(resp.Observations) > 0 {
				total = &resp.Observations[0].Value
				totalAsOf = resp.Observations[0].Period
			}
		}()
	}

	wg.Wait()

	batch := &models.RefreshBatch{
		Readings: readings,
		Total:    total,
		TotalErr: totalErr,
		AsOf:     totalAsOf,
	}
	if batch.AsOf == "" {
		for _, r := range readings {
			if r.Error == "" && r.AsOf > batch.AsOf {
				batch.AsOf = r.AsOf
			}
		}
	}
	return batch, nil
}

func (c *Client) fetchOne(ctx context.Context, category, seriesID string, prev models.SeriesReading) models.SeriesReading {
	reading := models.SeriesReading{
		Category:  category,
		SeriesID:  seriesID,
		FetchedAt: time.Now(),
	}

	resp, err := c.fetchSeries(ctx, seriesID)
	if err != nil || len(resp.Observations) == 0 {
		if err == nil {
			err = fmt.Errorf("series %s: no observations", seriesID)
		}
		c.log.Warn("series fetch failed, keeping previous value",
			logger.String("category", category),
			logger.String("series", seriesID),
			logger.Error(err))

		// Stale-but-valid beats null.
		reading.LatestValue = prev.LatestValue
		reading.TrailingValues = prev.TrailingValues
		reading.AsOf = prev.AsOf
		reading.Error = err.Error()
		reading.Stale = true
		return reading
	}

	n := c.trailingN
	if n > len(resp.Observations) {
		n = len(resp.Observations)
	}
	trailing := make([]float64, n)
	for i := 0; i < n; i++ {
		trailing[i] = resp.Observations[i].Value
	}

	reading.LatestValue = &resp.Observations[0].Value
	reading.TrailingValues = trailing
	reading.AsOf = resp.Observations[0].Period
	return reading
}

func (c *Client) fetchSeries(ctx context.Context, seriesID string) (*seriesResponse, error) {
	opts := &http.RequestOptions{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/series/%s", c.baseURL, seriesID),
		QueryParams: map[string][]string{
			"latest": {fmt.Sprintf("%d", c.trailingN)},
		},
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}

	var resp seriesResponse
	if err := c.httpClient.SendAndParse(ctx, opts, &resp); err != nil {
		return nil, fmt.Errorf("series %s: %w", seriesID, err)
	}
	return &resp, nil
}
