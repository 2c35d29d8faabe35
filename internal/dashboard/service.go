// Package dashboard answers the interactive analytical questions: community
// socioeconomic views, income-segmented crime comparisons and hotspots.
package dashboard

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/cache"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/segment"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/views"
)

// DefaultTopN is the number of crime types compared when none is requested.
const DefaultTopN = 10

// Source reads versioned snapshots of the base tables.
type Source interface {
	Version(ctx context.Context) (int64, error)
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// Options configures a Service.
type Options struct {
	TopN         int
	HotspotLimit int
}

// Service computes dashboard views over the current snapshot. Results are
// memoized per snapshot version.
type Service struct {
	src   Source
	cache *cache.Cache
	opts  Options
}

// NewService creates a Service. A nil cache disables memoization.
func NewService(src Source, c *cache.Cache, opts Options) *Service {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.HotspotLimit <= 0 {
		opts.HotspotLimit = segment.DefaultHotspotLimit
	}
	return &Service{src: src, cache: c, opts: opts}
}

// snapshot returns the current snapshot, loading it once per version.
func (s *Service) snapshot(ctx context.Context) (*model.Snapshot, error) {
	v, err := s.src.Version(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: read version")
	}
	return cache.Memo(s.cache, "snapshot", v, nil, func() (*model.Snapshot, error) {
		zap.L().Debug("dashboard: loading snapshot", zap.Int64("version", v))
		snap, err := s.src.Snapshot(ctx)
		return snap, eris.Wrap(err, "dashboard: load snapshot")
	})
}

// CommunityAggregates returns the community socioeconomic view.
func (s *Service) CommunityAggregates(ctx context.Context) ([]model.CommunityAggregate, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregates(snap)
}

func (s *Service) aggregates(snap *model.Snapshot) ([]model.CommunityAggregate, error) {
	return cache.Memo(s.cache, "community_aggregate", snap.Version, nil, func() ([]model.CommunityAggregate, error) {
		return views.BuildCommunityAggregate(snap), nil
	})
}

// EnrichedCrimes returns the crime view joined to community context.
func (s *Service) EnrichedCrimes(ctx context.Context) ([]model.EnrichedCrime, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.crimes(snap)
}

func (s *Service) crimes(snap *model.Snapshot) ([]model.EnrichedCrime, error) {
	return cache.Memo(s.cache, "enriched_crime", snap.Version, nil, func() ([]model.EnrichedCrime, error) {
		return views.BuildEnrichedCrime(snap), nil
	})
}

// Segmented returns the enriched crimes tagged by income segment.
func (s *Service) Segmented(ctx context.Context, threshold float64) ([]segment.Tagged, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	crimes, err := s.crimes(snap)
	if err != nil {
		return nil, err
	}
	return cache.Memo(s.cache, "segment_by_income", snap.Version, threshold, func() ([]segment.Tagged, error) {
		return segment.ByIncome(crimes, threshold), nil
	})
}

// Filter narrows the dashboard. Communities apply to both datasets by name;
// crime types apply to crimes only. A nil Threshold means the median of
// known incomes; a zero TopN means the configured default.
type Filter struct {
	Communities []string `json:"communities,omitempty"`
	CrimeTypes  []string `json:"crime_types,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	TopN        int      `json:"top_n,omitempty"`
}

// normalize returns a canonical copy so equal filters share a cache key.
func (f Filter) normalize() Filter {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, v := range in {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		slices.Sort(out)
		return slices.Compact(out)
	}
	n := Filter{Communities: clean(f.Communities), CrimeTypes: clean(f.CrimeTypes), TopN: f.TopN}
	if f.Threshold != nil {
		t := *f.Threshold
		n.Threshold = &t
	}
	return n
}

// Options lists the selectable filter values.
func (s *Service) Options(ctx context.Context) (*FilterOptions, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	aggs, err := s.aggregates(snap)
	if err != nil {
		return nil, err
	}
	crimes, err := s.crimes(snap)
	if err != nil {
		return nil, err
	}
	return buildOptions(aggs, crimes), nil
}

func buildOptions(aggs []model.CommunityAggregate, crimes []model.EnrichedCrime) *FilterOptions {
	opts := &FilterOptions{Communities: []string{}, CrimeTypes: []string{}}
	for _, a := range aggs {
		if a.Name != views.UnknownCommunity {
			opts.Communities = append(opts.Communities, a.Name)
		}
	}
	for _, c := range crimes {
		opts.CrimeTypes = append(opts.CrimeTypes, c.PrimaryType)
	}
	slices.Sort(opts.Communities)
	opts.Communities = slices.Compact(opts.Communities)
	slices.Sort(opts.CrimeTypes)
	opts.CrimeTypes = slices.Compact(opts.CrimeTypes)
	opts.Threshold = segment.DefaultThreshold(crimes)
	return opts
}

// Overview computes every dashboard panel for a filter.
func (s *Service) Overview(ctx context.Context, f Filter) (*Overview, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	f = f.normalize()
	return cache.Memo(s.cache, "overview", snap.Version, f, func() (*Overview, error) {
		aggs, err := s.aggregates(snap)
		if err != nil {
			return nil, err
		}
		crimes, err := s.crimes(snap)
		if err != nil {
			return nil, err
		}
		return s.buildOverview(snap.Version, aggs, crimes, f), nil
	})
}
