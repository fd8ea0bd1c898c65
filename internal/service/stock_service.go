package service

import (
	"context"
	"log/slog"

	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/shop"
)

// ShopClient is the subset of *shop.Client the stock service reads from.
type ShopClient interface {
	FetchStock(ctx context.Context) (*shop.Snapshot, error)
	FetchWeather(ctx context.Context) (*shop.Weather, error)
	FetchLastSeen(ctx context.Context) ([]shop.LastSeenItem, error)
}

// SnapshotPublisher shares a fetched snapshot with every engine.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap *shop.Snapshot) error
}

// WatchlistReader returns the current watchlist.
type WatchlistReader interface {
	Get(ctx context.Context) []string
}

// StockItem is a shop item annotated for display.
type StockItem struct {
	shop.Item
	Tier    int  `json:"tier,omitempty"`
	Watched bool `json:"watched"`
}

// StockView is the current stock, seeds in catalog order and gear
// alphabetical.
type StockView struct {
	ReportID     string      `json:"report_id"`
	ReportedAt   int64       `json:"reportedAt"`
	NextUpdateAt int64       `json:"nextUpdateAt,omitempty"`
	Seeds        []StockItem `json:"seeds"`
	Gear         []StockItem `json:"gear"`
}

// WeatherView is the shop's weather plus catalog details for the active
// event, when known.
type WeatherView struct {
	shop.Weather
	Event *catalog.WeatherEvent `json:"event,omitempty"`
}

// LastSeenView splits last-seen entries into seeds and gear.
type LastSeenView struct {
	Seeds []shop.LastSeenItem `json:"seeds"`
	Gear  []shop.LastSeenItem `json:"gear"`
}

// StockService serves shop data to the dashboard.
type StockService interface {
	// Stock fetches the current snapshot and publishes it to the coordinator.
	Stock(ctx context.Context) (*StockView, error)
	Weather(ctx context.Context) (*WeatherView, error)
	LastSeen(ctx context.Context) (*LastSeenView, error)
	Catalog() []catalog.Seed
}

type stockServiceImpl struct {
	client    ShopClient
	catalog   *catalog.Catalog
	watchlist WatchlistReader
	publisher SnapshotPublisher
	logger    *slog.Logger
}

// NewStockService creates a new StockService. publisher may be nil.
func NewStockService(
	client ShopClient,
	cat *catalog.Catalog,
	watchlist WatchlistReader,
	publisher SnapshotPublisher,
	logger *slog.Logger,
) StockService {
	return &stockServiceImpl{
		client:    client,
		catalog:   cat,
		watchlist: watchlist,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *stockServiceImpl) Stock(ctx context.Context) (*StockView, error) {
	snap, err := s.client.FetchStock(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "stock", Err: err}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snap); err != nil {
			s.logger.Warn("publishing snapshot", "report_id", snap.ID(), "error", err)
		}
	}

	watched := make(map[string]bool)
	for _, n := range s.watchlist.Get(ctx) {
		watched[n] = true
	}
	annotate := func(items []shop.Item) []StockItem {
		out := make([]StockItem, 0, len(items))
		for _, it := range items {
			out = append(out, StockItem{Item: it, Tier: s.catalog.Tier(it.Name), Watched: watched[it.Name]})
		}
		return out
	}

	return &StockView{
		ReportID:     snap.ID(),
		ReportedAt:   snap.ReportedAt,
		NextUpdateAt: snap.NextUpdateAt,
		Seeds:        annotate(s.catalog.SortSeeds(snap.Seeds)),
		Gear:         annotate(catalog.SortGear(snap.Gear)),
	}, nil
}

func (s *stockServiceImpl) Weather(ctx context.Context) (*WeatherView, error) {
	w, err := s.client.FetchWeather(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "weather", Err: err}
	}
	view := &WeatherView{Weather: *w}
	if w.Active {
		if ev, ok := s.catalog.Weather(w.Name); ok {
			view.Event = &ev
		}
	}
	return view, nil
}

func (s *stockServiceImpl) LastSeen(ctx context.Context) (*LastSeenView, error) {
	items, err := s.client.FetchLastSeen(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "last-seen", Err: err}
	}

	view := &LastSeenView{Seeds: []shop.LastSeenItem{}, Gear: []shop.LastSeenItem{}}
	seedsByName := make(map[string]shop.LastSeenItem)
	var seedNames []string
	for _, it := range items {
		if s.catalog.IsSeed(it.Name) {
			seedsByName[it.Name] = it
			seedNames = append(seedNames, it.Name)
			continue
		}
		view.Gear = append(view.Gear, it)
	}
	for _, n := range s.catalog.SortSeedNames(seedNames) {
		view.Seeds = append(view.Seeds, seedsByName[n])
	}
	return view, nil
}

func (s *stockServiceImpl) Catalog() []catalog.Seed {
	return s.catalog.Seeds()
}
