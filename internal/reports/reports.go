package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/cache"
	"polycare/m/internal/store"
)

const (
	DefaultAuditLimit  = 100
	DefaultExpiryDays  = 30
	dashboardCacheKey  = "dashboard-stats"
	unknownProductName = "Unknown Product"
)

// Service computes the read-side views over the ledger. Day boundaries
// are taken in the configured location.
type Service struct {
	store    *store.Store
	cache    cache.ReportCache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Service)

func WithCache(c cache.ReportCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		cache:    cache.Noop{},
		cacheTTL: time.Minute,
		loc:      time.Local,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// DayBounds returns the first and last instant of the day containing t.
func (s *Service) DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

type DashboardStats struct {
	StockInvestment decimal.Decimal `json:"stockInvestment"`
	TodayRevenue    decimal.Decimal `json:"todayRevenue"`
	TodayProfit     decimal.Decimal `json:"todayProfit"`
	ItemsSold       decimal.Decimal `json:"itemsSold"`
}

// DashboardStats values the stock on hand at batch cost and totals
// today's sales. Results are cached until the next ledger write.
func (s *Service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	now := s.now()
	start, end := s.DayBounds(now)
	key := dashboardCacheKey + ":" + start.Format("2006-01-02")

	var stats DashboardStats
	hit, err := s.cache.Get(ctx, key, &stats)
	if err != nil {
		s.log.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return stats, nil
	}

	masters, err := s.medicineIndex(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	batches, err := s.store.ListStockedBatches(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	investment := decimal.Zero
	for _, b := range batches {
		investment = investment.Add(b.Quantity.Mul(b.UnitCost(masters[b.MedicineID])))
	}

	sales, err := s.store.ListSales(ctx, start, end)
	if err != nil {
		return DashboardStats{}, err
	}
	revenue, profit, items := decimal.Zero, decimal.Zero, decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.TotalSellingPrice)
		profit = profit.Add(sale.Profit)
		items = items.Add(sale.QuantitySold)
	}

	stats = DashboardStats{
		StockInvestment: domain.Round2(investment),
		TodayRevenue:    domain.Round2(revenue),
		TodayProfit:     domain.Round2(profit),
		ItemsSold:       domain.Round2(items),
	}
	if err := s.cache.Set(ctx, key, stats, s.cacheTTL); err != nil {
		s.log.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stats, nil
}

type ProfitLine struct {
	Name         string          `json:"name"`
	TotalQty     decimal.Decimal `json:"totalQty"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
}

// ProfitSummary groups the sales from the start of startDay through the
// end of endDay by medicine name.
func (s *Service) ProfitSummary(ctx context.Context, startDay, endDay time.Time) ([]ProfitLine, error) {
	from, _ := s.DayBounds(startDay)
	_, to := s.DayBounds(endDay)
	sales, err := s.store.ListSales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byName := map[string]*ProfitLine{}
	for _, sale := range sales {
		line, ok := byName[sale.Name]
		if !ok {
			line = &ProfitLine{Name: sale.Name}
			byName[sale.Name] = line
		}
		line.TotalQty = line.TotalQty.Add(sale.QuantitySold)
		line.TotalRevenue = line.TotalRevenue.Add(sale.TotalSellingPrice)
		line.TotalProfit = line.TotalProfit.Add(sale.Profit)
	}

	lines := make([]ProfitLine, 0, len(byName))
	for _, line := range byName {
		line.TotalQty = domain.Round2(line.TotalQty)
		line.TotalRevenue = domain.Round2(line.TotalRevenue)
		line.TotalProfit = domain.Round2(line.TotalProfit)
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

// History lists the sales of one day, newest first.
func (s *Service) History(ctx context.Context, day time.Time) ([]domain.Sale, error) {
	from, to := s.DayBounds(day)
	return s.store.ListSales(ctx, from, to)
}

type BusinessSummary struct {
	StockValueOnShelves decimal.Decimal `json:"stockValueOnShelves"`
	TodayRevenue        decimal.Decimal `json:"todayRevenue"`
	TodayProfit         decimal.Decimal `json:"todayProfit"`
	ItemsSoldToday      int             `json:"itemsSoldToday"`
}

// BusinessSummary values stock at master cost and counts today's sales.
func (s *Service) BusinessSummary(ctx context.Context) (BusinessSummary, error) {
	medicines, err := s.store.ListMedicines(ctx)
	if err != nil {
		return BusinessSummary{}, err
	}
	value := decimal.Zero
	for _, m := range medicines {
		value = value.Add(m.TotalStock.Mul(m.BuyingPrice))
	}

	from, to := s.DayBounds(s.now())
	sales, err := s.store.ListSales(ctx, from, to)
	if err != nil {
		return BusinessSummary{}, err
	}
	revenue, profit := decimal.Zero, decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.TotalSellingPrice)
		profit = profit.Add(sale.Profit)
	}
	return BusinessSummary{
		StockValueOnShelves: domain.Round2(value),
		TodayRevenue:        domain.Round2(revenue),
		TodayProfit:         domain.Round2(profit),
		ItemsSoldToday:      len(sales),
	}, nil
}

type StockValueLine struct {
	MedicineID       string          `json:"medicineId"`
	Name             string          `json:"name"`
	BatchNumber      string          `json:"batchNumber"`
	ExpiryDate       time.Time       `json:"expiryDate"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitBuyingPrice  decimal.Decimal `json:"unitBuyingPrice"`
	UnitSellingPrice decimal.Decimal `json:"unitSellingPrice"`
	TotalInvestment  decimal.Decimal `json:"totalInvestment"`
	PotentialRevenue decimal.Decimal `json:"potentialRevenue"`
	PotentialProfit  decimal.Decimal `json:"potentialProfit"`
}

// StockValue breaks down every stocked batch into cost and expected
// revenue at the current selling price.
func (s *Service) StockValue(ctx context.Context) ([]StockValueLine, error) {
	masters, err := s.medicineIndex(ctx)
	if err != nil {
		return nil, err
	}
	batches, err := s.store.ListStockedBatches(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]StockValueLine, 0, len(batches))
	for _, b := range batches {
		master := masters[b.MedicineID]
		name := unknownProductName
		selling := decimal.Zero
		if master != nil {
			name = master.Name
			selling = master.SellingPrice
		}
		cost := b.UnitCost(master)
		lines = append(lines, StockValueLine{
			MedicineID:       b.MedicineID,
			Name:             name,
			BatchNumber:      b.BatchNumber,
			ExpiryDate:       b.ExpiryDate,
			Quantity:         b.Quantity,
			UnitBuyingPrice:  cost,
			UnitSellingPrice: selling,
			TotalInvestment:  domain.Round2(b.Quantity.Mul(cost)),
			PotentialRevenue: domain.Round2(b.Quantity.Mul(selling)),
			PotentialProfit:  domain.Round2(selling.Sub(cost).Mul(b.Quantity)),
		})
	}
	return lines, nil
}

func (s *Service) medicineIndex(ctx context.Context) (map[string]*domain.Medicine, error) {
	medicines, err := s.store.ListMedicines(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*domain.Medicine, len(medicines))
	for i := range medicines {
		index[medicines[i].MedicineID] = &medicines[i]
	}
	return index, nil
}
