package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/portal"
	"github.com/ibportal/backend/internal/infrastructure/cache"
	"github.com/ibportal/backend/internal/infrastructure/export"
	"github.com/ibportal/backend/internal/infrastructure/gateway"
	"github.com/ibportal/backend/internal/infrastructure/logger"
	"github.com/ibportal/backend/internal/infrastructure/telemetry"
)

// Default fetch timings
const (
	DefaultFetchWait   = 300 * time.Millisecond
	DefaultFetchWindow = time.Minute
)

// Gateway is the part of the gateway client used to load pages
type Gateway interface {
	FetchRows(ctx context.Context, token, path string, params map[string]string, rowsPath string) ([]grid.Row, error)
	FetchValue(ctx context.Context, token, path string, params map[string]string, valuePath string) (gjson.Result, error)
}

// Exporter writes export files
type Exporter interface {
	Export(ctx context.Context, table *grid.Table, format export.Format) ([]byte, error)
}

// PageService loads page data for a session and renders or exports it
// through the grid engine. Rows are cached per session and page; concurrent
// loads of the same key share one gateway fetch.
type PageService struct {
	catalog     *portal.Catalog
	gateway     Gateway
	cache       cache.Cache
	exporter    Exporter
	group       singleflight.Group
	fetchWait   time.Duration
	fetchWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a PageService
type Option func(*PageService)

// WithFetchWait sets how long a non-waiting view waits for an uncached fetch
func WithFetchWait(d time.Duration) Option {
	return func(s *PageService) {
		if d >= 0 {
			s.fetchWait = d
		}
	}
}

// WithFetchWindow bounds how long a fetch may run, including in the background
func WithFetchWindow(d time.Duration) Option {
	return func(s *PageService) {
		if d > 0 {
			s.fetchWindow = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *PageService) {
		s.now = now
	}
}

// NewPageService creates a new page service
func NewPageService(
	catalog *portal.Catalog,
	gw Gateway,
	c cache.Cache,
	exporter Exporter,
	logger *zap.Logger,
	opts ...Option,
) *PageService {
	s := &PageService{
		catalog:     catalog,
		gateway:     gw,
		cache:       c,
		exporter:    exporter,
		fetchWait:   DefaultFetchWait,
		fetchWindow: DefaultFetchWindow,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the page catalog
func (s *PageService) Catalog() *portal.Catalog {
	return s.catalog
}

// Nav returns the sidebar of the session's portal
func (s *PageService) Nav(sess *identity.Session) []portal.NavSection {
	return s.catalog.Nav(sess.Role)
}

// View renders one page of the grid for the given state
func (s *PageService) View(ctx context.Context, sess *identity.Session, pageID string, in ViewInput) (*PageView, error) {
	page, err := s.catalog.Get(sess.Role, pageID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartPageSpan(ctx, "view", string(sess.Role), page.ID)
	defer span.End()

	data, cached, err := s.load(ctx, sess, page, in.Wait)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, cached)

	out := &PageView{
		Page:   metaOf(page),
		Cached: cached,
	}

	if data == nil {
		g := grid.New(nil, page.GridConfig(nil))
		g.SetLoading(true)
		if err := g.Restore(in.State); err != nil {
			return nil, err
		}
		out.Grid = g.View()
		return out, nil
	}

	g, err := s.buildGrid(page, data, in.State)
	if err != nil {
		return nil, err
	}
	out.Grid = g.View()
	fetched := data.FetchedAt
	out.FetchedAt = &fetched

	if n := out.Grid.UnparsedDates; n > 0 {
		logger.WithLogger(ctx, s.logger).Debug("Rows excluded by date filter with unparseable dates",
			zap.String("page_id", page.ID),
			zap.Int("rows", n))
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrRowCount, out.Grid.Filtered)
	telemetry.SetOK(span)
	return out, nil
}

// Export writes the full filtered set of a page in format
func (s *PageService) Export(ctx context.Context, sess *identity.Session, pageID string, state grid.State, format export.Format) (*ExportResult, error) {
	page, err := s.catalog.Get(sess.Role, pageID)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartPageSpan(ctx, "export", string(sess.Role), page.ID,
		telemetry.WithAttribute(telemetry.SpanAttrFormat, string(format)),
	)
	defer span.End()

	data, _, err := s.load(ctx, sess, page, true)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	g, err := s.buildGrid(page, data, state)
	if err != nil {
		return nil, err
	}

	table, err := g.ExportTable()
	if err != nil {
		return nil, err
	}

	file, err := s.exporter.Export(ctx, table, format)
	if err != nil {
		if errors.Is(err, grid.ErrEmptyExport) {
			return nil, err
		}
		telemetry.RecordError(span, err)
		logger.WithLogger(ctx, s.logger).Error("Export failed",
			zap.String("page_id", page.ID),
			zap.String("format", string(format)),
			zap.Int("rows", table.Len()),
			zap.Error(err))
		return nil, grid.ErrExportFailed
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRowCount, table.Len())
	telemetry.SetOK(span)
	return &ExportResult{
		Filename:    export.Filename(s.now(), format),
		ContentType: format.ContentType(),
		Data:        file,
		Rows:        table.Len(),
	}, nil
}

// Invalidate drops the session's cached rows of a page so the next view refetches
func (s *PageService) Invalidate(ctx context.Context, sess *identity.Session, pageID string) error {
	page, err := s.catalog.Get(sess.Role, pageID)
	if err != nil {
		return err
	}
	if err := s.cache.Clear(ctx, cacheKey(sess, page)); err != nil {
		return fmt.Errorf("failed to clear page cache: %w", err)
	}
	logger.WithLogger(ctx, s.logger).Debug("Page cache cleared", zap.String("page_id", page.ID))
	return nil
}

func metaOf(p *portal.Page) PageMeta {
	return PageMeta{ID: p.ID, Portal: p.Portal, Title: p.Title, Section: p.Section}
}

func cacheKey(sess *identity.Session, page *portal.Page) string {
	return fmt.Sprintf("rows:%s:%s:%s", sess.Role, sess.ID, page.ID)
}

// buildGrid renders the KPI cards and restores state onto a grid of the rows
func (s *PageService) buildGrid(page *portal.Page, data *pageData, state grid.State) (*grid.Grid, error) {
	g := grid.New(data.Rows, page.GridConfig(s.kpis(page, data)))
	if err := g.Restore(state); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *PageService) kpis(page *portal.Page, data *pageData) []grid.Renderable {
	if len(page.KPIs) == 0 {
		return nil
	}
	cards := make([]grid.Renderable, len(page.KPIs))
	for i, k := range page.KPIs {
		if k.Kind != portal.KPIRemote {
			cards[i] = k.Render(k.Compute(data.Rows))
			continue
		}
		raw, ok := data.Remote[i]
		if !ok {
			cards[i] = k.RenderUnavailable()
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			cards[i] = k.RenderUnavailable()
			continue
		}
		cards[i] = k.Render(d)
	}
	return cards
}

// load returns the page data from cache or the gateway. It returns nil data
// without error when wait is false and the fetch outlasts the fetch wait.
func (s *PageService) load(ctx context.Context, sess *identity.Session, page *portal.Page, wait bool) (*pageData, bool, error) {
	key := cacheKey(sess, page)
	log := logger.WithLogger(ctx, s.logger)

	data, ok, err := cache.GetJSON[pageData](ctx, s.cache, key)
	if err != nil {
		log.Warn("Page cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return &data, true, nil
	}

	// The fetch runs detached from the caller so an abandoned request still
	// fills the cache, bounded by the fetch window.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchWindow)
		defer cancel()
		// a fetch that finished after our cache miss has already stored the rows
		if data, ok, err := cache.GetJSON[pageData](fctx, s.cache, key); err == nil && ok {
			return &data, nil
		}
		return s.fetch(fctx, sess, page, key)
	})

	var timeout <-chan time.Time
	if !wait {
		timer := time.NewTimer(s.fetchWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*pageData), false, nil
	case <-timeout:
		log.Debug("Page still loading", zap.String("page_id", page.ID))
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// fetch loads rows and remote KPI values in parallel, aggregates and caches them
func (s *PageService) fetch(ctx context.Context, sess *identity.Session, page *portal.Page, key string) (*pageData, error) {
	ctx, span := telemetry.StartPageSpan(ctx, "fetch", string(sess.Role), page.ID,
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sess.ID),
	)
	defer span.End()
	log := logger.WithLogger(ctx, s.logger).With(zap.String("page_id", page.ID))
	start := time.Now()

	var (
		rows   []grid.Row
		mu     sync.Mutex
		remote = make(map[int]string)
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		rows, err = s.gateway.FetchRows(ctx, sess.GatewayToken, page.Source.Path, page.Source.Params, page.Source.Rows)
		return err
	})
	for i, k := range page.KPIs {
		if k.Kind != portal.KPIRemote {
			continue
		}
		p.Go(func(ctx context.Context) error {
			res, err := s.gateway.FetchValue(ctx, sess.GatewayToken, k.Source.Path, k.Source.Params, k.Value)
			if err != nil {
				// a missing KPI does not fail the page
				log.Warn("Remote KPI fetch failed", zap.String("kpi", k.Label), zap.Error(err))
				return nil
			}
			v, ok := decimalOfResult(res)
			if !ok {
				log.Warn("Remote KPI is not numeric", zap.String("kpi", k.Label), zap.String("value", res.Raw))
				return nil
			}
			mu.Lock()
			remote[i] = v
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Page fetch failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, mapGatewayError(err)
	}

	data := &pageData{Rows: rows, FetchedAt: s.now()}
	if len(remote) > 0 {
		data.Remote = remote
	}
	if page.Aggregate != nil {
		data.Rows, data.Skipped = page.Aggregate.Apply(rows)
		if data.Skipped > 0 {
			log.Debug("Rows without a bucket date left out of aggregation", zap.Int("rows", data.Skipped))
		}
	}

	if err := cache.SetJSON(ctx, s.cache, key, data, page.TTL()); err != nil {
		log.Warn("Page cache write failed", zap.String("key", key), zap.Error(err))
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrRowCount, len(data.Rows))
	telemetry.SetOK(span)
	log.Info("Page fetched",
		zap.Int("rows", len(data.Rows)),
		zap.Int("remote_kpis", len(remote)),
		zap.Duration("duration", time.Since(start)))
	return data, nil
}

func decimalOfResult(res gjson.Result) (string, bool) {
	switch res.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(res.Raw)
		if err != nil {
			return "", false
		}
		return d.String(), true
	case gjson.String:
		d, err := decimal.NewFromString(strings.TrimSpace(res.Str))
		if err != nil {
			return "", false
		}
		return d.String(), true
	}
	return "", false
}

func mapGatewayError(err error) error {
	if errors.Is(err, gateway.ErrUnauthorized) {
		return ErrGatewayUnauthorized
	}
	return ErrGateway
}
