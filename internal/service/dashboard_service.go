package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-dashboard/config"
	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/resolve"
	"sales-dashboard/internal/table"
	"sales-dashboard/internal/util"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Source is the sales database
type Source interface {
	FetchCustomers(ctx context.Context) ([]models.Customer, error)
	FetchOrdersWithCustomer(ctx context.Context) ([]models.OrderRow, error)
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchOrderDetailsFull(ctx context.Context) ([]models.OrderDetailRow, error)
	Ping(ctx context.Context) error
}

// SnapshotCache holds the raw fetch results between render cycles. Every
// invalidation bumps the generation; SetSnapshot stores only when the
// generation still equals gen and reports whether it did.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context) (*models.Snapshot, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetSnapshot(ctx context.Context, snap *models.Snapshot, gen int64) (bool, error)
	InvalidateSnapshot(ctx context.Context) error
}

// ExportPublisher announces customer exports
type ExportPublisher interface {
	PublishCustomersExported(ctx context.Context, event *models.CustomersExportedEvent) error
}

// DashboardService runs render cycles: load, resolve, build, render
type DashboardService struct {
	source    Source
	cache     SnapshotCache
	publisher ExportPublisher
	renderer  *dashboard.Renderer
	breaker   *gobreaker.CircuitBreaker[any]
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardService creates a new dashboard service. cache and publisher
// may be nil.
func NewDashboardService(
	source Source,
	cache SnapshotCache,
	publisher ExportPublisher,
	renderer *dashboard.Renderer,
	breakerCfg config.BreakerConfig,
) *DashboardService {
	return &DashboardService{
		source:    source,
		cache:     cache,
		publisher: publisher,
		renderer:  renderer,
		breaker:   newBreaker(breakerCfg),
		now:       time.Now,
		logger:    util.Named("dashboard-service"),
	}
}

// Load fetches the four entities, resolves nested relations and builds the
// tables. A failed fetch leaves its entity empty and is reported as a
// warning, as are skipped and unparseable rows. Warnings are ordered query,
// join, parse.
func (s *DashboardService) Load(ctx context.Context) (*table.Dataset, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		util.DashboardLoadLatency.Observe(time.Since(start).Seconds())
	}()

	snap, cached := s.cachedSnapshot(ctx)
	var warnings []models.Warning
	if !cached {
		gen, genOK := s.snapshotGeneration(ctx)
		snap, warnings = s.fetchSnapshot(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(warnings) == 0 && genOK {
			s.storeSnapshot(ctx, snap, gen)
		}
	}

	orders, orderErrs := resolve.Orders(snap.Orders)
	details, detailErrs := resolve.OrderDetails(snap.OrderDetails)
	for _, err := range append(orderErrs, detailErrs...) {
		entity := "unknown"
		var je *resolve.JoinError
		if errors.As(err, &je) {
			entity = je.Entity
		}
		util.JoinErrorsTotal.WithLabelValues(entity).Inc()
		warnings = append(warnings, models.Warning{Kind: models.WarningJoin, Entity: entity, Message: err.Error()})
	}

	ds := table.Build(table.Input{
		Customers: snap.Customers,
		Orders:    orders,
		Products:  snap.Products,
		Details:   details,
	}, s.now())

	for _, w := range ds.Warnings {
		util.ParseErrorsTotal.WithLabelValues(w.Entity, w.Field).Inc()
	}
	ds.Warnings = append(warnings, ds.Warnings...)

	for _, w := range ds.Warnings {
		s.logger.Warn("Dashboard data warning",
			zap.String("kind", w.Kind),
			zap.String("entity", w.Entity),
			zap.String("field", w.Field),
			zap.String("message", w.Message))
	}

	span.SetAttributes(
		attribute.Int("customers", len(ds.Customers)),
		attribute.Int("orders", len(ds.Orders)),
		attribute.Int("warnings", len(ds.Warnings)),
		attribute.Bool("cached", cached),
	)
	return ds, nil
}

func (s *DashboardService) cachedSnapshot(ctx context.Context) (*models.Snapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	snap, ok, err := s.cache.GetSnapshot(ctx)
	if err != nil {
		s.logger.Warn("Snapshot cache lookup failed", zap.Error(err))
		util.SnapshotCacheTotal.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		util.SnapshotCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	util.SnapshotCacheTotal.WithLabelValues("hit").Inc()
	return snap, true
}

// snapshotGeneration reads the cache generation before a fetch. ok is false
// when there is no cache or the read failed, and the fetch is then not cached.
func (s *DashboardService) snapshotGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("Snapshot generation lookup failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *DashboardService) storeSnapshot(ctx context.Context, snap *models.Snapshot, gen int64) {
	stored, err := s.cache.SetSnapshot(ctx, snap, gen)
	if err != nil {
		s.logger.Warn("Failed to cache snapshot", zap.Error(err))
		return
	}
	if !stored {
		util.SnapshotCacheTotal.WithLabelValues("stale").Inc()
		s.logger.Debug("Snapshot invalidated during load, not cached", zap.Int64("generation", gen))
	}
}

// fetchSnapshot runs the four fetches in sequence. Each failure is isolated
// to its entity.
func (s *DashboardService) fetchSnapshot(ctx context.Context) (*models.Snapshot, []models.Warning) {
	var warnings []models.Warning
	failed := func(entity string, err error) {
		util.FetchFailuresTotal.WithLabelValues(entity).Inc()
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningQuery,
			Entity:  entity,
			Message: fmt.Sprintf("failed to load %s: %v", entity, err),
		})
	}

	snap := &models.Snapshot{}
	var err error

	if snap.Customers, err = guarded(s.breaker, func() ([]models.Customer, error) {
		return s.source.FetchCustomers(ctx)
	}); err != nil {
		failed("customers", err)
	}
	if snap.Orders, err = guarded(s.breaker, func() ([]models.OrderRow, error) {
		return s.source.FetchOrdersWithCustomer(ctx)
	}); err != nil {
		failed("orders", err)
	}
	if snap.Products, err = guarded(s.breaker, func() ([]models.Product, error) {
		return s.source.FetchProducts(ctx)
	}); err != nil {
		failed("products", err)
	}
	if snap.OrderDetails, err = guarded(s.breaker, func() ([]models.OrderDetailRow, error) {
		return s.source.FetchOrderDetailsFull(ctx)
	}); err != nil {
		failed("order_details", err)
	}

	return snap, warnings
}

// Render runs one full render cycle for a view
func (s *DashboardService) Render(ctx context.Context, p dashboard.Params) (*dashboard.Page, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Render", attribute.String("view", string(p.View)))
	defer span.End()

	start := time.Now()
	ds, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	page, err := s.renderer.Render(ds, p)
	if err != nil {
		return nil, err
	}

	util.DashboardRendersTotal.WithLabelValues(string(p.View)).Inc()
	util.DashboardRenderLatency.WithLabelValues(string(p.View)).Observe(time.Since(start).Seconds())
	return page, nil
}

// ExportCustomers returns the age-filtered customer table restricted to the
// selected columns and announces the export
func (s *DashboardService) ExportCustomers(ctx context.Context, p dashboard.Params) (*table.Projection, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.ExportCustomers")
	defer span.End()

	if p.Age != nil && p.Age.Min > p.Age.Max {
		return nil, fmt.Errorf("%w: min %d > max %d", dashboard.ErrInvalidAgeRange, p.Age.Min, p.Age.Max)
	}
	if err := table.ValidateCustomerColumns(p.Columns); err != nil {
		return nil, err
	}

	ds, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	rows, filter := dashboard.FilteredCustomers(ds.Customers, p.Age)
	projection, err := table.ProjectCustomers(rows, p.Columns)
	if err != nil {
		return nil, err
	}
	util.CustomerExportsTotal.Inc()

	event := &models.CustomersExportedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCustomersExported,
			Timestamp: s.now(),
		},
		Columns: projection.Columns,
		Rows:    len(projection.Rows),
	}
	if filter != nil {
		event.MinAge = filter.Selected.Min
		event.MaxAge = filter.Selected.Max
	}
	s.publishExport(ctx, event)

	s.logger.Info("Customers exported",
		zap.Int("rows", len(projection.Rows)),
		zap.Strings("columns", projection.Columns))
	return projection, nil
}

func (s *DashboardService) publishExport(ctx context.Context, event *models.CustomersExportedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCustomersExported(ctx, event); err != nil {
		s.logger.Error("Failed to publish export event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
}

// InvalidateSnapshot drops the cached snapshot so the next cycle refetches
func (s *DashboardService) InvalidateSnapshot(ctx context.Context, trigger string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.InvalidateSnapshot(ctx); err != nil {
		return err
	}
	util.CacheInvalidationsTotal.WithLabelValues(trigger).Inc()
	s.logger.Info("Snapshot invalidated", zap.String("trigger", trigger))
	return nil
}

// OnDataChanged invalidates the snapshot for a data change event
func (s *DashboardService) OnDataChanged(ctx context.Context, event *models.DataChangedEvent) error {
	return s.InvalidateSnapshot(ctx, event.EventType)
}

// Ready checks the sales database
func (s *DashboardService) Ready(ctx context.Context) error {
	return s.source.Ping(ctx)
}
