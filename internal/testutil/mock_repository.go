package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
)

// MockOrderRepository is an in-memory domain.OrderRepository. UpdateSpecs
// enforces the same version check as the Mongo implementation.
type MockOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	FindByOrderNoFunc func(ctx context.Context, orderNo string) (*domain.Order, error)
	UpdateSpecsFunc   func(ctx context.Context, update domain.SpecsUpdate) (*domain.UpdateOutcome, error)
	SearchFunc        func(ctx context.Context, term string, limit int64) ([]*domain.Order, error)
	DistinctFunc      func(ctx context.Context, field domain.OrderField, filter domain.OrderFilter) ([]string, error)

	UpdateCalls int
}

// NewMockOrderRepository creates an empty mock repository
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.Order)}
}

// AddOrder stores an order, minting an id when it has none.
func (m *MockOrderRepository) AddOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders[order.OrderNo] = order
}

// Order returns a copy of the stored order.
func (m *MockOrderRepository) Order(orderNo string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderNo]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// FindByOrderNo implements domain.OrderRepository
func (m *MockOrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	if m.FindByOrderNoFunc != nil {
		return m.FindByOrderNoFunc(ctx, orderNo)
	}
	return m.Order(orderNo), nil
}

// ListColors implements domain.OrderRepository
func (m *MockOrderRepository) ListColors(ctx context.Context, orderNo string) ([]domain.OrderColor, error) {
	o := m.Order(orderNo)
	if o == nil {
		return nil, nil
	}
	if o.Colors == nil {
		return []domain.OrderColor{}, nil
	}
	return o.Colors, nil
}

// UpdateSpecs implements domain.OrderRepository
func (m *MockOrderRepository) UpdateSpecs(ctx context.Context, update domain.SpecsUpdate) (*domain.UpdateOutcome, error) {
	m.mu.Lock()
	m.UpdateCalls++
	m.mu.Unlock()

	if m.UpdateSpecsFunc != nil {
		return m.UpdateSpecsFunc(ctx, update)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID != update.OrderID {
			continue
		}
		if o.SpecsVersion() != update.ExpectedVersion {
			return nil, apperrors.ErrConflict("washing specs were changed by another upload")
		}
		o.BeforeWashSpecs = update.BeforeWashSpecs
		o.AfterWashSpecs = update.AfterWashSpecs
		o.SpecsMetadata = &domain.WashingSpecsMetadata{
			Version:     update.ExpectedVersion + 1,
			LastUpdated: update.UpdatedAt,
		}
		o.UpdatedAt = update.UpdatedAt
		return &domain.UpdateOutcome{Matched: true, Modified: true, Version: update.ExpectedVersion + 1}, nil
	}
	return nil, apperrors.ErrConflict("washing specs were changed by another upload")
}

// Search implements domain.OrderRepository
func (m *MockOrderRepository) Search(ctx context.Context, term string, limit int64) ([]*domain.Order, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term, limit)
	}
	var result []*domain.Order
	for _, o := range m.sorted() {
		if strings.Contains(strings.ToLower(o.OrderNo), strings.ToLower(term)) {
			result = append(result, o)
		}
	}
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

// FindWithUploadedSpecs implements domain.OrderRepository
func (m *MockOrderRepository) FindWithUploadedSpecs(ctx context.Context, filter domain.UploadedFilter, pagination domain.Pagination) ([]*domain.Order, int64, error) {
	var matched []*domain.Order
	for _, o := range m.sorted() {
		if !o.HasUploadedSpecs() {
			continue
		}
		if filter.OrderNo != "" && !strings.Contains(strings.ToLower(o.OrderNo), strings.ToLower(filter.OrderNo)) {
			continue
		}
		matched = append(matched, o)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return lastUpdated(matched[i]).After(lastUpdated(matched[j]))
	})

	total := int64(len(matched))
	start := pagination.Skip()
	if start > total {
		start = total
	}
	end := start + pagination.Limit()
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// DistinctValues implements domain.OrderRepository
func (m *MockOrderRepository) DistinctValues(ctx context.Context, field domain.OrderField, filter domain.OrderFilter) ([]string, error) {
	if m.DistinctFunc != nil {
		return m.DistinctFunc(ctx, field, filter)
	}
	seen := make(map[string]bool)
	result := []string{}
	for _, o := range m.sorted() {
		if !matchesFilter(o, filter) {
			continue
		}
		v := fieldValue(o, field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	sort.Strings(result)
	return result, nil
}

func (m *MockOrderRepository) sorted() []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		cp := *o
		orders = append(orders, &cp)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderNo < orders[j].OrderNo })
	return orders
}

func lastUpdated(o *domain.Order) time.Time {
	if o.SpecsMetadata == nil {
		return time.Time{}
	}
	return o.SpecsMetadata.LastUpdated
}

func matchesFilter(o *domain.Order, filter domain.OrderFilter) bool {
	for field, value := range filter {
		if fieldValue(o, field) != value {
			return false
		}
	}
	return true
}

func fieldValue(o *domain.Order, field domain.OrderField) string {
	switch field {
	case domain.FieldFactory:
		return o.Factory
	case domain.FieldOrderNo:
		return o.OrderNo
	case domain.FieldCustStyle:
		return o.CustStyle
	case domain.FieldBuyer:
		return o.ShortName
	case domain.FieldMode:
		return o.Mode
	case domain.FieldCountry:
		return o.Country
	case domain.FieldOrigin:
		return o.Origin
	}
	return ""
}

// MockTemplateRepository is an in-memory domain.BuyerSpecTemplateRepository.
type MockTemplateRepository struct {
	mu        sync.Mutex
	templates map[string]*domain.BuyerSpecTemplate

	UpsertFunc func(ctx context.Context, t *domain.BuyerSpecTemplate) (*domain.BuyerSpecTemplate, error)
}

// NewMockTemplateRepository creates an empty mock repository
func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{templates: make(map[string]*domain.BuyerSpecTemplate)}
}

// Upsert implements domain.BuyerSpecTemplateRepository
func (m *MockTemplateRepository) Upsert(ctx context.Context, t *domain.BuyerSpecTemplate) (*domain.BuyerSpecTemplate, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *t
	if prev, ok := m.templates[t.MoNo]; ok {
		stored.ID = prev.ID
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.ID = primitive.NewObjectID()
	}
	m.templates[t.MoNo] = &stored
	cp := stored
	return &cp, nil
}

// FindByMoNo implements domain.BuyerSpecTemplateRepository
func (m *MockTemplateRepository) FindByMoNo(ctx context.Context, moNo string) (*domain.BuyerSpecTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[moNo]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

// ListMoOptions implements domain.BuyerSpecTemplateRepository
func (m *MockTemplateRepository) ListMoOptions(ctx context.Context) ([]domain.MoOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []domain.MoOption{}
	for _, t := range m.templates {
		result = append(result, domain.MoOption{MoNo: t.MoNo, Stage: t.Stage})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MoNo < result[j].MoNo })
	return result, nil
}

// UpdateSpecData implements domain.BuyerSpecTemplateRepository
func (m *MockTemplateRepository) UpdateSpecData(ctx context.Context, moNo, stage string, specData []domain.SizeSpecData) (*domain.BuyerSpecTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[moNo]
	if !ok {
		return nil, nil
	}
	t.SpecData = specData
	if stage != "" {
		t.Stage = stage
	}
	cp := *t
	return &cp, nil
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

// PublishedEvent is one recorded publish call.
type PublishedEvent struct {
	Topic string
	Event *cloudevents.CloudEvent
}

// PublishEvent records the event and returns Err.
func (p *MockPublisher) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Event: event})
	return p.Err
}

// Published returns a copy of the recorded events.
func (p *MockPublisher) Published() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.Events...)
}

var (
	_ domain.OrderRepository             = (*MockOrderRepository)(nil)
	_ domain.BuyerSpecTemplateRepository = (*MockTemplateRepository)(nil)
)
