package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/internal/sheet"
	"github.com/YashPS24/CAQMS/internal/washspec"
	"github.com/YashPS24/CAQMS/pkg/api"
	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/kafka"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/resilience"
	"github.com/YashPS24/CAQMS/pkg/tracing"
)

const (
	searchMinTermLength = 2
	searchLimit         = 10
)

// WashSpecService ingests washing spec sheets and merges them into orders.
type WashSpecService struct {
	orders       domain.OrderRepository
	publisher    EventPublisher
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	retry        *resilience.RetryConfig
	now          func() time.Time
}

// WashSpecOption customises a WashSpecService.
type WashSpecOption func(*WashSpecService)

// WithSaveAttempts bounds how often a save is retried after losing a
// concurrent-update race.
func WithSaveAttempts(n int) WashSpecOption {
	return func(s *WashSpecService) {
		if n > 0 {
			s.retry.MaxAttempts = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) WashSpecOption {
	return func(s *WashSpecService) { s.now = now }
}

// NewWashSpecService creates a WashSpecService. publisher and m may be nil.
func NewWashSpecService(
	orders domain.OrderRepository,
	publisher EventPublisher,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
	m *metrics.Metrics,
	opts ...WashSpecOption,
) *WashSpecService {
	s := &WashSpecService{
		orders:       orders,
		publisher:    publisher,
		eventFactory: eventFactory,
		logger:       logger.WithComponent("washspec"),
		metrics:      m,
		tracer:       otel.Tracer("washspec-service/application"),
		retry:        resilience.DefaultRetryConfig(),
		now:          time.Now,
	}
	// A lost version race is resolved by re-reading, so back off briefly.
	s.retry.InitialDelay = 20 * time.Millisecond
	s.retry.MaxDelay = 200 * time.Millisecond
	s.retry.RetryableErrors = func(err error) bool {
		return apperrors.HasCode(err, apperrors.CodeConflict)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestSheet normalises a decoded table into a spec sheet.
func (s *WashSpecService) IngestSheet(ctx context.Context, cmd IngestCommand) (*domain.SpecSheet, error) {
	start := time.Now()
	result, err := washspec.Ingest(cmd.Cells)
	if err != nil {
		s.metrics.RecordSheetIngested(cmd.Source, false, 0)
		if errors.Is(err, washspec.ErrInsufficientData) {
			return nil, apperrors.ErrFormat("Insufficient data or wrong format.").Wrap(err)
		}
		return nil, apperrors.ErrFormat(err.Error()).Wrap(err)
	}

	s.metrics.RecordSheetIngested(cmd.Source, true, len(result.Rows))
	s.logger.SheetIngested(ctx, cmd.Source, len(result.Rows), len(result.SizeColumns), time.Since(start))
	return result, nil
}

// IngestFile decodes an uploaded workbook or CSV file and normalises it.
func (s *WashSpecService) IngestFile(ctx context.Context, cmd IngestFileCommand) (*domain.SpecSheet, error) {
	format, err := sheet.FormatOf(cmd.Filename)
	if err != nil {
		return nil, apperrors.ErrFormat(fmt.Sprintf("Unsupported file type %q; upload an .xlsx or .csv file.", cmd.Filename)).Wrap(err)
	}

	cells, err := sheet.Decode(cmd.Content, cmd.Filename, cmd.SheetName)
	if err != nil {
		s.metrics.RecordSheetIngested(string(format), false, 0)
		s.logger.WithFields(map[string]any{
			"filename": cmd.Filename,
			"sheet":    cmd.SheetName,
		}).WithError(err).Warn("Failed to decode spreadsheet")
		return nil, apperrors.ErrFormat("Could not read the uploaded spreadsheet.").Wrap(err)
	}

	return s.IngestSheet(ctx, IngestCommand{Source: string(format), Cells: cells})
}

// SaveSpecs merges the first ingested sheet into the selected colors of an
// order. Losing a concurrent-update race re-reads the order and merges again.
func (s *WashSpecService) SaveSpecs(ctx context.Context, cmd SaveSpecsCommand) (*SaveSpecsResult, error) {
	orderNo := strings.TrimSpace(cmd.OrderNo)
	switch {
	case orderNo == "":
		s.metrics.RecordSpecUpload("rejected")
		return nil, apperrors.ErrMissingField("moNo", "Missing MO Number or specs data.")
	case len(cmd.WashingSpecsData) == 0:
		s.metrics.RecordSpecUpload("rejected")
		return nil, apperrors.ErrMissingField("washingSpecsData", "Missing MO Number or specs data.")
	case !hasSelection(cmd.SelectedColors):
		s.metrics.RecordSpecUpload("rejected")
		return nil, apperrors.ErrMissingField("selectedColors", "Please select at least one color.")
	}
	specSheet := &cmd.WashingSpecsData[0]

	result, err := tracing.TracedOperation(ctx, s.tracer, "washspec.save", func(ctx context.Context) (*SaveSpecsResult, error) {
		var out *SaveSpecsResult
		err := resilience.Retry(ctx, s.retry, func() error {
			res, err := s.saveOnce(ctx, orderNo, specSheet, cmd.SelectedColors)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
		return out, err
	}, attribute.String("order.no", orderNo), attribute.Int("colors.selected", len(cmd.SelectedColors)))

	if err != nil {
		appErr := apperrors.FromError(err)
		switch appErr.Code {
		case apperrors.CodeValidationError, apperrors.CodeNotFound, apperrors.CodeFormatError:
			s.metrics.RecordSpecUpload("rejected")
		default:
			s.metrics.RecordSpecUpload("failed")
			s.logger.WithOrder(orderNo).WithError(err).Error("Failed to save washing specs")
		}
		return nil, appErr
	}

	if result.Unchanged {
		s.metrics.RecordSpecUpload("unchanged")
		s.logger.WithOrder(orderNo).Info("Washing specs already up to date")
		return result, nil
	}
	s.metrics.RecordSpecUpload("updated")
	return result, nil
}

func (s *WashSpecService) saveOnce(ctx context.Context, orderNo string, specSheet *domain.SpecSheet, selected []string) (*SaveSpecsResult, error) {
	order, err := s.orders.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID(fmt.Sprintf("Order with MO No '%s'", orderNo), orderNo)
	}

	uploadedAt := s.now().UTC()
	merge, err := domain.MergeWashingSpecs(order, domain.MergeInput{
		Sheet:          specSheet,
		SelectedColors: selected,
		UploadedAt:     uploadedAt,
	})
	if err != nil {
		return nil, mapMergeError(err, selected)
	}

	if len(merge.UnresolvedColors) > 0 {
		s.metrics.RecordUnresolvedColors(len(merge.UnresolvedColors))
		s.logger.WithOrder(orderNo).Warn("Selected colors not found on order",
			"unresolvedColors", merge.UnresolvedColors,
			"resolvedColors", merge.ResolvedColors,
		)
	}

	if !merge.Changed {
		return &SaveSpecsResult{Message: msgSpecsUnchanged, Unchanged: true}, nil
	}

	outcome, err := s.orders.UpdateSpecs(ctx, domain.SpecsUpdate{
		OrderID:         order.ID,
		ExpectedVersion: order.SpecsVersion(),
		BeforeWashSpecs: merge.BeforeWashSpecs,
		AfterWashSpecs:  merge.AfterWashSpecs,
		UpdatedAt:       uploadedAt,
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			s.logger.WithOrder(orderNo).Warn("Concurrent spec update detected, retrying", "expectedVersion", order.SpecsVersion())
		}
		return nil, err
	}

	s.metrics.RecordMeasurementsWritten(string(domain.StageBeforeWash), merge.BeforeWashMeasurements)
	s.metrics.RecordMeasurementsWritten(string(domain.StageAfterWash), merge.AfterWashMeasurements)
	s.logger.Audit(ctx, "washing_specs.updated", "order", orderNo, map[string]any{
		"updatedColors":          merge.ResolvedColors,
		"appliedColors":          merge.AppliedColors,
		"beforeWashMeasurements": merge.BeforeWashMeasurements,
		"afterWashMeasurements":  merge.AfterWashMeasurements,
		"version":                outcome.Version,
	})
	s.publishUploaded(ctx, orderNo, specSheet, merge, outcome.Version, uploadedAt)

	return &SaveSpecsResult{
		Message: fmt.Sprintf(msgSpecsUpdated, orderNo, len(merge.ResolvedColors)),
		Details: ToSaveSpecsDetails(specSheet, merge, outcome.Version),
	}, nil
}

func (s *WashSpecService) publishUploaded(ctx context.Context, orderNo string, specSheet *domain.SpecSheet, merge *domain.MergeResult, version int64, uploadedAt time.Time) {
	if s.publisher == nil || s.eventFactory == nil {
		return
	}
	event := s.eventFactory.CreateWashSpecsUploadedEvent(ctx, cloudevents.WashSpecsUploadedData{
		OrderNo:                orderNo,
		UpdatedColors:          merge.ResolvedColors,
		AppliedColors:          nonNil(merge.AppliedColors),
		UnresolvedColors:       merge.UnresolvedColors,
		BeforeWashMeasurements: merge.BeforeWashMeasurements,
		AfterWashMeasurements:  merge.AfterWashMeasurements,
		Sizes:                  nonNil(specSheet.SizeColumns),
		Version:                version,
		UploadedAt:             uploadedAt,
	})
	// The specs are already stored; a lost event must not fail the upload.
	if err := s.publisher.PublishEvent(ctx, kafka.Topics.WashSpecEvents, event); err != nil {
		s.logger.WithOrder(orderNo).WithError(err).Warn("Failed to publish washing specs event")
	}
}

func mapMergeError(err error, selected []string) error {
	switch {
	case errors.Is(err, domain.ErrNoColorsSelected):
		return apperrors.ErrValidation("Please select at least one color.").Wrap(err)
	case errors.Is(err, domain.ErrNoResolvableColors):
		return apperrors.ErrValidation("None of the selected colors belong to this order.").
			WithDetail("selectedColors", strings.Join(selected, ", ")).
			Wrap(err)
	case errors.Is(err, domain.ErrNoSpecRows), errors.Is(err, domain.ErrUnknownSize):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	default:
		return apperrors.MapDomainError(err)
	}
}

func hasSelection(codes []string) bool {
	for _, c := range codes {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

// ListUploaded pages through orders that already hold washing specs.
func (s *WashSpecService) ListUploaded(ctx context.Context, query ListUploadedQuery) (*api.PageResponse[UploadedOrderDTO], error) {
	page := domain.DefaultPagination()
	if query.Page > 0 {
		page.Page = query.Page
	}
	if query.Limit > 0 {
		page.PageSize = query.Limit
	}

	orders, total, err := s.orders.FindWithUploadedSpecs(ctx, domain.UploadedFilter{OrderNo: strings.TrimSpace(query.OrderNo)}, page)
	if err != nil {
		s.logger.WithOperation("listUploaded").WithError(err).Error("Failed to list uploaded specs")
		return nil, apperrors.FromError(err)
	}

	dtos := make([]UploadedOrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, ToUploadedOrderDTO(o))
	}
	resp := api.NewPageResponse(dtos, page.Page, page.PageSize, total)
	return &resp, nil
}

// SearchOrders suggests orders whose number contains term. Terms shorter than
// two characters return no suggestions.
func (s *WashSpecService) SearchOrders(ctx context.Context, term string) (*OrderSearchDTO, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < searchMinTermLength {
		return &OrderSearchDTO{Orders: []OrderSummaryDTO{}}, nil
	}

	orders, err := s.orders.Search(ctx, term, searchLimit)
	if err != nil {
		s.logger.WithOperation("searchOrders").WithError(err).Error("Failed to search orders", "term", term)
		return nil, apperrors.FromError(err)
	}
	return &OrderSearchDTO{Orders: ToOrderSummaryDTOs(orders)}, nil
}

// OrderColors lists the distinct colors of an order.
func (s *WashSpecService) OrderColors(ctx context.Context, orderNo string) (*OrderColorsDTO, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, apperrors.ErrValidation("Order number is required.")
	}

	colors, err := s.orders.ListColors(ctx, orderNo)
	if err != nil {
		s.logger.WithOrder(orderNo).WithError(err).Error("Failed to load order colors")
		return nil, apperrors.FromError(err)
	}
	if colors == nil {
		return nil, apperrors.ErrNotFoundWithID("Order", orderNo)
	}

	order := &domain.Order{Colors: colors}
	return &OrderColorsDTO{OrderNo: orderNo, Colors: ToOrderColorDTOs(order.UniqueColors())}, nil
}

// FilterOptions lists the distinct facet values of orders matching query.
func (s *WashSpecService) FilterOptions(ctx context.Context, query FilterOptionsQuery) (*FilterOptionsDTO, error) {
	filter := query.toFilter()
	values := make(map[domain.OrderField][]string, len(domain.FilterFields))
	for _, field := range domain.FilterFields {
		v, err := s.orders.DistinctValues(ctx, field, filter)
		if err != nil {
			s.logger.WithOperation("filterOptions").WithError(err).Error("Failed to load filter options", "field", string(field))
			return nil, apperrors.FromError(err)
		}
		values[field] = nonNil(v)
	}

	return &FilterOptionsDTO{
		Factories:  values[domain.FieldFactory],
		Monos:      values[domain.FieldOrderNo],
		CustStyles: values[domain.FieldCustStyle],
		Buyers:     values[domain.FieldBuyer],
		Modes:      values[domain.FieldMode],
		Countries:  values[domain.FieldCountry],
		Origins:    values[domain.FieldOrigin],
	}, nil
}
