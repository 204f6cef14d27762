package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/kafka"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/tracing"
)

const notAvailable = "N/A"

// BuyerSpecService manages buyer spec templates and the order views they are
// edited from.
type BuyerSpecService struct {
	templates    domain.BuyerSpecTemplateRepository
	orders       domain.OrderRepository
	publisher    EventPublisher
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// NewBuyerSpecService creates a BuyerSpecService. publisher and m may be nil.
func NewBuyerSpecService(
	templates domain.BuyerSpecTemplateRepository,
	orders domain.OrderRepository,
	publisher EventPublisher,
	eventFactory *cloudevents.EventFactory,
	logger *logging.Logger,
	m *metrics.Metrics,
) *BuyerSpecService {
	return &BuyerSpecService{
		templates:    templates,
		orders:       orders,
		publisher:    publisher,
		eventFactory: eventFactory,
		logger:       logger.WithComponent("buyerspec"),
		metrics:      m,
		tracer:       otel.Tracer("washspec-service/buyerspec"),
	}
}

// SaveTemplate creates or replaces the template of an MO.
func (s *BuyerSpecService) SaveTemplate(ctx context.Context, cmd SaveTemplateCommand) (*TemplateResultDTO, error) {
	moNo := strings.TrimSpace(cmd.MoNo)
	if moNo == "" || cmd.Buyer == "" || cmd.Stage == "" || cmd.SpecData == nil {
		return nil, apperrors.ErrValidation("Missing required fields: moNo, buyer, stage, and specData are required.")
	}
	if err := domain.ValidateSpecData(cmd.SpecData); err != nil {
		return nil, mapTemplateError(err)
	}

	saved, err := tracing.TracedOperation(ctx, s.tracer, "buyerspec.save", func(ctx context.Context) (*domain.BuyerSpecTemplate, error) {
		return s.templates.Upsert(ctx, &domain.BuyerSpecTemplate{
			MoNo:     moNo,
			Buyer:    cmd.Buyer,
			Stage:    cmd.Stage,
			SpecData: cmd.SpecData,
		})
	}, attribute.String("mo.no", moNo))
	if err != nil {
		s.logger.WithOrder(moNo).WithError(err).Error("Failed to save buyer spec template")
		return nil, apperrors.FromError(err)
	}

	s.afterTemplateWrite(ctx, saved, "created")
	return &TemplateResultDTO{Message: msgTemplateSaved, Data: saved}, nil
}

// UpdateTemplate replaces the spec data of an existing template.
func (s *BuyerSpecService) UpdateTemplate(ctx context.Context, cmd UpdateTemplateCommand) (*TemplateResultDTO, error) {
	moNo := strings.TrimSpace(cmd.MoNo)
	if moNo == "" {
		return nil, apperrors.ErrValidation("MO No is required.")
	}
	if cmd.SpecData == nil {
		return nil, apperrors.ErrValidation("specData is required for update.")
	}
	if err := domain.ValidateSpecData(cmd.SpecData); err != nil {
		return nil, mapTemplateError(err)
	}

	updated, err := s.templates.UpdateSpecData(ctx, moNo, cmd.Stage, cmd.SpecData)
	if err != nil {
		s.logger.WithOrder(moNo).WithError(err).Error("Failed to update buyer spec template")
		return nil, apperrors.FromError(err)
	}
	if updated == nil {
		return nil, apperrors.NewAppError(apperrors.CodeNotFound, "Template not found for the given MO No.", http.StatusNotFound)
	}

	s.afterTemplateWrite(ctx, updated, "updated")
	return &TemplateResultDTO{Message: msgTemplateUpdated, Data: updated}, nil
}

func (s *BuyerSpecService) afterTemplateWrite(ctx context.Context, t *domain.BuyerSpecTemplate, operation string) {
	s.metrics.RecordTemplateSaved(operation)
	s.logger.Audit(ctx, "buyer_spec_template."+operation, "buyer_spec_template", t.MoNo, map[string]any{
		"stage": t.Stage,
		"sizes": len(t.SpecData),
	})

	if s.publisher == nil || s.eventFactory == nil {
		return
	}
	event := s.eventFactory.CreateBuyerSpecTemplateSavedEvent(ctx, cloudevents.BuyerSpecTemplateSavedData{
		MoNo:      t.MoNo,
		Buyer:     t.Buyer,
		Stage:     t.Stage,
		Sizes:     t.Sizes(),
		Operation: operation,
	})
	if err := s.publisher.PublishEvent(ctx, kafka.Topics.BuyerSpecEvents, event); err != nil {
		s.logger.WithOrder(t.MoNo).WithError(err).Warn("Failed to publish buyer spec template event")
	}
}

// MoOptions lists the MOs that have a template.
func (s *BuyerSpecService) MoOptions(ctx context.Context) ([]domain.MoOption, error) {
	options, err := s.templates.ListMoOptions(ctx)
	if err != nil {
		s.logger.WithOperation("moOptions").WithError(err).Error("Failed to list template MO options")
		return nil, apperrors.FromError(err)
	}
	if options == nil {
		options = []domain.MoOption{}
	}
	return options, nil
}

// EditData loads the stored template and the order's after-wash specs for the
// template editor.
func (s *BuyerSpecService) EditData(ctx context.Context, moNo string) (*EditSpecsDataDTO, error) {
	moNo = strings.TrimSpace(moNo)
	if moNo == "" {
		return nil, apperrors.ErrValidation("MO No is required.")
	}

	template, err := s.templates.FindByMoNo(ctx, moNo)
	if err != nil {
		return nil, apperrors.FromError(err)
	}
	order, err := s.orders.FindByOrderNo(ctx, moNo)
	if err != nil {
		return nil, apperrors.FromError(err)
	}

	var pattern *PatternDataDTO
	if order != nil && len(order.AfterWashSpecs) > 0 {
		pattern = &PatternDataDTO{OrderNo: order.OrderNo, AfterWashSpecs: order.AfterWashSpecs}
	}
	if template == nil && pattern == nil {
		return nil, apperrors.NewAppError(apperrors.CodeNotFound,
			fmt.Sprintf("No spec data found for MO No: %s in any source.", moNo), http.StatusNotFound)
	}
	return &EditSpecsDataDTO{TemplateData: template, PatternData: pattern}, nil
}

// OrderDetails reshapes an order and its shared after-wash specs into the
// buyer spec sheet header and lines.
func (s *BuyerSpecService) OrderDetails(ctx context.Context, moNo string) (*BuyerSpecOrderDetailsDTO, error) {
	moNo = strings.TrimSpace(moNo)
	order, err := s.orders.FindByOrderNo(ctx, moNo)
	if err != nil {
		return nil, apperrors.FromError(err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound("Order")
	}

	lines, specSizes := domain.BuyerSpecLines(order)

	colors := []string{}
	seenColor := make(map[string]bool)
	var orderSizes []string
	seenSize := make(map[string]bool)
	colorSizeMap := make(map[string]map[string]int64)
	for _, c := range order.Colors {
		name := strings.TrimSpace(c.Color)
		if name == "" {
			continue
		}
		if !seenColor[name] {
			seenColor[name] = true
			colors = append(colors, name)
		}
		for _, q := range c.SizeQuantities() {
			if colorSizeMap[name] == nil {
				colorSizeMap[name] = make(map[string]int64)
			}
			colorSizeMap[name][q.Size] += q.Qty
			if !seenSize[q.Size] {
				seenSize[q.Size] = true
				orderSizes = append(orderSizes, q.Size)
			}
		}
	}

	sizes := specSizes
	if len(sizes) == 0 {
		sizes = orderSizes
	}
	if lines == nil {
		lines = []domain.BuyerSpecLine{}
	}

	return &BuyerSpecOrderDetailsDTO{
		MoNo:         order.OrderNo,
		CustStyle:    orNA(order.CustStyle),
		Buyer:        orNA(order.ShortName),
		Mode:         orNA(order.Mode),
		Country:      orNA(order.Country),
		Origin:       orNA(order.Origin),
		OrderQty:     order.TotalQty,
		Colors:       colors,
		Sizes:        nonNil(sizes),
		ColorSizeMap: colorSizeMap,
		BuyerSpec:    lines,
	}, nil
}

func mapTemplateError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTemplateNoSpecData), errors.Is(err, domain.ErrTemplateNoSize):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	default:
		return apperrors.MapDomainError(err)
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
