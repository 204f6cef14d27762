package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/YashPS24/CAQMS/internal/domain"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/mongodb"
)

const (
	fieldBeforeWashSpecs = "beforeWashSpecs"
	fieldAfterWashSpecs  = "afterWashSpecs"
	fieldSpecsVersion    = "WashingSpecsMetadata.version"
	fieldSpecsUpdated    = "WashingSpecsMetadata.lastUpdated"
	fieldOrderColors     = "OrderColors"
)

// summaryProjection leaves out the color and quantity lines, which listings never show.
var summaryProjection = bson.M{
	"Order_No":             1,
	"CustStyle":            1,
	"TotalQty":             1,
	"Style":                1,
	fieldBeforeWashSpecs:   1,
	fieldAfterWashSpecs:    1,
	"WashingSpecsMetadata": 1,
}

// OrderRepository implements domain.OrderRepository over the dt_orders collection.
type OrderRepository struct {
	collection mongodb.Collection
	logger     *logging.Logger
}

// NewOrderRepository creates an OrderRepository and makes sure its indexes exist.
func NewOrderRepository(ctx context.Context, collection mongodb.Collection, logger *logging.Logger) *OrderRepository {
	repo := &OrderRepository{collection: collection, logger: logger}
	if err := repo.ensureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to create order indexes")
	}
	return repo
}

// Order numbers are not declared unique here; the order import owns the
// collection and its data may already hold duplicates.
func (r *OrderRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "Order_No", Value: 1}}},
		{Keys: bson.D{{Key: fieldSpecsUpdated, Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// FindByOrderNo loads a full order.
func (r *OrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"Order_No": orderNo}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err, "find order")
	}
	return &order, nil
}

// ListColors loads only the color lines of an order.
func (r *OrderRepository) ListColors(ctx context.Context, orderNo string) ([]domain.OrderColor, error) {
	opts := options.FindOne().SetProjection(bson.M{fieldOrderColors: 1})

	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"Order_No": orderNo}, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err, "list order colors")
	}
	if order.Colors == nil {
		return []domain.OrderColor{}, nil
	}
	return order.Colors, nil
}

// UpdateSpecs replaces both spec slots and bumps the version in one update.
// The filter pins the version read before the merge; a miss means another
// upload got there first.
func (r *OrderRepository) UpdateSpecs(ctx context.Context, update domain.SpecsUpdate) (*domain.UpdateOutcome, error) {
	filter := bson.M{"_id": update.OrderID}
	if update.ExpectedVersion == 0 {
		filter[fieldSpecsVersion] = bson.M{"$in": bson.A{0, nil}}
	} else {
		filter[fieldSpecsVersion] = update.ExpectedVersion
	}

	before := update.BeforeWashSpecs
	if before == nil {
		before = []domain.ColorSpecBlock{}
	}
	after := update.AfterWashSpecs
	if after == nil {
		after = []domain.ColorSpecBlock{}
	}

	doc := bson.M{
		"$set": bson.M{
			fieldBeforeWashSpecs: before,
			fieldAfterWashSpecs:  after,
			fieldSpecsUpdated:    update.UpdatedAt,
			"updatedAt":          update.UpdatedAt,
		},
		"$inc": bson.M{fieldSpecsVersion: 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, doc)
	if err != nil {
		return nil, mongodb.TranslateError(err, "update washing specs")
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.ErrConflict("washing specs were changed by another upload").
			WithDetail("expectedVersion", fmt.Sprint(update.ExpectedVersion))
	}

	return &domain.UpdateOutcome{
		Matched:  true,
		Modified: result.ModifiedCount > 0,
		Version:  update.ExpectedVersion + 1,
	}, nil
}

// Search suggests orders whose number contains term.
func (r *OrderRepository) Search(ctx context.Context, term string, limit int64) ([]*domain.Order, error) {
	opts := options.Find().
		SetSort(mongodb.SortAscending("Order_No")).
		SetLimit(limit).
		SetProjection(bson.M{"Order_No": 1, "CustStyle": 1, "TotalQty": 1, "Style": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"Order_No": mongodb.ContainsInsensitive(term)}, opts)
	if err != nil {
		return nil, mongodb.TranslateError(err, "search orders")
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, mongodb.TranslateError(err, "search orders")
	}
	return orders, nil
}

// FindWithUploadedSpecs pages through orders holding spec blocks.
func (r *OrderRepository) FindWithUploadedSpecs(ctx context.Context, filter domain.UploadedFilter, pagination domain.Pagination) ([]*domain.Order, int64, error) {
	query := bson.M{
		"$or": bson.A{
			bson.M{fieldBeforeWashSpecs: mongodb.NonEmptyArray()},
			bson.M{fieldAfterWashSpecs: mongodb.NonEmptyArray()},
		},
	}
	if filter.OrderNo != "" {
		query["Order_No"] = mongodb.ContainsInsensitive(filter.OrderNo)
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, mongodb.TranslateError(err, "count uploaded specs")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: fieldSpecsUpdated, Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit()).
		SetProjection(summaryProjection)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, mongodb.TranslateError(err, "list uploaded specs")
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, mongodb.TranslateError(err, "list uploaded specs")
	}
	return orders, total, nil
}

// DistinctValues lists the distinct non-empty values of field, sorted.
func (r *OrderRepository) DistinctValues(ctx context.Context, field domain.OrderField, filter domain.OrderFilter) ([]string, error) {
	query := bson.M{}
	for f, v := range filter {
		if v != "" {
			query[string(f)] = v
		}
	}

	raw, err := r.collection.Distinct(ctx, string(field), query)
	if err != nil {
		return nil, mongodb.TranslateError(err, "distinct "+string(field))
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s != "" {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

var _ domain.OrderRepository = (*OrderRepository)(nil)
