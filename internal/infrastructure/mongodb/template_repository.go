package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/mongodb"
)

// TemplateRepository implements domain.BuyerSpecTemplateRepository.
type TemplateRepository struct {
	collection mongodb.Collection
	logger     *logging.Logger
}

// NewTemplateRepository creates a TemplateRepository and its unique moNo index.
func NewTemplateRepository(ctx context.Context, collection mongodb.Collection, logger *logging.Logger) *TemplateRepository {
	repo := &TemplateRepository{collection: collection, logger: logger}
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "moNo", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.WithError(err).Warn("Failed to create buyer spec template indexes")
	}
	return repo
}

// Upsert creates or replaces the template of t.MoNo.
func (r *TemplateRepository) Upsert(ctx context.Context, t *domain.BuyerSpecTemplate) (*domain.BuyerSpecTemplate, error) {
	now := mongodb.Now()
	update := bson.M{
		"$set": bson.M{
			"buyer":     t.Buyer,
			"stage":     t.Stage,
			"specData":  t.SpecData,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.BuyerSpecTemplate
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"moNo": t.MoNo}, update, opts).Decode(&saved)
	if err != nil {
		return nil, mongodb.TranslateError(err, "upsert buyer spec template")
	}
	return &saved, nil
}

// FindByMoNo loads the template of an MO.
func (r *TemplateRepository) FindByMoNo(ctx context.Context, moNo string) (*domain.BuyerSpecTemplate, error) {
	var t domain.BuyerSpecTemplate
	err := r.collection.FindOne(ctx, bson.M{"moNo": moNo}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err, "find buyer spec template")
	}
	return &t, nil
}

// ListMoOptions lists MO and stage of every template, ordered by MO.
func (r *TemplateRepository) ListMoOptions(ctx context.Context) ([]domain.MoOption, error) {
	opts := options.Find().
		SetSort(mongodb.SortAscending("moNo")).
		SetProjection(bson.M{"_id": 0, "moNo": 1, "stage": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongodb.TranslateError(err, "list template mo options")
	}
	defer cursor.Close(ctx)

	result := []domain.MoOption{}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mongodb.TranslateError(err, "list template mo options")
	}
	return result, nil
}

// UpdateSpecData replaces the spec data of an existing template.
func (r *TemplateRepository) UpdateSpecData(ctx context.Context, moNo, stage string, specData []domain.SizeSpecData) (*domain.BuyerSpecTemplate, error) {
	set := bson.M{"specData": specData, "updatedAt": mongodb.Now()}
	if stage != "" {
		set["stage"] = stage
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t domain.BuyerSpecTemplate
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"moNo": moNo}, bson.M{"$set": set}, opts).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongodb.TranslateError(err, "update buyer spec template")
	}
	return &t, nil
}

var _ domain.BuyerSpecTemplateRepository = (*TemplateRepository)(nil)
