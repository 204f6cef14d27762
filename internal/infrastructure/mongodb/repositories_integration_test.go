package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/YashPS24/CAQMS/internal/domain"
	apperrors "github.com/YashPS24/CAQMS/pkg/errors"
	"github.com/YashPS24/CAQMS/pkg/logging"
	pkgtesting "github.com/YashPS24/CAQMS/pkg/testing"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	db        *mongo.Database
	orders    *OrderRepository
	templates *TemplateRepository
	ctx       context.Context
}

func TestRepositoryIntegration(t *testing.T) {
	pkgtesting.SkipIfShort(t)
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.db = pkgtesting.NewMongoDatabase(s.T(), "caqms_test")
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	logger := logging.NewNop()
	s.orders = NewOrderRepository(s.ctx, s.db.Collection("dt_orders"), logger)
	s.templates = NewTemplateRepository(s.ctx, s.db.Collection("buyerspectemplates"), logger)
}

func (s *RepositoryIntegrationTestSuite) TearDownTest() {
	_ = s.db.Collection("dt_orders").Drop(s.ctx)
	_ = s.db.Collection("buyerspectemplates").Drop(s.ctx)
}

// insertOrder writes an order the way the order import does, with numeric color keys.
func (s *RepositoryIntegrationTestSuite) insertOrder(orderNo string, extra bson.M) primitive.ObjectID {
	id := primitive.NewObjectID()
	doc := bson.M{
		"_id":       id,
		"Order_No":  orderNo,
		"CustStyle": "CS-" + orderNo,
		"TotalQty":  int32(1200),
		"Factory":   "YM",
		"ShortName": "ANF",
		"OrderColors": bson.A{
			bson.M{"ColorCode": "001", "Color": "BLACK", "ChnColor": "黑色", "ColorKey": int32(1),
				"OrderQty": bson.A{bson.M{"S;1": int32(10), "M;2": int32(20), "_id": primitive.NewObjectID()}}},
			bson.M{"ColorCode": "002", "Color": "WHITE", "ChnColor": "白色", "ColorKey": int32(2)},
		},
	}
	for k, v := range extra {
		doc[k] = v
	}
	_, err := s.db.Collection("dt_orders").InsertOne(s.ctx, doc)
	s.Require().NoError(err)
	return id
}

func specBlock(code string, at time.Time) domain.ColorSpecBlock {
	half := 0.5
	return domain.ColorSpecBlock{
		ID:         primitive.NewObjectID(),
		ColorCode:  code,
		Color:      "BLACK",
		ColorKey:   "1",
		UploadedAt: at,
		Specs: []domain.SpecRow{{
			No:                      1,
			SeqNo:                   "1",
			MeasurementPointEngName: "Waist",
			TolMinus:                domain.FractionValue{Fraction: "-1/2", Decimal: domain.Float(-0.5)},
			TolPlus:                 domain.FractionValue{Fraction: "+1/2", Decimal: &half},
			SizeSpecs: domain.SizeSpecs{
				{Size: "S", Value: domain.FractionValue{Fraction: "30", Decimal: domain.Float(30)}},
				{Size: "M", Value: domain.FractionValue{Fraction: "31 1/2", Decimal: domain.Float(31.5)}},
			},
		}},
	}
}

func (s *RepositoryIntegrationTestSuite) TestFindByOrderNo_DecodesImportedOrder() {
	s.insertOrder("GPAR1234", nil)

	order, err := s.orders.FindByOrderNo(s.ctx, "GPAR1234")
	s.Require().NoError(err)
	s.Require().NotNil(order)
	s.Equal(int64(1200), order.TotalQty)
	s.Equal(int64(0), order.SpecsVersion())

	color, ok := order.FindColor("001")
	s.Require().True(ok)
	s.Equal(domain.ColorKey("1"), color.ColorKey)
	s.Len(color.SizeQuantities(), 2)
}

func (s *RepositoryIntegrationTestSuite) TestFindByOrderNo_Missing() {
	order, err := s.orders.FindByOrderNo(s.ctx, "NOPE")
	s.NoError(err)
	s.Nil(order)
}

func (s *RepositoryIntegrationTestSuite) TestListColors() {
	s.insertOrder("GPAR1234", nil)

	colors, err := s.orders.ListColors(s.ctx, "GPAR1234")
	s.Require().NoError(err)
	s.Len(colors, 2)

	colors, err = s.orders.ListColors(s.ctx, "NOPE")
	s.NoError(err)
	s.Nil(colors)
}

func (s *RepositoryIntegrationTestSuite) TestUpdateSpecs_RoundTripsAndBumpsVersion() {
	id := s.insertOrder("GPAR1234", nil)
	now := time.Now().UTC().Truncate(time.Millisecond)

	outcome, err := s.orders.UpdateSpecs(s.ctx, domain.SpecsUpdate{
		OrderID:         id,
		ExpectedVersion: 0,
		BeforeWashSpecs: []domain.ColorSpecBlock{specBlock("001", now)},
		AfterWashSpecs:  []domain.ColorSpecBlock{},
		UpdatedAt:       now,
	})
	s.Require().NoError(err)
	s.True(outcome.Matched)
	s.Equal(int64(1), outcome.Version)

	order, err := s.orders.FindByOrderNo(s.ctx, "GPAR1234")
	s.Require().NoError(err)
	s.Equal(int64(1), order.SpecsVersion())
	s.Require().Len(order.BeforeWashSpecs, 1)

	stored := order.BeforeWashSpecs[0].Specs[0]
	s.Equal([]string{"S", "M"}, stored.SizeSpecs.Sizes())
	v, ok := stored.SizeSpecs.Get("M")
	s.Require().True(ok)
	s.Equal("31 1/2", v.Fraction)
	s.InDelta(31.5, *v.Decimal, 1e-9)
	s.True(now.Equal(order.SpecsMetadata.LastUpdated))

	// Order import fields survive the spec write.
	s.Len(order.Colors, 2)
	s.Equal("CS-GPAR1234", order.CustStyle)
}

func (s *RepositoryIntegrationTestSuite) TestUpdateSpecs_StaleVersionConflicts() {
	id := s.insertOrder("GPAR1234", nil)
	now := time.Now().UTC()
	update := domain.SpecsUpdate{
		OrderID:         id,
		ExpectedVersion: 0,
		BeforeWashSpecs: []domain.ColorSpecBlock{specBlock("001", now)},
		UpdatedAt:       now,
	}

	_, err := s.orders.UpdateSpecs(s.ctx, update)
	s.Require().NoError(err)

	_, err = s.orders.UpdateSpecs(s.ctx, update)
	s.Require().Error(err)
	s.True(apperrors.HasCode(err, apperrors.CodeConflict))

	update.ExpectedVersion = 1
	outcome, err := s.orders.UpdateSpecs(s.ctx, update)
	s.Require().NoError(err)
	s.Equal(int64(2), outcome.Version)
}

func (s *RepositoryIntegrationTestSuite) TestFindWithUploadedSpecs() {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.insertOrder("GPAR0001", bson.M{
		"beforeWashSpecs":      bson.A{bson.M{"colorCode": "001", "specs": bson.A{}}},
		"WashingSpecsMetadata": bson.M{"version": int64(1), "lastUpdated": old},
	})
	s.insertOrder("GPAR0002", bson.M{
		"afterWashSpecs":       bson.A{bson.M{"colorCode": "ALL", "specs": bson.A{}}},
		"WashingSpecsMetadata": bson.M{"version": int64(3), "lastUpdated": recent},
	})
	s.insertOrder("GPAR0003", bson.M{"beforeWashSpecs": bson.A{}})
	s.insertOrder("OTHER004", nil)

	orders, total, err := s.orders.FindWithUploadedSpecs(s.ctx, domain.UploadedFilter{}, domain.DefaultPagination())
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(orders, 2)
	s.Equal("GPAR0002", orders[0].OrderNo)
	s.Nil(orders[0].Colors)

	orders, total, err = s.orders.FindWithUploadedSpecs(s.ctx, domain.UploadedFilter{OrderNo: "par0001"}, domain.Pagination{Page: 1, PageSize: 1})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(orders, 1)
	s.Equal("GPAR0001", orders[0].OrderNo)
}

func (s *RepositoryIntegrationTestSuite) TestSearch_QuotesTerm() {
	s.insertOrder("GPAR1234", nil)
	s.insertOrder("gpar5678", nil)
	s.insertOrder("XYZ.999", nil)

	orders, err := s.orders.Search(s.ctx, "GPAR", 10)
	s.Require().NoError(err)
	s.Len(orders, 2)

	orders, err = s.orders.Search(s.ctx, ".", 10)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Equal("XYZ.999", orders[0].OrderNo)
}

func (s *RepositoryIntegrationTestSuite) TestDistinctValues() {
	s.insertOrder("GPAR0001", bson.M{"Factory": "YM", "Country": "US"})
	s.insertOrder("GPAR0002", bson.M{"Factory": "YM", "Country": "UK"})
	s.insertOrder("GPAR0003", bson.M{"Factory": "KH", "Country": "US"})

	values, err := s.orders.DistinctValues(s.ctx, domain.FieldCountry, domain.OrderFilter{domain.FieldFactory: "YM"})
	s.Require().NoError(err)
	s.Equal([]string{"UK", "US"}, values)

	values, err = s.orders.DistinctValues(s.ctx, domain.FieldFactory, nil)
	s.Require().NoError(err)
	s.Equal([]string{"KH", "YM"}, values)
}

func (s *RepositoryIntegrationTestSuite) TestTemplateUpsertAndUpdate() {
	specData := []domain.SizeSpecData{{
		Size:        "M",
		SpecDetails: []domain.SpecDetail{{OrderNo: 1, SpecName: "Waist", SeqNo: "1", SpecValueFraction: "31 1/2", SpecValueDecimal: 31.5}},
	}}

	created, err := s.templates.Upsert(s.ctx, &domain.BuyerSpecTemplate{MoNo: "GPAR1234", Buyer: "ANF", Stage: "M1", SpecData: specData})
	s.Require().NoError(err)
	s.False(created.ID.IsZero())
	s.Equal("GPAR1234", created.MoNo)

	replaced, err := s.templates.Upsert(s.ctx, &domain.BuyerSpecTemplate{MoNo: "GPAR1234", Buyer: "ANF", Stage: "M2", SpecData: specData})
	s.Require().NoError(err)
	s.Equal(created.ID, replaced.ID)
	s.Equal("M2", replaced.Stage)
	s.True(created.CreatedAt.Equal(replaced.CreatedAt))

	updated, err := s.templates.UpdateSpecData(s.ctx, "GPAR1234", "", []domain.SizeSpecData{{Size: "L"}})
	s.Require().NoError(err)
	s.Equal("M2", updated.Stage)
	s.Equal([]string{"L"}, updated.Sizes())

	missing, err := s.templates.UpdateSpecData(s.ctx, "NOPE", "", specData)
	s.NoError(err)
	s.Nil(missing)

	_, err = s.templates.Upsert(s.ctx, &domain.BuyerSpecTemplate{MoNo: "ABC0001", Buyer: "ANF", Stage: "M1", SpecData: specData})
	s.Require().NoError(err)
	options, err := s.templates.ListMoOptions(s.ctx)
	s.Require().NoError(err)
	s.Equal([]domain.MoOption{{MoNo: "ABC0001", Stage: "M1"}, {MoNo: "GPAR1234", Stage: "M2"}}, options)
}
