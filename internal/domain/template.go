package domain

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrTemplateNoSpecData = errors.New("specData is required")
	ErrTemplateNoSize     = errors.New("every specData entry needs a size")
)

// BuyerSpecTemplate is a buyer's measurement sheet for one MO, edited by hand
// after the washing specs were uploaded.
type BuyerSpecTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	MoNo      string             `bson:"moNo" json:"moNo"`
	Buyer     string             `bson:"buyer" json:"buyer"`
	Stage     string             `bson:"stage" json:"stage"`
	SpecData  []SizeSpecData     `bson:"specData" json:"specData"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SizeSpecData holds the spec lines of one size.
type SizeSpecData struct {
	Size        string       `bson:"size" json:"size" binding:"required,size_name"`
	SpecDetails []SpecDetail `bson:"specDetails" json:"specDetails" binding:"dive"`
}

// SpecDetail is one measurement point of a size.
type SpecDetail struct {
	OrderNo           int     `bson:"orderNo" json:"orderNo"`
	SpecName          string  `bson:"specName" json:"specName" binding:"required"`
	ChineseRemark     string  `bson:"chineseRemark,omitempty" json:"chineseRemark,omitempty"`
	SeqNo             string  `bson:"seqNo" json:"seqNo"`
	TolMinus          float64 `bson:"tolMinus" json:"tolMinus"`
	TolPlus           float64 `bson:"tolPlus" json:"tolPlus"`
	SpecValueFraction string  `bson:"specValueFraction" json:"specValueFraction"`
	SpecValueDecimal  float64 `bson:"specValueDecimal" json:"specValueDecimal"`
}

// ValidateSpecData checks the per-size payload of a template write.
func ValidateSpecData(specData []SizeSpecData) error {
	if specData == nil {
		return ErrTemplateNoSpecData
	}
	for _, s := range specData {
		if s.Size == "" {
			return ErrTemplateNoSize
		}
	}
	return nil
}

// Sizes lists the sizes a template covers.
func (t *BuyerSpecTemplate) Sizes() []string {
	sizes := make([]string, 0, len(t.SpecData))
	for _, s := range t.SpecData {
		sizes = append(sizes, s.Size)
	}
	return sizes
}

// MoOption is one entry of the template picker.
type MoOption struct {
	MoNo  string `bson:"moNo" json:"moNo"`
	Stage string `bson:"stage" json:"stage"`
}

// BuyerSpecLine is a stored after-wash spec row reshaped for the buyer sheet.
type BuyerSpecLine struct {
	Seq              string    `json:"seq"`
	MeasurementPoint string    `json:"measurementPoint"`
	ChineseRemark    string    `json:"chineseRemark"`
	TolMinus         float64   `json:"tolMinus"`
	TolPlus          float64   `json:"tolPlus"`
	SizeSpecs        SizeSpecs `json:"sizeSpecs"`
}

// BuyerSpecLines reshapes the order's shared after-wash block (or its first
// block) into buyer sheet lines, and lists the sizes of the first row.
func BuyerSpecLines(order *Order) ([]BuyerSpecLine, []string) {
	if len(order.AfterWashSpecs) == 0 {
		return nil, nil
	}
	block := order.SharedAfterWashBlock()
	if block == nil {
		block = &order.AfterWashSpecs[0]
	}
	var sizes []string
	if len(block.Specs) > 0 {
		sizes = block.Specs[0].SizeSpecs.Sizes()
	}
	lines := make([]BuyerSpecLine, 0, len(block.Specs))
	for _, spec := range block.Specs {
		minus := fractionalMagnitude(spec.TolMinus.Decimal)
		if minus != 0 {
			minus = -minus
		}
		sizeSpecs := spec.SizeSpecs
		if sizeSpecs == nil {
			sizeSpecs = SizeSpecs{}
		}
		lines = append(lines, BuyerSpecLine{
			Seq:              string(spec.SeqNo),
			MeasurementPoint: spec.MeasurementPointEngName,
			ChineseRemark:    spec.MeasurementPointChiName,
			TolMinus:         minus,
			TolPlus:          fractionalMagnitude(spec.TolPlus.Decimal),
			SizeSpecs:        sizeSpecs,
		})
	}
	return lines, sizes
}

// fractionalMagnitude drops the sign and any whole inches: 1.25 becomes 0.25.
func fractionalMagnitude(v *float64) float64 {
	if v == nil {
		return 0
	}
	abs := math.Abs(*v)
	if abs >= 1 {
		abs -= math.Floor(abs)
	}
	return math.Round(abs*10000) / 10000
}
