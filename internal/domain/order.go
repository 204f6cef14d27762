package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for washing spec uploads
var (
	ErrNoSpecRows         = errors.New("spec sheet has no measurement rows")
	ErrUnknownSize        = errors.New("size value outside the discovered size columns")
	ErrNoColorsSelected   = errors.New("at least one color must be selected")
	ErrNoResolvableColors = errors.New("none of the selected colors belong to the order")
)

// AllColors tags the after-wash block shared by every applied color.
const AllColors = "ALL"

// Order is a manufacturing order as stored in dt_orders. The order import owns
// every field except the two spec slots and their metadata.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNo   string             `bson:"Order_No" json:"Order_No"`
	CustStyle string             `bson:"CustStyle,omitempty" json:"CustStyle,omitempty"`
	TotalQty  int64              `bson:"TotalQty,omitempty" json:"TotalQty,omitempty"`
	Style     string             `bson:"Style,omitempty" json:"Style,omitempty"`
	ShortName string             `bson:"ShortName,omitempty" json:"ShortName,omitempty"`
	Mode      string             `bson:"Mode,omitempty" json:"Mode,omitempty"`
	Country   string             `bson:"Country,omitempty" json:"Country,omitempty"`
	Origin    string             `bson:"Origin,omitempty" json:"Origin,omitempty"`
	Factory   string             `bson:"Factory,omitempty" json:"Factory,omitempty"`
	Colors    []OrderColor       `bson:"OrderColors,omitempty" json:"OrderColors,omitempty"`

	BeforeWashSpecs []ColorSpecBlock      `bson:"beforeWashSpecs,omitempty" json:"beforeWashSpecs,omitempty"`
	AfterWashSpecs  []ColorSpecBlock      `bson:"afterWashSpecs,omitempty" json:"afterWashSpecs,omitempty"`
	SpecsMetadata   *WashingSpecsMetadata `bson:"WashingSpecsMetadata,omitempty" json:"WashingSpecsMetadata,omitempty"`
	UpdatedAt       time.Time             `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SpecsVersion returns the compare-and-set version of the spec slots.
func (o *Order) SpecsVersion() int64 {
	if o.SpecsMetadata == nil {
		return 0
	}
	return o.SpecsMetadata.Version
}

// FindColor returns the order color with the given code.
func (o *Order) FindColor(code string) (OrderColor, bool) {
	for _, c := range o.Colors {
		if c.ColorCode == code {
			return c, true
		}
	}
	return OrderColor{}, false
}

// UniqueColors returns the order colors de-duplicated by code and name,
// skipping colors without a code, sorted by code.
func (o *Order) UniqueColors() []OrderColor {
	seen := make(map[string]bool)
	colors := make([]OrderColor, 0, len(o.Colors))
	for _, c := range o.Colors {
		key := c.ColorCode + "-" + c.Color
		if c.ColorCode == "" || seen[key] {
			continue
		}
		seen[key] = true
		colors = append(colors, OrderColor{
			ColorCode: c.ColorCode,
			Color:     c.Color,
			ChnColor:  c.ChnColor,
			ColorKey:  c.ColorKey,
		})
	}
	sort.SliceStable(colors, func(i, j int) bool { return colors[i].ColorCode < colors[j].ColorCode })
	return colors
}

// SharedAfterWashBlock returns the "ALL" after-wash block, if any.
func (o *Order) SharedAfterWashBlock() *ColorSpecBlock {
	for i := range o.AfterWashSpecs {
		if o.AfterWashSpecs[i].ColorCode == AllColors {
			return &o.AfterWashSpecs[i]
		}
	}
	return nil
}

// HasUploadedSpecs reports whether either spec slot holds a block.
func (o *Order) HasUploadedSpecs() bool {
	return len(o.BeforeWashSpecs) > 0 || len(o.AfterWashSpecs) > 0
}

// OrderColor is one color line of an order.
type OrderColor struct {
	ColorCode string                   `bson:"ColorCode" json:"ColorCode"`
	Color     string                   `bson:"Color" json:"Color"`
	ChnColor  string                   `bson:"ChnColor" json:"ChnColor"`
	ColorKey  ColorKey                 `bson:"ColorKey" json:"ColorKey"`
	OrderQty  []map[string]interface{} `bson:"OrderQty,omitempty" json:"-"`
}

// SizeQty is an ordered quantity for one size.
type SizeQty struct {
	Size string
	Qty  int64
}

// SizeQuantities flattens OrderQty into positive per-size quantities. Size keys
// look like "M;1" in imported orders; only the part before ';' names the size.
func (c OrderColor) SizeQuantities() []SizeQty {
	var out []SizeQty
	for _, entry := range c.OrderQty {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			if k != "_id" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			qty, ok := toInt64(entry[k])
			if !ok || qty <= 0 {
				continue
			}
			size := strings.TrimSpace(strings.SplitN(k, ";", 2)[0])
			if size == "" {
				continue
			}
			out = append(out, SizeQty{Size: size, Qty: qty})
		}
	}
	return out
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ColorKey is the order-import key of a color. Imported orders store it as a
// number; the shared after-wash block stores "ALL".
type ColorKey string

// MarshalBSONValue writes numeric keys as numbers and everything else as a string.
func (k ColorKey) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if i, err := strconv.ParseInt(string(k), 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return bson.MarshalValue(int32(i))
		}
		return bson.MarshalValue(i)
	}
	if k == "" {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(string(k))
}

// UnmarshalBSONValue accepts strings, numbers and null.
func (k *ColorKey) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, err := flexString(bson.RawValue{Type: t, Value: data})
	if err != nil {
		return fmt.Errorf("ColorKey: %w", err)
	}
	*k = ColorKey(s)
	return nil
}

// MarshalJSON mirrors the BSON form.
func (k ColorKey) MarshalJSON() ([]byte, error) {
	if i, err := strconv.ParseInt(string(k), 10, 64); err == nil {
		return json.Marshal(i)
	}
	if k == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

// UnmarshalJSON accepts a string, a number or null.
func (k *ColorKey) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*k = ""
	case string:
		*k = ColorKey(x)
	case float64:
		*k = ColorKey(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return fmt.Errorf("ColorKey: unsupported JSON value %s", data)
	}
	return nil
}

// SequenceNo is the sheet's own row identifier. Older uploads stored it as a number.
type SequenceNo string

// UnmarshalBSONValue accepts strings, numbers and null.
func (s *SequenceNo) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v, err := flexString(bson.RawValue{Type: t, Value: data})
	if err != nil {
		return fmt.Errorf("seq_no: %w", err)
	}
	*s = SequenceNo(v)
	return nil
}

func flexString(rv bson.RawValue) (string, error) {
	switch rv.Type {
	case bsontype.String:
		return rv.StringValue(), nil
	case bsontype.Int32:
		return strconv.FormatInt(int64(rv.Int32()), 10), nil
	case bsontype.Int64:
		return strconv.FormatInt(rv.Int64(), 10), nil
	case bsontype.Double:
		return strconv.FormatFloat(rv.Double(), 'f', -1, 64), nil
	case bsontype.Null, bsontype.Undefined:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported BSON type %s", rv.Type)
	}
}

// ColorSpecBlock is the persisted set of spec rows for one color, or for every
// applied color when ColorCode is AllColors.
type ColorSpecBlock struct {
	ID                primitive.ObjectID `bson:"_id" json:"_id"`
	ColorCode         string             `bson:"colorCode" json:"colorCode"`
	Color             string             `bson:"Color" json:"Color"`
	ChnColor          string             `bson:"ChnColor" json:"ChnColor"`
	ColorKey          ColorKey           `bson:"ColorKey" json:"ColorKey"`
	AppliedColors     []string           `bson:"appliedColors,omitempty" json:"appliedColors,omitempty"`
	Shrinkage         *ShrinkageInfo     `bson:"Shrinkage" json:"Shrinkage"`
	UploadedAt        time.Time          `bson:"uploadedAt" json:"uploadedAt"`
	LastUpdatedColors []string           `bson:"lastUpdatedColors,omitempty" json:"lastUpdatedColors,omitempty"`
	Specs             []SpecRow          `bson:"specs" json:"specs"`
}

// SpecRow is one stored measurement point of a color block.
type SpecRow struct {
	No                      int           `bson:"no" json:"no"`
	SeqNo                   SequenceNo    `bson:"seq_no" json:"seq_no"`
	MeasurementPointEngName string        `bson:"MeasurementPointEngName" json:"MeasurementPointEngName"`
	MeasurementPointChiName string        `bson:"MeasurementPointChiName" json:"MeasurementPointChiName"`
	TolMinus                FractionValue `bson:"TolMinus" json:"TolMinus"`
	TolPlus                 FractionValue `bson:"TolPlus" json:"TolPlus"`
	SizeSpecs               SizeSpecs     `bson:"sizeSpecs" json:"sizeSpecs"`
}

// FractionValue is a stored measurement: the display fraction and its decimal.
type FractionValue struct {
	Fraction string   `bson:"fraction" json:"fraction"`
	Decimal  *float64 `bson:"decimal" json:"decimal"`
}

// SizeSpec is the stored value of one size.
type SizeSpec struct {
	Size  string
	Value FractionValue
}

// SizeSpecs maps size names to stored values in sheet order. It is stored and
// serialised as an object keyed by size.
type SizeSpecs []SizeSpec

// Get returns the value for size.
func (s SizeSpecs) Get(size string) (FractionValue, bool) {
	for _, v := range s {
		if v.Size == size {
			return v.Value, true
		}
	}
	return FractionValue{}, false
}

// Sizes lists the size names in order.
func (s SizeSpecs) Sizes() []string {
	sizes := make([]string, len(s))
	for i, v := range s {
		sizes[i] = v.Size
	}
	return sizes
}

// MarshalBSON writes an ordered sub-document.
func (s SizeSpecs) MarshalBSON() ([]byte, error) {
	doc := make(bson.D, 0, len(s))
	for _, v := range s {
		doc = append(doc, bson.E{Key: v.Size, Value: bson.D{
			{Key: "fraction", Value: v.Value.Fraction},
			{Key: "decimal", Value: v.Value.Decimal},
		}})
	}
	return bson.Marshal(doc)
}

// UnmarshalBSON reads the sub-document in stored order.
func (s *SizeSpecs) UnmarshalBSON(data []byte) error {
	if len(data) < 5 {
		*s = nil
		return nil
	}
	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return err
	}
	out := make(SizeSpecs, 0, len(elems))
	for _, e := range elems {
		doc, ok := e.Value().DocumentOK()
		if !ok {
			continue
		}
		var fv FractionValue
		if f, err := doc.LookupErr("fraction"); err == nil {
			fv.Fraction, _ = flexString(f)
		}
		if d, err := doc.LookupErr("decimal"); err == nil {
			fv.Decimal = rawNumber(d)
		}
		out = append(out, SizeSpec{Size: e.Key(), Value: fv})
	}
	*s = out
	return nil
}

func rawNumber(rv bson.RawValue) *float64 {
	switch rv.Type {
	case bsontype.Double:
		return Float(rv.Double())
	case bsontype.Int32:
		return Float(float64(rv.Int32()))
	case bsontype.Int64:
		return Float(float64(rv.Int64()))
	default:
		return nil
	}
}

// MarshalJSON writes an object keyed by size, in order.
func (s SizeSpecs) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(v.Size)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON reads an object keyed by size, keeping the key order.
func (s *SizeSpecs) UnmarshalJSON(data []byte) error {
	*s = nil
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v FractionValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("size %q: %w", key, err)
		}
		*s = append(*s, SizeSpec{Size: key, Value: v})
		return nil
	})
}

// WashingSpecsMetadata tracks spec uploads on an order. Version is bumped on
// every write and guards read-merge-write against concurrent uploads.
type WashingSpecsMetadata struct {
	Version     int64     `bson:"version" json:"version"`
	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}
