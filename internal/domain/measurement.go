package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Measurement is one parsed cell: the text as it appeared in the sheet and its
// decimal value. Decimal is nil when the text is not a number or fraction.
type Measurement struct {
	Raw     string   `json:"raw"`
	Decimal *float64 `json:"decimal"`
}

// IsEmpty reports whether the sheet cell held nothing.
func (m *Measurement) IsEmpty() bool {
	return m == nil || m.Raw == ""
}

// DecimalOrZero returns the decimal value, treating an unparsed value as zero.
func (m Measurement) DecimalOrZero() float64 {
	if m.Decimal == nil {
		return 0
	}
	return *m.Decimal
}

// Float returns a pointer to v, for building measurements in place.
func Float(v float64) *float64 {
	return &v
}

// SizeValue holds the before-wash and customer (after-wash) values of one size.
type SizeValue struct {
	Size       string       `json:"-"`
	BeforeWash *Measurement `json:"beforeWash,omitempty"`
	AfterWash  *Measurement `json:"afterWash,omitempty"`
}

// SizeValues maps size names to their values, keeping the order sizes were
// discovered in. It serialises as a JSON object.
type SizeValues []SizeValue

// Get returns the value for size.
func (s SizeValues) Get(size string) (SizeValue, bool) {
	for _, v := range s {
		if v.Size == size {
			return v, true
		}
	}
	return SizeValue{}, false
}

// Set replaces the value for v.Size, or appends it when the size is new.
func (s *SizeValues) Set(v SizeValue) {
	for i := range *s {
		if (*s)[i].Size == v.Size {
			(*s)[i] = v
			return
		}
	}
	*s = append(*s, v)
}

// Sizes lists the size names in order.
func (s SizeValues) Sizes() []string {
	sizes := make([]string, len(s))
	for i, v := range s {
		sizes[i] = v.Size
	}
	return sizes
}

// MarshalJSON writes the values as an object keyed by size, in order.
func (s SizeValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Size)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by size, keeping the key order.
func (s *SizeValues) UnmarshalJSON(data []byte) error {
	*s = nil
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v SizeValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("size %q: %w", key, err)
		}
		v.Size = key
		s.Set(v)
		return nil
	})
}

// decodeOrderedObject walks the members of a JSON object in document order.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// MeasurementRow is one measurement point of a spec sheet.
type MeasurementRow struct {
	SequenceNo     string      `json:"sequenceNo"`
	ChineseLabel   string      `json:"chineseLabel"`
	EnglishLabel   string      `json:"englishLabel"`
	ToleranceMinus Measurement `json:"toleranceMinus"`
	TolerancePlus  Measurement `json:"tolerancePlus"`
	SizeValues     SizeValues  `json:"sizeValues"`
}

// HasLabel reports whether the row names its measurement point in either language.
func (r MeasurementRow) HasLabel() bool {
	return r.ChineseLabel != "" || r.EnglishLabel != ""
}

// HasData reports whether any size carries a before-wash or after-wash value.
func (r MeasurementRow) HasData() bool {
	for _, v := range r.SizeValues {
		if !v.BeforeWash.IsEmpty() || !v.AfterWash.IsEmpty() {
			return true
		}
	}
	return false
}

// ShrinkageInfo holds the length and width shrinkage percentages of a sheet.
type ShrinkageInfo struct {
	Raw    string  `bson:"raw" json:"raw"`
	Length float64 `bson:"length" json:"length"`
	Width  float64 `bson:"width" json:"width"`
}

// ColorInfo is the color named in a sheet's title row.
type ColorInfo struct {
	ColorCode string `json:"colorCode"`
	ColorName string `json:"colorName"`
}

// SizeHeader describes which wash stages a size column pair carries.
type SizeHeader struct {
	Size          string `json:"size"`
	HasBeforeWash bool   `json:"hasBeforeWash"`
	HasAfterWash  bool   `json:"hasAfterWash"`
}

// SpecSheet is a normalised washing spec sheet.
type SpecSheet struct {
	ColorInfo     *ColorInfo       `json:"colorInfo"`
	ShrinkageInfo *ShrinkageInfo   `json:"shrinkageInfo"`
	Headers       []SizeHeader     `json:"headers"`
	Rows          []MeasurementRow `json:"rows"`
	SizeColumns   []string         `json:"sizeColumns"`
}

// Validate checks that some row carries a measurement and that every size
// value belongs to a discovered size column.
func (s *SpecSheet) Validate() error {
	if s == nil || len(s.Rows) == 0 {
		return ErrNoSpecRows
	}
	known := make(map[string]bool, len(s.SizeColumns))
	for _, size := range s.SizeColumns {
		known[size] = true
	}
	hasData := false
	for i, row := range s.Rows {
		for _, v := range row.SizeValues {
			if !known[v.Size] {
				return fmt.Errorf("%w: row %d uses size %q", ErrUnknownSize, i+1, v.Size)
			}
		}
		hasData = hasData || row.HasData()
	}
	if !hasData {
		return ErrNoSpecRows
	}
	return nil
}
