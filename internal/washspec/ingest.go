// Package washspec turns a decoded washing spec sheet into measurement rows.
//
// The sheet layout is fixed: row 1 carries the color and shrinkage text, row 2
// marks each size column as before-wash (洗前) or customer size (客人尺寸),
// row 3 names the sizes and data starts at row 4. Columns 0 to 4 of a data row
// hold the sequence number, Chinese label, English label and the two tolerances.
package washspec

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/YashPS24/CAQMS/internal/domain"
)

// ErrInsufficientData is returned for tables too short to hold a header and data.
var ErrInsufficientData = errors.New("insufficient data or wrong format")

const (
	minRows        = 5
	infoRow        = 1
	washTypeRow    = 2
	sizeHeaderRow  = 3
	firstDataRow   = 4
	shrinkageCol   = 10
	colSequenceNo  = 0
	colChinese     = 1
	colEnglish     = 2
	colToleranceLo = 3
	colToleranceHi = 4
)

const (
	markerBeforeWash = "洗前"
	markerAfterWash  = "客人尺寸"
	markerShrinkage  = "缩率"
)

var (
	sizeToken = regexp.MustCompile(`(?i)^(XS|S|M|L|XL|XXL)$`)

	colorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`颜色:\s*(\w+)\s+(\w+)`),
		regexp.MustCompile(`(?i)COLOR:\s*(\w+)\s+(\w+)`),
		regexp.MustCompile(`(\d+)\s+([A-Z\s]+)`),
	}

	shrinkagePattern = regexp.MustCompile(`缩率[：:]\s*L([+-]?\d+(?:\.\d+)?)%\s*W[：:]?([+-]?\d+(?:\.\d+)?)%`)
)

type sizeColumns struct {
	size       string
	beforeWash int
	afterWash  int
}

// Ingest normalises a decoded sheet. It fails only when the table is too short;
// cells that do not parse as numbers keep their text with a nil decimal.
func Ingest(rows [][]string) (*domain.SpecSheet, error) {
	if len(rows) < minRows {
		return nil, ErrInsufficientData
	}

	sheet := &domain.SpecSheet{
		ColorInfo:     parseColorInfo(rows[infoRow]),
		ShrinkageInfo: parseShrinkage(cell(rows[infoRow], shrinkageCol)),
		Headers:       []domain.SizeHeader{},
		Rows:          []domain.MeasurementRow{},
		SizeColumns:   []string{},
	}

	groups := discoverSizes(rows[washTypeRow], rows[sizeHeaderRow])
	for _, g := range groups {
		sheet.Headers = append(sheet.Headers, domain.SizeHeader{Size: g.size, HasBeforeWash: true, HasAfterWash: true})
		sheet.SizeColumns = append(sheet.SizeColumns, g.size)
	}

	for _, raw := range rows[firstDataRow:] {
		if blankRow(raw) {
			continue
		}
		row := domain.MeasurementRow{
			SequenceNo:     CleanValue(cell(raw, colSequenceNo)),
			ChineseLabel:   CleanValue(cell(raw, colChinese)),
			EnglishLabel:   CleanValue(cell(raw, colEnglish)),
			ToleranceMinus: ParseTolerance(cell(raw, colToleranceLo), Minus),
			TolerancePlus:  ParseTolerance(cell(raw, colToleranceHi), Plus),
			SizeValues:     make(domain.SizeValues, 0, len(groups)),
		}
		for _, g := range groups {
			v := domain.SizeValue{Size: g.size}
			if text := CleanValue(cell(raw, g.beforeWash)); text != "" {
				m := ParseFraction(text)
				v.BeforeWash = &m
			}
			if text := CleanValue(cell(raw, g.afterWash)); text != "" {
				m := ParseFraction(text)
				v.AfterWash = &m
			}
			row.SizeValues.Set(v)
		}
		if !row.HasLabel() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// discoverSizes pairs before-wash and customer-size columns per size, in the
// order sizes first appear. Sizes missing either column are dropped.
func discoverSizes(washTypes, sizeHeaders []string) []sizeColumns {
	var order []string
	found := make(map[string]*sizeColumns)

	for i, header := range sizeHeaders {
		name := CleanValue(header)
		if name == "" || !sizeToken.MatchString(name) {
			continue
		}
		name = strings.ToUpper(name)
		g, ok := found[name]
		if !ok {
			g = &sizeColumns{size: name, beforeWash: -1, afterWash: -1}
			found[name] = g
			order = append(order, name)
		}

		washType := CleanValue(cell(washTypes, i))
		switch {
		case strings.Contains(washType, markerBeforeWash):
			g.beforeWash = i
		case strings.Contains(washType, markerAfterWash):
			g.afterWash = i
		}
	}

	groups := make([]sizeColumns, 0, len(order))
	for _, name := range order {
		g := found[name]
		if g.beforeWash >= 0 && g.afterWash >= 0 {
			groups = append(groups, *g)
		}
	}
	return groups
}

func parseColorInfo(row []string) *domain.ColorInfo {
	var text string
	for _, c := range row {
		if strings.Contains(c, "颜色") || strings.Contains(c, "COLOR") {
			text = c
			break
		}
	}
	if text == "" {
		return nil
	}
	for _, p := range colorPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return &domain.ColorInfo{ColorCode: m[1], ColorName: strings.TrimSpace(m[2])}
		}
	}
	return nil
}

func parseShrinkage(text string) *domain.ShrinkageInfo {
	if !strings.Contains(text, markerShrinkage) {
		return nil
	}
	m := shrinkagePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	length, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	width, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil
	}
	return &domain.ShrinkageInfo{Raw: text, Length: length, Width: width}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
