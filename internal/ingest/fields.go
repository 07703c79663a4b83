package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/fortneer/fluxo/internal/money"
	"github.com/fortneer/fluxo/internal/sheet"
)

// DateLayout is the day/month/year layout of source sheets. Single-digit
// day and month parse as well.
const DateLayout = "2/1/2006"

// parseAmount reads a monetary cell. Numeric workbook cells are already
// canonical and bypass the locale cleaning.
func parseAmount(c sheet.Cell) (decimal.Decimal, error) {
	if c.Kind == sheet.KindNumber {
		d, err := decimal.NewFromString(strings.TrimSpace(c.Text))
		if err != nil {
			return decimal.Decimal{}, &money.ParseError{Input: c.Text, Reason: "not a decimal number"}
		}
		return d, nil
	}
	return money.Parse(c.Text)
}

// parseDate reads a day/month/year cell or an Excel date serial. A blank
// cell is absent, not an error.
func parseDate(c sheet.Cell) (time.Time, error) {
	if c.IsBlank() {
		return time.Time{}, nil
	}

	text := strings.TrimSpace(c.Text)
	if c.Kind == sheet.KindNumber {
		serial, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date serial %q: %w", text, err)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date serial %q: %w", text, err)
		}
		return truncateDay(t), nil
	}

	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: want dd/mm/yyyy", text)
	}
	return t, nil
}

// unitOf coerces any unit cell to its string form so that the numeric code
// 1 and the text "1" compare equal.
func unitOf(c sheet.Cell, def string) string {
	s := strings.TrimSpace(c.Text)
	if s == "" {
		return def
	}
	if c.Kind == sheet.KindNumber {
		if d, err := decimal.NewFromString(s); err == nil {
			return d.String()
		}
	}
	return s
}

func accountOf(c sheet.Cell, def string) string {
	if s := strings.TrimSpace(c.Text); s != "" {
		return s
	}
	return def
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
