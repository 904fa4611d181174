package stats

import (
	"bytes"
	"encoding/csv"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderDaily(series DailySeries) (string, error)
}

type CsvStatsRendererImpl struct {
	currency string
}

// NewCsvStatsRenderer formats amounts in currency. Unknown ISO codes fall back to USD.
func NewCsvStatsRenderer(currency string) *CsvStatsRendererImpl {
	if money.GetCurrency(currency) == nil {
		log.Warnf("unknown currency %q, formatting amounts as USD", currency)
		currency = money.USD
	}
	return &CsvStatsRendererImpl{currency: currency}
}

func (t *CsvStatsRendererImpl) RenderDaily(series DailySeries) (string, error) {
	data := make([][]string, 0, len(series.Days)+2)
	data = append(data, []string{"Date", "Income", "Expense", "Net"})
	for _, day := range series.Days {
		data = append(data, []string{
			day.Date.Format("2006-01-02"),
			t.format(day.Income),
			t.format(day.Expense),
			t.format(day.Net()),
		})
	}
	data = append(data, []string{"Total", t.format(series.TotalIncome), t.format(series.TotalExpense), t.format(series.Net())})

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func (t *CsvStatsRendererImpl) format(amount decimal.Decimal) string {
	cur := money.New(0, t.currency).Currency()
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}
