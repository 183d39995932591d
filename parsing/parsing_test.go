package parsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"symbol and grouping", "R$ 1.234,56", 1234.56, true},
		{"no symbol", "2000,00", 2000, true},
		{"millions", "R$ 1.234.567,89", 1234567.89, true},
		{"non-breaking space", "R$ 500,10", 500.10, true},
		{"integer", "R$ 300", 300, true},
		{"empty", "", 0, false},
		{"dash placeholder", "-", 0, false},
		{"symbol only", "R$ ", 0, false},
		{"text", "a definir", 0, false},
		{"not a number word", "NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCurrency(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "1.234,56", FormatCurrency(1234.56))
	assert.Equal(t, "2.000,00", FormatCurrency(2000))
	assert.Equal(t, "0,50", FormatCurrency(0.5))
	assert.Equal(t, "R$ 1.234.567,89", FormatBRL(1234567.89))
}

func TestCurrencyRoundTrip(t *testing.T) {
	for _, raw := range []string{"R$ 1.234,56", "R$ 0,01", "R$ 98.765.432,10", "7,00"} {
		v, ok := ParseCurrency(raw)
		require.True(t, ok, raw)

		again, ok := ParseCurrency(FormatCurrency(v))
		require.True(t, ok)
		assert.InDelta(t, v, again, 1e-6, raw)
	}
}

func TestParseDate(t *testing.T) {
	d := ParseDate("17/09/2024")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2024, time.September, 17, 0, 0, 0, 0, time.UTC), *d)

	iso := ParseDate("2024-09-17")
	require.NotNil(t, iso)
	assert.Equal(t, *d, *iso)

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("-"))
	assert.Nil(t, ParseDate("31/02/2024"))
	assert.Nil(t, ParseDate("ontem"))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 60, DaysBetween(a, b))
	assert.Equal(t, -60, DaysBetween(b, a))
}

func TestSplitVenue(t *testing.T) {
	tests := []struct {
		venue   string
		comarca string
		state   string
	}{
		{"São Paulo - SP", "São Paulo", "SP"},
		{"Rio de Janeiro - RJ", "Rio de Janeiro", "RJ"},
		{"Embu-Guaçu - SP", "Embu-Guaçu", "SP"},
		{"Brasília", "Brasília", ""},
	}
	for _, tt := range tests {
		c, s := SplitVenue(tt.venue)
		assert.Equal(t, tt.comarca, c, tt.venue)
		assert.Equal(t, tt.state, s, tt.venue)
	}
}

// Wednesday 2024-10-16 10:30 in São Paulo.
var refNow = time.Date(2024, time.October, 16, 10, 30, 0, 0, time.FixedZone("BRT", -3*60*60))

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		question string
		kind     WindowKind
		start    time.Time
		end      time.Time
	}{
		{"processos cadastrados hoje", WindowToday, day(2024, 10, 16), day(2024, 10, 17)},
		{"processos cadastrados ontem", WindowYesterday, day(2024, 10, 15), day(2024, 10, 16)},
		{"distribuidos na semana atual", WindowCurrentWeek, day(2024, 10, 14), day(2024, 10, 17)},
		{"distribuidos na semana passada", WindowPreviousWeek, day(2024, 10, 7), day(2024, 10, 14)},
		{"citados no mes atual", WindowCurrentMonth, day(2024, 10, 1), day(2024, 11, 1)},
		{"citados no mes anterior", WindowPreviousMonth, day(2024, 9, 1), day(2024, 10, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			w, ok := ResolveWindow(tt.question, refNow)
			require.True(t, ok)
			assert.Equal(t, tt.kind, w.Kind)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
		})
	}
}

func TestResolveWindow_NamedMonth(t *testing.T) {
	w, ok := ResolveWindow("processos cadastrados no mes de marco", refNow)
	require.True(t, ok)
	assert.Equal(t, WindowNamedMonth, w.Kind)
	assert.Equal(t, time.March, w.Month)
	assert.Equal(t, "No mês de março", w.Label)
	assert.True(t, w.Contains(day(2022, 3, 5)))
	assert.False(t, w.Contains(day(2024, 4, 1)))
}

func TestResolveWindow_Unrecognized(t *testing.T) {
	for _, q := range []string{"quantos processos existem amanha", "processos na semana", "quantos processos"} {
		_, ok := ResolveWindow(q, refNow)
		assert.False(t, ok, q)
	}
}

func TestWeekWindowsDisjoint(t *testing.T) {
	// Walk a few weeks of reference instants, including a Monday and a Sunday.
	for offset := 0; offset < 21; offset++ {
		now := refNow.AddDate(0, 0, offset)
		cur, ok := ResolveWindow("semana atual", now)
		require.True(t, ok)
		prev, ok := ResolveWindow("semana anterior", now)
		require.True(t, ok)
		thisMonth, _ := ResolveWindow("mes atual", now)
		lastMonth, _ := ResolveWindow("mes anterior", now)

		for d := prev.Start.AddDate(0, 0, -3); d.Before(cur.End.AddDate(0, 0, 3)); d = d.AddDate(0, 0, 1) {
			assert.False(t, cur.Contains(d) && prev.Contains(d), "overlap on %s", d)
			if cur.Contains(d) || prev.Contains(d) {
				assert.True(t, thisMonth.Contains(d) || lastMonth.Contains(d), "outside months on %s", d)
			}
		}
	}
}
