package aggregation

import (
	"fmt"
	"math"
	"strings"

	"casequery-backend/models"
	"casequery-backend/parsing"
)

type moneyStat struct {
	sum float64
	n   int
}

// groupMoney sums a currency field per group. Unparsable values are skipped, so a group
// only exists once it has at least one parsed value.
func groupMoney(ds *models.Dataset, key func(models.CaseRecord) string, value func(models.CaseRecord) string) map[string]*moneyStat {
	groups := make(map[string]*moneyStat)
	ds.Each(func(_ int, r models.CaseRecord) {
		v, ok := parsing.ParseCurrency(value(r))
		if !ok {
			return
		}
		k := key(r)
		if k == "" {
			return
		}
		s, ok := groups[k]
		if !ok {
			s = &moneyStat{}
			groups[k] = s
		}
		s.sum += v
		s.n++
	})
	return groups
}

func sums(groups map[string]*moneyStat) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for k, s := range groups {
		out[k] = cents(s.sum)
	}
	return out
}

func means(groups map[string]*moneyStat) map[string]float64 {
	out := make(map[string]float64, len(groups))
	for k, s := range groups {
		out[k] = cents(s.sum / float64(s.n))
	}
	return out
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

func claimValue(r models.CaseRecord) string   { return r.ClaimTotal }
func awardedValue(r models.CaseRecord) string { return r.AwardedTotal }
func everything(models.CaseRecord) string     { return "total" }

func stateHighestClaimTotal(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnClaimTotal) {
		return insufficient("o valor da causa por estado")
	}
	totals := sums(groupMoney(req.Dataset, stateKey, claimValue))
	state, value, ok := argMax(totals)
	if !ok {
		return insufficient("o valor da causa por estado")
	}
	return models.NewAnswer(
		fmt.Sprintf("O estado com o maior valor de causa é %s, com um total de %s.", state, parsing.FormatBRL(value)),
		models.Chart{"valor_causa_por_estado": totals},
	)
}

func stateHighestClaimMean(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnClaimTotal) {
		return insufficient("a média do valor da causa por estado")
	}
	avg := means(groupMoney(req.Dataset, stateKey, claimValue))
	state, value, ok := argMax(avg)
	if !ok {
		return insufficient("a média do valor da causa por estado")
	}
	return models.NewAnswer(
		fmt.Sprintf("O estado com a maior média de valor de causa é %s, com uma média de %s.", state, parsing.FormatBRL(value)),
		models.Chart{"media_valor_causa_por_estado": avg},
	)
}

func condemnationByState(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnAwardedTotal) {
		return insufficient("o valor de condenação por estado")
	}
	totals := sums(groupMoney(req.Dataset, stateKey, awardedValue))
	if len(totals) == 0 {
		return insufficient("o valor de condenação por estado")
	}
	var b strings.Builder
	b.WriteString("O valor total de condenações por estado é:")
	for _, st := range sortedKeys(totals) {
		fmt.Fprintf(&b, "\n%s: %s", st, parsing.FormatBRL(totals[st]))
	}
	return models.NewAnswer(b.String(), models.Chart{"condenacao_por_estado": totals})
}

func mostOffendingState(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnAwardedTotal) {
		return insufficient("o valor de condenação por estado")
	}
	totals := sums(groupMoney(req.Dataset, stateKey, awardedValue))
	state, value, ok := argMax(totals)
	if !ok {
		return insufficient("o valor de condenação por estado")
	}
	return models.NewAnswer(
		fmt.Sprintf("O estado com o maior valor de condenação é %s, com um total de %s.", state, parsing.FormatBRL(value)),
		models.Chart{"valor_condenacao_por_estado": totals},
	)
}

func mostOffendingComarca(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnAwardedTotal) {
		return insufficient("o valor de condenação por comarca")
	}
	totals := sums(groupMoney(req.Dataset, comarcaKey, awardedValue))
	comarca, value, ok := argMax(totals)
	if !ok {
		return insufficient("o valor de condenação por comarca")
	}
	return models.NewAnswer(
		fmt.Sprintf("A comarca com o maior valor de condenação é %s, com um total de %s.", comarca, parsing.FormatBRL(value)),
		models.Chart{"valor_condenacao_por_comarca": totals},
	)
}

func claimTotal(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnStatus, models.ColumnClaimTotal) {
		return insufficient("o valor total da causa")
	}
	all := groupMoney(req.Dataset, everything, claimValue)
	if len(all) == 0 {
		return insufficient("o valor total da causa")
	}
	byStatus := sums(groupMoney(req.Dataset, func(r models.CaseRecord) string { return fold(r.Status) }, claimValue))
	total := cents(all["total"].sum)
	active := byStatus[models.CaseStatusActive]
	archived := byStatus[models.CaseStatusArchived]

	return models.NewAnswer(
		fmt.Sprintf("O valor total da causa é de %s.\nTotal de ativos: %s.\nTotal de arquivados: %s.",
			parsing.FormatBRL(total), parsing.FormatBRL(active), parsing.FormatBRL(archived)),
		models.Chart{"ativos": active, "arquivados": archived},
	)
}

func settlementTotal(req Request) models.Answer {
	if req.Dataset.Len() == 0 || !req.Dataset.HasColumn(models.ColumnSettlement) {
		return models.NewAnswer("Não foi possível calcular o valor total dos acordos, coluna 'Valor do acordo' não encontrada.", nil)
	}
	total := 0.0
	count := 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		v, ok := parsing.ParseCurrency(r.Settlement)
		if !ok {
			return
		}
		total += v
		if v > 0 {
			count++
		}
	})
	total = cents(total)
	return models.NewAnswer(
		fmt.Sprintf("O valor total dos acordos é de %s com %d acordos.", parsing.FormatBRL(total), count),
		models.Chart{"Quantidade de Acordos": count, "Valor Total": total},
	)
}

// benefit is claim minus awarded for records where both values parse.
func benefit(r models.CaseRecord) (claim, awarded float64, ok bool) {
	c, okC := parsing.ParseCurrency(r.ClaimTotal)
	a, okA := parsing.ParseCurrency(r.AwardedTotal)
	if !okC || !okA {
		return 0, 0, false
	}
	return c, a, true
}

func portfolioEconomicBenefit(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnClaimTotal, models.ColumnAwardedTotal) {
		return insufficient("o benefício econômico da carteira")
	}
	var claim, awarded float64
	n := 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		c, a, ok := benefit(r)
		if !ok {
			return
		}
		claim += c
		awarded += a
		n++
	})
	if n == 0 {
		return insufficient("o benefício econômico da carteira")
	}
	claim, awarded = cents(claim), cents(awarded)
	gain := cents(claim - awarded)
	return models.NewAnswer(
		fmt.Sprintf("O benefício econômico da carteira é de %s (valor da causa %s menos valor deferido %s, em %d processos).",
			parsing.FormatBRL(gain), parsing.FormatBRL(claim), parsing.FormatBRL(awarded), n),
		models.Chart{"valor_causa": claim, "valor_deferido": awarded, "beneficio_economico": gain},
	)
}

func economicBenefitByState(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnClaimTotal, models.ColumnAwardedTotal) {
		return insufficient("o benefício econômico por estado")
	}
	gains := make(map[string]float64)
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		c, a, ok := benefit(r)
		if !ok {
			return
		}
		if k := stateKey(r); k != "" {
			gains[k] += c - a
		}
	})
	if len(gains) == 0 {
		return insufficient("o benefício econômico por estado")
	}
	for k, v := range gains {
		gains[k] = cents(v)
	}
	best, value, _ := argMax(gains)

	var b strings.Builder
	fmt.Fprintf(&b, "O estado com o maior benefício econômico é %s, com %s. Por estado:", best, parsing.FormatBRL(value))
	for _, st := range sortedKeys(gains) {
		fmt.Fprintf(&b, "\n%s: %s", st, parsing.FormatBRL(gains[st]))
	}
	return models.NewAnswer(b.String(), models.Chart{"beneficio_economico_por_estado": gains})
}
