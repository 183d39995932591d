package aggregation

import (
	"fmt"
	"sort"

	"casequery-backend/models"
	"casequery-backend/parsing"
)

// longestTopN is how many cases the "longest without movement" chart shows.
const longestTopN = 4

type caseDuration struct {
	index      int
	caseNumber string
	days       int
}

// durations computes last movement minus filing, in days, keyed by row index.
// Rows missing either date are left out rather than counted as zero.
func durations(ds *models.Dataset, keep func(models.CaseRecord) bool) []caseDuration {
	var out []caseDuration
	ds.Each(func(i int, r models.CaseRecord) {
		if r.FilingDate == nil || r.MovementDate == nil {
			return
		}
		if keep != nil && !keep(r) {
			return
		}
		out = append(out, caseDuration{
			index:      i,
			caseNumber: r.CaseNumber,
			days:       parsing.DaysBetween(*r.FilingDate, *r.MovementDate),
		})
	})
	return out
}

func meanDays(ds []caseDuration) float64 {
	if len(ds) == 0 {
		return 0
	}
	total := 0
	for _, d := range ds {
		total += d.days
	}
	return float64(total) / float64(len(ds))
}

func longestWithoutMovement(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnCaseNumber, models.ColumnFilingDate, models.ColumnMovementDate) {
		return insufficient("o tempo sem movimentação")
	}
	ds := durations(req.Dataset, nil)
	if len(ds) == 0 {
		return insufficient("o tempo sem movimentação")
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].days > ds[j].days })

	top := ds
	if len(top) > longestTopN {
		top = top[:longestTopN]
	}
	chart := make(map[string]int, len(top))
	for _, d := range top {
		chart[d.caseNumber] = d.days
	}
	return models.NewAnswer(
		fmt.Sprintf("O processo com maior tempo sem movimentação é o número %s, com %d dias sem movimentação.", top[0].caseNumber, top[0].days),
		models.Chart{"processos": chart},
	)
}

// meanDurationBy finds the group with the highest mean duration.
func meanDurationBy(noun string, key func(models.CaseRecord) string) Routine {
	subject := fmt.Sprintf("a média de duração por %s", noun)
	article := "O"
	if noun == "comarca" {
		article = "A"
	}

	return func(req Request) models.Answer {
		if missingColumns(req.Dataset, models.ColumnVenue, models.ColumnFilingDate, models.ColumnMovementDate) {
			return insufficient(subject)
		}
		groups := make(map[string][]caseDuration)
		for _, d := range durations(req.Dataset, nil) {
			k := key(req.Dataset.Record(d.index))
			if k == "" {
				continue
			}
			groups[k] = append(groups[k], d)
		}
		avg := make(map[string]float64, len(groups))
		for k, g := range groups {
			avg[k] = cents(meanDays(g))
		}
		best, value, ok := argMax(avg)
		if !ok {
			return insufficient(subject)
		}
		return models.NewAnswer(
			fmt.Sprintf("%s %s com a maior média de duração dos processos é %s, com uma média de %.0f dias.", article, noun, best, value),
			models.Chart{fmt.Sprintf("media_duracao_por_%s", noun): avg},
		)
	}
}

func archivedMeanDuration(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnStatus, models.ColumnFilingDate, models.ColumnMovementDate) {
		return insufficient("a média de duração dos processos arquivados")
	}
	ds := durations(req.Dataset, func(r models.CaseRecord) bool {
		return fold(r.Status) == models.CaseStatusArchived
	})
	if len(ds) == 0 {
		return insufficient("a média de duração dos processos arquivados")
	}
	chart := make(map[string]int, len(ds))
	for _, d := range ds {
		chart[d.caseNumber] = d.days
	}
	return models.NewAnswer(
		fmt.Sprintf("A média de duração dos processos arquivados é de %.0f dias.", meanDays(ds)),
		models.Chart{"duração_por_processo": chart},
	)
}

func portfolioAge(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnFilingDate) {
		return insufficient("a idade da carteira")
	}
	today := parsing.CivilDate(req.Now)
	total, n := 0, 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		if r.FilingDate == nil {
			return
		}
		total += parsing.DaysBetween(*r.FilingDate, today)
		n++
	})
	if n == 0 {
		return insufficient("a idade da carteira")
	}
	avg := float64(total) / float64(n)
	return models.NewAnswer(
		fmt.Sprintf("A idade média da carteira é de %.0f dias (%.1f anos), considerando %d processos.", avg, avg/365, n),
		models.Chart{"idade_media_dias": cents(avg), "processos": n},
	)
}

func oldestCase(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnCaseNumber, models.ColumnFilingDate) {
		return insufficient("o processo mais antigo")
	}
	var oldest *models.CaseRecord
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		if r.FilingDate == nil {
			return
		}
		if oldest == nil || r.FilingDate.Before(*oldest.FilingDate) {
			rec := r
			oldest = &rec
		}
	})
	if oldest == nil {
		return insufficient("o processo mais antigo")
	}
	days := parsing.DaysBetween(*oldest.FilingDate, parsing.CivilDate(req.Now))
	return models.NewAnswer(
		fmt.Sprintf("O processo mais antigo é o número %s, distribuído em %s, há %d dias.",
			oldest.CaseNumber, parsing.FormatDate(*oldest.FilingDate), days),
		models.Chart{"processo_mais_antigo": map[string]int{oldest.CaseNumber: days}},
	)
}
