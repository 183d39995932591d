package aggregation

import (
	"fmt"
	"time"

	"casequery-backend/models"
	"casequery-backend/parsing"
)

// PeriodNotIdentified is the answer when a temporal question names no known window.
const PeriodNotIdentified = "Não foi possível identificar o período na pergunta."

func registerDate(r models.CaseRecord) *time.Time { return r.RegisterDate }
func filingDate(r models.CaseRecord) *time.Time   { return r.FilingDate }
func citationDate(r models.CaseRecord) *time.Time { return r.CitationDate }

// periodRoutine counts records whose date column falls in the window named by the question,
// with a per-day breakdown under "<column>_por_data".
func periodRoutine(column, participle string, date func(models.CaseRecord) *time.Time) Routine {
	chartKey := column + "_por_data"

	return func(req Request) models.Answer {
		if missingColumns(req.Dataset, column) {
			return insufficient(fmt.Sprintf("os processos %s no período", participle))
		}
		w, ok := parsing.ResolveWindow(req.Normalized, req.Now)
		if !ok {
			return models.NewAnswer(PeriodNotIdentified, nil)
		}

		perDay := make(map[string]int)
		n := 0
		req.Dataset.Each(func(_ int, r models.CaseRecord) {
			d := date(r)
			if d == nil || !w.Contains(*d) {
				return
			}
			perDay[d.Format("2006-01-02")]++
			n++
		})

		return models.NewAnswer(
			fmt.Sprintf("%s, foram %d processos %s.", w.Label, n, participle),
			models.Chart{chartKey: perDay},
		)
	}
}
