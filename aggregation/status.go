package aggregation

import (
	"fmt"
	"strings"

	"casequery-backend/models"
)

// StatusCounts splits the dataset into active, archived and everything else.
// The three counts always add up to ds.Len().
func StatusCounts(ds *models.Dataset) (active, archived, other int) {
	ds.Each(func(_ int, r models.CaseRecord) {
		switch fold(r.Status) {
		case models.CaseStatusActive:
			active++
		case models.CaseStatusArchived:
			archived++
		default:
			other++
		}
	})
	return active, archived, other
}

// CountStatus counts records whose status equals target, ignoring case.
func CountStatus(ds *models.Dataset, target string) int {
	n := 0
	t := fold(target)
	ds.Each(func(_ int, r models.CaseRecord) {
		if fold(r.Status) == t {
			n++
		}
	})
	return n
}

// statusRoutine counts one status. Active and archived answers carry both counts for comparison.
func statusRoutine(target string) Routine {
	return func(req Request) models.Answer {
		if missingColumns(req.Dataset, models.ColumnStatus) {
			return insufficient("a quantidade de processos por status")
		}
		active, archived, _ := StatusCounts(req.Dataset)

		switch fold(target) {
		case models.CaseStatusActive:
			return models.NewAnswer(
				fmt.Sprintf("Atualmente, há %d processos ativos.", active),
				models.Chart{"ativos": active, "arquivados": archived},
			)
		case models.CaseStatusArchived:
			return models.NewAnswer(
				fmt.Sprintf("Atualmente, há %d processos arquivados.", archived),
				models.Chart{"ativos": active, "arquivados": archived},
			)
		default:
			n := CountStatus(req.Dataset, target)
			return models.NewAnswer(
				fmt.Sprintf("Atualmente, há %d processos %s.", n, target),
				models.Chart{"status": n},
			)
		}
	}
}

func totalCount(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnStatus) {
		return insufficient("a quantidade total de processos")
	}
	active, archived, _ := StatusCounts(req.Dataset)
	return models.NewAnswer(
		fmt.Sprintf("Há um total de %d processos. Destes, %d são ativos e %d estão arquivados.", req.Dataset.Len(), active, archived),
		models.Chart{"ativos": active, "arquivados": archived},
	)
}

func countByState(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnVenue) {
		return insufficient("a quantidade de processos por estado")
	}
	counts := valueCounts(req.Dataset, stateKey)
	if len(counts) == 0 {
		return insufficient("a quantidade de processos por estado")
	}
	return models.NewAnswer(
		fmt.Sprintf("A quantidade de processos por estado está distribuída da seguinte forma: %s.", joinCounts(counts, "")),
		models.Chart{"estados": countsChart(counts)},
	)
}

// transited treats any transit cell other than empty or "-" as a transit.
func transited(r models.CaseRecord) bool {
	if r.TransitDate != nil {
		return true
	}
	raw := strings.TrimSpace(r.TransitRaw)
	return raw != "" && raw != "-"
}

func transitInJudgment(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnTransitDate) {
		return insufficient("os processos transitados em julgado")
	}
	yes, no := 0, 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		if transited(r) {
			yes++
		} else {
			no++
		}
	})
	return models.NewAnswer(
		fmt.Sprintf("Atualmente, %d processos já transitaram em julgado e %d ainda não.", yes, no),
		models.Chart{"transitados": yes, "nao_transitados": no},
	)
}

func notCited(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnCitationDate) {
		return insufficient("os processos não citados")
	}
	cited, pending := 0, 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		if r.CitationDate != nil {
			cited++
		} else {
			pending++
		}
	})
	return models.NewAnswer(
		fmt.Sprintf("Atualmente, há %d processos que ainda não foram citados.", pending),
		models.Chart{"processos_citados": cited, "processos_nao_citados": pending},
	)
}

// judged is false for an empty outcome or one that says it has not happened yet ("não julgado").
func judged(r models.CaseRecord) bool {
	k := matchKey(r.Outcome)
	if k == "" {
		return false
	}
	for _, w := range strings.Fields(k) {
		if w == "nao" {
			return false
		}
	}
	return true
}

func notJudged(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os processos não julgados")
	}
	n := 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		if !judged(r) {
			n++
		}
	})
	return models.NewAnswer(
		fmt.Sprintf("Atualmente, há %d processos que ainda não foram julgados.", n),
		models.Chart{"nao_julgados": n},
	)
}
