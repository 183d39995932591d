package fallback

import (
	"strings"
	"time"
	"unicode/utf8"

	"casequery-backend/models"
	"casequery-backend/parsing"
)

// DefaultMaxPromptChars caps the prompt size sent to the model.
const DefaultMaxPromptChars = 30000

const truncationNote = "\n\n[Conteúdo truncado devido ao tamanho...]"

// DatasetContext serializes the dataset as flat text: one header line, then one line per record.
func DatasetContext(ds *models.Dataset) string {
	cols := ds.Columns()
	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	b.WriteByte('\n')

	ds.Each(func(_ int, r models.CaseRecord) {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = recordCell(r, c)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	})
	return b.String()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return parsing.FormatDate(*t)
}

func recordCell(r models.CaseRecord, column string) string {
	switch column {
	case models.ColumnCaseNumber:
		return r.CaseNumber
	case models.ColumnStatus:
		return r.Status
	case models.ColumnPhase:
		return r.Phase
	case models.ColumnVenue:
		return r.Venue
	case models.ColumnOrgan:
		return r.Organ
	case models.ColumnRite:
		return r.Rite
	case models.ColumnFilingDate:
		return formatDate(r.FilingDate)
	case models.ColumnRegisterDate:
		return formatDate(r.RegisterDate)
	case models.ColumnCitationDate:
		return formatDate(r.CitationDate)
	case models.ColumnMovementDate:
		return formatDate(r.MovementDate)
	case models.ColumnTransitDate:
		if r.TransitDate == nil {
			return r.TransitRaw
		}
		return formatDate(r.TransitDate)
	case models.ColumnOutcome:
		return r.Outcome
	case models.ColumnSubjects:
		return r.Subjects
	case models.ColumnRecourse:
		return r.Recourse
	case models.ColumnPlaintiff:
		return r.Plaintiff
	case models.ColumnClaimTotal:
		return r.ClaimTotal
	case models.ColumnAwardedTotal:
		return r.AwardedTotal
	case models.ColumnSettlement:
		return r.Settlement
	}
	return ""
}

// BuildPrompt frames the question with the dataset context. Prompts over maxChars are cut
// inside the context so the question and instructions always survive.
func BuildPrompt(ds *models.Dataset, question string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	head := "Os dados a seguir são extraídos de um arquivo Excel:\n"
	tail := "\n\nPergunta: " + question +
		"\n\nResponda de forma direta e concisa, fornecendo apenas o resultado principal, " +
		"por exemplo: Atualmente, há X processos ativos. sem detalhes extras."

	data := DatasetContext(ds)
	budget := maxChars - len(head) - len(tail)
	if len(data) > budget {
		budget -= len(truncationNote)
		if budget < 0 {
			budget = 0
		}
		data = truncateUTF8(data, budget) + truncationNote
	}
	return head + data + tail
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
