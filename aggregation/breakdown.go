package aggregation

import (
	"fmt"
	"strings"
	"unicode"

	"casequery-backend/models"
)

// sentenceLabels abbreviates long outcome texts for charts, keyed by matchKey.
var sentenceLabels = map[string]string{
	"sentenca improcedente":                        "Improcedente",
	"sentenca de extincao sem resolucao do merito": "Sem resolução do mérito",
	"sentenca parcialmente procedente":             "Procedente",
	"sentenca procedente":                          "Procedente",
	"sentenca de homologacao de acordo":            "Acordo",
}

// sentenceTerms are the outcomes a question can single out, checked in order.
var sentenceTerms = []struct {
	term  string
	label string
}{
	{"extincao sem resolucao do merito", "Sem resolução do mérito"},
	{"parcialmente procedente", "Procedente"},
	{"improcedente", "Improcedente"},
	{"homologacao de acordo", "Acordo"},
}

// subjectLabels abbreviates subject tags for charts, keyed by matchKey.
var subjectLabels = map[string]string{
	"acordo e convencao coletivos de trabalho": "Acordo/Convenção",
	"verbas rescisorias":                       "Verbas Rescisórias",
	"estabilidade acidentaria":                 "Estabilidade Acident.",
	"indenizacao por dano moral":               "Dano Moral",
	"indenizacao por dano material":            "Dano Material",
	"rescisao indireta":                        "Rescisão Indireta",
	"diferenca de comissao":                    "Dif. Comissão",
	"gestante":                                 "Gestante",
	"doenca ocupacional":                       "Doença Ocup.",
}

var phaseTerms = []string{"recursal", "arquivado", "finalizado", "conciliatoria", "julgamento", "executoria"}

const collectiveAgreementSubject = "acordo e convencao coletivos de trabalho"

func abbreviateWith(table map[string]string) func(string) string {
	return func(label string) string {
		if short, ok := table[matchKey(label)]; ok {
			return short
		}
		return label
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowered(field func(models.CaseRecord) string) func(models.CaseRecord) string {
	return func(r models.CaseRecord) string { return fold(field(r)) }
}

func riteOf(r models.CaseRecord) string     { return r.Rite }
func phaseOf(r models.CaseRecord) string    { return r.Phase }
func organOf(r models.CaseRecord) string    { return r.Organ }
func subjectsOf(r models.CaseRecord) string { return r.Subjects }
func outcomeOf(r models.CaseRecord) string  { return r.Outcome }

func riteBreakdown(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnRite) {
		return insufficient("a divisão por rito")
	}
	counts := relabel(valueCounts(req.Dataset, lowered(riteOf)), capitalize)
	if len(counts) == 0 {
		return insufficient("a divisão por rito")
	}
	return models.NewAnswer(
		fmt.Sprintf("A divisão dos processos por rito é: %s.", joinCounts(counts, "")),
		models.Chart{"ritos": countsChart(counts)},
	)
}

func summaryRite(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnRite) {
		return insufficient("os processos no rito sumaríssimo")
	}
	counts := valueCounts(req.Dataset, lowered(riteOf))
	n := 0
	for _, c := range counts {
		if matchKey(c.label) == "sumarissimo" {
			n += c.count
		}
	}
	return models.NewAnswer(
		fmt.Sprintf("Há %d processos no rito sumaríssimo.", n),
		models.Chart{"ritos": countsChart(counts)},
	)
}

func phaseBreakdown(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnPhase) {
		return insufficient("a divisão por fase")
	}
	counts := valueCounts(req.Dataset, lowered(phaseOf))
	chart := models.Chart{"fases": countsChart(counts)}

	words := " " + req.Normalized + " "
	for _, term := range phaseTerms {
		if !strings.Contains(words, " "+term+" ") {
			continue
		}
		n := 0
		name := term
		for _, c := range counts {
			if matchKey(c.label) == term {
				n += c.count
				name = c.label
			}
		}
		return models.NewAnswer(fmt.Sprintf("Atualmente, existem %d processos na fase %s.", n, name), chart)
	}

	if len(counts) == 0 {
		return insufficient("a divisão por fase")
	}
	return models.NewAnswer(fmt.Sprintf("As fases estão distribuídas da seguinte forma: %s.", joinCounts(counts, "")), chart)
}

func organBreakdown(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOrgan) {
		return insufficient("a divisão por órgão")
	}
	counts := valueCounts(req.Dataset, lowered(organOf))
	if len(counts) == 0 {
		return insufficient("a divisão por órgão")
	}
	return models.NewAnswer(
		fmt.Sprintf("Os órgãos estão distribuídos da seguinte forma: %s.", joinCounts(counts, "")),
		models.Chart{"orgaos": countsChart(counts)},
	)
}

func recurringSubjects(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnSubjects) {
		return insufficient("os assuntos mais recorrentes")
	}
	counts := relabel(valueCounts(req.Dataset, lowered(subjectsOf)), abbreviateWith(subjectLabels))
	if len(counts) == 0 {
		return insufficient("os assuntos mais recorrentes")
	}
	top := counts
	if len(top) > 2 {
		top = top[:2]
	}
	return models.NewAnswer(
		fmt.Sprintf("Os dois assuntos mais recorrentes são: %s.", joinCounts(top, "")),
		models.Chart{"assuntos": countsChart(counts)},
	)
}

// sentenceCounts counts outcomes by abbreviated label.
func sentenceCounts(ds *models.Dataset) []labelCount {
	return relabel(valueCounts(ds, lowered(outcomeOf)), abbreviateWith(sentenceLabels))
}

func countOf(counts []labelCount, label string) int {
	for _, c := range counts {
		if c.label == label {
			return c.count
		}
	}
	return 0
}

func sentenceBreakdown(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os resultados das sentenças")
	}
	counts := sentenceCounts(req.Dataset)
	chart := models.Chart{"sentencas": countsChart(counts)}

	for _, t := range sentenceTerms {
		if strings.Contains(req.Normalized, t.term) {
			return models.NewAnswer(
				fmt.Sprintf("Atualmente, existem %d processos com o resultado de %s.", countOf(counts, t.label), t.label),
				chart,
			)
		}
	}
	if len(counts) == 0 {
		return insufficient("os resultados das sentenças")
	}
	return models.NewAnswer(
		fmt.Sprintf("Os resultados das sentenças estão distribuídos da seguinte forma: %s.", joinCounts(counts, "")),
		chart,
	)
}

func outcomeBreakdown(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os resultados dos processos")
	}
	counts := sentenceCounts(req.Dataset)
	if len(counts) == 0 {
		return insufficient("os resultados dos processos")
	}
	return models.NewAnswer(
		fmt.Sprintf("Os resultados das sentenças estão divididos da seguinte forma: %s.", joinCounts(counts, "")),
		models.Chart{"sentencas": countsChart(counts)},
	)
}

func dismissedCases(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os processos improcedentes")
	}
	counts := sentenceCounts(req.Dataset)
	return models.NewAnswer(
		fmt.Sprintf("Há %d processos com sentença improcedente.", countOf(counts, "Improcedente")),
		models.Chart{"sentencas": countsChart(counts)},
	)
}

func upheldCases(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os processos procedentes")
	}
	counts := sentenceCounts(req.Dataset)
	return models.NewAnswer(
		fmt.Sprintf("Há %d processos com sentença procedente.", countOf(counts, "Procedente")),
		models.Chart{"sentencas": countsChart(counts)},
	)
}

func extinguishedWithoutCosts(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnOutcome) {
		return insufficient("os processos extintos sem custos")
	}
	counts := sentenceCounts(req.Dataset)
	n := countOf(counts, "Sem resolução do mérito") + countOf(counts, "Improcedente")
	return models.NewAnswer(
		fmt.Sprintf("Há %d processos extintos sem custos (incluindo extinção sem resolução e improcedentes).", n),
		models.Chart{"sentencas": countsChart(counts)},
	)
}

func collectiveAgreementCourt(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnSubjects, models.ColumnOrgan) {
		return insufficient("as ações sobre convenções coletivas")
	}
	counts := valueCounts(req.Dataset, func(r models.CaseRecord) string {
		if !strings.Contains(matchKey(r.Subjects), collectiveAgreementSubject) {
			return ""
		}
		return strings.TrimSpace(r.Organ)
	})
	if len(counts) == 0 {
		return models.NewAnswer("Não foram encontradas ações sobre convenções coletivas nos tribunais.", nil)
	}
	return models.NewAnswer(
		fmt.Sprintf("O tribunal com mais ações sobre convenções coletivas é %s com %d ações.", counts[0].label, counts[0].count),
		models.Chart{"tribunais": countsChart(counts)},
	)
}

func recourseCount(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnRecourse) {
		return insufficient("a quantidade de recursos")
	}
	with, without := 0, 0
	req.Dataset.Each(func(_ int, r models.CaseRecord) {
		switch fold(r.Recourse) {
		case "", "-":
			without++
		default:
			with++
		}
	})
	return models.NewAnswer(
		fmt.Sprintf("Foram interpostos %d recursos, e %d processos não têm recurso.", with, without),
		models.Chart{"com_recursos": with, "sem_recursos": without},
	)
}

func repeatPlaintiffs(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnPlaintiff) {
		return insufficient("os reclamantes com mais de um processo")
	}
	var multiple []labelCount
	for _, c := range valueCounts(req.Dataset, func(r models.CaseRecord) string { return strings.TrimSpace(r.Plaintiff) }) {
		if c.count > 1 {
			multiple = append(multiple, c)
		}
	}
	if len(multiple) == 0 {
		return models.NewAnswer("Nenhum reclamante tem mais de um processo.", nil)
	}
	return models.NewAnswer(
		fmt.Sprintf("Os reclamantes com mais de um processo são: %s.", joinCounts(multiple, " processos")),
		models.Chart{"reclamantes_multiplos": countsChart(multiple)},
	)
}
