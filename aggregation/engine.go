// Package aggregation holds one deterministic routine per question category.
// Routines only read the dataset; anything derived (parsed money, durations, group keys)
// lives in values local to the call.
package aggregation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"casequery-backend/intent"
	"casequery-backend/models"
	"casequery-backend/parsing"
)

// Request is the input of every routine.
type Request struct {
	Dataset    *models.Dataset
	Question   string
	Normalized string
	Now        time.Time
}

// Routine answers one category of question.
type Routine func(Request) models.Answer

// Engine maps category IDs to routines.
type Engine struct {
	routines map[intent.CategoryID]Routine
}

// NewEngine creates an engine with every built-in routine registered.
func NewEngine() *Engine {
	e := &Engine{routines: make(map[intent.CategoryID]Routine)}

	e.Register(intent.SettlementTotal, settlementTotal)
	e.Register(intent.CondemnationByState, condemnationByState)
	e.Register(intent.StateHighestClaimTotal, stateHighestClaimTotal)
	e.Register(intent.StateHighestClaimMean, stateHighestClaimMean)
	e.Register(intent.OutcomeBreakdown, outcomeBreakdown)
	e.Register(intent.TransitInJudgment, transitInJudgment)
	e.Register(intent.CountByState, countByState)
	e.Register(intent.TotalCount, totalCount)
	e.Register(intent.ClaimTotal, claimTotal)
	e.Register(intent.ArchivedMeanDuration, archivedMeanDuration)
	e.Register(intent.ActiveCases, statusRoutine(models.CaseStatusActive))
	e.Register(intent.ArchivedCases, statusRoutine(models.CaseStatusArchived))
	e.Register(intent.RecourseCount, recourseCount)
	e.Register(intent.SentenceBreakdown, sentenceBreakdown)
	e.Register(intent.RecurringSubjects, recurringSubjects)
	e.Register(intent.CollectiveAgreementCourt, collectiveAgreementCourt)
	e.Register(intent.SummaryRite, summaryRite)
	e.Register(intent.PhaseBreakdown, phaseBreakdown)
	e.Register(intent.RepeatPlaintiffs, repeatPlaintiffs)
	e.Register(intent.MostOffendingState, mostOffendingState)
	e.Register(intent.MostOffendingComarca, mostOffendingComarca)
	e.Register(intent.PortfolioEconomicBenefit, portfolioEconomicBenefit)
	e.Register(intent.EconomicBenefitByState, economicBenefitByState)
	e.Register(intent.PortfolioAge, portfolioAge)
	e.Register(intent.StateHighestMeanDuration, meanDurationBy("estado", stateKey))
	e.Register(intent.ComarcaHighestDuration, meanDurationBy("comarca", comarcaKey))
	e.Register(intent.DismissedCases, dismissedCases)
	e.Register(intent.UpheldCases, upheldCases)
	e.Register(intent.ExtinguishedWithoutCosts, extinguishedWithoutCosts)
	e.Register(intent.LongestWithoutMovement, longestWithoutMovement)
	e.Register(intent.RiteBreakdown, riteBreakdown)
	e.Register(intent.NotJudged, notJudged)
	e.Register(intent.NotCited, notCited)
	e.Register(intent.OldestCase, oldestCase)
	e.Register(intent.OrganBreakdown, organBreakdown)
	e.Register(intent.PlaintiffStatus, plaintiffStatus)
	e.Register(intent.RegisteredInPeriod, periodRoutine(models.ColumnRegisterDate, "cadastrados", registerDate))
	e.Register(intent.DistributedInPeriod, periodRoutine(models.ColumnFilingDate, "distribuídos", filingDate))
	e.Register(intent.CitedInPeriod, periodRoutine(models.ColumnCitationDate, "citados", citationDate))
	e.Register(intent.CasesInPeriod, periodRoutine(models.ColumnFilingDate, "distribuídos", filingDate))

	return e
}

// Register binds a routine to a category, replacing any previous one.
func (e *Engine) Register(id intent.CategoryID, r Routine) {
	e.routines[id] = r
}

// Has reports whether a routine exists for id.
func (e *Engine) Has(id intent.CategoryID) bool {
	_, ok := e.routines[id]
	return ok
}

// Run executes the routine for id. The second return is false when none is registered.
func (e *Engine) Run(id intent.CategoryID, req Request) (models.Answer, bool) {
	r, ok := e.routines[id]
	if !ok {
		return models.Answer{}, false
	}
	a := r(req)
	if a.Chart == nil {
		a.Chart = models.Chart{}
	}
	a.Category = string(id)
	return a, true
}

func insufficient(what string) models.Answer {
	return models.NewAnswer(fmt.Sprintf("Não há dados suficientes para calcular %s.", what), nil)
}

func missingColumns(ds *models.Dataset, columns ...string) bool {
	if ds.Len() == 0 {
		return true
	}
	for _, c := range columns {
		if !ds.HasColumn(c) {
			return true
		}
	}
	return false
}

// fold is the case-insensitive comparison key for column values.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchKey compares free text ignoring case, accents and punctuation.
func matchKey(s string) string {
	return intent.Normalize(s)
}

type labelCount struct {
	label string
	count int
}

// valueCounts counts non-empty values of field, most frequent first; ties keep first appearance.
func valueCounts(ds *models.Dataset, field func(models.CaseRecord) string) []labelCount {
	index := make(map[string]int)
	var out []labelCount
	ds.Each(func(_ int, r models.CaseRecord) {
		v := field(r)
		if v == "" {
			return
		}
		i, ok := index[v]
		if !ok {
			i = len(out)
			index[v] = i
			out = append(out, labelCount{label: v})
		}
		out[i].count++
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

func countsChart(counts []labelCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.label] += c.count
	}
	return m
}

func joinCounts(counts []labelCount, suffix string) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s: %d%s", c.label, c.count, suffix)
	}
	return strings.Join(parts, ", ")
}

// relabel maps labels through abbreviations, merging labels that collapse together.
func relabel(counts []labelCount, abbreviate func(string) string) []labelCount {
	index := make(map[string]int)
	var out []labelCount
	for _, c := range counts {
		l := abbreviate(c.label)
		if i, ok := index[l]; ok {
			out[i].count += c.count
			continue
		}
		index[l] = len(out)
		out = append(out, labelCount{label: l, count: c.count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

// argMax returns the key with the largest value; ties go to the smallest key.
func argMax(m map[string]float64) (string, float64, bool) {
	var (
		best  string
		value float64
		found bool
	)
	for k, v := range m {
		if !found || v > value || (v == value && k < best) {
			best, value, found = k, v, true
		}
	}
	return best, value, found
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateKey groups by the venue's state code, or the whole venue when it has none.
func stateKey(r models.CaseRecord) string {
	if s := parsing.VenueState(r.Venue); s != "" {
		return s
	}
	return strings.TrimSpace(r.Venue)
}

func comarcaKey(r models.CaseRecord) string {
	return parsing.VenueComarca(r.Venue)
}
