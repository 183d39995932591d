package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Quantos processos ATIVOS?", "quantos processos ativos"},
		{"  Citação   hoje!! ", "citacao hoje"},
		{"Órgãos", "orgaos"},
		{"Estado: São Paulo - SP", "estado sao paulo sp"},
		{"Qual o benefício econômico da carteira?", "qual o beneficio economico da carteira"},
		{"quantos processos existem amanhã", "quantos processos existem amanha"},
		{"\tlinha\nnova", "linha nova"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, q := range []string{
		"Quantos processos ATIVOS?",
		"Qual Tribunal tem mais ações sobre Convenções Coletivas?",
		"straße ﬁm İstanbul",
		"já transitaram em julgado?",
	} {
		once := Normalize(q)
		assert.Equal(t, once, Normalize(once), q)
	}
}

func classify(question string) CategoryID {
	return DefaultCatalogue().Classify(Normalize(question))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     CategoryID
	}{
		{"Quantos processos ativos?", ActiveCases},
		{"Quantos processos arquivados?", ArchivedCases},
		{"Qual o estado com maior valor de causa?", StateHighestClaimTotal},
		{"Qual estado tem a maior média da causa?", StateHighestClaimMean},
		{"Qual o valor total dos acordos?", SettlementTotal},
		{"Quantos processos transitaram em julgado?", TransitInJudgment},
		{"Quantidade de processos por estado", CountByState},
		{"Quantos processos existem no total?", TotalCount},
		{"Quantos processos existem?", TotalCount},
		{"Quantos processos temos", TotalCount},
		{"Qual o valor total da causa?", ClaimTotal},
		{"Qual a média de duração dos processos arquivados?", ArchivedMeanDuration},
		{"Quantos recursos foram interpostos?", RecourseCount},
		{"Quais os assuntos mais recorrentes?", RecurringSubjects},
		{"Qual tribunal tem mais ações sobre convenções coletivas?", CollectiveAgreementCourt},
		{"Quantos processos no rito sumaríssimo?", SummaryRite},
		{"Como está a divisão dos processos por fase?", PhaseBreakdown},
		{"Algum reclamante tem mais de um processo?", RepeatPlaintiffs},
		{"Qual estado é o mais preocupante?", MostOffendingState},
		{"Qual comarca é a mais preocupante?", MostOffendingComarca},
		{"Qual a melhor estratégia para aplicar nesse estado?", BestStrategy},
		{"Qual o benefício econômico da carteira?", PortfolioEconomicBenefit},
		{"Qual o benefício econômico por estado?", EconomicBenefitByState},
		{"Qual a idade da carteira?", PortfolioAge},
		{"Qual estado tem a maior média de duração?", StateHighestMeanDuration},
		{"Qual comarca tem a maior média de duração?", ComarcaHighestDuration},
		{"Quantos processos improcedentes?", DismissedCases},
		{"Quantos processos procedentes?", UpheldCases},
		{"Processos extintos sem custos", ExtinguishedWithoutCosts},
		{"Qual processo está mais tempo sem movimentação?", LongestWithoutMovement},
		{"Qual a divisão dos processos por rito?", RiteBreakdown},
		{"Quantos processos ainda não foram julgados?", NotJudged},
		{"Quantos processos ainda não foram citados?", NotCited},
		{"Qual o processo mais antigo?", OldestCase},
		{"Como estão divididos os órgãos?", OrganBreakdown},
		{"Qual o status do processo do João Silva?", PlaintiffStatus},
		{"Quantos processos foram cadastrados hoje?", RegisteredInPeriod},
		{"Processos distribuídos na semana passada", DistributedInPeriod},
		{"Quantos processos foram citados em março?", CitedInPeriod},
		{"Quantos processos existem amanhã?", CasesInPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.question))
		})
	}
}

func TestClassify_Unclassified(t *testing.T) {
	for _, q := range []string{
		"Qual é a cor do céu?",
		"me conte uma piada",
		"",
	} {
		assert.Equal(t, Unclassified, classify(q), q)
	}
}

func TestClassify_EarlierCategoryWins(t *testing.T) {
	cat := DefaultCatalogue()

	tests := []struct {
		question string
		earlier  CategoryID
		later    CategoryID
	}{
		{"quantidade de processos por estado", CountByState, TotalCount},
		{"quantos processos ainda nao foram citados", NotCited, CitedInPeriod},
		{"media de duracao dos processos arquivados", ArchivedMeanDuration, ArchivedCases},
		{"como estao divididos os resultados das sentencas", OutcomeBreakdown, SentenceBreakdown},
		{"quantos processos existem em cada estado", CountByState, CasesInPeriod},
		{"quantos processos existem", TotalCount, CasesInPeriod},
		{"quantos processos temos", TotalCount, CasesInPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			earlier, ok := cat.Lookup(tt.earlier)
			require.True(t, ok)
			later, ok := cat.Lookup(tt.later)
			require.True(t, ok)

			// Both categories match; the one declared first must be returned.
			require.True(t, earlier.Matches(tt.question))
			require.True(t, later.Matches(tt.question))
			assert.Less(t, indexOf(cat, tt.earlier), indexOf(cat, tt.later))
			assert.Equal(t, tt.earlier, cat.Classify(tt.question))
		})
	}
}

func TestClassify_FirstMatchInDeclarationOrder(t *testing.T) {
	cat := DefaultCatalogue()
	for _, q := range []string{
		"quantos processos ativos existem no total por estado",
		"valor total da causa dos processos arquivados",
		"processos citados e distribuidos hoje",
		"fase dos processos do orgao",
	} {
		n := Normalize(q)
		want := Unclassified
		for _, c := range cat {
			if c.Matches(n) {
				want = c.ID
				break
			}
		}
		assert.Equal(t, want, cat.Classify(n), q)
		assert.Equal(t, cat.Classify(n), cat.Classify(n), "deterministic")
	}
}

func TestCatalogue_UniqueIDs(t *testing.T) {
	seen := map[CategoryID]bool{}
	for _, id := range DefaultCatalogue().IDs() {
		assert.False(t, seen[id], "duplicate category %s", id)
		seen[id] = true
	}
	assert.False(t, seen[Unclassified])
}

func TestCatalogue_Flags(t *testing.T) {
	cat := DefaultCatalogue()

	strategy, ok := cat.Lookup(BestStrategy)
	require.True(t, ok)
	assert.True(t, strategy.Fallback)
	assert.NotEmpty(t, strategy.Disclaimer)

	for _, id := range []CategoryID{RegisteredInPeriod, DistributedInPeriod, CitedInPeriod, CasesInPeriod} {
		assert.True(t, cat.IsTemporal(id), id)
	}
	assert.False(t, cat.IsTemporal(ActiveCases))
	assert.False(t, cat.IsTemporal(Unclassified))
}

func indexOf(c Catalogue, id CategoryID) int {
	for i, cat := range c {
		if cat.ID == id {
			return i
		}
	}
	return -1
}
