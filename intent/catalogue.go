package intent

import (
	"regexp"
)

// CategoryID names a bucket of equivalent question phrasings.
type CategoryID string

// Unclassified is returned when no category matches.
const Unclassified CategoryID = "unclassified"

// Category identifiers. The order of the catalogue below, not of this list, decides precedence.
const (
	SettlementTotal           CategoryID = "valor_total_acordos"
	CondemnationByState       CategoryID = "valor_condenacao_estado"
	StateHighestClaimTotal    CategoryID = "estado_maior_valor_causa"
	StateHighestClaimMean     CategoryID = "estado_maior_media_valor_causa"
	OutcomeBreakdown          CategoryID = "divisao_resultados_processos"
	TransitInJudgment         CategoryID = "transitaram_julgado"
	CountByState              CategoryID = "quantidade_processos_estado"
	TotalCount                CategoryID = "quantidade_total_processos"
	ClaimTotal                CategoryID = "valor_total_causa"
	ArchivedMeanDuration      CategoryID = "media_duracao_arquivados"
	ActiveCases               CategoryID = "processos_ativos"
	ArchivedCases             CategoryID = "processos_arquivados"
	RecourseCount             CategoryID = "quantidade_recursos"
	SentenceBreakdown         CategoryID = "sentencas"
	RecurringSubjects         CategoryID = "assuntos_recorrentes"
	CollectiveAgreementCourt  CategoryID = "tribunal_acoes_convencoes"
	SummaryRite               CategoryID = "rito_sumarissimo"
	PhaseBreakdown            CategoryID = "divisao_fase"
	RepeatPlaintiffs          CategoryID = "reclamantes_multiplos"
	MostOffendingState        CategoryID = "estado_mais_ofensor"
	MostOffendingComarca      CategoryID = "comarca_mais_ofensora"
	BestStrategy              CategoryID = "melhor_estrategia"
	PortfolioEconomicBenefit  CategoryID = "beneficio_economico_carteira"
	EconomicBenefitByState    CategoryID = "beneficio_economico_estado"
	PortfolioAge              CategoryID = "idade_carteira"
	StateHighestMeanDuration  CategoryID = "maior_media_duracao_estado"
	ComarcaHighestDuration    CategoryID = "maior_media_duracao_comarca"
	DismissedCases            CategoryID = "processos_improcedentes"
	UpheldCases               CategoryID = "processos_procedentes"
	ExtinguishedWithoutCosts  CategoryID = "processos_extintos_sem_custos"
	LongestWithoutMovement    CategoryID = "processo_maior_tempo_sem_movimentacao"
	RiteBreakdown             CategoryID = "divisao_por_rito"
	NotJudged                 CategoryID = "processos_nao_julgados"
	NotCited                  CategoryID = "processos_nao_citados"
	OldestCase                CategoryID = "processo_mais_antigo"
	OrganBreakdown            CategoryID = "divisao_orgao"
	PlaintiffStatus           CategoryID = "status_autor"
	RegisteredInPeriod        CategoryID = "processos_cadastrados"
	DistributedInPeriod       CategoryID = "processos_distribuidos"
	CitedInPeriod             CategoryID = "processos_citados"
	CasesInPeriod             CategoryID = "processos_periodo"
)

// Category is a catalogue entry. Patterns are matched against normalized text.
type Category struct {
	ID       CategoryID
	Patterns []*regexp.Regexp
	// Temporal categories resolve a date window from the question.
	Temporal bool
	// Fallback categories are answered by the generative service, followed by Disclaimer.
	Fallback bool
	Disclaimer string
}

// Matches reports whether any pattern matches the normalized text.
func (c Category) Matches(normalized string) bool {
	for _, p := range c.Patterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}

func category(id CategoryID, patterns ...string) Category {
	c := Category{ID: id, Patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		c.Patterns[i] = regexp.MustCompile(p)
	}
	return c
}

func temporal(id CategoryID, patterns ...string) Category {
	c := category(id, patterns...)
	c.Temporal = true
	return c
}

func withFallback(c Category, disclaimer string) Category {
	c.Fallback = true
	c.Disclaimer = disclaimer
	return c
}

const strategyDisclaimer = "Esta sugestão é gerada automaticamente e não substitui a análise de um advogado responsável pela carteira."

// defaultCatalogue is ordered: earlier entries win when patterns overlap.
// Specific phrasings must be declared before the generic ones that would also match them.
var defaultCatalogue = Catalogue{
	category(SettlementTotal,
		`valor total (de|dos) acordos`,
		`quanto foi o total (de|dos) acordos`,
		`acordos total`,
		`total (de|dos) acordos`,
	),
	category(CondemnationByState,
		`valor (de|da) condenacao por estado`,
		`quanto foi condenado por estado`,
		`valor da condenacao em cada estado`,
		`condenacoes por estado`,
	),
	category(StateHighestClaimTotal,
		`estado (com|que tem|tem) (o )?maior valor (de|da) causa`,
		`estado tem a maior causa`,
	),
	category(StateHighestClaimMean,
		`estado (com|que tem|tem) (a )?maior media (de )?valor (de|da) causa`,
		`estado tem a maior media da causa`,
		`media maior de valor (de|da) causa por estado`,
	),
	category(OutcomeBreakdown,
		`divididos os resultados dos processos`,
		`como estao divididos os resultados`,
		`divisao dos resultados dos processos`,
	),
	category(TransitInJudgment,
		`transitaram em julgado`,
		`transito em julgado`,
	),
	category(CountByState,
		`quantidade de processos por estado`,
		`quantos processos existem em cada estado`,
		`numero de processos por estado`,
		`quantos processos (ha |tem |existem )?por estado`,
		`processos em cada estado`,
	),
	category(TotalCount,
		`quantidade total de processos`,
		`quantos processos existem no total`,
		`quantos processos ao todo`,
		`total de processos`,
		`^quantos processos (eu )?(existem|temos|tenho|ha|tem)$`,
		`quantidade de processos`,
	),
	category(ClaimTotal,
		`valor total da causa`,
		`valor total das causas`,
		`total de valor (de|da) causa`,
	),
	category(ArchivedMeanDuration,
		`media de duracao dos processos arquivados`,
		`duracao media dos processos arquivados`,
	),
	category(ActiveCases,
		`quantos processos ativos`,
		`quantos processos tenho ativos`,
		`numero de processos ativos`,
		`processos ativos`,
	),
	category(ArchivedCases,
		`quantos processos arquivados`,
		`numero de processos arquivados`,
		`processos arquivados`,
		`processos encerrados`,
	),
	category(RecourseCount,
		`quantos recursos foram interpostos`,
		`numero de recursos interpostos`,
		`recursos interpostos`,
	),
	category(SentenceBreakdown,
		`divisao dos resultados das sentencas`,
		`divisao das sentencas`,
		`como estao divididos os resultados das sentencas`,
		`resultados? das sentencas`,
	),
	category(RecurringSubjects,
		`assuntos mais recorrentes`,
		`assuntos mais frequentes`,
	),
	category(CollectiveAgreementCourt,
		`tribunal tem mais (acoes|casos) sobre convencoes coletivas`,
		`tribunal com mais (acoes|casos) sobre convencoes coletivas`,
	),
	category(SummaryRite,
		`rito sumaris?simo`,
	),
	category(PhaseBreakdown,
		`divisao (dos processos )?por fase`,
		`como esta a divisao dos processos por fase`,
		`\bfases?\b`,
	),
	category(RepeatPlaintiffs,
		`reclamante tem mais de um processo`,
		`reclamantes com mais de um processo`,
	),
	category(MostOffendingState,
		`estado devo ter mais preocupacao`,
		`estado mais ofensor`,
		`estado e o mais preocupante`,
		`estado mais preocupante`,
	),
	category(MostOffendingComarca,
		`comarca devo ter mais preocupacao`,
		`comarca mais ofensora`,
		`comarca e a mais preocupante`,
		`comarca mais preocupante`,
	),
	withFallback(category(BestStrategy,
		`melhor estrategia para aplicar nesse estado`,
		`estrategia e melhor para aplicar no estado`,
		`melhor estrategia`,
	), strategyDisclaimer),
	category(PortfolioEconomicBenefit,
		`beneficio economico da carteira`,
		`carteira economico beneficio`,
	),
	category(EconomicBenefitByState,
		`beneficio economico por estado`,
		`beneficio economico em cada estado`,
	),
	category(PortfolioAge,
		`idade (media )?da carteira`,
	),
	category(StateHighestMeanDuration,
		`estado (com|tem a) maior media de duracao`,
	),
	category(ComarcaHighestDuration,
		`comarca (com|tem a) maior media de duracao`,
	),
	category(DismissedCases,
		`quantos processos improcedentes?`,
		`processos julgados improcedentes`,
		`quais os processos foram improcedentes?`,
		`processos improcedentes`,
	),
	category(UpheldCases,
		`quantos processos procedentes`,
		`processos julgados procedentes`,
		`quais os processos foram procedentes?`,
		`processos procedentes`,
	),
	category(ExtinguishedWithoutCosts,
		`extintos? sem custos`,
	),
	category(LongestWithoutMovement,
		`maior tempo sem movimentacao`,
		`mais tempo sem movimentacao`,
	),
	category(RiteBreakdown,
		`divisao (dos processos )?por rito`,
	),
	category(NotJudged,
		`ainda nao foram julgados`,
		`processos nao julgados`,
	),
	category(NotCited,
		`ainda nao foram citados`,
		`processos nao citados`,
	),
	category(OldestCase,
		`processo mais antigo`,
	),
	category(OrganBreakdown,
		`\borgaos?\b`,
	),
	category(PlaintiffStatus,
		`status do (processo|caso) d[aeo]`,
		`situacao do (processo|caso) d[aeo]`,
	),
	temporal(RegisteredInPeriod,
		`\bcadastrad[ao]s?\b`,
	),
	temporal(DistributedInPeriod,
		`\bdistribuid[ao]s?\b`,
	),
	temporal(CitedInPeriod,
		`\bcitad[ao]s?\b`,
		`\bcitac(ao|oes)\b`,
	),
	temporal(CasesInPeriod,
		`^quantos processos (existem|foram|ha|tem|temos|entraram)\b`,
		`\bprocessos novos\b`,
	),
}
