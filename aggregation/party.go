package aggregation

import (
	"fmt"
	"strings"

	"casequery-backend/models"
)

const askFullName = "Por favor, forneça o nome completo (nome e sobrenome) do autor para que possamos identificar o caso corretamente."

// plaintiffStatus looks for two consecutive question words inside a plaintiff name.
// Pairs are tried in question order and records in dataset order; the first hit wins.
func plaintiffStatus(req Request) models.Answer {
	if missingColumns(req.Dataset, models.ColumnPlaintiff, models.ColumnStatus) {
		return insufficient("o status do autor")
	}

	names := make([]string, req.Dataset.Len())
	req.Dataset.Each(func(i int, r models.CaseRecord) {
		names[i] = " " + matchKey(r.Plaintiff) + " "
	})

	words := strings.Fields(req.Normalized)
	for i := 0; i+1 < len(words); i++ {
		pair := " " + words[i] + " " + words[i+1] + " "
		for j, name := range names {
			if !strings.Contains(name, pair) {
				continue
			}
			r := req.Dataset.Record(j)
			return models.NewAnswer(
				fmt.Sprintf("O status do processo de %s é: %s.", strings.TrimSpace(r.Plaintiff), strings.TrimSpace(r.Status)),
				models.Chart{"status": strings.TrimSpace(r.Status)},
			)
		}
	}
	return models.NewAnswer(askFullName, nil)
}
