package usecase

import (
	"strings"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// Summarize aggregates page results into a document summary. Results are
// visited in page order; entity collections are deduplicated preserving
// first-seen order so repeated runs over the same pages give identical
// output.
func Summarize(results []domain.PipelineResult) domain.DocumentSummary {
	summary := domain.DocumentSummary{
		TotalPages: len(results),
		Entities: map[string][]string{
			domain.EntityDocumentNumbers: {},
			domain.EntityDates:           {},
			domain.EntityNames:           {},
			domain.EntityOrganizations:   {},
		},
		DocumentTypes: []string{},
	}

	for _, page := range results {
		summary.TotalElapsed += page.ElapsedSeconds
		if !page.Success {
			summary.FailedPages++
			continue
		}
		summary.SuccessfulPages++

		collectEntity(&summary, domain.EntityDocumentNumbers, page.Fields[domain.FieldDocumentNumber])
		collectEntity(&summary, domain.EntityDates, page.Fields[domain.FieldDate])
		collectEntity(&summary, domain.EntityNames, page.Fields[domain.FieldPrimaryName])
		collectEntity(&summary, domain.EntityNames, page.Fields[domain.FieldResponsibleParty])
		collectEntity(&summary, domain.EntityOrganizations, page.Fields[domain.FieldIssuingAuthority])

		if docType := page.Fields[domain.FieldDocumentType]; !docType.Empty() {
			summary.DocumentTypes = appendUnique(summary.DocumentTypes, docType.Wire())
		}
	}

	return summary
}

func collectEntity(summary *domain.DocumentSummary, entity string, value domain.FieldValue) {
	if value.Empty() {
		return
	}
	summary.Entities[entity] = appendUnique(summary.Entities[entity], value.Wire())
}

func appendUnique(values []string, candidate string) []string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return values
	}
	for _, v := range values {
		if v == candidate {
			return values
		}
	}
	return append(values, candidate)
}
