package usecase

import (
	"fmt"
	"strings"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// Consistency analysis thresholds. The analysis is deterministic rules, not
// model inference, so reviewers can explain every verdict.
const (
	minDuplicateValueLen = 3
	maxDetailedFindings  = 3
	incompleteRatio      = 0.3
)

// attributeConcepts maps a concept to the name substrings that betray it.
// Two or more distinct field names matching one concept means the document
// uses inconsistent attribute naming.
var attributeConcepts = []struct {
	concept  string
	synonyms []string
}{
	{"Owner", []string{"owner", "proprietor", "holder"}},
	{"Author", []string{"author", "writer", "editor"}},
	{"Director", []string{"director", "manager", "head", "chief"}},
	{"Date", []string{"date", "issued", "day"}},
	{"Number", []string{"number", "reference", "serial", "no."}},
	{"Location", []string{"location", "address", "place", "site"}},
}

// FieldConsistencyAnalyzer is a stateless analyzer over one FieldSet.
type FieldConsistencyAnalyzer struct{}

func NewFieldConsistencyAnalyzer() *FieldConsistencyAnalyzer {
	return &FieldConsistencyAnalyzer{}
}

// AnalyzeFields computes the consistency report: field statistics, duplicate
// groups, attribute variations, risk thresholding and recommendations. Pure
// function, no LLM calls.
func (a *FieldConsistencyAnalyzer) AnalyzeFields(fields domain.FieldSet) domain.ConsistencyReport {
	stats := fieldStatistics(fields)
	duplicates := detectDuplicates(fields)
	variations := detectVariations(fields)

	issues := duplicates.TotalGroups + variations.TotalVariations + stats.EmptyFields
	risk, priority, authenticity := scoreRisk(issues)

	report := domain.ConsistencyReport{
		FieldStatistics: stats,
		Duplicates:      duplicates,
		Variations:      variations,
		MissingCritical: missingCritical(fields),
		Insights: domain.DocumentInsights{
			Authenticity:       authenticity,
			RiskAssessment:     risk,
			PriorityLevel:      priority,
			RecommendedActions: recommendations(duplicates, variations, stats),
		},
		OverallStatus: "complete",
	}
	if stats.TotalFields > 0 && float64(stats.EmptyFields) >= incompleteRatio*float64(stats.TotalFields) {
		report.OverallStatus = "incomplete"
	}
	return report
}

func fieldStatistics(fields domain.FieldSet) domain.FieldStatistics {
	stats := domain.FieldStatistics{TotalFields: len(fields)}
	for _, value := range fields {
		if value.Empty() {
			stats.EmptyFields++
		} else {
			stats.FilledFields++
		}
	}
	return stats
}

func detectDuplicates(fields domain.FieldSet) domain.DuplicateFindings {
	// Group field names by case-insensitively normalized value. Values
	// shorter than 3 runes are skipped to avoid false positives on short
	// tokens.
	type group struct {
		original string
		fields   []string
	}
	groups := make(map[string]*group)

	for _, name := range fields.Keys() {
		value := fields[name]
		if value.Empty() {
			continue
		}
		text := strings.TrimSpace(value.Wire())
		normalized := strings.ToLower(text)
		if len([]rune(normalized)) < minDuplicateValueLen {
			continue
		}
		g, ok := groups[normalized]
		if !ok {
			g = &group{original: text}
			groups[normalized] = g
		}
		g.fields = append(g.fields, name)
	}

	findings := domain.DuplicateFindings{}
	for _, name := range fields.Keys() {
		value := fields[name]
		if value.Empty() {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(value.Wire()))
		g, ok := groups[normalized]
		if !ok || len(g.fields) < 2 || g.fields[0] != name {
			continue
		}

		severity := domain.SeverityMedium
		if len(g.fields) > 2 {
			severity = domain.SeverityHigh
		}
		findings.TotalGroups++
		if len(findings.Groups) < maxDetailedFindings {
			findings.Groups = append(findings.Groups, domain.DuplicateGroup{
				Value:    g.original,
				Fields:   g.fields,
				Count:    len(g.fields),
				Severity: severity,
				Issue: fmt.Sprintf("Value '%s' appears in %d fields: %s",
					g.original, len(g.fields), strings.Join(g.fields, ", ")),
			})
		}
	}

	findings.HasDuplicates = findings.TotalGroups > 0
	switch {
	case findings.TotalGroups == 0:
		findings.Details = "No duplicates detected"
	case findings.TotalGroups == 1:
		findings.Details = "Found 1 duplicate value: " + findings.Groups[0].Issue
	default:
		findings.Details = fmt.Sprintf("Found %d duplicate values. Most significant: %s and %d other%s",
			findings.TotalGroups, findings.Groups[0].Issue,
			findings.TotalGroups-1, plural(findings.TotalGroups-1))
	}
	return findings
}

func detectVariations(fields domain.FieldSet) domain.VariationFindings {
	names := fields.Keys()
	findings := domain.VariationFindings{}

	for _, concept := range attributeConcepts {
		var matched []string
		for _, name := range names {
			lower := strings.ToLower(strings.TrimSpace(name))
			for _, synonym := range concept.synonyms {
				if strings.Contains(lower, synonym) {
					matched = append(matched, name)
					break
				}
			}
		}
		if len(matched) < 2 {
			continue
		}
		findings.TotalVariations++
		if len(findings.Groups) < maxDetailedFindings {
			findings.Groups = append(findings.Groups, domain.VariationGroup{
				Concept: concept.concept,
				Fields:  matched,
				Count:   len(matched),
				Suggestion: fmt.Sprintf("Consider standardizing '%s' fields: %s",
					concept.concept, strings.Join(matched, ", ")),
			})
		}
	}

	findings.HasVariations = findings.TotalVariations > 0
	if findings.HasVariations {
		findings.Details = fmt.Sprintf("Found %d attribute variation groups that could be standardized", findings.TotalVariations)
	} else {
		findings.Details = "No attribute variations detected"
	}
	return findings
}

func scoreRisk(issues int) (risk, priority, authenticity string) {
	switch {
	case issues == 0:
		return domain.RiskLow, domain.PriorityMedium, domain.AuthenticityAuthentic
	case issues <= 3:
		return domain.RiskMedium, domain.PriorityHigh, domain.AuthenticityAuthentic
	default:
		return domain.RiskHigh, domain.PriorityUrgent, domain.AuthenticityRequiresReview
	}
}

func missingCritical(fields domain.FieldSet) []domain.MissingFieldNote {
	notes := []domain.MissingFieldNote{}
	for _, name := range fields.Keys() {
		if !fields[name].Empty() {
			continue
		}
		importance := "standard"
		reason := fmt.Sprintf("Field '%s' is empty but appears to be important for document completeness", name)
		switch name {
		case domain.FieldDocumentNumber, domain.FieldDate:
			importance = "critical"
			reason = fmt.Sprintf("Field '%s' is empty but appears to be critical for document identification", name)
		case domain.FieldPrimaryName, domain.FieldResponsibleParty, domain.FieldIssuingAuthority:
			importance = "important"
		}
		notes = append(notes, domain.MissingFieldNote{Field: name, Importance: importance, Reason: reason})
	}
	return notes
}

func recommendations(duplicates domain.DuplicateFindings, variations domain.VariationFindings, stats domain.FieldStatistics) []string {
	var actions []string
	if duplicates.HasDuplicates {
		actions = append(actions, "Review and resolve duplicate field values")
	}
	if variations.HasVariations {
		actions = append(actions, "Consider standardizing attribute names across documents")
	}
	if stats.EmptyFields > 0 {
		actions = append(actions, "Complete missing field information")
	}
	if stats.TotalFields > 0 && float64(stats.EmptyFields) > incompleteRatio*float64(stats.TotalFields) {
		actions = append(actions, "Document appears incomplete - manual review recommended")
	}
	if len(actions) == 0 {
		actions = append(actions, "Document appears complete - proceed with standard processing")
	}
	return actions
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
