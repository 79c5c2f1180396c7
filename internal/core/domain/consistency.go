package domain

// ConsistencyReport is derived on demand from a single FieldSet; it is never
// persisted and is recomputed each time it is requested.
type ConsistencyReport struct {
	FieldStatistics FieldStatistics    `json:"field_statistics"`
	Duplicates      DuplicateFindings  `json:"duplicate_detection"`
	Variations      VariationFindings  `json:"attribute_variation_detection"`
	Insights        DocumentInsights   `json:"document_insights"`
	MissingCritical []MissingFieldNote `json:"missing_critical_data"`
	OverallStatus   string             `json:"overall_status"`
}

type FieldStatistics struct {
	TotalFields  int `json:"total_fields"`
	FilledFields int `json:"filled_fields"`
	EmptyFields  int `json:"empty_fields"`
}

type DuplicateGroup struct {
	Value    string   `json:"value"`
	Fields   []string `json:"fields"`
	Count    int      `json:"count"`
	Issue    string   `json:"issue"`
	Severity string   `json:"severity"`
}

type DuplicateFindings struct {
	HasDuplicates bool             `json:"has_duplicates"`
	TotalGroups   int              `json:"total_groups"`
	Groups        []DuplicateGroup `json:"duplicate_details"`
	Details       string           `json:"details"`
}

type VariationGroup struct {
	Concept    string   `json:"concept"`
	Fields     []string `json:"fields"`
	Count      int      `json:"count"`
	Suggestion string   `json:"suggestion"`
}

type VariationFindings struct {
	HasVariations   bool             `json:"has_variations"`
	TotalVariations int              `json:"total_variations"`
	Groups          []VariationGroup `json:"variation_details"`
	Details         string           `json:"details"`
}

type DocumentInsights struct {
	Authenticity       string   `json:"document_authenticity"`
	RecommendedActions []string `json:"recommended_actions"`
	RiskAssessment     string   `json:"risk_assessment"`
	PriorityLevel      string   `json:"priority_level"`
}

type MissingFieldNote struct {
	Field      string `json:"field"`
	Importance string `json:"importance"`
	Reason     string `json:"reason"`
}

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	AuthenticityAuthentic      = "authentic"
	AuthenticityRequiresReview = "requires_review"

	SeverityMedium = "medium"
	SeverityHigh   = "high"
)
