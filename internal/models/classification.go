package models

// WorkingArrangement enumerates where a role is performed
type WorkingArrangement string

const (
	ArrangementOnsite   WorkingArrangement = "onsite"
	ArrangementHybrid   WorkingArrangement = "hybrid"
	ArrangementRemote   WorkingArrangement = "remote"
	ArrangementFlexible WorkingArrangement = "flexible"
	ArrangementUnknown  WorkingArrangement = "unknown"
)

// Confidence levels used by the agency detector
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// AgencyVerdict is the ephemeral output of the agency detector
type AgencyVerdict struct {
	IsAgency   bool
	Confidence Confidence
}

// Skill pairs a skill name with its taxonomy family code. FamilyCode is
// empty when the name is unknown to the taxonomy; the skill is kept anyway.
type Skill struct {
	Name       string  `json:"name"`
	FamilyCode *string `json:"family_code"`
}

// EmployerFacts groups the classifier's employer-level output
type EmployerFacts struct {
	Department       string     `json:"department,omitempty"`
	Size             string     `json:"size,omitempty"`
	IsAgency         bool       `json:"is_agency"`
	AgencyConfidence Confidence `json:"agency_confidence,omitempty"`
}

// RoleFacts groups the classifier's role-level output. JobFamily is always
// the deterministic mapping of JobSubfamily; the LLM's own family value is
// advisory and overwritten by the taxonomy mapper.
type RoleFacts struct {
	JobFamily       string `json:"job_family"`
	JobSubfamily    string `json:"job_subfamily"`
	Seniority       string `json:"seniority,omitempty"`
	Track           string `json:"track,omitempty"`
	PositionType    string `json:"position_type,omitempty"`
	ExperienceRange string `json:"experience_range,omitempty"`
}

// LocationEntry is one structured location extracted from the free-form
// location string or a source-provided structured hint.
type LocationEntry struct {
	Type        string `json:"type"` // city|country|region|remote
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Scope       string `json:"scope,omitempty"` // for remote: global|country|region
}

// LocationFacts groups working arrangement and structured locations
type LocationFacts struct {
	WorkingArrangement WorkingArrangement `json:"working_arrangement"`
	Locations          []LocationEntry    `json:"locations,omitempty"`
}

// CompensationFacts holds the salary band when the posting discloses one.
// The whole triple is suppressed on write for configured markets and for
// aggregator rows with model-predicted numbers.
type CompensationFacts struct {
	Currency       string   `json:"currency,omitempty"`
	SalaryMin      *float64 `json:"salary_min,omitempty"`
	SalaryMax      *float64 `json:"salary_max,omitempty"`
	EquityEligible bool     `json:"equity_eligible,omitempty"`
}

// CostMeta is the cost accounting side-channel attached to every
// classification. It never influences pipeline behavior.
type CostMeta struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	LatencyMS    int64   `json:"latency_ms"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
}

// Classification is the structured LLM output plus deterministic corrections
type Classification struct {
	Employer     EmployerFacts     `json:"employer"`
	Role         RoleFacts         `json:"role"`
	Location     LocationFacts     `json:"location"`
	Compensation CompensationFacts `json:"compensation"`
	Skills       []Skill           `json:"skills"`
	Summary      string            `json:"summary,omitempty"`
	Cost         CostMeta          `json:"_cost"`
}
