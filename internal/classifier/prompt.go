package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ternarybob/laboro/internal/models"
)

// StructuredInput is the config-shaped record passed alongside the free text.
// Only the keys a source can actually populate are set.
type StructuredInput struct {
	Title               string   `json:"title"`
	Company             string   `json:"company"`
	Location            string   `json:"location,omitempty"`
	Category            string   `json:"category,omitempty"`
	SalaryMin           *float64 `json:"salary_min,omitempty"`
	SalaryMax           *float64 `json:"salary_max,omitempty"`
	SalaryPredicted     *bool    `json:"salary_predicted,omitempty"`
	ExperienceLevelHint string   `json:"experience_level_hint,omitempty"`
	WorkplaceTypeHint   string   `json:"workplace_type_hint,omitempty"`
	IsRemote            *bool    `json:"is_remote,omitempty"`
}

// BuildStructuredInput lifts the fetcher's metadata hints into the
// classifier's structured record.
func BuildStructuredInput(raw *models.RawPosting) StructuredInput {
	in := StructuredInput{
		Title:    raw.Title,
		Company:  raw.Company,
		Location: raw.CityHint,
	}
	if v, ok := raw.Hint(models.HintCategory); ok {
		in.Category = v
	}
	if v, ok := raw.Hint(models.HintSalaryMin); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			in.SalaryMin = &f
		}
	}
	if v, ok := raw.Hint(models.HintSalaryMax); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			in.SalaryMax = &f
		}
	}
	if v, ok := raw.Hint(models.HintSalaryPredicted); ok {
		predicted := v == "true"
		in.SalaryPredicted = &predicted
	}
	if v, ok := raw.Hint(models.HintExperienceLevel); ok {
		in.ExperienceLevelHint = v
	}
	if v, ok := raw.Hint(models.HintWorkplaceType); ok {
		in.WorkplaceTypeHint = v
	}
	if v, ok := raw.Hint(models.HintIsRemote); ok {
		remote := v == "true"
		in.IsRemote = &remote
	}
	return in
}

const systemPrompt = `You are a job posting classifier. You receive one job posting and return a single JSON object, nothing else. No markdown fences, no commentary.

The output schema is closed. Every key must be present:

{
  "employer": {
    "department": string|null,
    "size": string|null,
    "is_agency": boolean,
    "agency_confidence": "low"|"medium"|"high"
  },
  "role": {
    "job_family": string,
    "job_subfamily": string,
    "seniority": "junior"|"mid"|"senior"|"staff_principal"|"director_plus",
    "track": "ic"|"management",
    "position_type": "full_time"|"part_time"|"contract"|"internship",
    "experience_range": string|null
  },
  "location": {
    "working_arrangement": "onsite"|"hybrid"|"remote"|"flexible"|"unknown",
    "locations": [{"type": "city"|"country"|"region"|"remote", "city": string|null, "region": string|null, "country_code": string|null, "scope": string|null}]
  },
  "compensation": {
    "currency": string|null,
    "salary_min": number|null,
    "salary_max": number|null,
    "equity_eligible": boolean
  },
  "skills": [{"name": string}],
  "summary": string
}

Rules:
1. null means absent. Never emit the string "null".
2. Any title containing "Product Manager", "PM" or "GPM" is in the product family regardless of qualifiers such as Data, Technical or AI.
3. Infer seniority from stated years of experience first, from the title second.
4. job_subfamily is authoritative; pick the most specific subfamily and derive job_family from it. Use "out_of_scope" for roles outside the taxonomy.
5. Report only compensation the posting explicitly states. Do not estimate.`

// BuildUserPrompt assembles the per-posting message: the structured record
// followed by the free text.
func BuildUserPrompt(raw *models.RawPosting) (string, error) {
	input := BuildStructuredInput(raw)
	structured, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal structured input: %w", err)
	}
	return fmt.Sprintf("Structured fields:\n%s\n\nPosting text:\n%s", structured, raw.RawText), nil
}
