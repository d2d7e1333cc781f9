package classifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ternarybob/laboro/internal/models"
)

var (
	fencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	subfamilyPattern = regexp.MustCompile(`"job_subfamily"\s*:\s*"([^"]+)"`)
)

// ParseClassification defensively parses an LLM response: markdown fences
// are stripped, a bare list yields its first element, and a truncated body
// still recovers job_subfamily before escalating to an error.
func ParseClassification(text string) (*models.Classification, error) {
	cleaned := cleanResponse(text)
	if cleaned == "" {
		return nil, &Error{Kind: KindInvalidJSON, Message: "empty response"}
	}

	body := []byte(cleaned)
	if strings.HasPrefix(cleaned, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
			return recoverSubfamily(cleaned, err)
		}
		body = items[0]
	}

	var c models.Classification
	if err := json.Unmarshal(body, &c); err != nil {
		return recoverSubfamily(cleaned, err)
	}

	normalizeNullStrings(&c)

	if c.Role.JobSubfamily == "" {
		return nil, &Error{Kind: KindSchemaViolation, Message: "missing job_subfamily"}
	}
	return &c, nil
}

// cleanResponse strips optional markdown fences and surrounding prose
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	// tolerate a sentence of prose before the object
	if idx := strings.IndexAny(text, "{["); idx > 0 {
		text = text[idx:]
	}
	return text
}

// recoverSubfamily pulls job_subfamily out of partial JSON so a truncated
// response still produces a minimally useful classification.
func recoverSubfamily(text string, cause error) (*models.Classification, error) {
	if m := subfamilyPattern.FindStringSubmatch(text); m != nil {
		c := &models.Classification{}
		c.Role.JobSubfamily = m[1]
		return c, nil
	}
	return nil, &Error{Kind: KindInvalidJSON, Message: "unparseable response", Err: cause}
}

// normalizeNullStrings clears fields where the model emitted the string
// "null" despite the prompt's instruction.
func normalizeNullStrings(c *models.Classification) {
	clearNull := func(s *string) {
		if strings.EqualFold(strings.TrimSpace(*s), "null") {
			*s = ""
		}
	}
	clearNull(&c.Employer.Department)
	clearNull(&c.Employer.Size)
	clearNull(&c.Role.JobFamily)
	clearNull(&c.Role.JobSubfamily)
	clearNull(&c.Role.Seniority)
	clearNull(&c.Role.Track)
	clearNull(&c.Role.PositionType)
	clearNull(&c.Role.ExperienceRange)
	clearNull(&c.Compensation.Currency)
	clearNull(&c.Summary)

	kept := c.Skills[:0]
	for _, s := range c.Skills {
		if !strings.EqualFold(strings.TrimSpace(s.Name), "null") && s.Name != "" {
			kept = append(kept, s)
		}
	}
	c.Skills = kept
}
