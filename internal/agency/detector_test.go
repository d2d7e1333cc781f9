package agency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/models"
)

func newTestDetector() *Detector {
	tables := DefaultTables()
	tables.AllowList = []string{"Search Engine Ltd"}
	return NewDetector(tables, arbor.NewLogger())
}

func TestDetect(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		name           string
		company        string
		wantAgency     bool
		wantConfidence models.Confidence
	}{
		{
			name:           "hard list match",
			company:        "Hays Recruitment",
			wantAgency:     true,
			wantConfidence: models.ConfidenceHigh,
		},
		{
			name:           "high suffix",
			company:        "Acme Staffing",
			wantAgency:     true,
			wantConfidence: models.ConfidenceHigh,
		},
		{
			name:           "two high keywords",
			company:        "Staffing and Recruiting Partners Group",
			wantAgency:     true,
			wantConfidence: models.ConfidenceHigh,
		},
		{
			name:           "single high keyword",
			company:        "Global Staffing Inc",
			wantAgency:     true,
			wantConfidence: models.ConfidenceMedium,
		},
		{
			name:           "medium suffix with recruitment theme",
			company:        "Talent Solutions",
			wantAgency:     true,
			wantConfidence: models.ConfidenceMedium,
		},
		{
			name:           "medium suffix alone is not enough",
			company:        "Cloud Solutions",
			wantAgency:     false,
			wantConfidence: models.ConfidenceLow,
		},
		{
			name:           "allow list wins over keywords",
			company:        "Search Engine Ltd",
			wantAgency:     false,
			wantConfidence: models.ConfidenceLow,
		},
		{
			name:           "ordinary employer",
			company:        "Acme Corporation",
			wantAgency:     false,
			wantConfidence: models.ConfidenceLow,
		},
		{
			name:           "empty name",
			company:        "",
			wantAgency:     false,
			wantConfidence: models.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.company)
			assert.Equal(t, tt.wantAgency, got.IsAgency)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
		})
	}
}

func TestIsHardAgency(t *testing.T) {
	d := newTestDetector()

	assert.True(t, d.IsHardAgency("Hays Recruitment"))
	assert.True(t, d.IsHardAgency("Acme Staffing"))
	// medium verdicts are not hard filtered, the classifier gets a say
	assert.False(t, d.IsHardAgency("Global Staffing Inc"))
	assert.False(t, d.IsHardAgency("Acme Corporation"))
}

func TestValidate(t *testing.T) {
	d := newTestDetector()

	notAgency := models.AgencyVerdict{IsAgency: false, Confidence: models.ConfidenceHigh}
	agency := models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceMedium}

	t.Run("high name verdict beats classifier", func(t *testing.T) {
		got := d.Validate("Hays Recruitment", "great direct role", notAgency)
		assert.True(t, got.IsAgency)
		assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	})

	t.Run("medium plus classifier agreement upgrades to high", func(t *testing.T) {
		got := d.Validate("Global Staffing Inc", "", agency)
		assert.True(t, got.IsAgency)
		assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	})

	t.Run("medium with classifier disagreement defers", func(t *testing.T) {
		got := d.Validate("Global Staffing Inc", "", notAgency)
		assert.False(t, got.IsAgency)
		assert.Equal(t, models.ConfidenceLow, got.Confidence)
	})

	t.Run("low name verdict defers to classifier", func(t *testing.T) {
		got := d.Validate("Acme Corporation", "", models.AgencyVerdict{IsAgency: true, Confidence: models.ConfidenceHigh})
		assert.True(t, got.IsAgency)
		assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	})

	t.Run("two client phrases upgrade an ordinary name", func(t *testing.T) {
		description := "Our client is seeking a data engineer. We are recruiting on behalf of a fintech."
		got := d.Validate("Acme Corporation", description, agency)
		// upgraded to medium, classifier agrees, so high
		assert.True(t, got.IsAgency)
		assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	})

	t.Run("one client phrase is not enough", func(t *testing.T) {
		got := d.Validate("Acme Corporation", "Our client is seeking a data engineer.", notAgency)
		assert.False(t, got.IsAgency)
	})
}

func TestLoadTablesMissingFileFallsBack(t *testing.T) {
	tables, err := LoadTables(t.TempDir())
	assert.NoError(t, err)
	assert.NotEmpty(t, tables.HardList)
}
