package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholdsAreValid(t *testing.T) {
	th := DefaultThresholds()
	require.NoError(t, th.Validate())
	assert.Equal(t, 0.40, th.ManualReviewFloor)
	assert.Equal(t, 0.60, th.VerificationFloor)
	assert.Equal(t, 0.85, th.HighConfidenceFloor)
	assert.Equal(t, 0.95, th.ExactMatchFloor)
}

func TestNewThresholds(t *testing.T) {
	t.Run("accepts equal floors", func(t *testing.T) {
		th, err := NewThresholds(0.5, 0.5, 0.5, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 0.5, th.VerificationFloor)
	})

	t.Run("rejects out of order floors", func(t *testing.T) {
		_, err := NewThresholds(0.7, 0.6, 0.85, 0.95)
		assert.Error(t, err)
	})

	t.Run("rejects values outside unit range", func(t *testing.T) {
		_, err := NewThresholds(0.4, 0.6, 0.85, 1.2)
		assert.Error(t, err)
	})
}

func TestParseRegistryStatus(t *testing.T) {
	assert.Equal(t, RegistryStatusActive, ParseRegistryStatus("Active"))
	assert.Equal(t, RegistryStatusActive, ParseRegistryStatus("ACT"))
	assert.Equal(t, RegistryStatusInactive, ParseRegistryStatus("inactive"))
	assert.Equal(t, RegistryStatusOther, ParseRegistryStatus("Cancelled"))
	assert.Equal(t, RegistryStatusOther, ParseRegistryStatus(""))
}

func TestRegistryRecordHelpers(t *testing.T) {
	rec := RegistryRecord{
		LegalName:     "Acme Pty Ltd",
		TradingNames:  []string{"Acme", " "},
		BusinessNames: []string{"Acme Plumbing"},
		Locality:      StringPtr("Sydney"),
		Region:        StringPtr("NSW"),
		PostalCode:    StringPtr("2000"),
	}

	assert.Equal(t, []string{"Acme Pty Ltd", "Acme", "Acme Plumbing"}, rec.Names())
	assert.True(t, rec.HasLocation())
	assert.Equal(t, "Sydney, NSW 2000", rec.LocationText())
	assert.False(t, RegistryRecord{}.HasLocation())
	assert.Equal(t, "", RegistryRecord{}.LocationText())
}

func TestCrawlRecordOptionalFields(t *testing.T) {
	rec := CrawlRecord{ID: "c1", Name: "Acme"}
	assert.Equal(t, "", rec.IndustryText())
	assert.Equal(t, "", rec.DescriptionText())

	rec.Industry = StringPtr("Plumbing")
	assert.Equal(t, "Plumbing", rec.IndustryText())
}
