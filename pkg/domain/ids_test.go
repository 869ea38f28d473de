package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civictrust/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("valid uuid", func(t *testing.T) {
		raw := uuid.NewString()
		parsed, err := ParseUserID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.String())
		assert.False(t, parsed.IsNil())
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("nil uuid rejected", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestTypedIDsAreDistinct(t *testing.T) {
	// Zero values are nil; fresh IDs are not.
	assert.True(t, UserID{}.IsNil())
	assert.True(t, PeriodID{}.IsNil())
	assert.False(t, NewReportID().IsNil())
	assert.False(t, NewMunicipalityID().IsNil())
	assert.False(t, NewLocationID().IsNil())
}

func TestParseRoundTrips(t *testing.T) {
	reportID := NewReportID()
	parsed, err := ParseReportID(reportID.String())
	require.NoError(t, err)
	assert.Equal(t, reportID, parsed)

	periodID := NewPeriodID()
	parsedPeriod, err := ParsePeriodID(periodID.String())
	require.NoError(t, err)
	assert.Equal(t, periodID, parsedPeriod)
}
