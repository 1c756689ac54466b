package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionListDecodesLegacyShape(t *testing.T) {
	var s SelectionList
	require.NoError(t, json.Unmarshal([]byte(`["Stress","Boredom"]`), &s))
	assert.False(t, s.Structured)
	assert.Equal(t, []string{"Stress", "Boredom"}, s.Selected())
	assert.Empty(t, s.AdditionalText)
}

func TestSelectionListDecodesStructuredShape(t *testing.T) {
	var s SelectionList
	require.NoError(t, json.Unmarshal([]byte(`{"selectedOptions":["Exercise"],"additionalText":"long walk"}`), &s))
	assert.True(t, s.Structured)
	assert.Equal(t, []string{"Exercise"}, s.Selected())
	assert.Equal(t, "long walk", s.AdditionalText)
}

func TestSelectionListDecodesNullAsEmptyLegacy(t *testing.T) {
	var s SelectionList
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.False(t, s.Structured)
	assert.Empty(t, s.Selected())
}

func TestSelectionListPreservesShapeOnReencode(t *testing.T) {
	for _, raw := range []string{
		`["Stress"]`,
		`{"selectedOptions":["Exercise"],"additionalText":"yoga"}`,
		`{"selectedOptions":[],"additionalText":""}`,
	} {
		var s SelectionList
		require.NoError(t, json.Unmarshal([]byte(raw), &s))
		out, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out), "input %s", raw)
	}
}

func TestSelectionListZeroValueEncodesAsEmptyArray(t *testing.T) {
	out, err := json.Marshal(SelectionList{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}

func TestSelectionListRejectsWrongElementTypes(t *testing.T) {
	var s SelectionList
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
}

func TestJoinedText(t *testing.T) {
	assert.Equal(t, "", SelectionList{}.JoinedText())
	assert.Equal(t, "Stress, Boredom", SelectionList{Options: []string{"Stress", "Boredom"}}.JoinedText())
	assert.Equal(t, "Exercise, long walk",
		SelectionList{Structured: true, Options: []string{"Exercise"}, AdditionalText: "long walk"}.JoinedText())
	assert.Equal(t, "just breathing",
		SelectionList{Structured: true, AdditionalText: "just breathing"}.JoinedText())
	assert.Equal(t, "Exercise",
		SelectionList{Structured: true, Options: []string{"Exercise"}, AdditionalText: "   "}.JoinedText())
}

func TestRecordRoundTripMixedShapes(t *testing.T) {
	summary := "keep going"
	rec := CheckInRecord{
		ID:                 "1756200000000",
		UserID:             "alice",
		EmotionalState:     "calm",
		AlcoholConsumption: "none",
		CravingTriggers:    SelectionList{Options: []string{"Stress"}},
		CopingStrategies:   SelectionList{Structured: true, Options: []string{"Exercise"}, AdditionalText: "yoga"},
		ProudOf:            "said no at the party",
		MotivationRating:   5,
		SupportNeed:        "",
		AISummary:          &summary,
		CreatedAt:          "2026-08-26T10:00:00.000Z",
		UpdatedAt:          "2026-08-26T10:00:05.000Z",
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back CheckInRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}

func TestCreatedTimeParsesStorageLayout(t *testing.T) {
	rec := CheckInRecord{CreatedAt: "2026-08-26T10:00:00.123Z"}
	got := rec.CreatedTime()
	assert.Equal(t, time.Date(2026, 8, 26, 10, 0, 0, 123000000, time.UTC), got.UTC())
}

func TestCreatedTimeFallsBackToRFC3339(t *testing.T) {
	rec := CheckInRecord{CreatedAt: "2026-08-26T10:00:00Z"}
	assert.False(t, rec.CreatedTime().IsZero())

	rec = CheckInRecord{CreatedAt: "garbage"}
	assert.True(t, rec.CreatedTime().IsZero())
}

func TestTimeLayoutIsStringSortable(t *testing.T) {
	earlier := time.Date(2026, 8, 26, 9, 59, 59, 999000000, time.UTC).Format(TimeLayout)
	later := time.Date(2026, 8, 26, 10, 0, 0, 1000000, time.UTC).Format(TimeLayout)
	assert.Less(t, earlier, later)
}

func TestSummary(t *testing.T) {
	var rec CheckInRecord
	assert.Equal(t, "", rec.Summary())
	text := "well done"
	rec.AISummary = &text
	assert.Equal(t, "well done", rec.Summary())
}
