package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DefaultUserID stamps check-ins submitted without an authenticated identity.
const DefaultUserID = "default-user"

// TimeLayout is the storage format for check-in timestamps. Fixed-width
// milliseconds keep the values sortable as plain strings.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// SelectionList holds the answer to a multi-choice question. Two wire shapes
// are accepted: the legacy flat array of strings and the structured
// {"selectedOptions": [...], "additionalText": "..."} object. A value
// remembers which shape it was decoded from and re-encodes the same way, so
// persisted collections keep whatever mix of shapes they already contain.
type SelectionList struct {
	Structured     bool
	Options        []string
	AdditionalText string
}

type structuredSelection struct {
	SelectedOptions []string `json:"selectedOptions"`
	AdditionalText  string   `json:"additionalText"`
}

// UnmarshalJSON accepts either accepted shape. null decodes as an empty
// legacy list.
func (s *SelectionList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = SelectionList{}
		return nil
	}
	if trimmed[0] == '[' {
		var opts []string
		if err := json.Unmarshal(trimmed, &opts); err != nil {
			return err
		}
		*s = SelectionList{Options: opts}
		return nil
	}
	var obj structuredSelection
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	*s = SelectionList{Structured: true, Options: obj.SelectedOptions, AdditionalText: obj.AdditionalText}
	return nil
}

// MarshalJSON re-encodes the value in the shape it was decoded from.
func (s SelectionList) MarshalJSON() ([]byte, error) {
	if !s.Structured {
		opts := s.Options
		if opts == nil {
			opts = []string{}
		}
		return json.Marshal(opts)
	}
	obj := structuredSelection{SelectedOptions: s.Options, AdditionalText: s.AdditionalText}
	if obj.SelectedOptions == nil {
		obj.SelectedOptions = []string{}
	}
	return json.Marshal(obj)
}

// Selected returns the named options only. Free text from the structured
// shape is deliberately excluded; it feeds prompts, not tallies.
func (s SelectionList) Selected() []string {
	return s.Options
}

// JoinedText flattens the value to a comma-joined string for prompt
// building. Non-blank additional text is appended after the options.
func (s SelectionList) JoinedText() string {
	parts := make([]string, 0, len(s.Options)+1)
	parts = append(parts, s.Options...)
	if extra := strings.TrimSpace(s.AdditionalText); extra != "" {
		parts = append(parts, s.AdditionalText)
	}
	return strings.Join(parts, ", ")
}

// CheckInRecord is one user's daily self-report. The JSON field names match
// the collection format the mobile client already stores, so exported
// bundles remain importable across versions.
type CheckInRecord struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	EmotionalState     string        `json:"emotional_state"`
	AlcoholConsumption string        `json:"alcohol_consumption"`
	CravingTriggers    SelectionList `json:"craving_triggers"`
	CopingStrategies   SelectionList `json:"coping_strategies"`
	ProudOf            string        `json:"proud_of"`
	MotivationRating   int           `json:"motivation_rating"`
	SupportNeed        string        `json:"support_need"`
	AISummary          *string       `json:"ai_summary"`
	CreatedAt          string        `json:"created_at"`
	UpdatedAt          string        `json:"updated_at"`
}

// CreatedTime parses the creation timestamp. A malformed value yields the
// zero time, which sorts last and partitions as archived.
func (r *CheckInRecord) CreatedTime() time.Time {
	t, err := time.Parse(TimeLayout, r.CreatedAt)
	if err != nil {
		// Tolerate bundles produced by older clients that wrote RFC 3339
		// without the fixed millisecond width.
		t, _ = time.Parse(time.RFC3339, r.CreatedAt)
	}
	return t
}

// Summary returns the attached summary text, or "" when absent.
func (r *CheckInRecord) Summary() string {
	if r.AISummary == nil {
		return ""
	}
	return *r.AISummary
}

// CheckInInput is the raw submission payload from the check-in form.
type CheckInInput struct {
	UserID             string        `json:"userId"`
	EmotionalState     string        `json:"emotionalState"`
	AlcoholConsumption string        `json:"alcoholConsumption"`
	CravingTriggers    SelectionList `json:"cravingTriggers"`
	CopingStrategies   SelectionList `json:"copingStrategies"`
	ProudOf            string        `json:"proudOf"`
	MotivationRating   int           `json:"motivationRating"`
	SupportNeed        string        `json:"supportNeed"`
}

// StorageStats summarizes the persisted collection.
type StorageStats struct {
	TotalCheckIns    int     `json:"totalCheckIns"`
	RecentCheckIns   int     `json:"recentCheckIns"`
	ArchivedCheckIns int     `json:"archivedCheckIns"`
	TotalSizeMB      string  `json:"totalSizeMB"`
	OldestCheckIn    *string `json:"oldestCheckIn"`
	NewestCheckIn    *string `json:"newestCheckIn"`
}

// ExportBundle wraps the full collection for backup and restore.
type ExportBundle struct {
	BundleID   string          `json:"bundleId,omitempty"`
	CheckIns   []CheckInRecord `json:"checkIns"`
	Stats      StorageStats    `json:"stats"`
	ExportDate string          `json:"exportDate"`
	Version    string          `json:"version"`
}
