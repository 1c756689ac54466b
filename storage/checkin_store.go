package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wisesobriety/wisesober/models"
	"github.com/wisesobriety/wisesober/utils"
)

// ExportVersion tags backup bundles. The live collection itself carries no
// version field; compatibility rests on the dual-shape decoding in models.
const ExportVersion = "1.0"

// archiveAge is the recent/archived partition cutoff.
const archiveAge = 2 // years

// ErrInvalidBundle rejects import payloads missing the check-in list.
var ErrInvalidBundle = errors.New("invalid import data format")

// SummaryGenerator produces the coaching summary for one record. The
// contract is total: implementations return a user-safe fallback string on
// any failure and never an error.
type SummaryGenerator interface {
	Generate(ctx context.Context, rec *models.CheckInRecord) string
	Fallback() string
}

// CheckInStore is the sole owner of the persisted check-in collection.
// Every operation loads the whole collection, transforms it, and writes the
// whole collection back. That makes a concurrent writer against the same
// blob a last-writer-wins race at collection granularity; a single service
// instance serializes writes through mu, but two instances sharing one
// backend do not. Known limitation carried over from the original design.
type CheckInStore struct {
	blob BlobStore
	gen  SummaryGenerator

	mu     sync.Mutex
	lastID int64
	now    func() time.Time
}

func NewCheckInStore(blob BlobStore, gen SummaryGenerator) *CheckInStore {
	return &CheckInStore{blob: blob, gen: gen, now: time.Now}
}

// load reads and decodes the collection. An unreadable or corrupt blob is
// treated the same as "no data yet": the caller sees an empty collection.
func (s *CheckInStore) load(ctx context.Context) []models.CheckInRecord {
	data, ok, err := s.blob.Get(ctx)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("check-in blob read failed, treating as empty: %v", err)
		}
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}
	var records []models.CheckInRecord
	if err := json.Unmarshal(data, &records); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("check-in blob corrupt, treating as empty: %v", err)
		}
		return nil
	}
	return records
}

func (s *CheckInStore) persist(ctx context.Context, records []models.CheckInRecord) error {
	if records == nil {
		records = []models.CheckInRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.blob.Put(ctx, data)
}

// nextID derives a record id from the wall clock in milliseconds. Bumping
// past the previous id keeps ids unique when saves land inside the same
// millisecond. Caller holds mu.
func (s *CheckInStore) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// SaveBare constructs a record from the submission and persists it without
// a summary. The async enrichment path attaches the summary later.
func (s *CheckInStore) SaveBare(ctx context.Context, input models.CheckInInput) (*models.CheckInRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := input.UserID
	if userID == "" {
		userID = models.DefaultUserID
	}
	stamp := s.now().UTC().Format(models.TimeLayout)
	rec := models.CheckInRecord{
		ID:                 s.nextID(),
		UserID:             userID,
		EmotionalState:     input.EmotionalState,
		AlcoholConsumption: input.AlcoholConsumption,
		CravingTriggers:    input.CravingTriggers,
		CopingStrategies:   input.CopingStrategies,
		ProudOf:            input.ProudOf,
		MotivationRating:   input.MotivationRating,
		SupportNeed:        input.SupportNeed,
		AISummary:          nil,
		CreatedAt:          stamp,
		UpdatedAt:          stamp,
	}

	records := s.load(ctx)
	records = append(records, rec)
	if err := s.persist(ctx, records); err != nil {
		return nil, fmt.Errorf("save check-in: %w", err)
	}
	return &rec, nil
}

// Save persists the record and synchronously attaches its coaching summary
// before returning. Summary generation cannot fail the save: a generation
// failure surfaces as the generator's fallback text on the record. Only a
// failure of the initial persist is returned as an error; a failed summary
// write is logged and the in-memory record is returned as generated.
func (s *CheckInStore) Save(ctx context.Context, input models.CheckInInput) (*models.CheckInRecord, error) {
	rec, err := s.SaveBare(ctx, input)
	if err != nil {
		return nil, err
	}
	summary, err := s.AttachSummary(ctx, rec.ID)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("summary attach failed for check-in %s: %v", rec.ID, err)
		}
		return rec, nil
	}
	rec.AISummary = &summary
	rec.UpdatedAt = s.now().UTC().Format(models.TimeLayout)
	return rec, nil
}

func indexByID(records []models.CheckInRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// AttachSummary generates and persists the summary for one stored record,
// bumping its updated_at. Returns the summary text written. Generation runs
// outside the store lock so a slow upstream call does not block saves; the
// collection is reloaded before the write in case it changed meanwhile.
func (s *CheckInStore) AttachSummary(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	records := s.load(ctx)
	idx := indexByID(records, id)
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("check-in %s not found", id)
	}
	snapshot := records[idx]
	s.mu.Unlock()

	summary := s.gen.Generate(ctx, &snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	records = s.load(ctx)
	idx = indexByID(records, id)
	if idx < 0 {
		return "", fmt.Errorf("check-in %s deleted during summary generation", id)
	}
	records[idx].AISummary = &summary
	records[idx].UpdatedAt = s.now().UTC().Format(models.TimeLayout)
	if err := s.persist(ctx, records); err != nil {
		return "", fmt.Errorf("persist summary: %w", err)
	}
	return summary, nil
}

// GetAll returns the full collection sorted newest first. It never fails;
// unreadable storage yields an empty slice.
func (s *CheckInStore) GetAll(ctx context.Context) []models.CheckInRecord {
	records := s.load(ctx)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedTime().After(records[j].CreatedTime())
	})
	return records
}

func (s *CheckInStore) archiveCutoff() time.Time {
	return s.now().AddDate(-archiveAge, 0, 0)
}

// GetRecent returns check-ins newer than the two-year cutoff.
func (s *CheckInStore) GetRecent(ctx context.Context) []models.CheckInRecord {
	cutoff := s.archiveCutoff()
	recent := []models.CheckInRecord{}
	for _, rec := range s.GetAll(ctx) {
		if rec.CreatedTime().After(cutoff) {
			recent = append(recent, rec)
		}
	}
	return recent
}

// GetArchived returns check-ins at or older than the two-year cutoff.
func (s *CheckInStore) GetArchived(ctx context.Context) []models.CheckInRecord {
	cutoff := s.archiveCutoff()
	archived := []models.CheckInRecord{}
	for _, rec := range s.GetAll(ctx) {
		if !rec.CreatedTime().After(cutoff) {
			archived = append(archived, rec)
		}
	}
	return archived
}

// GetByUser filters the collection by exact user id. No fallback matching.
func (s *CheckInStore) GetByUser(ctx context.Context, userID string) []models.CheckInRecord {
	matched := []models.CheckInRecord{}
	for _, rec := range s.GetAll(ctx) {
		if rec.UserID == userID {
			matched = append(matched, rec)
		}
	}
	return matched
}

// Delete removes the record with the given id. A missing id is a no-op
// success.
func (s *CheckInStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.GetAll(ctx)
	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	return s.persist(ctx, kept)
}

// Clear drops the whole collection.
func (s *CheckInStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, nil)
}

// Stats reports collection counts, a serialized-size estimate, and the
// newest/oldest creation timestamps.
func (s *CheckInStore) Stats(ctx context.Context) models.StorageStats {
	all := s.GetAll(ctx)
	recent := s.GetRecent(ctx)
	archived := s.GetArchived(ctx)

	serialized, _ := json.Marshal(all)
	stats := models.StorageStats{
		TotalCheckIns:    len(all),
		RecentCheckIns:   len(recent),
		ArchivedCheckIns: len(archived),
		TotalSizeMB:      fmt.Sprintf("%.2f", float64(len(serialized))/1024/1024),
	}
	if len(all) > 0 {
		newest := all[0].CreatedAt
		oldest := all[len(all)-1].CreatedAt
		stats.NewestCheckIn = &newest
		stats.OldestCheckIn = &oldest
	}
	return stats
}

// Export wraps the full collection with stats and a version tag for backup.
func (s *CheckInStore) Export(ctx context.Context) models.ExportBundle {
	return models.ExportBundle{
		BundleID:   uuid.NewString(),
		CheckIns:   s.GetAll(ctx),
		Stats:      s.Stats(ctx),
		ExportDate: s.now().UTC().Format(models.TimeLayout),
		Version:    ExportVersion,
	}
}

// Import merges a bundle into the collection. Incoming records whose id
// already exists are skipped, never overwritten, so importing the same
// bundle twice is idempotent. The merge persists once. Returns the number
// of records added.
func (s *CheckInStore) Import(ctx context.Context, bundle *models.ExportBundle) (int, error) {
	if bundle == nil || bundle.CheckIns == nil {
		return 0, ErrInvalidBundle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.load(ctx)
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.ID] = struct{}{}
	}

	added := 0
	for _, rec := range bundle.CheckIns {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		existing = append(existing, rec)
		added++
	}

	if err := s.persist(ctx, existing); err != nil {
		return 0, err
	}
	return added, nil
}

// RegenerateMissingSummaries walks the collection and generates a summary
// for every record whose summary is absent or still the fallback text.
// Records are processed strictly one at a time; the collection is persisted
// once at the end, and only if something changed. Returns the number of
// records updated.
func (s *CheckInStore) RegenerateMissingSummaries(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.GetAll(ctx)
	fallback := s.gen.Fallback()

	updated := 0
	for i := range records {
		summary := records[i].Summary()
		if summary != "" && summary != fallback {
			continue
		}
		text := s.gen.Generate(ctx, &records[i])
		records[i].AISummary = &text
		records[i].UpdatedAt = s.now().UTC().Format(models.TimeLayout)
		updated++
	}

	if updated == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, records); err != nil {
		return 0, err
	}
	return updated, nil
}
