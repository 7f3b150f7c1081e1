package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-matcher/internal/shared/metrics"
	"resume-matcher/internal/shared/storage/object"
	"resume-matcher/internal/shared/telemetry"
	"resume-matcher/internal/shared/util"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SaveInput carries one completed analysis and the resume it was computed from.
type SaveInput struct {
	UserID               string
	FileName             string
	ContentType          string
	Data                 []byte
	JobDescription       string
	MatchScore           float64
	SkillsMatched        []string
	MissingSkills        []string
	Suggestions          []string
	ExtraEdgeSuggestions []EdgeSuggestion
}

// Service stores resumes and analysis records for signed-in users.
type Service struct {
	repo  Repo
	store object.Store
	now   func() time.Time
}

// NewService wires a record repository and an object store.
func NewService(repo Repo, store object.Store) *Service {
	return &Service{repo: repo, store: store, now: time.Now}
}

// StorageKey returns the object key for a resume uploaded by userID at t.
func StorageKey(userID string, t time.Time, fileName string) string {
	return fmt.Sprintf("user-%s/%d-%s", userID, t.UnixMilli(), util.SanitizeFileName(fileName))
}

// Save uploads the resume and inserts a record. Every failure wraps ErrPersistence.
func (s *Service) Save(ctx context.Context, in SaveInput) (Record, error) {
	record, err := s.save(ctx, in)
	if err != nil {
		metrics.IncRecordSave("error")
		telemetry.Error("record save failed", map[string]any{
			"user_id": in.UserID,
			"error":   err.Error(),
		})
		return Record{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	metrics.IncRecordSave("ok")
	telemetry.Info("record saved", map[string]any{
		"user_id":    record.UserID,
		"record_id":  record.ID,
		"resume_key": record.ResumeKey,
	})
	return record, nil
}

func (s *Service) save(ctx context.Context, in SaveInput) (Record, error) {
	if err := in.validate(); err != nil {
		return Record{}, err
	}

	createdAt := s.now().UTC()
	key := StorageKey(in.UserID, createdAt, in.FileName)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err := s.store.Put(ctx, key, contentType, bytes.NewReader(in.Data), int64(len(in.Data)))
	if errors.Is(err, object.ErrExists) {
		telemetry.Info("resume object reused", map[string]any{"resume_key": key})
	} else if err != nil {
		return Record{}, fmt.Errorf("upload resume: %w", err)
	}

	record := Record{
		ID:                   uuid.NewString(),
		UserID:               in.UserID,
		ResumeName:           util.SanitizeFileName(in.FileName),
		ResumeKey:            key,
		JobDescription:       in.JobDescription,
		MatchScore:           in.MatchScore,
		SkillsMatched:        in.SkillsMatched,
		MissingSkills:        in.MissingSkills,
		Suggestions:          in.Suggestions,
		ExtraEdgeSuggestions: in.ExtraEdgeSuggestions,
		CreatedAt:            createdAt,
	}
	record.normalizeLists()
	if err := s.repo.Create(ctx, record); err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	return record, nil
}

func (in SaveInput) validate() error {
	if strings.TrimSpace(in.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if len(in.Data) == 0 {
		return fmt.Errorf("%w: resume data is empty", ErrInvalidRecord)
	}
	if math.IsNaN(in.MatchScore) || math.IsInf(in.MatchScore, 0) || in.MatchScore < 0 || in.MatchScore > 100 {
		return fmt.Errorf("%w: match score %v is outside 0..100", ErrInvalidRecord, in.MatchScore)
	}
	return nil
}

// List returns the user's records newest first. Limit is clamped to 1..100 with a default of 20.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Get returns one of the user's records or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, recordID string) (Record, error) {
	if _, err := uuid.Parse(recordID); err != nil {
		return Record{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, userID, recordID)
}

// Stats returns the user's aggregate numbers.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.repo.Stats(ctx, userID)
}
