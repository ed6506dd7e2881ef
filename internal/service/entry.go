package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"moodwatch/internal/models"
	"moodwatch/internal/repository"
)

var ErrInvalidEntry = errors.New("invalid entry")

// CommentSealer encrypts comments at rest. See crypto.KeyManager.
type CommentSealer interface {
	EncryptComment(handle, plaintext string) (string, error)
	DecryptComment(handle, stored string) (string, error)
}

type EntryService interface {
	Create(ctx context.Context, input models.CreateEntryInput) (*models.Entry, error)
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error)
}

type entryService struct {
	repo   repository.EntryRepository
	sealer CommentSealer
	logger *zap.Logger
}

// NewEntryService wires the entry store. sealer may be nil, in which case comments are
// stored as given.
func NewEntryService(repo repository.EntryRepository, sealer CommentSealer, logger *zap.Logger) EntryService {
	return &entryService{
		repo:   repo,
		sealer: sealer,
		logger: logger,
	}
}

func (s *entryService) Create(ctx context.Context, input models.CreateEntryInput) (*models.Entry, error) {
	if err := validateEntry(input); err != nil {
		return nil, err
	}

	entry := &models.Entry{
		UserHandle:    strings.TrimSpace(input.UserHandle),
		Mood:          input.Mood,
		SleepHours:    input.SleepHours,
		Appetite:      input.Appetite,
		Concentration: input.Concentration,
	}

	var plainComment *string
	if input.Comment != nil && strings.TrimSpace(*input.Comment) != "" {
		plain := *input.Comment
		plainComment = &plain
		comment := plain
		if s.sealer != nil {
			sealed, err := s.sealer.EncryptComment(entry.UserHandle, comment)
			if err != nil {
				s.logger.Error("Failed to encrypt comment", zap.String("user_handle", entry.UserHandle), zap.Error(err))
				return nil, fmt.Errorf("failed to encrypt comment: %w", err)
			}
			comment = sealed
		}
		entry.Comment = &comment
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		s.logger.Error("Failed to save entry", zap.String("user_handle", entry.UserHandle), zap.Error(err))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.logger.Info("Entry recorded", zap.Int64("entry_id", entry.ID), zap.String("user_handle", entry.UserHandle))
	entry.Comment = plainComment
	return entry, nil
}

func (s *entryService) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	entries, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if s.sealer == nil {
		return entries, nil
	}

	for i := range entries {
		e := &entries[i]
		if e.Comment == nil {
			continue
		}
		plain, err := s.sealer.DecryptComment(e.UserHandle, *e.Comment)
		if err != nil {
			s.logger.Warn("Dropping unreadable comment", zap.Int64("entry_id", e.ID), zap.Error(err))
			e.Comment = nil
			continue
		}
		e.Comment = &plain
	}
	return entries, nil
}

func validateEntry(input models.CreateEntryInput) error {
	if strings.TrimSpace(input.UserHandle) == "" {
		return fmt.Errorf("%w: user_handle is required", ErrInvalidEntry)
	}
	if input.Mood < 1 || input.Mood > 10 {
		return fmt.Errorf("%w: mood must be between 1 and 10", ErrInvalidEntry)
	}
	if input.Appetite != nil && (*input.Appetite < 1 || *input.Appetite > 10) {
		return fmt.Errorf("%w: appetite must be between 1 and 10", ErrInvalidEntry)
	}
	if input.Concentration != nil && (*input.Concentration < 1 || *input.Concentration > 10) {
		return fmt.Errorf("%w: concentration must be between 1 and 10", ErrInvalidEntry)
	}
	if h := input.SleepHours; h != nil && (math.IsNaN(*h) || *h < 0 || *h > 24) {
		return fmt.Errorf("%w: sleep_hours must be between 0 and 24", ErrInvalidEntry)
	}
	return nil
}
