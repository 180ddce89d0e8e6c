package services

import (
	"context"
	"sync"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/utils"
)

// HistoryService maintains the accepted-request aggregate of each blood bank.
// Every change reads the whole aggregate and writes it back.
type HistoryService struct {
	mu   sync.Mutex
	repo repositories.AcceptedHistoryRepository
	now  func() time.Time
}

// NewHistoryService creates a new history service
func NewHistoryService(repo repositories.AcceptedHistoryRepository) *HistoryService {
	return &HistoryService{repo: repo, now: time.Now}
}

// Get returns the aggregate for bankKey
func (s *HistoryService) Get(ctx context.Context, bankKey string) (*entities.AcceptedHistory, error) {
	if bankKey == "" {
		return nil, apperrors.NewValidationError("bank key is required")
	}
	return s.repo.Get(ctx, bankKey)
}

// Replace overwrites the aggregate for bankKey
func (s *HistoryService) Replace(ctx context.Context, bankKey string, history *entities.AcceptedHistory) error {
	if bankKey == "" {
		return apperrors.NewValidationError("bank key is required")
	}
	if history == nil {
		history = entities.EmptyHistory()
	}
	return s.repo.Save(ctx, bankKey, history.Normalize())
}

// AcceptUser appends an accepted individual request
func (s *HistoryService) AcceptUser(ctx context.Context, bankKey string, record entities.UserRequestRecord) (*entities.AcceptedHistory, error) {
	if record.Name == "" || record.BloodRequired == "" {
		return nil, apperrors.NewValidationError("name and blood_required are required")
	}
	record.BloodRequired = utils.NormalizeBloodGroup(record.BloodRequired)
	record.AcceptedAt = s.stamp()
	return s.update(ctx, bankKey, func(h *entities.AcceptedHistory) {
		h.AcceptedRequesterRecords = append(h.AcceptedRequesterRecords, record)
	})
}

// AcceptHospital appends an accepted hospital request
func (s *HistoryService) AcceptHospital(ctx context.Context, bankKey string, record entities.HospitalRequestRecord) (*entities.AcceptedHistory, error) {
	if record.HospitalName == "" || record.BloodRequired == "" {
		return nil, apperrors.NewValidationError("hospital_name and blood_required are required")
	}
	record.BloodRequired = utils.NormalizeBloodGroup(record.BloodRequired)
	record.AcceptedAt = s.stamp()
	return s.update(ctx, bankKey, func(h *entities.AcceptedHistory) {
		h.AcceptedFacilityRecords = append(h.AcceptedFacilityRecords, record)
	})
}

// AcceptDonor appends an accepted donation
func (s *HistoryService) AcceptDonor(ctx context.Context, bankKey string, record entities.DonorRecord) (*entities.AcceptedHistory, error) {
	if record.Name == "" || record.BloodGroup == "" {
		return nil, apperrors.NewValidationError("name and blood_group are required")
	}
	record.BloodGroup = utils.NormalizeBloodGroup(record.BloodGroup)
	record.AcceptedAt = s.stamp()
	if record.Status == "" {
		record.Status = "accepted"
	}
	return s.update(ctx, bankKey, func(h *entities.AcceptedHistory) {
		h.AcceptedDonorRecords = append(h.AcceptedDonorRecords, record)
	})
}

func (s *HistoryService) update(ctx context.Context, bankKey string, mutate func(*entities.AcceptedHistory)) (*entities.AcceptedHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.Get(ctx, bankKey)
	if err != nil {
		return nil, err
	}
	history.Normalize()
	mutate(history)
	if err := s.repo.Save(ctx, bankKey, history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *HistoryService) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
