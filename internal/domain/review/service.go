package review

import (
	"context"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/platform/apperr"
)

const maxCommentLen = 500

// ProfileDirectory verifies referenced profiles exist and derives the
// caller's own patient profile.
type ProfileDirectory interface {
	PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	DoctorExists(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
}

func NewService(repo Repository, profiles ProfileDirectory) *Service {
	return &Service{repo: repo, profiles: profiles}
}

// Submit records the caller's review of a doctor. A second submission for the
// same doctor replaces the first, keeping its id.
func (s *Service) Submit(ctx context.Context, userID, doctorID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.Validationf("rating must be between 1 and 5")
	}
	if len(comment) > maxCommentLen {
		return nil, apperr.Validationf("comment must be at most %d characters", maxCommentLen)
	}
	if err := s.profiles.DoctorExists(ctx, doctorID); err != nil {
		return nil, apperr.NotFoundf("doctor %s", doctorID)
	}
	patientID, err := s.profiles.PatientIDForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rev := &Review{
		DoctorID:  doctorID,
		PatientID: patientID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.repo.Upsert(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// ForDoctor lists a doctor's reviews with the aggregate average.
func (s *Service) ForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) (*DoctorReviews, error) {
	if err := s.profiles.DoctorExists(ctx, doctorID); err != nil {
		return nil, apperr.NotFoundf("doctor %s", doctorID)
	}
	reviews, total, err := s.repo.ListByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	avg, err := s.repo.AverageForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return &DoctorReviews{Reviews: reviews, AverageRating: avg, Total: total}, nil
}
