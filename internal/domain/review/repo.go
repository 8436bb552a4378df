package review

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts or, for an existing (doctor, patient) pair, updates the
	// row in place keeping its id.
	Upsert(ctx context.Context, r *Review) error
	GetByPair(ctx context.Context, doctorID, patientID uuid.UUID) (*Review, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Review, int, error)
	AverageForDoctor(ctx context.Context, doctorID uuid.UUID) (float64, error)
}
