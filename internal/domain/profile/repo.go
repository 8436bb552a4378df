package profile

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	List(ctx context.Context, limit, offset int) ([]*PatientProfile, int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *DoctorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	List(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error)
	UpdateAffiliations(ctx context.Context, id uuid.UUID, affiliations []HospitalAffiliation) error
}

type PharmacyRepository interface {
	Create(ctx context.Context, p *PharmacyProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*PharmacyProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PharmacyProfile, error)
	List(ctx context.Context, limit, offset int) ([]*PharmacyProfile, int, error)
}

type LaboratoryRepository interface {
	Create(ctx context.Context, l *LaboratoryProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*LaboratoryProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*LaboratoryProfile, error)
	List(ctx context.Context, limit, offset int) ([]*LaboratoryProfile, int, error)
}

type DataEntryRepository interface {
	Create(ctx context.Context, d *DataEntryProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DataEntryProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*DataEntryProfile, error)
	List(ctx context.Context, limit, offset int) ([]*DataEntryProfile, int, error)
	UpdateTasks(ctx context.Context, id uuid.UUID, tasks []AssignedTask) error
}
