package clinical

import (
	"context"

	"github.com/google/uuid"
)

type DiagnosisRepository interface {
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	// ListByPatient returns the patient's diagnoses newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error
	// RecordPurchase transitions purchased_from away from not_purchased. The
	// guard is the WHERE clause; false means the row was already purchased.
	RecordPurchase(ctx context.Context, id uuid.UUID, source PurchaseSource, details *PharmacyDetails) (bool, error)
}

type LabReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status LabStatus) error
	SetReportFile(ctx context.Context, id uuid.UUID, file *ReportFile) error
}
