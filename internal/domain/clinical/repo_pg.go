package clinical

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvault/medvault/internal/platform/db"
)

// -- Diagnosis --

type diagnosisRepoPG struct {
	pool *pgxpool.Pool
}

func NewDiagnosisRepo(pool *pgxpool.Pool) DiagnosisRepository {
	return &diagnosisRepoPG{pool: pool}
}

const diagCols = `id, patient_id, doctor_id, hospital_id, condition, details,
	symptoms, notes, diagnosis_date, follow_up_date, created_at, updated_at`

func (r *diagnosisRepoPG) Create(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO diagnoses (
			id, patient_id, doctor_id, hospital_id, condition, details,
			symptoms, notes, diagnosis_date, follow_up_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.PatientID, d.DoctorID, d.HospitalID, d.Condition, d.Details,
		d.Symptoms, d.Notes, d.DiagnosisDate, d.FollowUpDate,
	)
	return db.MapError(err)
}

func (r *diagnosisRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	return scanDiagnosis(r.pool.QueryRow(ctx, `SELECT `+diagCols+` FROM diagnoses WHERE id = $1`, id))
}

func (r *diagnosisRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Diagnosis, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnoses WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+diagCols+` FROM diagnoses
		WHERE patient_id = $1
		ORDER BY diagnosis_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(
		&d.ID, &d.PatientID, &d.DoctorID, &d.HospitalID, &d.Condition, &d.Details,
		&d.Symptoms, &d.Notes, &d.DiagnosisDate, &d.FollowUpDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

// -- Prescription --

type prescriptionRepoPG struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepo(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const rxCols = `id, patient_id, doctor_id, hospital_id, diagnosis_id, date,
	medications, status, purchased_from, pharmacy_details, created_at, updated_at`

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescriptions (
			id, patient_id, doctor_id, hospital_id, diagnosis_id, date,
			medications, status, purchased_from, pharmacy_details
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.PatientID, p.DoctorID, p.HospitalID, p.DiagnosisID, p.Date,
		p.Medications, p.Status, p.PurchasedFrom, p.PharmacyDetails,
	)
	return db.MapError(err)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+rxCols+` FROM prescriptions
		WHERE patient_id = $1
		ORDER BY date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *prescriptionRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func (r *prescriptionRepoPG) RecordPurchase(ctx context.Context, id uuid.UUID, source PurchaseSource, details *PharmacyDetails) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions
		SET purchased_from = $2, pharmacy_details = $3, updated_at = NOW()
		WHERE id = $1 AND purchased_from = 'not_purchased'`,
		id, source, details)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.PatientID, &p.DoctorID, &p.HospitalID, &p.DiagnosisID, &p.Date,
		&p.Medications, &p.Status, &p.PurchasedFrom, &p.PharmacyDetails, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &p, nil
}

// -- Lab report --

type labReportRepoPG struct {
	pool *pgxpool.Pool
}

func NewLabReportRepo(pool *pgxpool.Pool) LabReportRepository {
	return &labReportRepoPG{pool: pool}
}

const labCols = `id, patient_id, doctor_id, laboratory_id, test_type, test_date,
	results, reference_range, interpretation, report_file, is_hospital_lab,
	related_diagnosis_id, status, created_at, updated_at`

func (r *labReportRepoPG) Create(ctx context.Context, lr *LabReport) error {
	lr.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_reports (
			id, patient_id, doctor_id, laboratory_id, test_type, test_date,
			results, reference_range, interpretation, report_file, is_hospital_lab,
			related_diagnosis_id, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		lr.ID, lr.PatientID, lr.DoctorID, lr.LaboratoryID, lr.TestType, lr.TestDate,
		lr.Results, lr.ReferenceRange, lr.Interpretation, lr.ReportFile, lr.IsHospitalLab,
		lr.RelatedDiagnosisID, lr.Status,
	)
	return db.MapError(err)
}

func (r *labReportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	return scanLabReport(r.pool.QueryRow(ctx, `SELECT `+labCols+` FROM lab_reports WHERE id = $1`, id))
}

func (r *labReportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_reports WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+labCols+` FROM lab_reports
		WHERE patient_id = $1
		ORDER BY test_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*LabReport
	for rows.Next() {
		lr, err := scanLabReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, lr)
	}
	return out, total, rows.Err()
}

func (r *labReportRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status LabStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_reports SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func (r *labReportRepoPG) SetReportFile(ctx context.Context, id uuid.UUID, file *ReportFile) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_reports SET report_file = $2, updated_at = NOW() WHERE id = $1`, id, file)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func scanLabReport(row pgx.Row) (*LabReport, error) {
	var lr LabReport
	err := row.Scan(
		&lr.ID, &lr.PatientID, &lr.DoctorID, &lr.LaboratoryID, &lr.TestType, &lr.TestDate,
		&lr.Results, &lr.ReferenceRange, &lr.Interpretation, &lr.ReportFile, &lr.IsHospitalLab,
		&lr.RelatedDiagnosisID, &lr.Status, &lr.CreatedAt, &lr.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &lr, nil
}
