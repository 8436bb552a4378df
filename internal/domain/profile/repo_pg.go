package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medvault/medvault/internal/platform/db"
)

// List-valued fields live in jsonb columns; pgx's json codec marshals the Go
// values on the way in and back out, so the repositories stay plain
// column-list scans.

// -- Patient --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, user_id, date_of_birth, gender, blood_type, allergies,
	medical_history, emergency_contact, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient_profiles (
			id, user_id, date_of_birth, gender, blood_type, allergies,
			medical_history, emergency_contact
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.UserID, p.DateOfBirth, p.Gender, p.BloodType, p.Allergies,
		p.MedicalHistory, p.EmergencyContact,
	)
	return db.MapError(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientProfile, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient_profiles WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient_profiles WHERE user_id = $1`, userID))
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*PatientProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient_profiles`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols+` FROM patient_profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*PatientProfile
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanPatient(row pgx.Row) (*PatientProfile, error) {
	var p PatientProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.DateOfBirth, &p.Gender, &p.BloodType, &p.Allergies,
		&p.MedicalHistory, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &p, nil
}

// -- Doctor --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, user_id, specialization, license_number, hospital_affiliations,
	experience_years, qualifications, created_at, updated_at`

func (r *doctorRepoPG) Create(ctx context.Context, d *DoctorProfile) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_profiles (
			id, user_id, specialization, license_number, hospital_affiliations,
			experience_years, qualifications
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.UserID, d.Specialization, d.LicenseNumber, d.HospitalAffiliations,
		d.ExperienceYears, d.Qualifications,
	)
	return db.MapError(err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profiles WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor_profiles WHERE user_id = $1`, userID))
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctor_profiles`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorCols+` FROM doctor_profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*DoctorProfile
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *doctorRepoPG) UpdateAffiliations(ctx context.Context, id uuid.UUID, affiliations []HospitalAffiliation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctor_profiles SET hospital_affiliations = $2, updated_at = NOW()
		WHERE id = $1`, id, affiliations)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func scanDoctor(row pgx.Row) (*DoctorProfile, error) {
	var d DoctorProfile
	err := row.Scan(
		&d.ID, &d.UserID, &d.Specialization, &d.LicenseNumber, &d.HospitalAffiliations,
		&d.ExperienceYears, &d.Qualifications, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}

// -- Pharmacy --

type pharmacyRepoPG struct {
	pool *pgxpool.Pool
}

func NewPharmacyRepo(pool *pgxpool.Pool) PharmacyRepository {
	return &pharmacyRepoPG{pool: pool}
}

const pharmacyCols = `id, user_id, name, license_number, address, hospital_id,
	is_hospital_owned, operating_hours, contact_number, created_at, updated_at`

func (r *pharmacyRepoPG) Create(ctx context.Context, p *PharmacyProfile) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pharmacy_profiles (
			id, user_id, name, license_number, address, hospital_id,
			is_hospital_owned, operating_hours, contact_number
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.UserID, p.Name, p.LicenseNumber, p.Address, p.HospitalID,
		p.IsHospitalOwned, p.OperatingHours, p.ContactNumber,
	)
	return db.MapError(err)
}

func (r *pharmacyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PharmacyProfile, error) {
	return scanPharmacy(r.pool.QueryRow(ctx, `SELECT `+pharmacyCols+` FROM pharmacy_profiles WHERE id = $1`, id))
}

func (r *pharmacyRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*PharmacyProfile, error) {
	return scanPharmacy(r.pool.QueryRow(ctx, `SELECT `+pharmacyCols+` FROM pharmacy_profiles WHERE user_id = $1`, userID))
}

func (r *pharmacyRepoPG) List(ctx context.Context, limit, offset int) ([]*PharmacyProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_profiles`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+pharmacyCols+` FROM pharmacy_profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*PharmacyProfile
	for rows.Next() {
		p, err := scanPharmacy(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func scanPharmacy(row pgx.Row) (*PharmacyProfile, error) {
	var p PharmacyProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.LicenseNumber, &p.Address, &p.HospitalID,
		&p.IsHospitalOwned, &p.OperatingHours, &p.ContactNumber, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &p, nil
}

// -- Laboratory --

type laboratoryRepoPG struct {
	pool *pgxpool.Pool
}

func NewLaboratoryRepo(pool *pgxpool.Pool) LaboratoryRepository {
	return &laboratoryRepoPG{pool: pool}
}

const laboratoryCols = `id, user_id, name, license_number, address, hospital_id,
	is_hospital_owned, operating_hours, contact_number, services_offered, created_at, updated_at`

func (r *laboratoryRepoPG) Create(ctx context.Context, l *LaboratoryProfile) error {
	l.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO laboratory_profiles (
			id, user_id, name, license_number, address, hospital_id,
			is_hospital_owned, operating_hours, contact_number, services_offered
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		l.ID, l.UserID, l.Name, l.LicenseNumber, l.Address, l.HospitalID,
		l.IsHospitalOwned, l.OperatingHours, l.ContactNumber, l.ServicesOffered,
	)
	return db.MapError(err)
}

func (r *laboratoryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LaboratoryProfile, error) {
	return scanLaboratory(r.pool.QueryRow(ctx, `SELECT `+laboratoryCols+` FROM laboratory_profiles WHERE id = $1`, id))
}

func (r *laboratoryRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*LaboratoryProfile, error) {
	return scanLaboratory(r.pool.QueryRow(ctx, `SELECT `+laboratoryCols+` FROM laboratory_profiles WHERE user_id = $1`, userID))
}

func (r *laboratoryRepoPG) List(ctx context.Context, limit, offset int) ([]*LaboratoryProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM laboratory_profiles`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+laboratoryCols+` FROM laboratory_profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*LaboratoryProfile
	for rows.Next() {
		l, err := scanLaboratory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func scanLaboratory(row pgx.Row) (*LaboratoryProfile, error) {
	var l LaboratoryProfile
	err := row.Scan(
		&l.ID, &l.UserID, &l.Name, &l.LicenseNumber, &l.Address, &l.HospitalID,
		&l.IsHospitalOwned, &l.OperatingHours, &l.ContactNumber, &l.ServicesOffered,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &l, nil
}

// -- Data entry --

type dataEntryRepoPG struct {
	pool *pgxpool.Pool
}

func NewDataEntryRepo(pool *pgxpool.Pool) DataEntryRepository {
	return &dataEntryRepoPG{pool: pool}
}

const dataEntryCols = `id, user_id, work_shift, supervisor_id, department,
	assigned_tasks, performance_rating, created_at, updated_at`

func (r *dataEntryRepoPG) Create(ctx context.Context, d *DataEntryProfile) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO data_entry_profiles (
			id, user_id, work_shift, supervisor_id, department,
			assigned_tasks, performance_rating
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.UserID, d.WorkShift, d.SupervisorID, d.Department,
		d.AssignedTasks, d.PerformanceRating,
	)
	return db.MapError(err)
}

func (r *dataEntryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DataEntryProfile, error) {
	return scanDataEntry(r.pool.QueryRow(ctx, `SELECT `+dataEntryCols+` FROM data_entry_profiles WHERE id = $1`, id))
}

func (r *dataEntryRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*DataEntryProfile, error) {
	return scanDataEntry(r.pool.QueryRow(ctx, `SELECT `+dataEntryCols+` FROM data_entry_profiles WHERE user_id = $1`, userID))
}

func (r *dataEntryRepoPG) List(ctx context.Context, limit, offset int) ([]*DataEntryProfile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM data_entry_profiles`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+dataEntryCols+` FROM data_entry_profiles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []*DataEntryProfile
	for rows.Next() {
		d, err := scanDataEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *dataEntryRepoPG) UpdateTasks(ctx context.Context, id uuid.UUID, tasks []AssignedTask) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE data_entry_profiles SET assigned_tasks = $2, updated_at = NOW()
		WHERE id = $1`, id, tasks)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

func scanDataEntry(row pgx.Row) (*DataEntryProfile, error) {
	var d DataEntryProfile
	err := row.Scan(
		&d.ID, &d.UserID, &d.WorkShift, &d.SupervisorID, &d.Department,
		&d.AssignedTasks, &d.PerformanceRating, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &d, nil
}
