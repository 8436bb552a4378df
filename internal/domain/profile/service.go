package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/domain/identity"
	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
)

// IdentityDirectory is the slice of the identity service the profile layer
// needs: role promotion on registration and user lookup for display joins.
type IdentityDirectory interface {
	AssignRole(ctx context.Context, userID uuid.UUID, role auth.Role) error
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service struct {
	patients     PatientRepository
	doctors      DoctorRepository
	pharmacies   PharmacyRepository
	laboratories LaboratoryRepository
	dataEntry    DataEntryRepository
	ids          IdentityDirectory
}

func NewService(
	patients PatientRepository,
	doctors DoctorRepository,
	pharmacies PharmacyRepository,
	laboratories LaboratoryRepository,
	dataEntry DataEntryRepository,
	ids IdentityDirectory,
) *Service {
	return &Service{
		patients:     patients,
		doctors:      doctors,
		pharmacies:   pharmacies,
		laboratories: laboratories,
		dataEntry:    dataEntry,
		ids:          ids,
	}
}

// ensureNoProfile rejects registration when the identity already holds a
// profile of any kind. One identity, one profile, one role.
func (s *Service) ensureNoProfile(ctx context.Context, userID uuid.UUID) error {
	for _, k := range Kinds() {
		_, err := s.resolveByUser(ctx, k, userID)
		switch {
		case err == nil:
			return apperr.Conflictf("user already has a %s profile", k)
		case errors.Is(err, apperr.ErrNotFound):
			continue
		default:
			return err
		}
	}
	return nil
}

func (s *Service) resolveByUser(ctx context.Context, k Kind, userID uuid.UUID) (interface{}, error) {
	switch k {
	case KindPatient:
		return s.patients.GetByUserID(ctx, userID)
	case KindDoctor:
		return s.doctors.GetByUserID(ctx, userID)
	case KindPharmacy:
		return s.pharmacies.GetByUserID(ctx, userID)
	case KindLaboratory:
		return s.laboratories.GetByUserID(ctx, userID)
	case KindDataEntry:
		return s.dataEntry.GetByUserID(ctx, userID)
	}
	return nil, apperr.NotFoundf("unknown profile kind %q", k)
}

// ResolveProfile implements identity.ProfileResolver: given an identity and
// its role, return the matching profile record. Admin carries no profile.
func (s *Service) ResolveProfile(ctx context.Context, userID uuid.UUID, role auth.Role) (interface{}, error) {
	k, ok := KindForRole(role)
	if !ok {
		return nil, apperr.NotFoundf("role %s has no profile", role)
	}
	return s.resolveByUser(ctx, k, userID)
}

// ResolveForUser dispatches on the user's current role and returns the kind
// along with the profile. Backs the /profiles/:userID endpoint.
func (s *Service) ResolveForUser(ctx context.Context, userID uuid.UUID) (Kind, interface{}, error) {
	u, err := s.ids.GetUser(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	k, ok := KindForRole(u.Role)
	if !ok {
		return "", nil, apperr.NotFoundf("role %s has no profile", u.Role)
	}
	p, err := s.resolveByUser(ctx, k, userID)
	if err != nil {
		return "", nil, err
	}
	return k, p, nil
}

// -- Patient --

type PatientRegistration struct {
	DateOfBirth      time.Time             `json:"date_of_birth"`
	Gender           Gender                `json:"gender"`
	BloodType        *string               `json:"blood_type,omitempty"`
	Allergies        []string              `json:"allergies"`
	MedicalHistory   []MedicalHistoryEntry `json:"medical_history"`
	EmergencyContact *EmergencyContact     `json:"emergency_contact,omitempty"`
}

func (s *Service) RegisterPatient(ctx context.Context, userID uuid.UUID, req PatientRegistration) (*PatientProfile, error) {
	if req.DateOfBirth.IsZero() || req.DateOfBirth.After(time.Now()) {
		return nil, apperr.Validationf("date_of_birth must be in the past")
	}
	if !req.Gender.Valid() {
		return nil, apperr.Validationf("gender must be male, female or other")
	}
	if err := s.ensureNoProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.ids.AssignRole(ctx, userID, auth.RolePatient); err != nil {
		return nil, err
	}
	p := &PatientProfile{
		UserID:           userID,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		BloodType:        req.BloodType,
		Allergies:        req.Allergies,
		MedicalHistory:   req.MedicalHistory,
		EmergencyContact: req.EmergencyContact,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*PatientProfile, error) {
	return s.patients.GetByID(ctx, id)
}

// PatientIDForUser derives the caller's own patient profile id, the anchor of
// every record-level ownership check.
func (s *Service) PatientIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.patients.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*PatientProfile, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// PatientDisplayName joins the profile back to its identity for display.
func (s *Service) PatientDisplayName(ctx context.Context, patientID uuid.UUID) (string, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	u, err := s.ids.GetUser(ctx, p.UserID)
	if err != nil {
		return "", err
	}
	return u.FullName(), nil
}

// -- Doctor --

type DoctorRegistration struct {
	UserID               uuid.UUID             `json:"user_id"`
	Specialization       string                `json:"specialization"`
	LicenseNumber        string                `json:"license_number"`
	HospitalAffiliations []HospitalAffiliation `json:"hospital_affiliations"`
	ExperienceYears      int                   `json:"experience_years"`
	Qualifications       []Qualification       `json:"qualifications"`
}

func (s *Service) RegisterDoctor(ctx context.Context, req DoctorRegistration) (*DoctorProfile, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validationf("user_id is required")
	}
	if req.Specialization == "" || req.LicenseNumber == "" {
		return nil, apperr.Validationf("specialization and license_number are required")
	}
	if req.ExperienceYears < 0 {
		return nil, apperr.Validationf("experience_years must not be negative")
	}
	if err := s.ensureNoProfile(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.ids.AssignRole(ctx, req.UserID, auth.RoleDoctor); err != nil {
		return nil, err
	}
	d := &DoctorProfile{
		UserID:               req.UserID,
		Specialization:       req.Specialization,
		LicenseNumber:        req.LicenseNumber,
		HospitalAffiliations: req.HospitalAffiliations,
		ExperienceYears:      req.ExperienceYears,
		Qualifications:       req.Qualifications,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflictf("license_number already registered")
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorProfile, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// DoctorIDForUser derives the caller's own doctor profile id.
func (s *Service) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

// DoctorExists reports whether a doctor profile id is live.
func (s *Service) DoctorExists(ctx context.Context, doctorID uuid.UUID) error {
	_, err := s.doctors.GetByID(ctx, doctorID)
	return err
}

func (s *Service) DoctorDisplayName(ctx context.Context, doctorID uuid.UUID) (string, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return "", err
	}
	u, err := s.ids.GetUser(ctx, d.UserID)
	if err != nil {
		return "", err
	}
	return u.FullName(), nil
}

// SetDoctorAvailability flips the caller's availability flag for one
// affiliated hospital. The hospital must already be in the affiliation list.
func (s *Service) SetDoctorAvailability(ctx context.Context, userID, hospitalID uuid.UUID, available bool) (*DoctorProfile, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range d.HospitalAffiliations {
		if d.HospitalAffiliations[i].HospitalID == hospitalID {
			d.HospitalAffiliations[i].IsAvailableToday = available
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFoundf("doctor is not affiliated with hospital %s", hospitalID)
	}
	if err := s.doctors.UpdateAffiliations(ctx, d.ID, d.HospitalAffiliations); err != nil {
		return nil, err
	}
	return d, nil
}

// -- Pharmacy --

type PharmacyRegistration struct {
	UserID          uuid.UUID     `json:"user_id"`
	Name            string        `json:"name"`
	LicenseNumber   string        `json:"license_number"`
	Address         string        `json:"address"`
	HospitalID      *uuid.UUID    `json:"hospital_id,omitempty"`
	IsHospitalOwned bool          `json:"is_hospital_owned"`
	OperatingHours  []DaySchedule `json:"operating_hours"`
	ContactNumber   string        `json:"contact_number"`
}

func (s *Service) RegisterPharmacy(ctx context.Context, req PharmacyRegistration) (*PharmacyProfile, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validationf("user_id is required")
	}
	if req.Name == "" || req.LicenseNumber == "" || req.Address == "" {
		return nil, apperr.Validationf("name, license_number and address are required")
	}
	if req.IsHospitalOwned && req.HospitalID == nil {
		return nil, apperr.Validationf("hospital_id is required for a hospital-owned pharmacy")
	}
	if err := s.ensureNoProfile(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.ids.AssignRole(ctx, req.UserID, auth.RolePharmacy); err != nil {
		return nil, err
	}
	p := &PharmacyProfile{
		UserID:          req.UserID,
		Name:            req.Name,
		LicenseNumber:   req.LicenseNumber,
		Address:         req.Address,
		HospitalID:      req.HospitalID,
		IsHospitalOwned: req.IsHospitalOwned,
		OperatingHours:  req.OperatingHours,
		ContactNumber:   req.ContactNumber,
	}
	if err := s.pharmacies.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflictf("license_number already registered")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPharmacy(ctx context.Context, id uuid.UUID) (*PharmacyProfile, error) {
	return s.pharmacies.GetByID(ctx, id)
}

// PharmacyIDForUser derives the caller's own pharmacy profile id.
func (s *Service) PharmacyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	p, err := s.pharmacies.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) ListPharmacies(ctx context.Context, limit, offset int) ([]*PharmacyProfile, int, error) {
	return s.pharmacies.List(ctx, limit, offset)
}

// -- Laboratory --

type LaboratoryRegistration struct {
	UserID          uuid.UUID     `json:"user_id"`
	Name            string        `json:"name"`
	LicenseNumber   string        `json:"license_number"`
	Address         string        `json:"address"`
	HospitalID      *uuid.UUID    `json:"hospital_id,omitempty"`
	IsHospitalOwned bool          `json:"is_hospital_owned"`
	OperatingHours  []DaySchedule `json:"operating_hours"`
	ContactNumber   string        `json:"contact_number"`
	ServicesOffered []string      `json:"services_offered"`
}

func (s *Service) RegisterLaboratory(ctx context.Context, req LaboratoryRegistration) (*LaboratoryProfile, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validationf("user_id is required")
	}
	if req.Name == "" || req.LicenseNumber == "" || req.Address == "" {
		return nil, apperr.Validationf("name, license_number and address are required")
	}
	if req.IsHospitalOwned && req.HospitalID == nil {
		return nil, apperr.Validationf("hospital_id is required for a hospital-owned laboratory")
	}
	if err := s.ensureNoProfile(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.ids.AssignRole(ctx, req.UserID, auth.RoleLaboratory); err != nil {
		return nil, err
	}
	l := &LaboratoryProfile{
		UserID:          req.UserID,
		Name:            req.Name,
		LicenseNumber:   req.LicenseNumber,
		Address:         req.Address,
		HospitalID:      req.HospitalID,
		IsHospitalOwned: req.IsHospitalOwned,
		OperatingHours:  req.OperatingHours,
		ContactNumber:   req.ContactNumber,
		ServicesOffered: req.ServicesOffered,
	}
	if err := s.laboratories.Create(ctx, l); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflictf("license_number already registered")
		}
		return nil, err
	}
	return l, nil
}

func (s *Service) GetLaboratory(ctx context.Context, id uuid.UUID) (*LaboratoryProfile, error) {
	return s.laboratories.GetByID(ctx, id)
}

// LaboratoryIDForUser derives the caller's own laboratory profile id.
func (s *Service) LaboratoryIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	l, err := s.laboratories.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return l.ID, nil
}

func (s *Service) ListLaboratories(ctx context.Context, limit, offset int) ([]*LaboratoryProfile, int, error) {
	return s.laboratories.List(ctx, limit, offset)
}

// -- Data entry --

type DataEntryRegistration struct {
	UserID       uuid.UUID  `json:"user_id"`
	WorkShift    WorkShift  `json:"work_shift"`
	SupervisorID *uuid.UUID `json:"supervisor_id,omitempty"`
	Department   string     `json:"department"`
}

func (s *Service) RegisterDataEntry(ctx context.Context, req DataEntryRegistration) (*DataEntryProfile, error) {
	if req.UserID == uuid.Nil {
		return nil, apperr.Validationf("user_id is required")
	}
	if !req.WorkShift.Valid() {
		return nil, apperr.Validationf("work_shift must be Morning, Afternoon or Night")
	}
	if req.Department == "" {
		return nil, apperr.Validationf("department is required")
	}
	if err := s.ensureNoProfile(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.ids.AssignRole(ctx, req.UserID, auth.RoleDataEntry); err != nil {
		return nil, err
	}
	d := &DataEntryProfile{
		UserID:       req.UserID,
		WorkShift:    req.WorkShift,
		SupervisorID: req.SupervisorID,
		Department:   req.Department,
	}
	if err := s.dataEntry.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListDataEntry(ctx context.Context, limit, offset int) ([]*DataEntryProfile, int, error) {
	return s.dataEntry.List(ctx, limit, offset)
}

// AssignTask appends a task to a data-entry profile. Admin only.
func (s *Service) AssignTask(ctx context.Context, profileID uuid.UUID, task AssignedTask) (*DataEntryProfile, error) {
	if task.TaskName == "" {
		return nil, apperr.Validationf("task_name is required")
	}
	if task.Status == "" {
		task.Status = TaskPending
	}
	if !task.Status.Valid() {
		return nil, apperr.Validationf("status must be Pending, In Progress or Completed")
	}
	d, err := s.dataEntry.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	d.AssignedTasks = append(d.AssignedTasks, task)
	if err := s.dataEntry.UpdateTasks(ctx, d.ID, d.AssignedTasks); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateTaskStatus moves one of the caller's own tasks to a new status.
func (s *Service) UpdateTaskStatus(ctx context.Context, userID uuid.UUID, taskIndex int, status TaskStatus) (*DataEntryProfile, error) {
	if !status.Valid() {
		return nil, apperr.Validationf("status must be Pending, In Progress or Completed")
	}
	d, err := s.dataEntry.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if taskIndex < 0 || taskIndex >= len(d.AssignedTasks) {
		return nil, apperr.NotFoundf("task %d does not exist", taskIndex)
	}
	d.AssignedTasks[taskIndex].Status = status
	if err := s.dataEntry.UpdateTasks(ctx, d.ID, d.AssignedTasks); err != nil {
		return nil, err
	}
	return d, nil
}
