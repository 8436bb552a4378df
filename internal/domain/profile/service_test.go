package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medvault/medvault/internal/domain/identity"
	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
)

// -- mocks --

type mockPatientRepo struct{ byID map[uuid.UUID]*PatientProfile }

func (m *mockPatientRepo) Create(_ context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*PatientProfile, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*PatientProfile, error) {
	for _, p := range m.byID {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPatientRepo) List(_ context.Context, _, _ int) ([]*PatientProfile, int, error) {
	var out []*PatientProfile
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockDoctorRepo struct{ byID map[uuid.UUID]*DoctorProfile }

func (m *mockDoctorRepo) Create(_ context.Context, d *DoctorProfile) error {
	for _, existing := range m.byID {
		if existing.LicenseNumber == d.LicenseNumber {
			return apperr.ErrConflict
		}
	}
	d.ID = uuid.New()
	m.byID[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*DoctorProfile, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	for _, d := range m.byID {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDoctorRepo) List(_ context.Context, _, _ int) ([]*DoctorProfile, int, error) {
	var out []*DoctorProfile
	for _, d := range m.byID {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockDoctorRepo) UpdateAffiliations(_ context.Context, id uuid.UUID, affiliations []HospitalAffiliation) error {
	d, ok := m.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	d.HospitalAffiliations = affiliations
	return nil
}

type mockPharmacyRepo struct{ byID map[uuid.UUID]*PharmacyProfile }

func (m *mockPharmacyRepo) Create(_ context.Context, p *PharmacyProfile) error {
	p.ID = uuid.New()
	m.byID[p.ID] = p
	return nil
}

func (m *mockPharmacyRepo) GetByID(_ context.Context, id uuid.UUID) (*PharmacyProfile, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPharmacyRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*PharmacyProfile, error) {
	for _, p := range m.byID {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockPharmacyRepo) List(_ context.Context, _, _ int) ([]*PharmacyProfile, int, error) {
	var out []*PharmacyProfile
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockLaboratoryRepo struct{ byID map[uuid.UUID]*LaboratoryProfile }

func (m *mockLaboratoryRepo) Create(_ context.Context, l *LaboratoryProfile) error {
	l.ID = uuid.New()
	m.byID[l.ID] = l
	return nil
}

func (m *mockLaboratoryRepo) GetByID(_ context.Context, id uuid.UUID) (*LaboratoryProfile, error) {
	if l, ok := m.byID[id]; ok {
		return l, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockLaboratoryRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*LaboratoryProfile, error) {
	for _, l := range m.byID {
		if l.UserID == userID {
			return l, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockLaboratoryRepo) List(_ context.Context, _, _ int) ([]*LaboratoryProfile, int, error) {
	var out []*LaboratoryProfile
	for _, l := range m.byID {
		out = append(out, l)
	}
	return out, len(out), nil
}

type mockDataEntryRepo struct{ byID map[uuid.UUID]*DataEntryProfile }

func (m *mockDataEntryRepo) Create(_ context.Context, d *DataEntryProfile) error {
	d.ID = uuid.New()
	m.byID[d.ID] = d
	return nil
}

func (m *mockDataEntryRepo) GetByID(_ context.Context, id uuid.UUID) (*DataEntryProfile, error) {
	if d, ok := m.byID[id]; ok {
		return d, nil
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDataEntryRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*DataEntryProfile, error) {
	for _, d := range m.byID {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *mockDataEntryRepo) List(_ context.Context, _, _ int) ([]*DataEntryProfile, int, error) {
	var out []*DataEntryProfile
	for _, d := range m.byID {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockDataEntryRepo) UpdateTasks(_ context.Context, id uuid.UUID, tasks []AssignedTask) error {
	d, ok := m.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	d.AssignedTasks = tasks
	return nil
}

// mockIdentities mirrors the identity service's promotion rule.
type mockIdentities struct {
	users map[uuid.UUID]*identity.User
}

func (m *mockIdentities) AssignRole(_ context.Context, userID uuid.UUID, role auth.Role) error {
	u, ok := m.users[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	if u.Role == role {
		return nil
	}
	if u.Role != auth.RolePatient {
		return apperr.Conflictf("user already holds role %s", u.Role)
	}
	u.Role = role
	return nil
}

func (m *mockIdentities) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

type fixture struct {
	svc *Service
	ids *mockIdentities
}

func newFixture() *fixture {
	ids := &mockIdentities{users: make(map[uuid.UUID]*identity.User)}
	svc := NewService(
		&mockPatientRepo{byID: make(map[uuid.UUID]*PatientProfile)},
		&mockDoctorRepo{byID: make(map[uuid.UUID]*DoctorProfile)},
		&mockPharmacyRepo{byID: make(map[uuid.UUID]*PharmacyProfile)},
		&mockLaboratoryRepo{byID: make(map[uuid.UUID]*LaboratoryProfile)},
		&mockDataEntryRepo{byID: make(map[uuid.UUID]*DataEntryProfile)},
		ids,
	)
	return &fixture{svc: svc, ids: ids}
}

func (f *fixture) addUser(role auth.Role) uuid.UUID {
	id := uuid.New()
	f.ids.users[id] = &identity.User{
		ID:        id,
		FirstName: "Alex",
		LastName:  "Stone",
		Email:     "alex@example.com",
		Role:      role,
	}
	return id
}

func validDoctorReg(userID uuid.UUID) DoctorRegistration {
	return DoctorRegistration{
		UserID:         userID,
		Specialization: "Cardiology",
		LicenseNumber:  "LIC-" + userID.String()[:8],
	}
}

// -- tests --

func TestRegisterDoctor_PromotesRole(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)

	d, err := f.svc.RegisterDoctor(context.Background(), validDoctorReg(userID))
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("profile id not assigned")
	}
	if f.ids.users[userID].Role != auth.RoleDoctor {
		t.Errorf("registration must promote role, got %s", f.ids.users[userID].Role)
	}
}

func TestRegisterDoctor_DuplicateProfile(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)
	if _, err := f.svc.RegisterDoctor(context.Background(), validDoctorReg(userID)); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.RegisterDoctor(context.Background(), validDoctorReg(userID))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second profile for the same user must be Conflict, got %v", err)
	}
}

func TestRegisterPharmacy_AfterDoctorProfile(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)
	if _, err := f.svc.RegisterDoctor(context.Background(), validDoctorReg(userID)); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.RegisterPharmacy(context.Background(), PharmacyRegistration{
		UserID: userID, Name: "Corner Pharmacy", LicenseNumber: "PH-1", Address: "1 Main St",
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("profile of a different kind must be Conflict, got %v", err)
	}
	if f.ids.users[userID].Role != auth.RoleDoctor {
		t.Error("role must not drift after a refused registration")
	}
}

func TestRegisterDoctor_DuplicateLicense(t *testing.T) {
	f := newFixture()
	first := f.addUser(auth.RolePatient)
	second := f.addUser(auth.RolePatient)

	reg := validDoctorReg(first)
	if _, err := f.svc.RegisterDoctor(context.Background(), reg); err != nil {
		t.Fatal(err)
	}
	reg.UserID = second
	_, err := f.svc.RegisterDoctor(context.Background(), reg)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate license must be Conflict, got %v", err)
	}
}

func TestRegisterPatient(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)

	p, err := f.svc.RegisterPatient(context.Background(), userID, PatientRegistration{
		DateOfBirth: time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC),
		Gender:      GenderFemale,
		Allergies:   []string{"penicillin"},
	})
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}

	got, err := f.svc.PatientIDForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("derive patient id: %v", err)
	}
	if got != p.ID {
		t.Errorf("derived id %s != created id %s", got, p.ID)
	}
}

func TestRegisterPatient_Validation(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)

	_, err := f.svc.RegisterPatient(context.Background(), userID, PatientRegistration{
		DateOfBirth: time.Now().Add(24 * time.Hour),
		Gender:      GenderMale,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("future birth date must fail validation, got %v", err)
	}

	_, err = f.svc.RegisterPatient(context.Background(), userID, PatientRegistration{
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "unknown",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad gender must fail validation, got %v", err)
	}
}

func TestResolveProfile_Dispatch(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)
	if _, err := f.svc.RegisterDoctor(context.Background(), validDoctorReg(userID)); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.ResolveProfile(context.Background(), userID, auth.RoleDoctor)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := got.(*DoctorProfile); !ok {
		t.Errorf("expected *DoctorProfile, got %T", got)
	}

	// admin has no profile store
	if _, err := f.svc.ResolveProfile(context.Background(), userID, auth.RoleAdmin); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("admin resolution must be NotFound, got %v", err)
	}

	// profile not created yet
	other := f.addUser(auth.RolePatient)
	if _, err := f.svc.ResolveProfile(context.Background(), other, auth.RolePatient); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing profile must be NotFound, got %v", err)
	}
}

func TestSetDoctorAvailability(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)
	hospitalID := uuid.New()

	reg := validDoctorReg(userID)
	reg.HospitalAffiliations = []HospitalAffiliation{{HospitalID: hospitalID}}
	if _, err := f.svc.RegisterDoctor(context.Background(), reg); err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.SetDoctorAvailability(context.Background(), userID, hospitalID, true)
	if err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if !d.HospitalAffiliations[0].IsAvailableToday {
		t.Error("availability not flipped")
	}

	_, err = f.svc.SetDoctorAvailability(context.Background(), userID, uuid.New(), true)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unaffiliated hospital must be NotFound, got %v", err)
	}
}

func TestDataEntryTasks(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)

	d, err := f.svc.RegisterDataEntry(context.Background(), DataEntryRegistration{
		UserID: userID, WorkShift: ShiftMorning, Department: "Records",
	})
	if err != nil {
		t.Fatalf("register data entry: %v", err)
	}

	d, err = f.svc.AssignTask(context.Background(), d.ID, AssignedTask{
		TaskName: "Digitize charts", Deadline: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("assign task: %v", err)
	}
	if d.AssignedTasks[0].Status != TaskPending {
		t.Errorf("new task must default to Pending, got %s", d.AssignedTasks[0].Status)
	}

	d, err = f.svc.UpdateTaskStatus(context.Background(), userID, 0, TaskCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if d.AssignedTasks[0].Status != TaskCompleted {
		t.Errorf("status not updated, got %s", d.AssignedTasks[0].Status)
	}

	if _, err := f.svc.UpdateTaskStatus(context.Background(), userID, 5, TaskCompleted); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("out-of-range task must be NotFound, got %v", err)
	}
	if _, err := f.svc.UpdateTaskStatus(context.Background(), userID, 0, "Done"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad status must fail validation, got %v", err)
	}
}

func TestRegisterDataEntry_Validation(t *testing.T) {
	f := newFixture()
	userID := f.addUser(auth.RolePatient)

	_, err := f.svc.RegisterDataEntry(context.Background(), DataEntryRegistration{
		UserID: userID, WorkShift: "Graveyard", Department: "Records",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad shift must fail validation, got %v", err)
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("kind %s must be valid", k)
		}
		back, ok := KindForRole(k.Role())
		if !ok || back != k {
			t.Errorf("role round trip failed for %s", k)
		}
	}
	if _, ok := KindForRole(auth.RoleAdmin); ok {
		t.Error("admin must have no profile kind")
	}
	if Kind("ghost").Valid() {
		t.Error("unknown kind must be invalid")
	}
}
