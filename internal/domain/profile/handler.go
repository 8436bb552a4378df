package profile

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medvault/medvault/internal/platform/apperr"
	"github.com/medvault/medvault/internal/platform/auth"
	"github.com/medvault/medvault/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Patients self-register their profile; staff roles are registered by
	// admin or data-entry operators against an existing identity.
	api.POST("/patients/register", h.RegisterPatient, auth.RequireRole(auth.RolePatient))
	api.GET("/patients", h.ListPatients, auth.RequireRole(auth.RoleDoctor, auth.RoleDataEntry))
	api.GET("/patients/:id", h.GetPatient, auth.RequireRole(auth.RoleDoctor, auth.RoleDataEntry))

	staff := api.Group("", auth.RequireRole(auth.RoleDataEntry))
	staff.POST("/doctors/register", h.RegisterDoctor)
	staff.POST("/pharmacies/register", h.RegisterPharmacy)
	staff.POST("/laboratories/register", h.RegisterLaboratory)

	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/availability", h.SetAvailability, auth.RequireRole(auth.RoleDoctor))

	api.GET("/pharmacies", h.ListPharmacies)
	api.GET("/pharmacies/:id", h.GetPharmacy)
	api.GET("/laboratories", h.ListLaboratories)
	api.GET("/laboratories/:id", h.GetLaboratory)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/data-entry/register", h.RegisterDataEntry)
	admin.GET("/data-entry", h.ListDataEntry)
	admin.POST("/data-entry/:id/tasks", h.AssignTask)
	api.PUT("/data-entry/tasks/:index", h.UpdateTaskStatus, auth.RequireRole(auth.RoleDataEntry))

	api.GET("/profiles/:userID", h.GetProfileByUser)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	var req PatientRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.RegisterPatient(c.Request().Context(), p.ID, req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	patient, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) RegisterDoctor(c echo.Context) error {
	var req DoctorRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.RegisterDoctor(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.ListDoctors(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg.Limit, pg.Offset))
}

type availabilityRequest struct {
	HospitalID       uuid.UUID `json:"hospital_id"`
	IsAvailableToday bool      `json:"is_available_today"`
}

func (h *Handler) SetAvailability(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.HospitalID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	d, err := h.svc.SetDoctorAvailability(c.Request().Context(), p.ID, req.HospitalID, req.IsAvailableToday)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) RegisterPharmacy(c echo.Context) error {
	var req PharmacyRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RegisterPharmacy(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPharmacy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPharmacy(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPharmacies(c echo.Context) error {
	pg := pagination.FromContext(c)
	pharmacies, total, err := h.svc.ListPharmacies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pharmacies, total, pg.Limit, pg.Offset))
}

func (h *Handler) RegisterLaboratory(c echo.Context) error {
	var req LaboratoryRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l, err := h.svc.RegisterLaboratory(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLaboratory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLaboratory(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLaboratories(c echo.Context) error {
	pg := pagination.FromContext(c)
	labs, total, err := h.svc.ListLaboratories(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(labs, total, pg.Limit, pg.Offset))
}

func (h *Handler) RegisterDataEntry(c echo.Context) error {
	var req DataEntryRegistration
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.RegisterDataEntry(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDataEntry(c echo.Context) error {
	pg := pagination.FromContext(c)
	operators, total, err := h.svc.ListDataEntry(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(operators, total, pg.Limit, pg.Offset))
}

func (h *Handler) AssignTask(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var task AssignedTask
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.AssignTask(c.Request().Context(), id, task)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

type taskStatusRequest struct {
	Status TaskStatus `json:"status"`
}

func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task index")
	}
	var req taskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateTaskStatus(c.Request().Context(), p.ID, index, req.Status)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

type profileResponse struct {
	Kind    Kind        `json:"kind"`
	Profile interface{} `json:"profile"`
}

// GetProfileByUser resolves any identity's role profile. Callers may always
// read their own; other profiles require a staff role.
func (h *Handler) GetProfileByUser(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	if principal.ID != userID {
		switch principal.Role {
		case auth.RoleAdmin, auth.RoleDoctor, auth.RoleDataEntry:
		default:
			return echo.NewHTTPError(http.StatusForbidden, "cannot read another user's profile")
		}
	}
	kind, p, err := h.svc.ResolveForUser(c.Request().Context(), userID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, profileResponse{Kind: kind, Profile: p})
}
