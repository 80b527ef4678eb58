package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/employees"
	"github.com/jkovarik/dispecink-backend/internal/locations"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

// EmployeesMeta offers the full location directory for the grant form.
func EmployeesMeta(locSvc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := locSvc.FindAll(r.Context())
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{"locations": items})
	}
}

func EmployeesList(svc *employees.Service, pageRows int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		page, err := svc.FindMany(r.Context(), p, paginate.FromRequest(r, pageRows))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, page)
	}
}

func EmployeesGetOne(svc *employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.GetOne(r.Context(), p, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func EmployeesSetLocations(svc *employees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input employees.SetLocationsInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		userID := chi.URLParam(r, "id")
		if err := svc.SetLocations(r.Context(), p, userID, input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		item, err := svc.GetOne(r.Context(), p, userID)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}
