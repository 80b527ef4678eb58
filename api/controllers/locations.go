package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/locations"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

func LocationsList(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.FindAll(r.Context())
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, paginate.Page[locations.Row]{Items: items})
	}
}

func LocationsMine(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		items, err := svc.MyGrants(r.Context(), p.ID)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, paginate.Page[locations.GrantRow]{Items: items})
	}
}

func LocationsMyRequests(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		items, err := svc.MyRequests(r.Context(), p.ID)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, paginate.Page[locations.RequestRow]{Items: items})
	}
}

type locationRequestCreate struct {
	LocationID string `json:"locationId" validate:"required"`
	Role       string `json:"role" validate:"required"`
}

func LocationsCreateRequest(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequestCreate
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		if logg != nil {
			r = r.WithContext(logg.WithLocation(r.Context(), req.LocationID))
		}
		if err := svc.CreateRequest(r.Context(), p.ID, req.Role, req.LocationID); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(r.Context(), "locations.request.created")
		}

		items, err := svc.MyRequests(r.Context(), p.ID)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, paginate.Page[locations.RequestRow]{Items: items})
	}
}

func LocationsDeleteRequest(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		role := chi.URLParam(r, "role")
		locationID := chi.URLParam(r, "locationId")

		if logg != nil {
			r = r.WithContext(logg.WithLocation(r.Context(), locationID))
		}
		if err := svc.DeleteRequest(r.Context(), p.ID, role, locationID); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// LocationsSync forces a directory refresh, bypassing the TTL gate.
func LocationsSync(sync *locations.Synchronizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sync.Force(r.Context()); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func LocationsAdminRequests(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		items, err := svc.RequestsForAdmin(r.Context(), p)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, paginate.Page[locations.RequestRow]{Items: items})
	}
}

// LocationsDecideRequests applies an admin's batch of approvals and
// rejections atomically.
func LocationsDecideRequests(svc *locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var decisions []locations.Decision
		if err := validators.DecodeJSONBody(r, &decisions); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		if err := svc.Decide(r.Context(), p, decisions); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
