package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/enums"
	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

func editableKey(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if !enums.IsEditableKey(key) {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "unknown registry key")
	}
	return key, nil
}

func recordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails("id")
	}
	return id, nil
}

// EnumsKeys lists the registry keys open to admin editing.
func EnumsKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteJSON(w, http.StatusOK, enums.EditableKeys())
	}
}

func EnumsList(svc *enums.Service, pageRows int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := editableKey(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		page, err := svc.FindMany(r.Context(), key, paginate.FromRequest(r, pageRows))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, page)
	}
}

func EnumsGetOne(svc *enums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := editableKey(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		item, err := svc.GetOne(r.Context(), key, id)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

type enumCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

func EnumsCreate(svc *enums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := editableKey(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		var req enumCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Create(r.Context(), p.ID, key, req.Name)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, item)
	}
}

func EnumsUpdate(svc *enums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := editableKey(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		var input enums.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Update(r.Context(), p.ID, key, id, input)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func EnumsDelete(svc *enums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := editableKey(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), key, id); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
