package controllers

import (
	"net/http"

	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/dispatch"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

func DispatchMeta(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.Meta(r.Context())
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, meta)
	}
}

func DispatchExport(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to := exportRange(r)
		data, filename, err := svc.Export(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteCSV(w, filename, data)
	}
}

func DispatchList(svc *dispatch.Service, pageRows int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.FindMany(r.Context(), paginate.FromRequest(r, pageRows))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, page)
	}
}

func DispatchCreate(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input dispatch.UpsertInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Create(r.Context(), p, input)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, item)
	}
}

func DispatchGetOne(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		item, err := svc.GetOne(r.Context(), id)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func DispatchUpdate(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		var input dispatch.UpsertInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Update(r.Context(), p, id, input)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func DispatchDelete(svc *dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		if err := svc.Delete(r.Context(), p, id); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
