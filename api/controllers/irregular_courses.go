package controllers

import (
	"net/http"

	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/irregularcourses"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

func IrregularCoursesMeta(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.Meta(r.Context())
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, meta)
	}
}

func IrregularCoursesExport(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
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

func IrregularCoursesList(svc *irregularcourses.Service, pageRows int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.FindMany(r.Context(), paginate.FromRequest(r, pageRows))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, page)
	}
}

func IrregularCoursesCreate(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input irregularcourses.UpsertInput
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

func IrregularCoursesGetOne(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
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

func IrregularCoursesUpdate(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		var input irregularcourses.UpsertInput
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

func IrregularCoursesDelete(svc *irregularcourses.Service, logg *logger.Logger) http.HandlerFunc {
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
