package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jkovarik/dispecink-backend/api/controllers"
	"github.com/jkovarik/dispecink-backend/api/middleware"
	internalauth "github.com/jkovarik/dispecink-backend/internal/auth"
	"github.com/jkovarik/dispecink-backend/internal/courses"
	"github.com/jkovarik/dispecink-backend/internal/dispatch"
	"github.com/jkovarik/dispecink-backend/internal/employees"
	"github.com/jkovarik/dispecink-backend/internal/enums"
	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/irregularcourses"
	"github.com/jkovarik/dispecink-backend/internal/locations"
	"github.com/jkovarik/dispecink-backend/internal/machinings"
	"github.com/jkovarik/dispecink-backend/internal/remainders"
	"github.com/jkovarik/dispecink-backend/internal/reports"
	"github.com/jkovarik/dispecink-backend/pkg/auth/session"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	sessions session.Checker,
	registry *prometheus.Registry,
	store *files.Store,
	authService *internalauth.Service,
	locationService *locations.Service,
	locationSync *locations.Synchronizer,
	employeeService *employees.Service,
	enumService *enums.Service,
	courseService *courses.Service,
	dispatchService *dispatch.Service,
	irregularCourseService *irregularcourses.Service,
	machiningService *machinings.Service,
	remainderService *remainders.Service,
	reportService *reports.Service,
) http.Handler {
	pageRows := cfg.Paging.PageRows

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth, sessions, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/web/login", controllers.AuthLoginRedirect(authService))
			r.With(middleware.RequireAuthenticated(logg)).Get("/web/token", controllers.AuthWhoAmI(logg))
			r.Post("/web/token", controllers.AuthToken(authService, cfg.Auth, logg))
			r.Post("/web/logout", controllers.AuthLogout(authService, cfg.Auth, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated(logg))
			r.Get("/", controllers.LocationsList(locationService, logg))
			r.Get("/me", controllers.LocationsMine(locationService, logg))
			r.Get("/me/requests", controllers.LocationsMyRequests(locationService, logg))
			r.Post("/me/requests", controllers.LocationsCreateRequest(locationService, logg))
			r.Delete("/me/requests/{role}/{locationId}", controllers.LocationsDeleteRequest(locationService, logg))
			r.With(middleware.RequireAdmin(logg)).Post("/sync", controllers.LocationsSync(locationSync, logg))
			r.With(middleware.RequireAdmin(logg)).Get("/requests", controllers.LocationsAdminRequests(locationService, logg))
			r.With(middleware.RequireAdmin(logg)).Patch("/requests", controllers.LocationsDecideRequests(locationService, logg))
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/meta", controllers.EmployeesMeta(locationService, logg))
			r.Get("/", controllers.EmployeesList(employeeService, pageRows, logg))
			r.Get("/{id}", controllers.EmployeesGetOne(employeeService, logg))
			r.Put("/{id}", controllers.EmployeesSetLocations(employeeService, logg))
		})

		r.Route("/enums", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/", controllers.EnumsKeys())
			r.Get("/{key}", controllers.EnumsList(enumService, pageRows, logg))
			r.Post("/{key}", controllers.EnumsCreate(enumService, logg))
			r.Get("/{key}/{id}", controllers.EnumsGetOne(enumService, logg))
			r.Put("/{key}/{id}", controllers.EnumsUpdate(enumService, logg))
			r.Delete("/{key}/{id}", controllers.EnumsDelete(enumService, logg))
		})

		r.Route("/courses", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleDispecink))
			r.Get("/meta", controllers.CoursesMeta(courseService, logg))
			r.Get("/export", controllers.CoursesExport(courseService, logg))
			r.Get("/", controllers.CoursesList(courseService, pageRows, logg))
			r.Post("/", controllers.CoursesCreate(courseService, store, logg))
			r.Get("/{id}", controllers.CoursesGetOne(courseService, logg))
			r.Put("/{id}", controllers.CoursesUpdate(courseService, logg))
			r.Post("/{id}", controllers.CoursesAddFiles(courseService, store, logg))
			r.Delete("/{id}", controllers.CoursesDelete(courseService, logg))
			r.Get("/{id}/{filename}", controllers.CoursesReadFile(courseService, logg))
			r.Delete("/{id}/{filename}", controllers.CoursesRemoveFile(courseService, logg))
		})

		r.Route("/dispatch", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleDispecink))
			r.Get("/meta", controllers.DispatchMeta(dispatchService, logg))
			r.Get("/export", controllers.DispatchExport(dispatchService, logg))
			r.Get("/", controllers.DispatchList(dispatchService, pageRows, logg))
			r.Post("/", controllers.DispatchCreate(dispatchService, logg))
			r.Get("/{id}", controllers.DispatchGetOne(dispatchService, logg))
			r.Put("/{id}", controllers.DispatchUpdate(dispatchService, logg))
			r.Delete("/{id}", controllers.DispatchDelete(dispatchService, logg))
		})

		r.Route("/irregular-courses", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleDispecink))
			r.Get("/meta", controllers.IrregularCoursesMeta(irregularCourseService, logg))
			r.Get("/export", controllers.IrregularCoursesExport(irregularCourseService, logg))
			r.Get("/", controllers.IrregularCoursesList(irregularCourseService, pageRows, logg))
			r.Post("/", controllers.IrregularCoursesCreate(irregularCourseService, logg))
			r.Get("/{id}", controllers.IrregularCoursesGetOne(irregularCourseService, logg))
			r.Put("/{id}", controllers.IrregularCoursesUpdate(irregularCourseService, logg))
			r.Delete("/{id}", controllers.IrregularCoursesDelete(irregularCourseService, logg))
		})

		r.Route("/machinings", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleDispecink))
			r.Get("/meta", controllers.MachiningsMeta(machiningService, logg))
			r.Get("/export", controllers.MachiningsExport(machiningService, logg))
			r.Get("/", controllers.MachiningsList(machiningService, pageRows, logg))
			r.Post("/", controllers.MachiningsCreate(machiningService, logg))
			r.Get("/{id}", controllers.MachiningsGetOne(machiningService, logg))
			r.Put("/{id}", controllers.MachiningsUpdate(machiningService, logg))
			r.Delete("/{id}", controllers.MachiningsDelete(machiningService, logg))
		})

		r.Route("/remainders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleDispecink))
			r.Get("/meta", controllers.RemaindersMeta(remainderService, logg))
			r.Get("/export", controllers.RemaindersExport(remainderService, logg))
			r.Get("/", controllers.RemaindersList(remainderService, pageRows, logg))
			r.Post("/", controllers.RemaindersCreate(remainderService, logg))
			r.Get("/{id}", controllers.RemaindersGetOne(remainderService, logg))
			r.Put("/{id}", controllers.RemaindersUpdate(remainderService, logg))
			r.Delete("/{id}", controllers.RemaindersDelete(remainderService, logg))
		})

		r.Route("/regional-reports", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, identity.RoleRegLogistika))
			r.Get("/meta", controllers.ReportsMeta(reportService, logg))
			r.Get("/export", controllers.ReportsExport(reportService, logg))
			r.Get("/", controllers.ReportsList(reportService, pageRows, logg))
			r.Post("/", controllers.ReportsCreate(reportService, store, logg))
			r.Get("/{id}", controllers.ReportsGetOne(reportService, logg))
			r.Put("/{id}", controllers.ReportsUpdate(reportService, logg))
			r.Post("/{id}", controllers.ReportsAddFile(reportService, store, logg))
			r.Delete("/{id}", controllers.ReportsDelete(reportService, logg))
			r.Get("/{id}/{filename}", controllers.ReportsReadFile(reportService, logg))
			r.Delete("/{id}/{filename}", controllers.ReportsRemoveFile(reportService, logg))
		})
	})

	return r
}
