package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/middleware"
	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/service"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
	"github.com/noah-isme/sma-academic-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-academic-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

// RouterConfig carries what NewRouter needs besides the services.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Ping           func(ctx context.Context) error
}

// NewRouter builds the gin engine with every role-scoped route group.
func NewRouter(svc *service.Services, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	if svc.Metrics != nil {
		r.Use(middleware.Metrics(svc.Metrics))
	}
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	metrics := NewMetricsHandler(svc.Metrics, cfg.Ping)
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)

	auth := NewAuthHandler(svc.Auth)
	users := NewUserHandler(svc.Users)
	classes := NewClassHandler(svc.Classes)
	subjects := NewSubjectHandler(svc.Subjects)
	graph := NewAssignmentGraphHandler(svc.Graph)
	roster := NewRosterHandler(svc.RosterView)
	attendance := NewAttendanceHandler(svc.Attendance)
	tests := NewTestHandler(svc.Tests)
	coursework := NewCourseworkHandler(svc.Coursework)
	dashboard := NewDashboardHandler(svc.Dashboard)
	exports := NewExportHandler(svc.Export)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.Auth))
	secured.GET("/auth/me", auth.Me)

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/dashboard", dashboard.Admin)

		admin.GET("/users", users.List)
		admin.POST("/users", users.Create)
		admin.GET("/users/:id", users.Get)
		admin.PUT("/users/:id", users.Update)
		admin.PATCH("/users/:id/status", users.SetStatus)
		admin.GET("/teachers/:id/assignments", graph.TeacherAssignments)

		admin.GET("/classes", classes.List)
		admin.POST("/classes", classes.Create)
		admin.GET("/classes/:id", classes.Get)
		admin.PUT("/classes/:id", classes.Update)
		admin.PATCH("/classes/:id/status", classes.SetStatus)
		admin.GET("/classes/:id/subjects", graph.ClassSubjects)
		admin.GET("/classes/:id/students", roster.View)
		admin.POST("/classes/:id/students", graph.PlaceStudent)
		admin.DELETE("/classes/:id/students/:studentId", graph.RemoveStudent)

		admin.GET("/subjects", subjects.List)
		admin.POST("/subjects", subjects.Create)
		admin.GET("/subjects/:id", subjects.Get)
		admin.PUT("/subjects/:id", subjects.Update)
		admin.PATCH("/subjects/:id/status", subjects.SetStatus)

		admin.POST("/class-subjects", graph.AssignSubject)
		admin.PATCH("/class-subjects/:id/teacher", graph.ChangeTeacher)
		admin.DELETE("/class-subjects/:id", graph.RemoveSubject)

		admin.GET("/tests/:id/marks/export", exports.Marks)
		admin.GET("/attendance/export", exports.Attendance)
	}

	teacher := secured.Group("/teacher", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	{
		teacher.GET("/dashboard", dashboard.Teacher)
		teacher.GET("/assignments", graph.MyAssignments)
		teacher.GET("/classes/:id/students", roster.View)

		teacher.GET("/attendance", attendance.Get)
		teacher.POST("/attendance", attendance.Mark)
		teacher.POST("/attendance/bulk-preview", attendance.BulkPreview)
		teacher.GET("/attendance/export", exports.Attendance)

		teacher.GET("/tests", tests.List)
		teacher.POST("/tests", tests.Create)
		teacher.GET("/tests/:id", tests.Get)
		teacher.PUT("/tests/:id", tests.Update)
		teacher.DELETE("/tests/:id", tests.Delete)
		teacher.GET("/tests/:id/marks", tests.Marks)
		teacher.PUT("/tests/:id/marks", tests.SaveMarks)
		teacher.GET("/tests/:id/marks/export", exports.Marks)

		teacher.GET("/work", coursework.List)
		teacher.POST("/work", coursework.Create)
		teacher.GET("/work/:id", coursework.Get)
		teacher.PUT("/work/:id", coursework.Update)
		teacher.DELETE("/work/:id", coursework.Delete)
		teacher.GET("/work/:id/submissions", coursework.Submissions)
		teacher.POST("/submissions/:id/check", coursework.Check)
	}

	student := secured.Group("/student", middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/dashboard", dashboard.Student)
		student.GET("/attendance", attendance.MyHistory)
		student.GET("/marks", tests.MyMarks)
		student.GET("/work", coursework.MyWork)
		student.PUT("/work/:id/submission", coursework.Submit)
	}

	accountant := secured.Group("/accountant", middleware.RequireRoles(models.RoleAccountant, models.RoleAdmin))
	{
		accountant.GET("/dashboard", dashboard.Accountant)
		accountant.GET("/users", users.List)
		accountant.GET("/classes", classes.List)
	}

	return r
}
