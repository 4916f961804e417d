package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RegisterTimetableRoutes mounts the timetable API under rg. authn must place
// JWT claims on the context; role checks are applied per route.
func RegisterTimetableRoutes(rg *gin.RouterGroup, h *TimetableHandler, authn gin.HandlerFunc) {
	readers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	writers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	secured := rg.Group("", authn)

	timetables := secured.Group("/timetables")
	timetables.POST("/generate", writers, h.Generate)
	timetables.POST("/slot-catalog", readers, h.SlotCatalog)
	timetables.GET("", readers, h.List)
	timetables.GET("/:id", readers, h.Get)
	timetables.DELETE("/:id", writers, h.Delete)
	timetables.POST("/:id/finalize", writers, h.Finalize)
	timetables.POST("/:id/unfinalize", writers, h.Unfinalize)
	timetables.POST("/:id/clone", writers, h.Clone)
	timetables.GET("/:id/load", readers, h.SubjectLoad)
	timetables.GET("/:id/export", readers, h.Export)
	timetables.POST("/:id/entries", writers, h.AddEntry)

	entries := secured.Group("/timetable-entries")
	entries.PUT("/:id", writers, h.EditEntry)
	entries.DELETE("/:id", writers, h.DeleteEntry)

	secured.GET("/timetable-conflicts", readers, h.Conflicts)
}
