package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

// Handlers HTTP处理器集合
type Handlers struct {
	JobCard  *JobCardHandler
	Timer    *TimerHandler
	Machine  *MachineHandler
	Template *TemplateHandler
	Catalog  *CatalogHandler
	Archive  *ArchiveHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		JobCard:  NewJobCardHandler(services.JobCard, services.Quality, services.Export),
		Timer:    NewTimerHandler(services.Timer),
		Machine:  NewMachineHandler(services.Machine),
		Template: NewTemplateHandler(services.Template),
		Catalog:  NewCatalogHandler(services.Catalog),
		Archive:  NewArchiveHandler(services.Rejection),
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"code": 0, "message": "success", "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
}

// fail 按业务错误类别映射响应码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.Is(err, service.ErrStateConflict):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10004, "message": err.Error()})
	case errors.Is(err, service.ErrResourceConflict):
		c.JSON(http.StatusConflict, gin.H{"code": 10005, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func userID(c *gin.Context) string {
	id, _ := c.Get("user_id")
	s, _ := id.(string)
	return s
}
