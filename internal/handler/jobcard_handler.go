package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

type JobCardHandler struct {
	svc     *service.JobCardService
	quality *service.QualityService
	export  *service.ExportService
}

func NewJobCardHandler(svc *service.JobCardService, quality *service.QualityService, export *service.ExportService) *JobCardHandler {
	return &JobCardHandler{svc: svc, quality: quality, export: export}
}

func (h *JobCardHandler) Create(c *gin.Context) {
	var req service.CreateJobCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.svc.Create(c.Request.Context(), req, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	created(c, job)
}

func (h *JobCardHandler) Get(c *gin.Context) {
	job, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *JobCardHandler) List(c *gin.Context) {
	params := listParams(c)
	jobs, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": jobs, "total": total, "page": params.Page, "size": params.Size})
}

func (h *JobCardHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Export 导出工单Excel
func (h *JobCardHandler) Export(c *gin.Context) {
	f, err := h.export.ExportJobCards(c.Request.Context(), listParams(c))
	if err != nil {
		fail(c, err)
		return
	}
	filename := fmt.Sprintf("jobcards-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *JobCardHandler) AssignWorker(c *gin.Context) {
	var req struct {
		WorkerID string `json:"worker_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.AssignWorker(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.WorkerID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, item)
}

func (h *JobCardHandler) CompleteItem(c *gin.Context) {
	job, err := h.svc.CompleteJobItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *JobCardHandler) QualityDecision(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required,oneof=good bad"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.quality.Decide(c.Request.Context(), c.Param("id"), c.Param("itemId"),
		userID(c), req.Decision == "good", req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *JobCardHandler) UseConsumable(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	consumable, err := h.svc.RecordConsumableUsage(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("cid"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, consumable)
}

func (h *JobCardHandler) SupervisorApprove(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	c.ShouldBindJSON(&req)
	job, err := h.quality.SupervisorApprove(c.Request.Context(), c.Param("id"), userID(c), req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *JobCardHandler) SupervisorReject(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	c.ShouldBindJSON(&req)
	job, err := h.quality.SupervisorReject(c.Request.Context(), c.Param("id"), userID(c), req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func (h *JobCardHandler) CustomerVerify(c *gin.Context) {
	job, err := h.quality.CustomerVerify(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, job)
}

func listParams(c *gin.Context) repository.JobCardListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return repository.JobCardListParams{
		Status:     c.Query("status"),
		ShopID:     c.Query("shop_id"),
		CustomerID: c.Query("customer_id"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
}
