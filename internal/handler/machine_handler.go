package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

type MachineHandler struct {
	svc *service.MachineService
}

func NewMachineHandler(svc *service.MachineService) *MachineHandler {
	return &MachineHandler{svc: svc}
}

func (h *MachineHandler) Create(c *gin.Context) {
	var req service.CreateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, m)
}

func (h *MachineHandler) Get(c *gin.Context) {
	m, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, m)
}

func (h *MachineHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.MachineListParams{
		ShopID:     c.Query("shop_id"),
		CategoryID: c.Query("category_id"),
		Page:       page,
		Size:       size,
	}
	if v := c.Query("available"); v != "" {
		available := v == "true"
		params.Available = &available
	}
	machines, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": machines, "total": total, "page": page, "size": size})
}

func (h *MachineHandler) CreateCategory(c *gin.Context) {
	var req service.CreateMachineCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, cat)
}

func (h *MachineHandler) ListCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context(), c.Query("shop_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cats)
}
