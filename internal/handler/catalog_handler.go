package handler

import (
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) CreateShop(c *gin.Context) {
	var req service.CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	shop, err := h.svc.CreateShop(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, shop)
}

func (h *CatalogHandler) GetShop(c *gin.Context) {
	shop, err := h.svc.GetShop(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, shop)
}

func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.svc.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, customer)
}

func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, customer)
}

func (h *CatalogHandler) CreateWorker(c *gin.Context) {
	var req service.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	worker, err := h.svc.CreateWorker(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, worker)
}

func (h *CatalogHandler) ListWorkers(c *gin.Context) {
	workers, err := h.svc.ListWorkers(c.Request.Context(), c.Query("shop_id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, workers)
}
