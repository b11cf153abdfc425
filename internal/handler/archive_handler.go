package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

type ArchiveHandler struct {
	svc *service.RejectionService
}

func NewArchiveHandler(svc *service.RejectionService) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

// RejectAndArchive 驳回并归档工单
func (h *ArchiveHandler) RejectAndArchive(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	archive, err := h.svc.RejectAndArchive(c.Request.Context(), c.Param("id"), req.Reason, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, archive)
}

func (h *ArchiveHandler) Get(c *gin.Context) {
	archive, err := h.svc.GetArchive(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, archive)
}

func (h *ArchiveHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	archives, total, err := h.svc.ListArchives(c.Request.Context(), repository.ArchiveListParams{
		ShopID:  c.Query("shop_id"),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"items": archives, "total": total, "page": page, "size": size})
}
