package handler

import (
	"github.com/bitfantasy/nimo-repair/internal/service"
	"github.com/gin-gonic/gin"
)

type TimerHandler struct {
	svc *service.TimerService
}

func NewTimerHandler(svc *service.TimerService) *TimerHandler {
	return &TimerHandler{svc: svc}
}

func (h *TimerHandler) StartWorker(c *gin.Context) {
	wa, err := h.svc.StartWorkerTimer(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("workerId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, wa)
}

func (h *TimerHandler) PauseWorker(c *gin.Context) {
	wa, err := h.svc.PauseWorkerTimer(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("workerId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, wa)
}

func (h *TimerHandler) EndWorker(c *gin.Context) {
	wa, err := h.svc.EndWorkerTimer(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("workerId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, wa)
}

func (h *TimerHandler) StartMachine(c *gin.Context) {
	ma, err := h.svc.StartMachineTimer(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("machineId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ma)
}

func (h *TimerHandler) EndMachine(c *gin.Context) {
	ma, err := h.svc.EndMachineTimer(c.Request.Context(),
		c.Param("id"), c.Param("itemId"), c.Param("machineId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, ma)
}
