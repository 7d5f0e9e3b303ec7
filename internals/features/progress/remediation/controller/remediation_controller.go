package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/features/progress/remediation/dto"
	"medcard_backend/internals/features/progress/remediation/service"
	helper "medcard_backend/internals/helpers"
)

type RemediationController struct {
	DB *gorm.DB
}

func NewRemediationController(db *gorm.DB) *RemediationController {
	return &RemediationController{DB: db}
}

// GET /api/u/remediation-runs/:id  (id or code)
func (ctl *RemediationController) GetRun(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	key := strings.TrimSpace(c.Params("id"))
	if key == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "missing run id")
	}

	run, err := service.FindRun(c.UserContext(), ctl.DB, userID, key)
	if errors.Is(err, service.ErrRunNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "remediation run not found")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to load run")
	}
	sum, err := service.Summarize(c.UserContext(), ctl.DB, run)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to summarize run")
	}
	return helper.JsonOK(c, "ok", dto.NewRunResponse(sum))
}
