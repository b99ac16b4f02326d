package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthsummary/apps/backend/internal/health"
	"healthsummary/apps/backend/internal/storage"
)

func (a *App) createGoal(c *gin.Context) {
	var payload goalRequest
	if !mustJSON(c, &payload) {
		return
	}
	deviceID, ok := a.resolveDeviceID(c, payload.DeviceID)
	if !ok {
		return
	}

	input := health.GoalInput{
		Goal:           payload.Goal,
		Weight:         payload.Weight,
		BodyFatPercent: payload.BodyFatPercent,
	}
	if payload.StartsAt != nil {
		startsAt, err := parseDate(*payload.StartsAt)
		if err != nil {
			writeError(c, http.StatusUnprocessableEntity, "starts_at must be a date in YYYY-MM-DD format")
			return
		}
		input.StartsAt = &startsAt
	}

	ctx := c.Request.Context()
	user, err := a.service.FindOrCreateUser(ctx, deviceID)
	if err != nil {
		a.writeServiceError(c, err, "Failed to resolve user")
		return
	}
	goal, err := a.service.CreateGoal(ctx, user.ID, input)
	if err != nil {
		a.writeServiceError(c, err, "Failed to save goal")
		return
	}
	c.JSON(http.StatusCreated, toGoalResponse(goal))
}

// getGoal returns the active goal, or null when none was set.
func (a *App) getGoal(c *gin.Context) {
	deviceID, ok := a.resolveDeviceID(c, c.Query("device_id"))
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := a.service.UserByDevice(ctx, deviceID)
	if err != nil {
		a.writeServiceError(c, err, "Failed to load user")
		return
	}
	goal, err := a.service.ActiveGoal(ctx, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		a.writeServiceError(c, err, "Failed to load goal")
		return
	}
	c.JSON(http.StatusOK, toGoalResponse(goal))
}
