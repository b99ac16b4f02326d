package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *App) getWeeklySummary(c *gin.Context) {
	deviceID, ok := a.resolveDeviceID(c, c.Query("device_id"))
	if !ok {
		return
	}

	user, err := a.service.UserByDevice(c.Request.Context(), deviceID)
	if err != nil {
		a.writeServiceError(c, err, "Failed to load user")
		return
	}
	summary, err := a.service.WeeklySummary(c.Request.Context(), user.ID)
	if err != nil {
		a.writeServiceError(c, err, "Failed to build weekly summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
