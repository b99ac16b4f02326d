package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthsummary/apps/backend/internal/health"
)

func (a *App) createDailySummary(c *gin.Context) {
	var payload dailySummaryRequest
	if !mustJSON(c, &payload) {
		return
	}
	deviceID, ok := a.resolveDeviceID(c, payload.DeviceID)
	if !ok {
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "date must be a date in YYYY-MM-DD format")
		return
	}

	record, err := a.service.IngestDaily(c.Request.Context(), health.DailyInput{
		DeviceID:       deviceID,
		Date:           date,
		WeightKg:       payload.Weight,
		BodyFatPercent: payload.BodyFatPercent,
		SleepHours:     payload.SleepHours,
	})
	if err != nil {
		a.writeServiceError(c, err, "Failed to save daily health summary")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Daily health summary created.",
		"record":  toDailyRecordResponse(record),
	})
}

// listDailySummaries returns records in [from, to], defaulting to the
// current weekly window.
func (a *App) listDailySummaries(c *gin.Context) {
	deviceID, ok := a.resolveDeviceID(c, c.Query("device_id"))
	if !ok {
		return
	}

	from, to := health.WindowBounds(a.service.Today())
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusUnprocessableEntity, "from must be a date in YYYY-MM-DD format")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusUnprocessableEntity, "to must be a date in YYYY-MM-DD format")
			return
		}
		to = parsed
	}

	user, err := a.service.UserByDevice(c.Request.Context(), deviceID)
	if err != nil {
		a.writeServiceError(c, err, "Failed to load user")
		return
	}
	records, err := a.service.DailyRecords(c.Request.Context(), user.ID, from, to)
	if err != nil {
		a.writeServiceError(c, err, "Failed to load daily health summaries")
		return
	}

	items := make([]dailyRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, toDailyRecordResponse(record))
	}
	c.JSON(http.StatusOK, gin.H{
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"records": items,
	})
}
