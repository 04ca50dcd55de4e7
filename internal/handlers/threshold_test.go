package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/models"
)

func newThresholdApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()
	h := NewThresholdHandler(db)
	app := fiber.New()
	app.Get("/api/sensors/:id/thresholds", h.ListThresholds)
	app.Post("/api/sensors/:id/thresholds", h.CreateThreshold)
	app.Put("/api/thresholds/:id", h.UpdateThreshold)
	app.Delete("/api/thresholds/:id", h.DeleteThreshold)
	app.Patch("/api/thresholds/:id/toggle", h.ToggleThreshold)
	return app
}

func TestCreateThresholdValidation(t *testing.T) {
	db := newTestDB(t)
	app := newThresholdApp(t, db)

	sensor := models.Sensor{Name: "Sensor Hulu", Identifier: "SRF001"}
	require.NoError(t, db.Create(&sensor).Error)
	path := "/api/sensors/" + sensor.ID.String() + "/thresholds"

	cases := []struct {
		name string
		body map[string]any
	}{
		{"bad metric", map[string]any{"metric": "humidity", "alert_level": "warning", "min_value": 1.0, "message": "x"}},
		{"bad level", map[string]any{"metric": "flow", "alert_level": "apocalyptic", "min_value": 1.0, "message": "x"}},
		{"no bounds", map[string]any{"metric": "flow", "alert_level": "warning", "message": "x"}},
		{"inverted bounds", map[string]any{"metric": "flow", "alert_level": "warning", "min_value": 5.0, "max_value": 1.0, "message": "x"}},
		{"no message", map[string]any{"metric": "flow", "alert_level": "warning", "min_value": 1.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, app, path, tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, true, body["error"])
		})
	}

	var count int64
	db.Model(&models.Threshold{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateThreshold(t *testing.T) {
	db := newTestDB(t)
	app := newThresholdApp(t, db)

	sensor := models.Sensor{Name: "Sensor Hulu", Identifier: "SRF001"}
	require.NoError(t, db.Create(&sensor).Error)

	resp, body := postJSON(t, app, "/api/sensors/"+sensor.ID.String()+"/thresholds", map[string]any{
		"metric":      "flow",
		"alert_level": "danger",
		"min_value":   4.0,
		"max_value":   4.5,
		"message":     "Flow dangerously high",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "flow", body["metric"])
	assert.Equal(t, true, body["is_active"])

	// An unknown sensor is a 404.
	resp, _ = postJSON(t, app, "/api/sensors/"+uuid.New().String()+"/thresholds", map[string]any{
		"metric": "flow", "alert_level": "danger", "min_value": 4.0, "message": "x",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToggleThreshold(t *testing.T) {
	db := newTestDB(t)
	app := newThresholdApp(t, db)

	sensor := models.Sensor{Name: "Sensor Hulu", Identifier: "SRF001"}
	require.NoError(t, db.Create(&sensor).Error)
	min := 4.0
	th := models.Threshold{
		SensorID: sensor.ID, Metric: models.MetricFlow,
		AlertLevel: models.AlertLevelDanger, MinValue: &min,
		Message: "x", IsActive: true,
	}
	require.NoError(t, db.Create(&th).Error)

	req := httptest.NewRequest(http.MethodPatch, "/api/thresholds/"+th.ID.String()+"/toggle", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["is_active"])

	var stored models.Threshold
	require.NoError(t, db.First(&stored, "id = ?", th.ID).Error)
	assert.False(t, stored.IsActive)
}
