package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dimaspram/riverwatch/internal/metrics"
	"github.com/dimaspram/riverwatch/internal/models"
	"github.com/dimaspram/riverwatch/internal/notify"
	"github.com/dimaspram/riverwatch/internal/ws"
)

// Dispatcher resolves subscribed recipients and attempts delivery of an alert
// across the configured channels. Senders are injected at construction; a nil
// sender means that channel is not configured and is skipped without error.
//
// There is no retry and no deduplication: dispatching the same reading twice
// creates duplicate notification records. Callers run this at most once per
// reading, and each attempt's outcome is only visible through the stored record.
type Dispatcher struct {
	db       *gorm.DB
	email    notify.EmailSender
	telegram notify.TelegramSender
	whatsapp notify.WhatsAppSender
	hub      *ws.Hub
}

func NewDispatcher(db *gorm.DB, email notify.EmailSender, telegram notify.TelegramSender, whatsapp notify.WhatsAppSender, hub *ws.Hub) *Dispatcher {
	return &Dispatcher{db: db, email: email, telegram: telegram, whatsapp: whatsapp, hub: hub}
}

// fanout is one user's per-channel delivery list, deduplicated by user.
type fanout struct {
	email    string
	telegram string
	whatsapp string
}

// Dispatch sends the alert for a non-safe reading and returns the finalized
// notification records. Each record is persisted with status pending before its
// send attempt, then transitioned to sent or failed; a failure on one channel
// never blocks the others.
func (d *Dispatcher) Dispatch(sensor *models.Sensor, reading *models.Reading, threshold *models.Threshold) []models.AlertNotification {
	alert := notify.Alert{Sensor: sensor, Reading: reading, Threshold: threshold}
	targets := d.resolveRecipients()

	var results []models.AlertNotification
	for _, t := range targets {
		if t.email != "" && d.email != nil {
			results = append(results, d.attempt(reading, models.ChannelEmail, t.email, alert, func() error {
				return d.email.Send(t.email, alert.EmailSubject(), alert.EmailBody())
			}))
		}
		if t.telegram != "" {
			if d.telegram == nil {
				// Configuration no-op, not a failure.
				slog.Warn("Telegram bot token not configured, skipping telegram alert", "recipient", t.telegram)
				continue
			}
			results = append(results, d.attempt(reading, models.ChannelTelegram, t.telegram, alert, func() error {
				return d.telegram.SendMessage(t.telegram, alert.TelegramText())
			}))
		}
	}

	if d.whatsapp != nil {
		for _, t := range targets {
			if t.whatsapp == "" {
				continue
			}
			to := t.whatsapp
			results = append(results, d.attempt(reading, models.ChannelWhatsApp, to, alert, func() error {
				return d.whatsapp.Send(to, alert.WhatsAppText())
			}))
		}
	}

	if d.hub != nil {
		results = append(results, d.broadcastWeb(sensor, reading, threshold, alert))
	}

	return results
}

// resolveRecipients runs one explicit query per subscription flag and merges the
// results into a per-user fan-out list. A user subscribed to both email and
// telegram gets two independent notification attempts.
func (d *Dispatcher) resolveRecipients() []fanout {
	var emailProfiles []models.UserProfile
	if err := d.db.Preload("User").Where("receive_email_alerts = ?", true).Find(&emailProfiles).Error; err != nil {
		slog.Error("Failed to query email subscribers", "error", err)
	}

	var telegramProfiles []models.UserProfile
	if err := d.db.Where("receive_telegram_alerts = ? AND telegram_id <> ''", true).Find(&telegramProfiles).Error; err != nil {
		slog.Error("Failed to query telegram subscribers", "error", err)
	}

	merged := make(map[uuid.UUID]*fanout)
	var order []uuid.UUID
	get := func(userID uuid.UUID) *fanout {
		if f, ok := merged[userID]; ok {
			return f
		}
		f := &fanout{}
		merged[userID] = f
		order = append(order, userID)
		return f
	}

	for i := range emailProfiles {
		p := &emailProfiles[i]
		if p.User == nil || p.User.Email == "" {
			continue
		}
		f := get(p.UserID)
		f.email = p.User.Email
		// A phone number on file opts the user into WhatsApp delivery when the
		// transport is configured; the original system has no separate flag.
		f.whatsapp = p.Phone
	}
	for i := range telegramProfiles {
		p := &telegramProfiles[i]
		f := get(p.UserID)
		f.telegram = p.TelegramID
		if f.whatsapp == "" {
			f.whatsapp = p.Phone
		}
	}

	out := make([]fanout, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out
}

// attempt persists a pending record, runs the send, and finalizes the record to
// sent or failed. The record is never left pending on return.
func (d *Dispatcher) attempt(reading *models.Reading, channel, recipient string, alert notify.Alert, send func() error) models.AlertNotification {
	n := models.AlertNotification{
		ReadingID: reading.ID,
		Channel:   channel,
		Recipient: recipient,
		Message:   alert.Summary(),
		Status:    models.NotificationPending,
	}
	if err := d.db.Create(&n).Error; err != nil {
		slog.Error("Failed to create notification record", "channel", channel, "error", err)
	}

	if err := send(); err != nil {
		n.Status = models.NotificationFailed
		n.ErrorMessage = err.Error()
		slog.Error("Alert delivery failed", "channel", channel, "recipient", recipient, "error", err)
		d.logFailure(channel, recipient, err)
	} else {
		now := time.Now()
		n.Status = models.NotificationSent
		n.SentAt = &now
	}
	d.db.Save(&n)
	metrics.NotificationsSent.WithLabelValues(channel, n.Status).Inc()
	return n
}

func (d *Dispatcher) broadcastWeb(sensor *models.Sensor, reading *models.Reading, threshold *models.Threshold, alert notify.Alert) models.AlertNotification {
	n := models.AlertNotification{
		ReadingID: reading.ID,
		Channel:   models.ChannelWeb,
		Recipient: "dashboard",
		Message:   alert.Summary(),
		Status:    models.NotificationPending,
	}
	d.db.Create(&n)

	d.hub.BroadcastAlert(map[string]any{
		"sensor_id":   sensor.ID,
		"sensor_name": sensor.Name,
		"reading_id":  reading.ID,
		"alert_level": reading.AlertLevel,
		"metric":      threshold.Metric,
		"value":       alert.MetricValue(),
		"message":     threshold.Message,
		"timestamp":   reading.Timestamp,
	})

	now := time.Now()
	n.Status = models.NotificationSent
	n.SentAt = &now
	d.db.Save(&n)
	metrics.NotificationsSent.WithLabelValues(models.ChannelWeb, n.Status).Inc()
	return n
}

func (d *Dispatcher) logFailure(channel, recipient string, sendErr error) {
	extra, _ := json.Marshal(map[string]string{"channel": channel, "recipient": recipient})
	d.db.Create(&models.SystemLog{
		Level:     models.LogLevelError,
		Module:    "dispatcher",
		Message:   "failed to deliver " + channel + " alert to " + recipient + ": " + sendErr.Error(),
		ExtraData: datatypes.JSON(extra),
	})
}
