// Package notify holds the outbound alert channels. Each transport is optional:
// a nil sender means the channel is not configured and is skipped without error.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dimaspram/riverwatch/internal/models"
)

type EmailSender interface {
	Send(to, subject, body string) error
}

type TelegramSender interface {
	SendMessage(chatID, text string) error
}

type WhatsAppSender interface {
	Send(to, body string) error
}

// Alert bundles everything the channel templates need.
type Alert struct {
	Sensor    *models.Sensor
	Reading   *models.Reading
	Threshold *models.Threshold
}

func (a Alert) MetricLabel() string {
	if a.Threshold.Metric == models.MetricDistance {
		return "Water Level Distance"
	}
	return "Flow Rate"
}

func (a Alert) MetricUnit() string {
	if a.Threshold.Metric == models.MetricDistance {
		return "cm"
	}
	return "L/s"
}

func (a Alert) MetricValue() float64 {
	if a.Threshold.Metric == models.MetricDistance && a.Reading.Distance != nil {
		return *a.Reading.Distance
	}
	if a.Reading.FlowRate != nil {
		return *a.Reading.FlowRate
	}
	return 0
}

// Summary is the short line stored on every notification record.
func (a Alert) Summary() string {
	return fmt.Sprintf("Alert: %s - %s", a.Sensor.Name, a.Threshold.Message)
}

func (a Alert) EmailSubject() string {
	return fmt.Sprintf("⚠️ Alert: %s - %s", a.Sensor.Name, strings.ToUpper(a.Threshold.AlertLevel))
}

func (a Alert) EmailBody() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert level: %s\n\n", strings.ToUpper(a.Threshold.AlertLevel))
	fmt.Fprintf(&b, "Device: %s (%s)\n", a.Sensor.Name, a.Sensor.Identifier)
	fmt.Fprintf(&b, "%s: %.2f %s\n", a.MetricLabel(), a.MetricValue(), a.MetricUnit())
	fmt.Fprintf(&b, "Time: %s\n\n", a.Reading.Timestamp.Format(time.DateTime))
	fmt.Fprintf(&b, "%s\n", a.Threshold.Message)
	if a.Sensor.Location != "" {
		fmt.Fprintf(&b, "\nLocation: %s\n", a.Sensor.Location)
	}
	return b.String()
}

func (a Alert) TelegramText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *ALERT: %s*\n\n", strings.ToUpper(a.Threshold.AlertLevel))
	fmt.Fprintf(&b, "📍 Device: %s\n", a.Sensor.Name)
	fmt.Fprintf(&b, "📊 %s: %.2f %s\n", a.MetricLabel(), a.MetricValue(), a.MetricUnit())
	fmt.Fprintf(&b, "⏰ Time: %s\n\n", a.Reading.Timestamp.Format(time.DateTime))
	fmt.Fprintf(&b, "⚠️ %s", a.Threshold.Message)
	if a.Sensor.Location != "" {
		fmt.Fprintf(&b, "\n\nLocation: %s", a.Sensor.Location)
	}
	return b.String()
}

func (a Alert) WhatsAppText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*ALERT: %s*\n\n", strings.ToUpper(a.Threshold.AlertLevel))
	fmt.Fprintf(&b, "Device: %s\n", a.Sensor.Name)
	fmt.Fprintf(&b, "%s: %.2f %s\n", a.MetricLabel(), a.MetricValue(), a.MetricUnit())
	fmt.Fprintf(&b, "Time: %s\n\n", a.Reading.Timestamp.Format(time.DateTime))
	b.WriteString(a.Threshold.Message)
	return b.String()
}
