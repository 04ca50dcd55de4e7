package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dimaspram/riverwatch/internal/models"
)

var testDBSeq atomic.Int64

// newTestDB opens an isolated in-memory sqlite database. The shared cache keeps
// the schema visible across pooled connections within one test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Sensor{},
		&models.Reading{},
		&models.Threshold{},
		&models.AlertNotification{},
		&models.SystemLog{},
	))
	return db
}

func seedAlertFixture(t *testing.T, db *gorm.DB) (*models.Sensor, *models.Reading, *models.Threshold) {
	t.Helper()
	sensor := &models.Sensor{Name: "Sensor Ciliwung Hulu", Identifier: "SRF001", Status: models.SensorStatusOnline}
	require.NoError(t, db.Create(sensor).Error)

	reading := &models.Reading{
		SensorID:   sensor.ID,
		Timestamp:  time.Now(),
		FlowRate:   f64(4.2),
		AlertLevel: models.AlertLevelDanger,
	}
	require.NoError(t, db.Create(reading).Error)

	th := threshold(models.MetricFlow, models.AlertLevelDanger, f64(4.0), f64(4.5))
	th.SensorID = sensor.ID
	require.NoError(t, db.Create(&th).Error)
	return sensor, reading, &th
}

func seedSubscriber(t *testing.T, db *gorm.DB, username, email string, profile models.UserProfile) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	profile.UserID = user.ID
	require.NoError(t, db.Create(&profile).Error)
	// The email flag defaults to true at the schema level, so opting out has to
	// be an explicit update.
	if !profile.ReceiveEmailAlerts {
		require.NoError(t, db.Model(&profile).Update("receive_email_alerts", false).Error)
	}
	return user
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeTelegram struct {
	sent []string
	err  error
}

func (f *fakeTelegram) SendMessage(chatID, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type fakeWhatsApp struct {
	sent []string
	err  error
}

func (f *fakeWhatsApp) Send(to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestDispatchFanout(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "alice", "alice@example.com", models.UserProfile{
		ReceiveEmailAlerts: true,
	})
	seedSubscriber(t, db, "bob", "bob@example.com", models.UserProfile{
		ReceiveEmailAlerts:    true,
		ReceiveTelegramAlerts: true,
		TelegramID:            "555123",
	})

	email := &fakeEmail{}
	telegram := &fakeTelegram{}
	d := NewDispatcher(db, email, telegram, nil, nil)

	results := d.Dispatch(sensor, reading, th)

	// One email-only subscriber plus one dual subscriber: exactly three records.
	require.Len(t, results, 3)
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, email.sent)
	assert.Equal(t, []string{"555123"}, telegram.sent)

	for _, n := range results {
		assert.Equal(t, models.NotificationSent, n.Status)
		assert.NotNil(t, n.SentAt)
		assert.Equal(t, reading.ID, n.ReadingID)
		assert.Contains(t, n.Message, sensor.Name)
	}

	var stored []models.AlertNotification
	require.NoError(t, db.Find(&stored).Error)
	assert.Len(t, stored, 3)
	for _, n := range stored {
		assert.NotEqual(t, models.NotificationPending, n.Status)
	}
}

func TestDispatchSkipsUnconfiguredTelegram(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "bob", "bob@example.com", models.UserProfile{
		ReceiveEmailAlerts:    true,
		ReceiveTelegramAlerts: true,
		TelegramID:            "555123",
	})

	email := &fakeEmail{}
	d := NewDispatcher(db, email, nil, nil, nil)

	results := d.Dispatch(sensor, reading, th)

	// The missing transport is a configuration no-op: no record, no failure.
	require.Len(t, results, 1)
	assert.Equal(t, models.ChannelEmail, results[0].Channel)
	assert.Equal(t, models.NotificationSent, results[0].Status)

	var count int64
	db.Model(&models.AlertNotification{}).Where("channel = ?", models.ChannelTelegram).Count(&count)
	assert.Zero(t, count)
}

func TestDispatchFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "bob", "bob@example.com", models.UserProfile{
		ReceiveEmailAlerts:    true,
		ReceiveTelegramAlerts: true,
		TelegramID:            "555123",
	})

	email := &fakeEmail{err: fmt.Errorf("smtp: connection refused")}
	telegram := &fakeTelegram{}
	d := NewDispatcher(db, email, telegram, nil, nil)

	results := d.Dispatch(sensor, reading, th)
	require.Len(t, results, 2)

	byChannel := map[string]models.AlertNotification{}
	for _, n := range results {
		byChannel[n.Channel] = n
	}

	failed := byChannel[models.ChannelEmail]
	assert.Equal(t, models.NotificationFailed, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "connection refused")
	assert.Nil(t, failed.SentAt)

	// The email failure never blocks the telegram attempt.
	sent := byChannel[models.ChannelTelegram]
	assert.Equal(t, models.NotificationSent, sent.Status)
	assert.Equal(t, []string{"555123"}, telegram.sent)

	var logs []models.SystemLog
	require.NoError(t, db.Where("module = ?", "dispatcher").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogLevelError, logs[0].Level)
	assert.Contains(t, logs[0].Message, "bob@example.com")
}

func TestDispatchWhatsAppByPhonePresence(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "alice", "alice@example.com", models.UserProfile{
		ReceiveEmailAlerts: true,
		Phone:              "+6281234567890",
	})
	seedSubscriber(t, db, "carol", "carol@example.com", models.UserProfile{
		ReceiveEmailAlerts: true,
	})

	email := &fakeEmail{}
	whatsapp := &fakeWhatsApp{}
	d := NewDispatcher(db, email, nil, whatsapp, nil)

	results := d.Dispatch(sensor, reading, th)

	// Two email records plus one whatsapp record for the user with a phone.
	require.Len(t, results, 3)
	assert.Equal(t, []string{"+6281234567890"}, whatsapp.sent)

	var count int64
	db.Model(&models.AlertNotification{}).Where("channel = ?", models.ChannelWhatsApp).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDispatchNoSubscribers(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	d := NewDispatcher(db, &fakeEmail{}, &fakeTelegram{}, nil, nil)
	results := d.Dispatch(sensor, reading, th)
	assert.Empty(t, results)
}

func TestDispatchOptedOutUserGetsNothing(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "dave", "dave@example.com", models.UserProfile{
		ReceiveEmailAlerts: false,
	})

	email := &fakeEmail{}
	d := NewDispatcher(db, email, nil, nil, nil)
	results := d.Dispatch(sensor, reading, th)
	assert.Empty(t, results)
	assert.Empty(t, email.sent)
}

// Dispatching the same reading twice produces duplicate records. There is no
// dedup guard; callers own the at-most-once contract.
func TestDispatchRepeatCreatesDuplicates(t *testing.T) {
	db := newTestDB(t)
	sensor, reading, th := seedAlertFixture(t, db)

	seedSubscriber(t, db, "alice", "alice@example.com", models.UserProfile{
		ReceiveEmailAlerts: true,
	})

	email := &fakeEmail{}
	d := NewDispatcher(db, email, nil, nil, nil)

	d.Dispatch(sensor, reading, th)
	d.Dispatch(sensor, reading, th)

	var count int64
	db.Model(&models.AlertNotification{}).Where("reading_id = ?", reading.ID).Count(&count)
	assert.EqualValues(t, 2, count)
	assert.Len(t, email.sent, 2)
}
