package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quickbite/marketplace/internal/config"
)

// OpenDB gives each test its own sqlite database, migrated like the
// postgres one.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "marketplace.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

type PublishedEvent struct {
	Topic string
	Key   string
	Event interface{}
}

// Publisher records events instead of writing to kafka.
type Publisher struct {
	Events []PublishedEvent
}

func (p *Publisher) PublishEvent(_ context.Context, topic, key string, event interface{}) error {
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

type Notification struct {
	Subject   string
	Template  string
	Recipient string
	Payload   map[string]interface{}
}

// Notifier records notifications instead of dispatching them.
type Notifier struct {
	Sent []Notification
}

func (n *Notifier) Send(_ context.Context, subject, template, recipient string, payload map[string]interface{}) error {
	n.Sent = append(n.Sent, Notification{Subject: subject, Template: template, Recipient: recipient, Payload: payload})
	return nil
}

// JSONRequest builds an echo context carrying a JSON body, in the shape
// handlers see after routing.
func JSONRequest(t *testing.T, e *echo.Echo, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// AsUser stamps the identity the token middleware would have set.
func AsUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

// DecodeBody unmarshals a recorded JSON response into out.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
