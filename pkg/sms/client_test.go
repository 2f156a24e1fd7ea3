package sms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
)

func TestSendPostsMessage(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms/send", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("api-key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(config.SMSConfig{BaseURL: srv.URL, APIKey: "key-1", SenderID: "KitStore"})
	require.NoError(t, err)

	require.NoError(t, client.Send(context.Background(), "024 123 4567", "Your order shipped"))
	assert.Equal(t, []string{"233241234567"}, got.Recipients)
	assert.Equal(t, "KitStore", got.Sender)
}

func TestSendTruncatesLongMessages(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	client, err := NewClient(config.SMSConfig{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), "233241234567", strings.Repeat("x", 600)))
	assert.Len(t, got.Message, maxMessageLength)
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(config.SMSConfig{BaseURL: srv.URL, APIKey: "bad"})
	require.NoError(t, err)
	err = client.Send(context.Background(), "0241234567", "hi")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSendRequiresRecipient(t *testing.T) {
	client, err := NewClient(config.SMSConfig{BaseURL: "http://sms.invalid", APIKey: "k"})
	require.NoError(t, err)
	err = client.Send(context.Background(), " - ", "hi")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(config.SMSConfig{})
	require.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "233201112222", NormalizePhone("+233 20 111 2222"))
	assert.Equal(t, "233201112222", NormalizePhone("020-111-2222"))
	assert.Equal(t, "", NormalizePhone(""))
}
