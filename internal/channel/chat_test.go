package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
)

func TestChatSender_Send(t *testing.T) {
	t.Parallel()

	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := json.Marshal(map[string]string{})
		_ = body
		var decoded map[string]string
		_ = json.NewDecoder(r.Body).Decode(&decoded)
		gotBody = decoded["text"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewChatSender(srv.URL, "secret-key", 0)
	err := sender.Send(t.Context(), store.OutboxPayload{To: "+15551234567", Body: "hello there"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "hello there", gotBody)
}

func TestChatSender_Send_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := NewChatSender(srv.URL, "secret-key", 0)
	err := sender.Send(t.Context(), store.OutboxPayload{To: "+15551234567", Body: "hello"})

	require.Error(t, err)
}
