package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/config"
)

func newTestSMSSender(url string) *HTTPSMSSender {
	return &HTTPSMSSender{
		Username: "user",
		Password: "pass",
		SenderID: "CarRental",
		APIURL:   url,
		Client:   http.DefaultClient,
		logger:   zap.NewNop(),
	}
}

func TestSendSMS(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"status":"success","data":{"message_id":"42"}}`))
	}))
	defer srv.Close()

	err := newTestSMSSender(srv.URL).SendSMS(context.Background(), "96170123456", "Booking confirmed")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "+96170123456", got.URL.Query().Get("destination"))
	assert.Equal(t, "Booking confirmed", got.URL.Query().Get("message"))
	assert.Equal(t, "CarRental", got.URL.Query().Get("senderid"))
}

func TestSendSMSAcceptsPlainTextSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Message sent"))
	}))
	defer srv.Close()

	assert.NoError(t, newTestSMSSender(srv.URL).SendSMS(context.Background(), "+96170123456", "hi"))
}

func TestSendSMSFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"gateway error", http.StatusBadGateway, "upstream down"},
		{"rejected", http.StatusOK, `{"status":"failed","message":"bad number"}`},
		{"unreadable", http.StatusOK, "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			assert.Error(t, newTestSMSSender(srv.URL).SendSMS(context.Background(), "+96170123456", "hi"))
		})
	}
}

func TestNewSMSSenderDisabledWithoutURL(t *testing.T) {
	assert.Nil(t, NewSMSSender(&config.Config{}, zap.NewNop()))
}
