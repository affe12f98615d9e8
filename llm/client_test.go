package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStreamCollectsSnapshots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// Deliberately split one record across two writes
		parts := []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Good \"}}]}\n",
			"data: {\"choices\":[{\"delta\"",
			":{\"content\":\"counsel.\"}}]}\n",
			"data: [DONE]\n",
		}
		for _, part := range parts {
			_, _ = w.Write([]byte(part))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "test-key", "test-model", 0.2)

	var snapshots []string
	text, err := client.Stream(context.Background(), Request{
		Messages:       []Message{{Role: "user", Content: "Is my lease valid?"}},
		ConversationID: "conv-1",
	}, func(s string) {
		snapshots = append(snapshots, s)
	})

	require.NoError(t, err)
	assert.Equal(t, "Good counsel.", text)
	assert.Equal(t, []string{"Good ", "Good counsel."}, snapshots)
}

func TestClientStreamClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"quota exceeded", http.StatusPaymentRequired, ErrQuotaExceeded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "", "m", 0)
			_, err := client.Stream(context.Background(), Request{}, nil)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClientStreamGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "m", 0)
	_, err := client.Stream(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClientStreamHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(srv.URL, "", "m", 0)

	text, err := client.Stream(ctx, Request{}, func(s string) {
		cancel()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "partial", text)
}

func TestUserMessageDistinguishesFailures(t *testing.T) {
	rate := UserMessage(ErrRateLimited)
	quota := UserMessage(ErrQuotaExceeded)
	generic := UserMessage(context.DeadlineExceeded)

	assert.NotEqual(t, rate, quota)
	assert.NotEqual(t, rate, generic)
	assert.NotEqual(t, quota, generic)
}
