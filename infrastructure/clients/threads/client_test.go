package threads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
	"github.com/hayatoa/threads-auto-post-gs/infrastructure/clients/threads"
)

func fastRetry(attempts int) threads.RetryPolicy {
	return threads.RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		MaxJitter:   time.Millisecond,
	}
}

func newClient(t *testing.T, baseURL string, attempts int) *threads.Config {
	t.Helper()
	return &threads.Config{
		UserID:      "user-1",
		AccessToken: "secret-token",
		APIBase:     baseURL,
		Retry:       fastRetry(attempts),
	}
}

func TestCreateContainer_SendsPayloadAndBearerToken(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody dto.CreateContainerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(dto.ContainerResponse{ID: "container-42"})
	}))
	defer srv.Close()

	client := threads.NewThreadsClient(newClient(t, srv.URL, 1))
	resp, err := client.CreateContainer(context.Background(), &dto.CreateContainerRequest{
		MediaType:       "TEXT",
		Text:            "hello",
		AutoPublishText: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "container-42", resp.ID)
	assert.Equal(t, "/user-1/threads", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "TEXT", gotBody.MediaType)
	assert.Equal(t, "hello", gotBody.Text)
	assert.True(t, gotBody.AutoPublishText)
}

func TestPublishContainer_PassesCreationIDAsQueryParam(t *testing.T) {
	var gotPath, gotCreationID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCreationID = r.URL.Query().Get("creation_id")
		json.NewEncoder(w).Encode(dto.PublishResponse{ID: "post-7"})
	}))
	defer srv.Close()

	client := threads.NewThreadsClient(newClient(t, srv.URL, 1))
	resp, err := client.PublishContainer(context.Background(), "container-42")
	require.NoError(t, err)

	assert.Equal(t, "post-7", resp.ID)
	assert.Equal(t, "/user-1/threads_publish", gotPath)
	assert.Equal(t, "container-42", gotCreationID)
}

func TestCreateContainer_RetriesThenSurfacesStatusAndBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := threads.NewThreadsClient(newClient(t, srv.URL, 3))
	_, err := client.CreateContainer(context.Background(), &dto.CreateContainerRequest{
		MediaType: "TEXT",
		Text:      "x",
	})
	require.Error(t, err)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Contains(t, err.Error(), "internal error")
}

func TestCreateContainer_TransientFailureRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(dto.ContainerResponse{ID: "eventually"})
	}))
	defer srv.Close()

	client := threads.NewThreadsClient(newClient(t, srv.URL, 3))
	resp, err := client.CreateContainer(context.Background(), &dto.CreateContainerRequest{
		MediaType: "TEXT",
		Text:      "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "eventually", resp.ID)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}
