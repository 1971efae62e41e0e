package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyServer(t *testing.T, label string, confidence float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Image string `json:"image"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Image)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"label":      label,
			"confidence": confidence,
		})
	}))
}

func TestCheckAcceptsMatchingLabel(t *testing.T) {
	server := verifyServer(t, "pot hole", 0.92)
	defer server.Close()

	c := NewClient(server.URL, 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")
	assert.NoError(t, err)
}

func TestCheckRejectsConfidentMismatch(t *testing.T) {
	server := verifyServer(t, "garbage", 0.92)
	defer server.Close()

	c := NewClient(server.URL, 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")

	require.Error(t, err)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "garbage", mismatch.Detected)
	assert.Equal(t, "potholes", mismatch.Expected)
	// User-facing message names both labels so the reporter can correct it.
	assert.Contains(t, mismatch.Error(), "garbage")
	assert.Contains(t, mismatch.Error(), "potholes")
}

func TestCheckAcceptsLowConfidenceMismatch(t *testing.T) {
	server := verifyServer(t, "garbage", 0.3)
	defer server.Close()

	c := NewClient(server.URL, 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")
	assert.NoError(t, err)
}

func TestCheckDegradesOnServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")
	assert.NoError(t, err)
}

func TestCheckDegradesOnUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")
	assert.NoError(t, err)
}

func TestCheckDisabledWithoutURL(t *testing.T) {
	c := NewClient("", 0.6)
	err := c.Check(context.Background(), "https://img.example/a.jpg", "potholes")
	assert.NoError(t, err)
}
