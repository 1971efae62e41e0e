package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"civicvoice-be/escalation"

	"github.com/apex/log"
)

// MismatchError is the user-correctable validation failure raised when the
// verification service sees a different problem than the reporter claims.
type MismatchError struct {
	Detected string
	Expected string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("the photo looks like %q, not %q — please retake it or adjust the category", e.Detected, e.Expected)
}

// Client calls the external image verification service, which labels a
// photo and returns a confidence score.
type Client struct {
	url           string
	minConfidence float64
	http          *http.Client
}

// NewClient builds a verification client. An empty url disables the gate.
func NewClient(url string, minConfidence float64) *Client {
	return &Client{
		url:           url,
		minConfidence: minConfidence,
		http:          &http.Client{Timeout: 20 * time.Second},
	}
}

type verifyRequest struct {
	Image string `json:"image"`
}

type verifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Check gates an issue submission on the verification service's label
// matching the claimed category. Service unavailability degrades to
// accepting the submission; only a confident mismatch rejects it.
func (c *Client) Check(ctx context.Context, imageURL, category string) error {
	if c.url == "" || imageURL == "" {
		return nil
	}

	body, err := json.Marshal(verifyRequest{Image: imageURL})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("image verification request build failed, accepting submission")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("image verification service unreachable, accepting submission")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warnf("image verification service returned status %d, accepting submission", resp.StatusCode)
		return nil
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).Warn("image verification response unreadable, accepting submission")
		return nil
	}

	if result.Confidence < c.minConfidence {
		return nil
	}
	if escalation.Match(result.Label, category) {
		return nil
	}

	return &MismatchError{Detected: result.Label, Expected: category}
}
