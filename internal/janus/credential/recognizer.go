package credential

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/janus-access/server/internal/janus/types"
)

// HTTPRecognizer calls an external face-recognition service over HTTP.
// The service receives the presented descriptor plus the enrolled
// candidate descriptors and answers with its single best match.
type HTTPRecognizer struct {
	url    string
	client *http.Client
}

// NewHTTPRecognizer builds a recognizer client for the given endpoint.
func NewHTTPRecognizer(url string, timeout time.Duration) *HTTPRecognizer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPRecognizer{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type recognizeCandidate struct {
	UserID     string `json:"user_id"`
	Descriptor string `json:"descriptor"` // base64
}

type recognizeRequest struct {
	Descriptor string               `json:"descriptor"` // base64
	Candidates []recognizeCandidate `json:"candidates"`
}

type recognizeResponse struct {
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

// Match implements Recognizer.
func (r *HTTPRecognizer) Match(ctx context.Context, descriptor []byte, candidates []*types.User) (string, float64, error) {
	reqBody := recognizeRequest{
		Descriptor: base64.StdEncoding.EncodeToString(descriptor),
		Candidates: make([]recognizeCandidate, 0, len(candidates)),
	}
	for _, u := range candidates {
		reqBody.Candidates = append(reqBody.Candidates, recognizeCandidate{
			UserID:     u.ID,
			Descriptor: base64.StdEncoding.EncodeToString(u.FaceDescriptor),
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("recognizer call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("recognizer status %d", resp.StatusCode)
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode recognize response: %w", err)
	}

	return out.UserID, out.Score, nil
}
