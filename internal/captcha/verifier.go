package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPVerifier calls an hCaptcha/Turnstile-style siteverify endpoint: one
// form POST carrying secret, response, and remoteip, answered with a JSON
// body whose "success" field is authoritative.
type HTTPVerifier struct {
	client    *http.Client
	verifyURL string
}

// NewHTTPVerifier creates a verifier for the given endpoint with a bounded
// per-call timeout.
func NewHTTPVerifier(verifyURL string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPVerifier{
		client:    &http.Client{Timeout: timeout},
		verifyURL: verifyURL,
	}
}

type siteverifyResponse struct {
	Success bool `json:"success"`
}

// Verify performs the siteverify call. Transport failures and non-2xx
// answers are returned as errors; only a decoded success=true grants a
// pass.
func (v *HTTPVerifier) Verify(ctx context.Context, secret, response, remoteIP string) (bool, error) {
	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", response)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("siteverify status %d", resp.StatusCode)
	}

	var decoded siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("siteverify decode: %v", err)
	}

	return decoded.Success, nil
}
