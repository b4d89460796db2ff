package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/openmood/emoscope/internal/domain"
)

// httpClassifier implements Classifier against a remote inference service.
type httpClassifier struct {
	cfg  Config
	http *http.Client
}

// NewHTTPClassifier creates a Classifier that talks to an inference service
// over HTTP.
func NewHTTPClassifier(cfg Config) Classifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &httpClassifier{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// classifyRequest is the JSON body sent to POST /classify.
type classifyRequest struct {
	Image string `json:"image"`
}

// classifyResponse is the JSON body returned by POST /classify. Backends
// return either the full score vector ordered like the label set, or a
// pre-picked label with its confidence.
type classifyResponse struct {
	Scores     []float64 `json:"scores,omitempty"`
	Emotion    string    `json:"emotion,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

func (c *httpClassifier) Classify(ctx context.Context, image []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := classifyRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var result *Result
	operation := func() error {
		resp, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		result, err = decodeResult(resp)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		if isConnectionError(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result, nil
}

func (c *httpClassifier) doRequest(ctx context.Context, body classifyRequest) (*classifyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshaling request: %w", err))
	}

	url := c.cfg.Endpoint + "/classify"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		err := fmt.Errorf("classifier returned status %d: %s", httpResp.StatusCode, string(respBody))
		if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var resp classifyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return &resp, nil
}

func decodeResult(resp *classifyResponse) (*Result, error) {
	if len(resp.Scores) > 0 {
		return resultFromScores(resp.Scores)
	}
	emotion := domain.Emotion(resp.Emotion)
	if emotion.CanonicalIndex() >= len(domain.Emotions) {
		return nil, fmt.Errorf("%w: unknown label %q", ErrInvalidOutput, resp.Emotion)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrInvalidOutput, resp.Confidence)
	}
	return &Result{Emotion: emotion, Confidence: resp.Confidence}, nil
}

func (c *httpClassifier) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	url := c.cfg.Endpoint + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}
