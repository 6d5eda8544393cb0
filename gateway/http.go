package gateway

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/danderson/idl"
	"github.com/google/uuid"
)

// maxReplySize is the largest reply body HTTP accepts.
const maxReplySize = 4 << 20

// HTTP is a [Gateway] that forwards calls to an HTTP endpoint.
//
// Each call is sent as a POST request carrying a JSON object with the
// target, method, hex-encoded payload and budget. A 2xx response body
// is the reply's Candid payload. Any other response carries a JSON
// object with "code" and "message" fields describing the rejection.
type HTTP struct {
	// URL is the endpoint to post calls to.
	URL string
	// Client is the HTTP client to use. If nil, http.DefaultClient
	// is used.
	Client *http.Client
}

// httpCall is the JSON body of a forwarded call.
type httpCall struct {
	CanisterID string `json:"canisterId"`
	MethodName string `json:"methodName"`
	Args       string `json:"args"`
	Budget     uint64 `json:"budget"`
}

// httpReject is the JSON body of a rejected call.
type httpReject struct {
	Code    idl.RejectCode `json:"code"`
	Message string         `json:"message"`
}

// Call implements [Gateway].
func (h *HTTP) Call(ctx context.Context, req Request) ([]byte, error) {
	if h.URL == "" {
		return nil, errors.New("no gateway URL configured")
	}
	body, err := json.Marshal(httpCall{
		CanisterID: req.Target.String(),
		MethodName: req.Method,
		Args:       hex.EncodeToString(req.Payload),
		Budget:     req.Budget,
	})
	if err != nil {
		return nil, err
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Idempotency-Key", uuid.NewString())

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s: %w", req.Target, req.Method, err)
	}
	defer resp.Body.Close()

	ret, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading reply to %s.%s: %w", req.Target, req.Method, err)
	}
	if len(ret) > maxReplySize {
		return nil, fmt.Errorf("reply to %s.%s exceeds %d bytes", req.Target, req.Method, maxReplySize)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return ret, nil
	}

	var rej httpReject
	if err := json.Unmarshal(ret, &rej); err != nil || rej.Code == 0 {
		return nil, fmt.Errorf("calling %s.%s: gateway returned %s", req.Target, req.Method, resp.Status)
	}
	return nil, idl.CallError{Code: rej.Code, Message: rej.Message}
}
