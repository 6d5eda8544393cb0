// Package idltest provides a fake call gateway for tests.
package idltest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danderson/idl"
)

// schemaMethod is the method that returns a service's schema text.
const schemaMethod = "__get_candid_interface_tmp_hack"

// A Method implements a method of a fake service. It receives the
// decoded call arguments and returns the reply values.
//
// Returning an [idl.CallError] rejects the call with that error's
// code and message. Any other error rejects the call with
// [idl.RejectCanisterError].
type Method func(args []idl.Value) ([]idl.Value, error)

// A Service is a fake remote service.
type Service struct {
	// Schema, if non-empty, is returned as the service's schema
	// document.
	Schema string
	// Methods are the service's methods, by name.
	Methods map[string]Method
}

// A Call is a call received by a [Gateway].
type Call struct {
	Target idl.Principal
	Method string
	Args   []idl.Value
	Budget uint64
	// IdempotencyKey is the value of the request's Idempotency-Key
	// header.
	IdempotencyKey string
}

// Gateway is a fake HTTP call gateway, for use with gateway.HTTP.
type Gateway struct {
	srv *httptest.Server
	t   testing.TB
	log bool

	mu       sync.Mutex
	services map[string]*Service
	calls    []Call
}

// New starts a fake gateway that lives until the calling test
// completes.
//
// If logCalls is true, the gateway logs every call it receives using
// t.Logf.
func New(t testing.TB, logCalls bool) *Gateway {
	ret := &Gateway{
		t:        t,
		log:      logCalls,
		services: map[string]*Service{},
	}
	ret.srv = httptest.NewServer(http.HandlerFunc(ret.serve))
	t.Cleanup(ret.srv.Close)
	return ret
}

// URL returns the URL to post calls to.
func (g *Gateway) URL() string {
	return g.srv.URL
}

// Client returns an HTTP client configured to talk to the gateway.
func (g *Gateway) Client() *http.Client {
	return g.srv.Client()
}

// Register adds svc to the gateway at the given target. It replaces
// any service previously registered at target.
func (g *Gateway) Register(target idl.Principal, svc *Service) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.services[string(target)] = svc
}

// Calls returns the calls received so far, in arrival order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsTo returns the number of calls received for the given method
// of any service.
func (g *Gateway) CallsTo(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	ret := 0
	for _, c := range g.calls {
		if c.Method == method {
			ret++
		}
	}
	return ret
}

type request struct {
	CanisterID string `json:"canisterId"`
	MethodName string `json:"methodName"`
	Args       string `json:"args"`
	Budget     uint64 `json:"budget"`
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/json" {
		http.Error(w, fmt.Sprintf("unexpected content type %q", ct), http.StatusUnsupportedMediaType)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := idl.ParsePrincipal(req.CanisterID)
	if err != nil {
		reject(w, idl.RejectDestinationInvalid, err.Error())
		return
	}
	payload, err := hex.DecodeString(req.Args)
	if err != nil {
		reject(w, idl.RejectCanisterError, "args are not hex: "+err.Error())
		return
	}
	args, err := idl.Decode(payload)
	if err != nil {
		reject(w, idl.RejectCanisterError, err.Error())
		return
	}

	call := Call{
		Target:         target,
		Method:         req.MethodName,
		Args:           args,
		Budget:         req.Budget,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if g.log {
		g.t.Logf("idltest: call %s.%s%s", target, req.MethodName, idl.FormatArgs(args))
	}

	g.mu.Lock()
	g.calls = append(g.calls, call)
	svc := g.services[string(target)]
	g.mu.Unlock()

	if svc == nil {
		reject(w, idl.RejectDestinationInvalid, fmt.Sprintf("no service %s", target))
		return
	}

	var rets []idl.Value
	if req.MethodName == schemaMethod && svc.Schema != "" {
		rets = []idl.Value{idl.Text(svc.Schema)}
	} else {
		m := svc.Methods[req.MethodName]
		if m == nil {
			reject(w, idl.RejectCanisterError, fmt.Sprintf("service %s has no method %q", target, req.MethodName))
			return
		}
		rets, err = m(args)
		var rej idl.CallError
		if errors.As(err, &rej) {
			reject(w, rej.Code, rej.Message)
			return
		} else if err != nil {
			reject(w, idl.RejectCanisterError, err.Error())
			return
		}
	}

	reply, err := idl.Encode(rets)
	if err != nil {
		reject(w, idl.RejectCanisterError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(reply)
}

func reject(w http.ResponseWriter, code idl.RejectCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": msg,
	})
}
