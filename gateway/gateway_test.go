package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danderson/idl"
	"github.com/danderson/idl/idltest"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var counter = idl.Principal{0, 0, 0, 0, 0, 0, 0, 1, 1, 1}

const counterSchema = `
type Sum = record { sum : nat16; carry : bool };
service : {
  add : (nat8, nat8) -> (Sum) query;
  reset : () -> ();
}
`

func counterService() *idltest.Service {
	return &idltest.Service{
		Schema: counterSchema,
		Methods: map[string]idltest.Method{
			"add": func(args []idl.Value) ([]idl.Value, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("got %d args, want 2", len(args))
				}
				a, ok1 := args[0].(idl.Nat8)
				b, ok2 := args[1].(idl.Nat8)
				if !ok1 || !ok2 {
					return nil, fmt.Errorf("got args %s, %s, want nat8", idl.Format(args[0]), idl.Format(args[1]))
				}
				return []idl.Value{idl.Record{
					{Label: idl.NamedLabel("sum"), Value: idl.Nat16(a) + idl.Nat16(b)},
					{Label: idl.NamedLabel("carry"), Value: idl.Bool(false)},
				}}, nil
			},
			"reset": func(args []idl.Value) ([]idl.Value, error) {
				return nil, nil
			},
			"fail": func(args []idl.Value) ([]idl.Value, error) {
				return nil, idl.CallError{Code: idl.RejectCanisterReject, Message: "not today"}
			},
			"echo": func(args []idl.Value) ([]idl.Value, error) {
				return args, nil
			},
		},
	}
}

func newClient(t *testing.T, fetch bool) (*Client, *idltest.Gateway) {
	g := idltest.New(t, false)
	g.Register(counter, counterService())
	c := &Client{
		Gateway:     &HTTP{URL: g.URL(), Client: g.Client()},
		Logger:      zaptest.NewLogger(t),
		FetchSchema: fetch,
		Budget:      1000,
	}
	return c, g
}

func TestClientCallTyped(t *testing.T) {
	c, g := newClient(t, true)
	got, err := c.Call(context.Background(), counter, "add", []idl.Value{idl.Number("2"), idl.Number("3")})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	want := []any{idl.Object{{Key: "sum", Value: int64(5)}, {Key: "carry", Value: false}}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong result (-got+want):\n%s", diff)
	}

	calls := g.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want schema fetch and add", len(calls))
	}
	if calls[0].Method != SchemaMethod {
		t.Errorf("first call is %q, want %q", calls[0].Method, SchemaMethod)
	}
	if calls[1].Budget != 1000 {
		t.Errorf("call budget = %d, want 1000", calls[1].Budget)
	}
	if calls[1].IdempotencyKey == "" || calls[0].IdempotencyKey == calls[1].IdempotencyKey {
		t.Errorf("bad idempotency keys %q, %q", calls[0].IdempotencyKey, calls[1].IdempotencyKey)
	}
}

func TestClientCallUntyped(t *testing.T) {
	c, g := newClient(t, false)
	args := []idl.Value{idl.Nat64(7), idl.Blob([]byte{1, 2})}
	got, err := c.Call(context.Background(), counter, "echo", args)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	want := []any{"7", []any{int64(1), int64(2)}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong result (-got+want):\n%s", diff)
	}
	if n := g.CallsTo(SchemaMethod); n != 0 {
		t.Errorf("schema fetched %d times, want 0", n)
	}
}

func TestClientZeroArity(t *testing.T) {
	c, g := newClient(t, false)
	got, err := c.Call(context.Background(), counter, "reset", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if diff := cmp.Diff(got, []any{}); diff != "" {
		t.Errorf("wrong result (-got+want):\n%s", diff)
	}
	if n := g.CallsTo("reset"); n != 1 {
		t.Errorf("reset called %d times, want 1", n)
	}

	c.EmptyArgs = idl.EmptyIsError
	_, err = c.Call(context.Background(), counter, "reset", nil)
	if !errors.Is(err, idl.ErrEmptyArguments) {
		t.Errorf("Call with no args under EmptyIsError = %v, want ErrEmptyArguments", err)
	}
	if n := g.CallsTo("reset"); n != 1 {
		t.Errorf("rejected call was sent, reset called %d times", n)
	}
}

func TestClientArity(t *testing.T) {
	c, g := newClient(t, false)
	args := make([]idl.Value, idl.MaxArity+1)
	for i := range args {
		args[i] = idl.Nat8(i)
	}
	_, err := c.Call(context.Background(), counter, "echo", args)
	if err == nil {
		t.Fatal("Call with too many args succeeded")
	}
	if !strings.Contains(err.Error(), "unsupported request shape") {
		t.Errorf("error %q does not mention unsupported request shape", err)
	}
	var ae idl.ArityError
	if !errors.As(err, &ae) {
		t.Fatalf("error %v is not an ArityError", err)
	}
	if ae.Len != idl.MaxArity+1 || !errors.Is(err, idl.ErrTooManyArguments) {
		t.Errorf("wrong ArityError %#v", ae)
	}
	if n := len(g.Calls()); n != 0 {
		t.Errorf("gateway received %d calls, want 0", n)
	}

	got, err := c.Call(context.Background(), counter, "echo", args[:idl.MaxArity])
	if err != nil {
		t.Fatalf("Call with %d args failed: %v", idl.MaxArity, err)
	}
	if len(got) != idl.MaxArity {
		t.Errorf("got %d results, want %d", len(got), idl.MaxArity)
	}
}

func TestClientRejection(t *testing.T) {
	c, _ := newClient(t, true)
	_, err := c.Call(context.Background(), counter, "fail", nil)
	var got idl.CallError
	if !errors.As(err, &got) {
		t.Fatalf("Call error %v is not a CallError", err)
	}
	want := idl.CallError{Code: idl.RejectCanisterReject, Message: "not today"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong rejection (-got+want):\n%s", diff)
	}

	other := idl.Principal{0, 0, 0, 0, 0, 0, 0, 2, 1, 1}
	_, err = c.Call(context.Background(), other, "add", nil)
	if !errors.As(err, &got) || got.Code != idl.RejectDestinationInvalid {
		t.Errorf("call to unknown service = %v, want DestinationInvalid rejection", err)
	}
}

func TestClientSchemaFetchedOnce(t *testing.T) {
	c, g := newClient(t, true)
	var eg errgroup.Group
	for i := range 20 {
		eg.Go(func() error {
			args := []idl.Value{idl.Number(fmt.Sprint(i)), idl.Number("1")}
			got, err := c.Call(context.Background(), counter, "add", args)
			if err != nil {
				return err
			}
			want := []any{idl.Object{{Key: "sum", Value: int64(i + 1)}, {Key: "carry", Value: false}}}
			if diff := cmp.Diff(got, want); diff != "" {
				return fmt.Errorf("wrong result for %d (-got+want):\n%s", i, diff)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if n := g.CallsTo(SchemaMethod); n != 1 {
		t.Errorf("schema fetched %d times, want 1", n)
	}
	if n := g.CallsTo("add"); n != 20 {
		t.Errorf("add called %d times, want 20", n)
	}
}

func TestClientSchemaUnavailable(t *testing.T) {
	g := idltest.New(t, false)
	svc := counterService()
	svc.Schema = ""
	g.Register(counter, svc)
	c := &Client{
		Gateway:     &HTTP{URL: g.URL(), Client: g.Client()},
		FetchSchema: true,
	}

	for range 2 {
		got, err := c.Call(context.Background(), counter, "echo", []idl.Value{idl.Number("5")})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if diff := cmp.Diff(got, []any{"5"}); diff != "" {
			t.Errorf("wrong result (-got+want):\n%s", diff)
		}
	}
	if n := g.CallsTo(SchemaMethod); n != 1 {
		t.Errorf("rejected schema fetched %d times, want 1", n)
	}
}

func TestHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusBadGateway)
	}))
	defer srv.Close()

	h := &HTTP{URL: srv.URL, Client: srv.Client()}
	_, err := h.Call(context.Background(), Request{Target: counter, Method: "add"})
	if err == nil {
		t.Fatal("Call to broken gateway succeeded")
	}
	var rej idl.CallError
	if errors.As(err, &rej) {
		t.Errorf("transport failure reported as rejection %v", rej)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Call(ctx, Request{Target: counter, Method: "add"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Call with canceled context = %v, want context.Canceled", err)
	}

	if _, err := (&HTTP{}).Call(context.Background(), Request{}); err == nil {
		t.Error("Call without URL succeeded")
	}
}

// blockingGateway serves schema fetches, holding each one until
// release is closed.
type blockingGateway struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *blockingGateway) Call(ctx context.Context, req Request) ([]byte, error) {
	if req.Method != SchemaMethod {
		return nil, fmt.Errorf("unexpected call to %q", req.Method)
	}
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return idl.Encode([]idl.Value{idl.Text(counterSchema)})
}

func TestClientSchemaCallerCancel(t *testing.T) {
	g := &blockingGateway{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := &Client{Gateway: g, Logger: zaptest.NewLogger(t)}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.Schema(ctxA, counter)
		errA <- err
	}()
	<-g.started

	type result struct {
		doc *idl.Document
		err error
	}
	resB := make(chan result, 1)
	go func() {
		doc, err := c.Schema(context.Background(), counter)
		resB <- result{doc, err}
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller got %v, want context.Canceled", err)
	}

	close(g.release)
	b := <-resB
	if b.err != nil {
		t.Fatalf("other caller failed after first caller canceled: %v", b.err)
	}
	if _, ok := (idl.Schema{b.doc}).Method("add"); !ok {
		t.Errorf("fetched schema has no add method:\n%s", b.doc)
	}
	if n := g.calls.Load(); n != 1 {
		t.Errorf("schema fetched %d times, want 1", n)
	}
}

func TestClientSchemaTimeout(t *testing.T) {
	g := &blockingGateway{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	defer close(g.release)
	c := &Client{Gateway: g, SchemaTimeout: 10 * time.Millisecond}
	if _, err := c.Schema(context.Background(), counter); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Schema with stuck gateway = %v, want context.DeadlineExceeded", err)
	}
}

func TestClientSchemaTransientRejection(t *testing.T) {
	g := idltest.New(t, false)
	fetches := 0
	g.Register(counter, &idltest.Service{
		Methods: map[string]idltest.Method{
			SchemaMethod: func(args []idl.Value) ([]idl.Value, error) {
				fetches++
				if fetches == 1 {
					return nil, idl.CallError{Code: idl.RejectSysTransient, Message: "busy"}
				}
				return []idl.Value{idl.Text(counterSchema)}, nil
			},
		},
	})
	c := &Client{Gateway: &HTTP{URL: g.URL(), Client: g.Client()}}

	_, err := c.Schema(context.Background(), counter)
	var rej idl.CallError
	if !errors.As(err, &rej) || rej.Code != idl.RejectSysTransient {
		t.Fatalf("first Schema = %v, want SysTransient rejection", err)
	}
	doc, err := c.Schema(context.Background(), counter)
	if err != nil {
		t.Fatalf("Schema after transient rejection failed: %v", err)
	}
	if _, ok := (idl.Schema{doc}).Method("add"); !ok {
		t.Errorf("fetched schema has no add method:\n%s", doc)
	}
	if _, err := c.Schema(context.Background(), counter); err != nil {
		t.Fatalf("cached Schema failed: %v", err)
	}
	if n := g.CallsTo(SchemaMethod); n != 2 {
		t.Errorf("schema fetched %d times, want 2", n)
	}
}
