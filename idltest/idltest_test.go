package idltest_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/danderson/idl"
	"github.com/danderson/idl/idltest"
	"github.com/google/go-cmp/cmp"
)

func TestGateway(t *testing.T) {
	g := idltest.New(t, true)
	target := idl.Principal{0, 0, 0, 0, 0, 0, 0, 1, 1, 1}
	g.Register(target, &idltest.Service{
		Methods: map[string]idltest.Method{
			"echo": func(args []idl.Value) ([]idl.Value, error) {
				return args, nil
			},
		},
	})

	payload, err := idl.Encode([]idl.Value{idl.Text("hi")})
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(map[string]any{
		"canisterId": target.String(),
		"methodName": "echo",
		"args":       hex.EncodeToString(payload),
		"budget":     42,
	})
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest("POST", g.URL(), bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-1")
	resp, err := g.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %s, want 200", resp.Status)
	}
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reply, payload) {
		t.Errorf("reply = %x, want %x", reply, payload)
	}

	want := []idltest.Call{{
		Target:         target,
		Method:         "echo",
		Args:           []idl.Value{idl.Text("hi")},
		Budget:         42,
		IdempotencyKey: "key-1",
	}}
	if diff := cmp.Diff(g.Calls(), want); diff != "" {
		t.Errorf("wrong calls recorded (-got+want):\n%s", diff)
	}
}
