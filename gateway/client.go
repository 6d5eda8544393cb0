package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danderson/idl"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SchemaMethod is the method services answer with their schema
// document, as Candid text.
const SchemaMethod = "__get_candid_interface_tmp_hack"

// DefaultSchemaTimeout is the default bound on a schema fetch.
const DefaultSchemaTimeout = 30 * time.Second

// Client makes remote calls with Candid values as arguments, and
// returns the results as JSON.
//
// A Client is safe for concurrent use, as long as its fields are not
// modified after the first call.
type Client struct {
	// Gateway carries the calls.
	Gateway Gateway
	// Logger, if non-nil, receives debug logs for each call and
	// warnings for rejections.
	Logger *zap.Logger
	// Options configures the conversion of results to JSON. Its
	// Schema is consulted after any schema fetched from the target.
	Options *idl.Options
	// EmptyArgs is the policy for calls with no arguments.
	EmptyArgs idl.EmptyArgs
	// Budget is passed through to each [Request].
	Budget uint64
	// FetchSchema, if true, asks each target for its schema document
	// before the first call to it, and uses the document to type
	// arguments and results.
	FetchSchema bool
	// SchemaTimeout bounds each schema fetch. If zero,
	// DefaultSchemaTimeout is used.
	SchemaTimeout time.Duration

	schemas sync.Map // string(idl.Principal) -> *idl.Document
	fetches singleflight.Group
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Call invokes method on target with the given arguments, and returns
// the reply values as a JSON array.
//
// Untyped numbers in args are given the numeric types the target's
// schema declares for the method's arguments, if a schema is
// available. Argument lists that cannot be shaped into an
// [idl.Tuple] are rejected before anything is sent.
func (c *Client) Call(ctx context.Context, target idl.Principal, method string, args []idl.Value) ([]any, error) {
	log := c.logger().With(zap.Stringer("target", target), zap.String("method", method))

	opts := c.options(ctx, target)
	ft, typed := opts.Schema.Method(method)
	if typed {
		args = annotateArgs(args, ft.Args, opts.Schema)
	}

	tup, err := idl.ToTuple(args, c.EmptyArgs)
	if err != nil {
		return nil, fmt.Errorf("unsupported request shape: %w", err)
	}
	payload, err := idl.EncodeTuple(tup)
	if err != nil {
		return nil, fmt.Errorf("encoding arguments to %s: %w", method, err)
	}

	log.Debug("dispatching call", zap.Int("args", tup.Len()), zap.Int("payload_bytes", len(payload)))
	reply, err := c.Gateway.Call(ctx, Request{
		Target:  target,
		Method:  method,
		Payload: payload,
		Budget:  c.Budget,
	})
	if err != nil {
		var rej idl.CallError
		if errors.As(err, &rej) {
			log.Warn("call rejected", zap.Stringer("code", rej.Code), zap.String("message", rej.Message))
		} else {
			log.Warn("call failed", zap.Error(err))
		}
		return nil, err
	}

	vals, err := idl.Decode(reply)
	if err != nil {
		return nil, fmt.Errorf("decoding reply from %s: %w", method, err)
	}
	log.Debug("call complete", zap.Int("results", len(vals)))
	if typed {
		return idl.ArgsToJSONWithTypes(vals, ft.Rets, opts), nil
	}
	return idl.ArgsToJSON(vals, opts), nil
}

// options returns the conversion options for calls to target, with
// target's schema document first in the schema list if one is
// available.
func (c *Client) options(ctx context.Context, target idl.Principal) *idl.Options {
	var ret idl.Options
	if c.Options != nil {
		ret = *c.Options
	}
	if !c.FetchSchema {
		return &ret
	}
	doc, err := c.Schema(ctx, target)
	if err != nil {
		c.logger().Warn("schema unavailable, results will be untyped",
			zap.Stringer("target", target), zap.Error(err))
		return &ret
	}
	ret.Schema = append(idl.Schema{doc}, ret.Schema...)
	return &ret
}

// Schema returns the schema document of target, fetching it on first
// use.
//
// Concurrent calls for the same target share a single fetch, which is
// bounded by SchemaTimeout rather than by any one caller's context.
// If ctx is done first, Schema returns ctx's error and leaves the
// fetch running for the other callers. Successful fetches and
// rejections are remembered, except for transient rejections. Other
// failures are retried on the next call.
func (c *Client) Schema(ctx context.Context, target idl.Principal) (*idl.Document, error) {
	key := string(target)
	if v, ok := c.schemas.Load(key); ok {
		return cachedSchema(v)
	}
	ch := c.fetches.DoChan(key, func() (any, error) {
		if v, ok := c.schemas.Load(key); ok {
			return v, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.schemaTimeout())
		defer cancel()
		doc, err := c.fetchSchema(fetchCtx, target)
		var rej idl.CallError
		switch {
		case err == nil:
			c.schemas.Store(key, doc)
			return doc, nil
		case errors.As(err, &rej) && rej.Code != idl.RejectSysTransient:
			c.schemas.Store(key, rej)
			return rej, nil
		default:
			return nil, err
		}
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cachedSchema(res.Val)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) schemaTimeout() time.Duration {
	if c.SchemaTimeout <= 0 {
		return DefaultSchemaTimeout
	}
	return c.SchemaTimeout
}

func cachedSchema(v any) (*idl.Document, error) {
	switch v := v.(type) {
	case *idl.Document:
		return v, nil
	case error:
		return nil, v
	}
	panic(fmt.Sprintf("unexpected schema cache entry %T", v))
}

func (c *Client) fetchSchema(ctx context.Context, target idl.Principal) (*idl.Document, error) {
	payload, err := idl.EncodeTuple(idl.Tuple0[idl.Value]{})
	if err != nil {
		return nil, err
	}
	c.logger().Debug("fetching schema", zap.Stringer("target", target))
	reply, err := c.Gateway.Call(ctx, Request{
		Target:  target,
		Method:  SchemaMethod,
		Payload: payload,
		Budget:  c.Budget,
	})
	if err != nil {
		return nil, err
	}
	vals, err := idl.Decode(reply)
	if err != nil {
		return nil, fmt.Errorf("decoding schema of %s: %w", target, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("schema reply from %s has %d values, want 1", target, len(vals))
	}
	text, ok := vals[0].(idl.Text)
	if !ok {
		return nil, fmt.Errorf("schema reply from %s is %s, want text", target, idl.Format(vals[0]))
	}
	doc, err := idl.ParseDocument(string(text))
	if err != nil {
		return nil, fmt.Errorf("parsing schema of %s: %w", target, err)
	}
	return doc, nil
}

func annotateArgs(args []idl.Value, types []idl.Type, s idl.Schema) []idl.Value {
	ret := make([]idl.Value, len(args))
	for i, a := range args {
		if i < len(types) {
			ret[i] = idl.Annotate(a, types[i], s)
		} else {
			ret[i] = a
		}
	}
	return ret
}
