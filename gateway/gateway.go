// Package gateway makes calls to remote Candid services.
//
// A [Gateway] moves encoded Candid payloads to a remote service and
// back. [HTTP] is a Gateway that forwards calls to an HTTP endpoint.
// [Client] builds on a Gateway to provide calls that take Candid
// values as arguments and return JSON results.
package gateway

import (
	"context"

	"github.com/danderson/idl"
)

// A Request is a single remote call.
type Request struct {
	// Target is the service to call.
	Target idl.Principal
	// Method is the name of the method to invoke.
	Method string
	// Payload is the Candid binary encoding of the call's arguments.
	Payload []byte
	// Budget is the amount of execution resources the caller is
	// willing to spend on the call. Zero means the gateway's
	// default.
	Budget uint64
}

// Gateway is a transport for remote calls.
type Gateway interface {
	// Call sends req to its target and returns the Candid binary
	// encoding of the reply.
	//
	// If the remote side rejects the call, Call returns an
	// [idl.CallError] describing the rejection.
	Call(ctx context.Context, req Request) ([]byte, error)
}
