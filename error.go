package idl

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrTooManyArguments is the reason for an [ArityError] when an
	// argument list is longer than [MaxArity].
	ErrTooManyArguments = errors.New("too many arguments")
	// ErrEmptyArguments is the reason for an [ArityError] when an
	// argument list is empty and the policy is [EmptyIsError].
	ErrEmptyArguments = errors.New("empty argument list")
)

// ArityError is the error returned when an argument list cannot be
// shaped into a [Tuple].
type ArityError struct {
	// Len is the length of the rejected argument list.
	Len int
	// Reason is ErrTooManyArguments or ErrEmptyArguments.
	Reason error
}

func (e ArityError) Error() string {
	return fmt.Sprintf("cannot build tuple of %d values: %s", e.Len, e.Reason)
}

func (e ArityError) Unwrap() error {
	return e.Reason
}

// TypeError is the error returned when a value cannot be represented
// in the Candid wire format.
type TypeError struct {
	// Value is the Candid text of the value that caused the error.
	Value string
	// Reason is an explanation of why the value isn't representable.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("cannot encode %s: %s", e.Value, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(v Value, reason string, args ...any) error {
	return TypeError{Format(v), fmt.Errorf(reason, args...)}
}

// DecodeError is the error returned when a Candid message is
// malformed.
type DecodeError struct {
	// Offset is the byte offset in the input at which decoding
	// failed.
	Offset int
	// Reason is the underlying decoding failure.
	Reason error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("decoding failed at offset %d: %s", e.Offset, e.Reason)
}

func (e DecodeError) Unwrap() error {
	return e.Reason
}

// ParseError is the error returned when Candid text cannot be parsed.
type ParseError struct {
	// Pos is the byte offset in the input at which parsing failed.
	Pos int
	// Reason is the underlying parse failure.
	Reason error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Reason)
}

func (e ParseError) Unwrap() error {
	return e.Reason
}

// RejectCode classifies the rejection of a remote call.
type RejectCode int

const (
	RejectSysFatal RejectCode = iota + 1
	RejectSysTransient
	RejectDestinationInvalid
	RejectCanisterReject
	RejectCanisterError
)

var rejectCodeNames = map[RejectCode]string{
	RejectSysFatal:           "SysFatal",
	RejectSysTransient:       "SysTransient",
	RejectDestinationInvalid: "DestinationInvalid",
	RejectCanisterReject:     "CanisterReject",
	RejectCanisterError:      "CanisterError",
}

func (c RejectCode) String() string {
	if s, ok := rejectCodeNames[c]; ok {
		return s
	}
	return "RejectCode(" + strconv.Itoa(int(c)) + ")"
}

// CallError is the error returned from rejected remote calls. Its
// contents are provided by the remote side and are not interpreted.
type CallError struct {
	// Code is the rejection code provided by the remote side.
	Code RejectCode
	// Message is the human-readable explanation of what went wrong.
	Message string
}

func (e CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("call rejected: %s", e.Code)
	}
	return fmt.Sprintf("call rejected: %s: %s", e.Code, e.Message)
}
