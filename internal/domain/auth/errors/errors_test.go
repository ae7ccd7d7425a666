package errors

import (
	"errors"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
	// WrapInternal flattens the cause so callers cannot mistake it for a client error.
	if IsInvalidArgument(wrapped) {
		t.Fatal("internal error must not unwrap to invalid argument")
	}
}

func TestNewDuplicate(t *testing.T) {
	err := NewDuplicate("email already registered")
	if !IsInvalidArgument(err) {
		t.Fatal("duplicate must be a validation error")
	}
	if !IsAlreadyExists(err) {
		t.Fatal("duplicate must keep already-exists")
	}
}

func TestWrapNetwork(t *testing.T) {
	err := WrapNetwork(errors.New("connection refused"), "POST /login")
	if !IsNetwork(err) {
		t.Fatal("expected network")
	}
	if IsInvalidCredentials(err) || IsInvalidToken(err) {
		t.Fatal("network error must not look like an auth failure")
	}
}

func TestClientMessage(t *testing.T) {
	if got := ClientMessage(NewDuplicate("email already registered")); got != "email already registered" {
		t.Fatalf("got %q", got)
	}
	if got := ClientMessage(NewInvalidArgument("email is required")); got != "email is required" {
		t.Fatalf("got %q", got)
	}
}
