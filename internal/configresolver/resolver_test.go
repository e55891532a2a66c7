package configresolver

import (
	"context"
	"strings"
	"testing"

	"github.com/switchplane/xmlcurld/internal/store"
)

type fakeGateways struct {
	gws []store.Gateway
	err error
}

func (f *fakeGateways) ListExternal(ctx context.Context) ([]store.Gateway, error) {
	return f.gws, f.err
}

func TestResolveUnrecognizedKeyReturnsNotFound(t *testing.T) {
	r := NewResolver(&fakeGateways{}, nil)

	got, err := r.Resolve(context.Background(), "something.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `name="configuration"`) || !strings.Contains(got, `status="not found"`) {
		t.Errorf("expected not-found document, got %s", got)
	}
}

func TestResolveRecognizedKeyEmitsBothProfiles(t *testing.T) {
	r := NewResolver(&fakeGateways{gws: []store.Gateway{
		{Name: "sw1", Realm: "sw1.example.com", Username: "u", Password: "p", Register: true, RegisterTransport: "udp", DTMFType: "rfc2833"},
	}}, nil)

	got, err := r.Resolve(context.Background(), "configuration.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `<profile name="internal">`) {
		t.Errorf("expected internal profile, got %s", got)
	}
	if !strings.Contains(got, `<profile name="external">`) {
		t.Errorf("expected external profile, got %s", got)
	}
	if !strings.Contains(got, `<gateway name="sw1">`) {
		t.Errorf("expected gateway sw1, got %s", got)
	}
}

func TestResolveEmptyGatewayPoolStillEmitsExternalProfile(t *testing.T) {
	r := NewResolver(&fakeGateways{}, nil)

	got, err := r.Resolve(context.Background(), "configuration.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `<profile name="external">`) {
		t.Errorf("expected external profile even with no gateways, got %s", got)
	}
	if !strings.Contains(got, `<gateways></gateways>`) {
		t.Errorf("expected empty gateways element, got %s", got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver(&fakeGateways{gws: []store.Gateway{{Name: "sw1"}}}, nil)

	first, err := r.Resolve(context.Background(), "configuration.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(context.Background(), "configuration.conf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected idempotent output, got %q then %q", first, second)
	}
}

func TestResolveStoreFailureReturnsError(t *testing.T) {
	r := NewResolver(&fakeGateways{err: context.DeadlineExceeded}, nil)

	_, err := r.Resolve(context.Background(), "configuration.conf")
	if err == nil {
		t.Fatal("expected an error from a store failure")
	}
}
