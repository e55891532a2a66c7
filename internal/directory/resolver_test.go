package directory

import (
	"context"
	"strings"
	"testing"

	"github.com/switchplane/xmlcurld/internal/store"
)

type fakeTenants struct {
	byDomain map[string]*store.Tenant
	err      error
}

func (f *fakeTenants) GetByDomain(ctx context.Context, domain string) (*store.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDomain[domain], nil
}

func tenantA() *store.Tenant {
	return &store.Tenant{
		DomainName: "a.example",
		SipClients: []store.SipClient{
			{UserID: "1001", Password: "p", EnableVoicemail: true, VoicemailPIN: "4321", VoicemailEmail: "user1001@a.example"},
			{UserID: "1002", Password: "q"},
		},
		Groups: []store.Group{
			{Name: "sales", VoicemailBoxID: "500", VoicemailPIN: "9999"},
		},
		DIDs: []store.DID{
			{DIDNumber: "+15125551234", FailoverRoutingType: store.RoutingDialplanEntry, FailoverRoutingTarget: "voicemail_1001"},
		},
	}
}

func TestResolveSipClientMatch(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `value="p"`) {
		t.Errorf("expected password param, got %s", got)
	}
	if !strings.Contains(got, `value="4321"`) {
		t.Errorf("expected vm-password for voicemail-enabled client, got %s", got)
	}
	if !strings.Contains(got, `id="1001"`) {
		t.Errorf("expected user id 1001, got %s", got)
	}
}

func TestResolveSipClientWithoutVoicemailOmitsVMPassword(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "1002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "vm-password") {
		t.Errorf("expected no vm-password for a client without voicemail, got %s", got)
	}
}

func TestResolveGroupMailboxMatch(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `value="NO_SIP_AUTH"`) {
		t.Errorf("expected NO_SIP_AUTH password for group mailbox, got %s", got)
	}
	if !strings.Contains(got, `value="9999"`) {
		t.Errorf("expected group mailbox PIN, got %s", got)
	}
}

func TestResolveDIDFailoverMailboxMatchByDIDNumber(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "+15125551234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `id="1001"`) || !strings.Contains(got, `value="NO_SIP_AUTH"`) {
		t.Errorf("expected voicemail-only pseudo-user for mailbox 1001, got %s", got)
	}
}

func TestResolveSipClientPrecedesDIDFailoverMailbox(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1001 is also a SIP client user_id, so the SIP-client precedence
	// tier wins over the DID-failover tier.
	if !strings.Contains(got, `value="p"`) {
		t.Errorf("expected SIP client precedence to win, got %s", got)
	}
}

func TestResolveNoMatchReturnsEmptyDocument(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, nil)

	got, err := r.Resolve(context.Background(), "a.example", "9999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `<document type="freeswitch/xml"></document>` {
		t.Errorf("expected empty document, got %s", got)
	}
}

func TestResolveMissingTenantReturnsEmptyDocument(t *testing.T) {
	r := NewResolver(&fakeTenants{}, nil)

	got, err := r.Resolve(context.Background(), "nowhere.example", "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `<document type="freeswitch/xml"></document>` {
		t.Errorf("expected empty document for unknown tenant, got %s", got)
	}
}

func TestResolveStoreFailureReturnsError(t *testing.T) {
	r := NewResolver(&fakeTenants{err: context.DeadlineExceeded}, nil)

	_, err := r.Resolve(context.Background(), "a.example", "1001")
	if err == nil {
		t.Fatal("expected an error from a store failure")
	}
}
