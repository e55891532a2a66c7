package dialplan

import (
	"context"

	"github.com/switchplane/xmlcurld/internal/cnam"
	"github.com/switchplane/xmlcurld/internal/store"
)

// TenantReader is the narrow read surface the resolver needs from the
// tenant store. Kept separate from store.TenantRepository so the
// resolver can be unit-tested against a hand-written fake without
// pulling in the write-path methods it never calls: the dialplan path
// is read-only.
type TenantReader interface {
	GetByDomain(ctx context.Context, domain string) (*store.Tenant, error)
	GetByActiveDID(ctx context.Context, didNumber string) (*store.Tenant, error)
	FindSipClient(ctx context.Context, domain, userID string) (*store.SipClient, error)
}

// GatewayReader is the narrow read surface over the global gateway pool.
type GatewayReader interface {
	ListExternal(ctx context.Context) ([]store.Gateway, error)
}

// CNAMLookup is the narrow surface over the CNAM enrichment client.
type CNAMLookup interface {
	Lookup(ctx context.Context, number string) (*cnam.Record, error)
}

const voicemailRetrievalCode = "*98"

// outboundContext is the fixed context name every emitted extension
// declares. The dialplan contract only ever produces a single context
// per response; the
// public-context handler transfers by emitting this context's output
// directly rather than a separate one.
const outboundContext = "default"
