package dialplan

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/switchplane/xmlcurld/internal/cnam"
	"github.com/switchplane/xmlcurld/internal/store"
	"github.com/switchplane/xmlcurld/internal/xmlgen"
)

// fakeTenants is a hand-written TenantReader fake (no mocking framework).
type fakeTenants struct {
	byDomain map[string]*store.Tenant
	byDID    map[string]*store.Tenant
	err      error
}

func (f *fakeTenants) GetByDomain(ctx context.Context, domain string) (*store.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDomain[domain], nil
}

func (f *fakeTenants) GetByActiveDID(ctx context.Context, did string) (*store.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDID[did], nil
}

func (f *fakeTenants) FindSipClient(ctx context.Context, domain, userID string) (*store.SipClient, error) {
	t := f.byDomain[domain]
	if t == nil {
		return nil, nil
	}
	for _, c := range t.SipClients {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, nil
}

type fakeGateways struct {
	gws []store.Gateway
	err error
}

func (f *fakeGateways) ListExternal(ctx context.Context) ([]store.Gateway, error) {
	return f.gws, f.err
}

type fakeCNAM struct {
	rec *cnam.Record
	err error
}

func (f *fakeCNAM) Lookup(ctx context.Context, number string) (*cnam.Record, error) {
	return f.rec, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func tenantA() *store.Tenant {
	return &store.Tenant{
		DomainName: "a.example",
		SipClients: []store.SipClient{
			{UserID: "1001", Password: "p", NoAnswerTimeout: 25},
			{UserID: "1002", Password: "p", NoAnswerTimeout: 30},
		},
		Groups: []store.Group{
			{
				Name: "sales", Type: store.GroupTypeHunt, Strategy: store.StrategySequential, Timeout: 20,
				Members: []store.GroupMember{{UserID: "1001"}, {UserID: "1002"}},
			},
		},
	}
}

func TestScenario1LocalExtensionDial(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{
		"section":                     "dialplan",
		"Caller-Context":              "default",
		"Caller-Destination-Number":   "1001",
		"domain":                      "a.example",
	}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, `name="default"`) {
		t.Errorf("expected context default, got %s", got)
	}
	if strings.Count(got, "<extension") != 1 {
		t.Errorf("expected exactly one extension, got %s", got)
	}
	if !strings.Contains(got, "call_timeout=25") {
		t.Errorf("expected call_timeout=25, got %s", got)
	}
	if !strings.Contains(got, "bridge") || !strings.Contains(got, "user/1001@a.example") {
		t.Errorf("expected bridge to user/1001@a.example, got %s", got)
	}
	if !strings.Contains(got, "hangup") {
		t.Errorf("expected program to end in a voicemail-or-announce block, got %s", got)
	}
}

func TestScenario2GroupHunt(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{
		"Caller-Context":            "default",
		"Caller-Destination-Number": "sales",
		"domain":                    "a.example",
	}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, `data="timeout=20,user/1001@a.example|user/1002@a.example"`) {
		t.Errorf("expected hunt group bridge data, got %s", got)
	}
}

func TestScenario3InboundDIDWithVoicemailFailover(t *testing.T) {
	tenant := tenantA()
	tenant.DIDs = []store.DID{
		{
			DIDNumber: "+15125551234", Active: true,
			RoutingType: store.RoutingExtension, RoutingTarget: "1001",
			FailoverRoutingType: store.RoutingDialplanEntry, FailoverRoutingTarget: "voicemail_1001",
		},
	}
	r := NewResolver(
		&fakeTenants{byDID: map[string]*store.Tenant{"+15125551234": tenant}},
		&fakeGateways{},
		&fakeCNAM{rec: &cnam.Record{NationalNumberFormatted: "(512) 555-0000", CallerID: "JOHN DOE", Location: "Austin, TX"}},
		"external", testLogger(),
	)

	vars := CallVariables{
		"Caller-Context":            "public",
		"variable_sip_to_user":      "5125551234",
		"Caller-Caller-ID-Number":   "+15125550000",
		"Caller-Caller-ID-Name":     "ORIGINAL NAME",
	}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, `name="default"`) {
		t.Errorf("expected emitted context default, got %s", got)
	}
	if !strings.Contains(got, "caller_id_name=") || !strings.Contains(got, "caller_id_number=") {
		t.Errorf("expected caller-id name/number set, got %s", got)
	}
	if !strings.Contains(got, "user/1001@a.example") {
		t.Errorf("expected bridge to user/1001@a.example, got %s", got)
	}
	if !strings.Contains(got, "voicemail") || !strings.Contains(got, "default a.example 1001") {
		t.Errorf("expected voicemail failover to box 1001, got %s", got)
	}
}

func TestScenario4OutboundPSTN(t *testing.T) {
	r := NewResolver(
		&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}},
		&fakeGateways{gws: []store.Gateway{{Name: "sw1"}}},
		nil, "external", testLogger(),
	)

	vars := CallVariables{
		"Caller-Context":            "default",
		"Caller-Destination-Number": "+15125559999",
		"domain":                    "a.example",
	}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, `data="sofia/gateway/external/+15125559999"`) {
		t.Errorf("expected outbound bridge target, got %s", got)
	}
}

func TestScenario5InterDomainRejection(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{
		"Caller-Context":            "default",
		"Caller-Destination-Number": "1001",
		"domain":                    "a.example",
		"Caller-Channel-Name":       "sofia/internal/1001@b.example",
	}
	got := r.Resolve(context.Background(), vars)

	if strings.Count(got, "<action") != 1 {
		t.Errorf("expected exactly one action, got %s", got)
	}
	if !strings.Contains(got, `application="hangup" data="CALL_REJECTED"`) {
		t.Errorf("expected hangup CALL_REJECTED, got %s", got)
	}
}

func TestVoicemailRetrievalCode(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{
		"Caller-Context":            "default",
		"Caller-Destination-Number": "*98",
		"domain":                    "a.example",
	}
	got := r.Resolve(context.Background(), vars)

	idxAnswer := strings.Index(got, `application="answer"`)
	idxSleep := strings.Index(got, `application="sleep"`)
	idxVM := strings.Index(got, `application="voicemail" data="check default a.example"`)
	idxHangup := strings.Index(got, `application="hangup"`)
	if idxAnswer < 0 || idxSleep < 0 || idxVM < 0 || idxHangup < 0 {
		t.Fatalf("expected answer/sleep/voicemail-check/hangup, got %s", got)
	}
	if !(idxAnswer < idxSleep && idxSleep < idxVM && idxVM < idxHangup) {
		t.Errorf("expected actions in order, got %s", got)
	}
}

func TestUnrecognizedContextFallsBack(t *testing.T) {
	r := NewResolver(&fakeTenants{}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "weird", "Caller-Destination-Number": "1001"}
	got := r.Resolve(context.Background(), vars)

	if strings.Count(got, "<extension") != 1 {
		t.Errorf("expected exactly one extension for an unrecognized context, got %s", got)
	}
}

func TestStoreFailureEmitsErrorProgram(t *testing.T) {
	r := NewResolver(&fakeTenants{err: context.DeadlineExceeded}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "default", "Caller-Destination-Number": "1001", "domain": "a.example"}
	got := r.Resolve(context.Background(), vars)

	if got != xmlgen.EmitError() {
		t.Errorf("expected standard error program on store failure, got %s", got)
	}
}

func TestDIDWithMissingTargetFallsBack(t *testing.T) {
	tenant := tenantA()
	tenant.DIDs = []store.DID{
		{DIDNumber: "+15125551234", Active: true, RoutingType: store.RoutingExtension, RoutingTarget: "9999"},
	}
	r := NewResolver(&fakeTenants{byDID: map[string]*store.Tenant{"+15125551234": tenant}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "public", "variable_sip_to_user": "5125551234"}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, "ivr-call_cannot_be_completed_as_dialed") {
		t.Errorf("expected fallback announce for missing DID target, got %s", got)
	}
}

func TestEmptyGatewayPoolFallsThroughToExternalDialOut(t *testing.T) {
	// With no registered gateways, the outbound-PSTN match (which runs
	// before local dispatch) declines, but a 10+-digit destination still
	// satisfies the step-5 "external dial-out" catchall, which builds the
	// gateway URI optimistically without consulting the gateway pool.
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "default", "Caller-Destination-Number": "+15125559999", "domain": "a.example"}
	got := r.Resolve(context.Background(), vars)

	if !strings.Contains(got, `data="sofia/gateway/external/+15125559999"`) {
		t.Errorf("expected external dial-out bridge via step 5, got %s", got)
	}
}

func TestDestinationWithRegexSpecialCharsIsEscaped(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "default", "Caller-Destination-Number": "1.2+3", "domain": "a.example"}
	got := r.Resolve(context.Background(), vars)

	if !strings.HasPrefix(extractExpression(got), "^") || !strings.HasSuffix(extractExpression(got), "$") {
		t.Errorf("expected anchored expression, got %s", got)
	}
	if want := `^1\.2\+3$`; extractExpression(got) != want {
		t.Errorf("expected regex metacharacters escaped as %s, got %s", want, extractExpression(got))
	}
}

func TestDestinationWithXMLSpecialCharsIsEscaped(t *testing.T) {
	r := NewResolver(&fakeTenants{byDomain: map[string]*store.Tenant{"a.example": tenantA()}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{"Caller-Context": "default", "Caller-Destination-Number": `1"><evil>`, "domain": "a.example"}
	got := r.Resolve(context.Background(), vars)

	if strings.Contains(got, `1"><evil>`) {
		t.Fatalf("raw XML-special characters leaked into the document: %s", got)
	}
	if !strings.Contains(extractExpression(got), "&quot;&gt;&lt;evil&gt;") {
		t.Errorf("expected XML-escaped expression, got %s", extractExpression(got))
	}
	if strings.Count(got, "<extension") != 1 || strings.Count(got, "<condition") != 1 {
		t.Errorf("expected a single well-formed extension, got %s", got)
	}
}

func TestInboundCallerIDWithXMLSpecialCharsIsEscaped(t *testing.T) {
	tenant := tenantA()
	tenant.DIDs = []store.DID{
		{
			DIDNumber: "+15125551234", Active: true,
			RoutingType: store.RoutingExtension, RoutingTarget: "1001",
		},
	}
	r := NewResolver(&fakeTenants{byDID: map[string]*store.Tenant{"+15125551234": tenant}}, &fakeGateways{}, nil, "external", testLogger())

	vars := CallVariables{
		"Caller-Context":          "public",
		"variable_sip_to_user":    "5125551234",
		"Caller-Caller-ID-Number": "+15125550000",
		"Caller-Caller-ID-Name":   `Evil" onbreak<injected`,
	}
	got := r.Resolve(context.Background(), vars)

	if strings.Contains(got, `Evil" onbreak<injected`) {
		t.Fatalf("raw XML-special characters leaked into the document: %s", got)
	}
	if !strings.Contains(got, "caller_id_name=Evil&quot; onbreak&lt;injected") {
		t.Errorf("expected escaped caller_id_name, got %s", got)
	}
}

func extractExpression(xml string) string {
	const key = `expression="`
	idx := strings.Index(xml, key)
	if idx == -1 {
		return ""
	}
	rest := xml[idx+len(key):]
	end := strings.Index(rest, `">`)
	if end == -1 {
		return ""
	}
	return rest[:end]
}
