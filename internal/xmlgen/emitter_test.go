package xmlgen

import (
	"strings"
	"testing"
)

func TestEmitDialplanEscapesIdentifiersNotExpression(t *testing.T) {
	p := Program{
		Name:                `foo"bar`,
		ConditionField:      "destination_number",
		ConditionExpression: `^1001$`,
		Actions: []Action{
			{Application: "bridge", Data: "user/1001@a.example"},
		},
	}
	got := EmitDialplan("default", p)

	if !strings.Contains(got, `name="foo&quot;bar"`) {
		t.Errorf("expected identifier escaping in output, got %s", got)
	}
	if !strings.Contains(got, `expression="^1001$"`) {
		t.Errorf("expected expression passed through verbatim, got %s", got)
	}
	if strings.Count(got, "<extension") != 1 {
		t.Errorf("expected exactly one <extension>, got %d", strings.Count(got, "<extension"))
	}
	if strings.Count(got, "<context") != 1 {
		t.Errorf("expected exactly one <context>, got %d", strings.Count(got, "<context"))
	}
}

func TestEmitDialplanPreservesActionOrder(t *testing.T) {
	p := Program{
		Name:                "voicemail-check",
		ConditionField:      "destination_number",
		ConditionExpression: "^\\*98$",
		Actions: []Action{
			{Application: "answer"},
			{Application: "sleep", Data: "1000"},
			{Application: "voicemail", Data: "check default a.example"},
			{Application: "hangup"},
		},
	}
	got := EmitDialplan("default", p)

	idxAnswer := strings.Index(got, `application="answer"`)
	idxSleep := strings.Index(got, `application="sleep"`)
	idxVM := strings.Index(got, `application="voicemail"`)
	idxHangup := strings.Index(got, `application="hangup"`)

	if !(idxAnswer < idxSleep && idxSleep < idxVM && idxVM < idxHangup) {
		t.Errorf("actions out of order in output: %s", got)
	}
}

func TestEmitDialplanMalformedProgramYieldsError(t *testing.T) {
	got := EmitDialplan("default", Program{})
	want := EmitError()
	if got != want {
		t.Errorf("expected malformed program to render the error program")
	}
}

func TestEmitDirectoryEmptyDomainIsEmptyDocument(t *testing.T) {
	got := EmitDirectory(DirectoryDoc{})
	if strings.Contains(got, "<user") {
		t.Errorf("expected no <user> element for empty DirectoryDoc, got %s", got)
	}
}

func TestEmitDirectoryRendersUser(t *testing.T) {
	d := DirectoryDoc{
		DomainName: "a.example",
		User: DirectoryUser{
			ID:     "1001",
			Params: []KV{{Name: "password", Value: "p"}},
		},
	}
	got := EmitDirectory(d)
	if !strings.Contains(got, `<user id="1001">`) {
		t.Errorf("expected user id 1001, got %s", got)
	}
	if !strings.Contains(got, `name="password" value="p"`) {
		t.Errorf("expected password param, got %s", got)
	}
}

func TestEmitConfigurationIsIdempotent(t *testing.T) {
	d := ConfigDoc{
		ExternalProfileName: "external",
		Gateways: []SIPGateway{
			{Name: "sw1", Realm: "sw1.example.com", Register: true},
		},
	}
	first := EmitConfiguration(d)
	second := EmitConfiguration(d)
	if first != second {
		t.Error("EmitConfiguration is not idempotent for the same input")
	}
}

func TestEmitConfigurationEmptyGatewayPool(t *testing.T) {
	d := ConfigDoc{ExternalProfileName: "external"}
	got := EmitConfiguration(d)
	if !strings.Contains(got, `<gateways></gateways>`) {
		t.Errorf("expected empty gateways element, got %s", got)
	}
}

func TestEmitNotFound(t *testing.T) {
	got := EmitNotFound("configuration")
	if !strings.Contains(got, `name="configuration"`) {
		t.Errorf("expected section name configuration, got %s", got)
	}
	if !strings.Contains(got, `status="not found"`) {
		t.Errorf("expected not-found status, got %s", got)
	}
}

func TestEmitErrorIsAnswerPlaybackHangup(t *testing.T) {
	got := EmitError()
	idxAnswer := strings.Index(got, `application="answer"`)
	idxPlayback := strings.Index(got, `application="playback"`)
	idxHangup := strings.Index(got, `application="hangup"`)
	if !(idxAnswer < idxPlayback && idxPlayback < idxHangup) {
		t.Errorf("expected answer, playback, hangup order, got %s", got)
	}
}
