// Package xmlgen renders the three FreeSWITCH mod_xml_curl document
// families (dialplan, directory, configuration) from plain Go values.
// Every Emit function is a pure function: no I/O, no globals.
//
// Attribute values that are plain identifiers are escaped for
// < > & ' ". The dialplan "expression" attribute and action "data" are
// written verbatim, because they legitimately carry switch-side
// ${...} interpolation tokens and regex metacharacters that a uniform
// escaper would corrupt; internal/dialplan is responsible for escaping
// those values itself (see escapeXMLAttr in normalize.go) before
// building a Program from a call variable.
package xmlgen

import "strings"

// Action is one step of an extension program.
type Action struct {
	Application string
	Data        string
}

// Program is an extension: a name, a match condition, and an ordered
// list of actions.
type Program struct {
	Name                string
	ConditionField      string
	ConditionExpression string
	Actions             []Action
}

// escapeAttr escapes a plain-identifier attribute value.
func escapeAttr(s string) string {
	r := strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
		`"`, "&quot;",
		`'`, "&apos;",
	)
	return r.Replace(s)
}

// EmitDialplan renders a single extension inside the given context. A
// malformed program (empty name, condition field, or expression)
// renders the standard error program instead of a broken document.
func EmitDialplan(contextName string, p Program) string {
	if p.Name == "" || p.ConditionField == "" || p.ConditionExpression == "" {
		return EmitError()
	}

	var b strings.Builder
	b.WriteString(`<document type="freeswitch/xml">`)
	b.WriteString(`<section name="dialplan">`)
	b.WriteString(`<context name="`)
	b.WriteString(escapeAttr(contextName))
	b.WriteString(`">`)
	b.WriteString(`<extension name="`)
	b.WriteString(escapeAttr(p.Name))
	b.WriteString(`">`)
	b.WriteString(`<condition field="`)
	b.WriteString(escapeAttr(p.ConditionField))
	b.WriteString(`" expression="`)
	b.WriteString(p.ConditionExpression)
	b.WriteString(`">`)
	for _, a := range p.Actions {
		b.WriteString(`<action application="`)
		b.WriteString(escapeAttr(a.Application))
		b.WriteString(`" data="`)
		b.WriteString(a.Data)
		b.WriteString(`"/>`)
	}
	b.WriteString(`</condition>`)
	b.WriteString(`</extension>`)
	b.WriteString(`</context>`)
	b.WriteString(`</section>`)
	b.WriteString(`</document>`)
	return b.String()
}

// DirectoryUser is a single <user> element within a directory document.
type DirectoryUser struct {
	ID        string
	Params    []KV
	Variables []KV
}

// KV is an ordered attribute pair rendered as a <param>/<variable> leaf.
type KV struct {
	Name  string
	Value string
}

// DirectoryDoc is the directory section for one domain. The zero value
// (empty DomainName) renders the empty "<document>" used when nothing
// matched.
type DirectoryDoc struct {
	DomainName string
	User       DirectoryUser
}

// EmitDirectory renders a directory document. An empty DomainName
// produces the bare empty document the switch treats as "unknown".
func EmitDirectory(d DirectoryDoc) string {
	if d.DomainName == "" {
		return `<document type="freeswitch/xml"></document>`
	}

	var b strings.Builder
	b.WriteString(`<document type="freeswitch/xml">`)
	b.WriteString(`<section name="directory">`)
	b.WriteString(`<domain name="`)
	b.WriteString(escapeAttr(d.DomainName))
	b.WriteString(`">`)
	b.WriteString(`<user id="`)
	b.WriteString(escapeAttr(d.User.ID))
	b.WriteString(`">`)
	b.WriteString(`<params>`)
	for _, p := range d.User.Params {
		writeKV(&b, "param", p)
	}
	b.WriteString(`</params>`)
	b.WriteString(`<variables>`)
	for _, v := range d.User.Variables {
		writeKV(&b, "variable", v)
	}
	b.WriteString(`</variables>`)
	b.WriteString(`</user>`)
	b.WriteString(`</domain>`)
	b.WriteString(`</section>`)
	b.WriteString(`</document>`)
	return b.String()
}

func writeKV(b *strings.Builder, tag string, kv KV) {
	b.WriteString("<")
	b.WriteString(tag)
	b.WriteString(` name="`)
	b.WriteString(escapeAttr(kv.Name))
	b.WriteString(`" value="`)
	b.WriteString(escapeAttr(kv.Value))
	b.WriteString(`"/>`)
}

// SIPGateway is one <gateway> entry of the external SIP profile.
type SIPGateway struct {
	Name              string
	Realm             string
	Username          string
	Password          string
	Proxy             string
	Register          bool
	RegisterTransport string
	DTMFType          string
	CodecPrefs        string
}

// ConfigDoc is the configuration-resolver's output: the fixed internal
// profile plus an external profile populated from the gateway pool.
type ConfigDoc struct {
	InternalProfileParams []KV
	ExternalProfileName   string
	ExternalProfileParams []KV
	Gateways              []SIPGateway
}

// EmitConfiguration renders the sofia.conf document with the internal
// and external SIP profiles.
func EmitConfiguration(d ConfigDoc) string {
	var b strings.Builder
	b.WriteString(`<document type="freeswitch/xml">`)
	b.WriteString(`<section name="configuration">`)
	b.WriteString(`<configuration name="sofia.conf" description="sofia endpoint">`)
	b.WriteString(`<profiles>`)

	b.WriteString(`<profile name="internal">`)
	b.WriteString(`<settings>`)
	for _, p := range d.InternalProfileParams {
		writeKV(&b, "param", p)
	}
	b.WriteString(`</settings>`)
	b.WriteString(`</profile>`)

	b.WriteString(`<profile name="`)
	b.WriteString(escapeAttr(d.ExternalProfileName))
	b.WriteString(`">`)
	b.WriteString(`<settings>`)
	for _, p := range d.ExternalProfileParams {
		writeKV(&b, "param", p)
	}
	b.WriteString(`</settings>`)
	b.WriteString(`<gateways>`)
	for _, g := range d.Gateways {
		b.WriteString(`<gateway name="`)
		b.WriteString(escapeAttr(g.Name))
		b.WriteString(`">`)
		writeKV(&b, "param", KV{"realm", g.Realm})
		writeKV(&b, "param", KV{"username", g.Username})
		writeKV(&b, "param", KV{"password", g.Password})
		writeKV(&b, "param", KV{"proxy", g.Proxy})
		writeKV(&b, "param", KV{"register", boolString(g.Register)})
		writeKV(&b, "param", KV{"register-transport", g.RegisterTransport})
		writeKV(&b, "param", KV{"dtmf-type", g.DTMFType})
		writeKV(&b, "param", KV{"codec-prefs", g.CodecPrefs})
		b.WriteString(`</gateway>`)
	}
	b.WriteString(`</gateways>`)
	b.WriteString(`</profile>`)

	b.WriteString(`</profiles>`)
	b.WriteString(`</configuration>`)
	b.WriteString(`</section>`)
	b.WriteString(`</document>`)
	return b.String()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// EmitNotFound renders the "result not found" document used when a
// section or key does not resolve. Still a 200-status, switch-inspected
// body.
func EmitNotFound(section string) string {
	var b strings.Builder
	b.WriteString(`<document type="freeswitch/xml">`)
	b.WriteString(`<section name="`)
	b.WriteString(escapeAttr(section))
	b.WriteString(`">`)
	b.WriteString(`<result status="not found"/>`)
	b.WriteString(`</section>`)
	b.WriteString(`</document>`)
	return b.String()
}

// EmitError renders the standard "application error" dialplan program:
// answer, announce that the call cannot be completed, hang up. Used
// whenever anything upstream cannot produce a valid document.
func EmitError() string {
	var b strings.Builder
	b.WriteString(`<document type="freeswitch/xml">`)
	b.WriteString(`<section name="dialplan">`)
	b.WriteString(`<context name="default">`)
	b.WriteString(`<extension name="error">`)
	b.WriteString(`<condition field="destination_number" expression="^.*$">`)
	b.WriteString(`<action application="answer" data=""/>`)
	b.WriteString(`<action application="playback" data="ivr/ivr-call_cannot_be_completed_as_dialed.wav"/>`)
	b.WriteString(`<action application="hangup" data=""/>`)
	b.WriteString(`</condition>`)
	b.WriteString(`</extension>`)
	b.WriteString(`</context>`)
	b.WriteString(`</section>`)
	b.WriteString(`</document>`)
	return b.String()
}
