package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/rs/zerolog"

	"github.com/sungwon/mailctl/internal/attach"
	"github.com/sungwon/mailctl/internal/calendar"
	"github.com/sungwon/mailctl/internal/invoice"
	"github.com/sungwon/mailctl/internal/route"
)

// ErrNoAffiliateMode is returned when the affiliate command is invoked
// without a recognized sub-mode flag. The affiliate route has no default
// endpoint; the caller logs a diagnostic and sends nothing.
var ErrNoAffiliateMode = errors.New("payload: affiliate command needs a sub-mode flag")

// ValidationError indicates malformed command input.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payload: invalid %s: %v", e.Input, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Sender is the identity configuration shared by all builders.
type Sender struct {
	Name    string
	Domain  string
	ReplyTo string
	// Alias, when non-empty, overrides the route alias for every command.
	Alias string
}

// Builder assembles envelopes per command family. One Builder serves one
// process invocation; it holds no per-command state.
type Builder struct {
	resolver  *route.Resolver
	scheduler *calendar.Scheduler
	sender    Sender
	log       zerolog.Logger
}

// NewBuilder creates a Builder using the given route resolver and
// appointment scheduler.
func NewBuilder(resolver *route.Resolver, scheduler *calendar.Scheduler, sender Sender, log zerolog.Logger) *Builder {
	return &Builder{
		resolver:  resolver,
		scheduler: scheduler,
		sender:    sender,
		log:       log,
	}
}

// envelope assembles the common envelope skeleton for a route. aliasRoute
// selects the alias table entry; it usually equals the request route but a
// builder may override it (custom-with-quote).
func (b *Builder) envelope(aliasRoute route.Route, rcpt Recipients, subject string, tmpl *Template) *Envelope {
	alias := b.sender.Alias
	if alias == "" {
		alias = b.resolver.Alias(aliasRoute)
	}

	env := &Envelope{
		From: From{
			Name:   b.sender.Name,
			Alias:  alias,
			Domain: b.sender.Domain,
		},
		To:       rcpt.To,
		Cc:       rcpt.Cc,
		Bcc:      rcpt.Bcc,
		Subject:  subject,
		Template: tmpl,
	}
	if b.sender.ReplyTo != "" {
		env.ReplyTo = []string{b.sender.ReplyTo}
	}
	return env
}

// appendFile resolves one file attachment onto the envelope. Read failures
// degrade the payload rather than aborting the command; the soft failure
// is logged.
func (b *Builder) appendFile(env *Envelope, path string, kind attach.Kind, name string) {
	att := attach.LoadTyped(path, kind, name)
	if att.Err != nil {
		b.log.Warn().Err(att.Err).Str("path", path).Msg("attachment read failed, sending empty payload")
	}
	env.Attachments = append(env.Attachments, wireAttachment(att))
}

// InvoiceInput parameterizes the invoice command family.
type InvoiceInput struct {
	Recipients Recipients
	Record     invoice.Record
	PDFPath    string
	Expired    bool
	Simple     bool
}

// Invoice builds the invoice request. Expired selects the expired endpoint;
// Simple selects the issue-simple variant. Missing record fields substitute
// the documented default literals so a partial record stays sendable.
func (b *Builder) Invoice(in InvoiceInput) (*Request, error) {
	ep := route.EndpointIssue
	switch {
	case in.Expired:
		ep = route.EndpointExpired
	case in.Simple:
		ep = route.EndpointIssueSimple
	}

	number := in.Record.Get("invoiceNumber", invoice.DefaultNumber)

	vars := orderedmap.New()
	vars.Set("invoiceNumber", number)
	vars.Set("invoiceDate", in.Record.Get("invoiceDate", invoice.DefaultText))
	vars.Set("dueDate", in.Record.Get("dueDate", invoice.DefaultText))
	vars.Set("amount", in.Record.Get("amount", invoice.DefaultAmount))
	vars.Set("vat", in.Record.Get("vat", invoice.DefaultAmount))
	vars.Set("total", in.Record.Get("total", invoice.DefaultAmount))
	vars.Set("term", in.Record.Get("term", invoice.DefaultText))
	vars.Set("description", in.Record.Get("description", invoice.DefaultText))
	vars.Set("client", in.Record.Get("client", invoice.DefaultText))

	env := b.envelope(route.RouteInvoice, in.Recipients, "", &Template{Variables: vars})
	if in.PDFPath != "" {
		b.appendFile(env, in.PDFPath, attach.KindPDF, fmt.Sprintf("factuur-%s.pdf", number))
	}

	return &Request{Route: route.RouteInvoice, Endpoint: ep, Envelope: env}, nil
}

// AppointmentInput parameterizes the appointment command family.
type AppointmentInput struct {
	Recipients      Recipients
	Client          string
	Pet             string
	RawAppointments []byte
	Reminder        bool
}

// Appointment builds the appointment request: the raw document is parsed,
// sorted chronologically, and every record gets a calendar invite. The
// appointment variables and the invite attachments stay index-aligned.
func (b *Builder) Appointment(in AppointmentInput) (*Request, error) {
	ep := route.EndpointConfirmation
	if in.Reminder {
		ep = route.EndpointReminder
	}

	apts, invites, err := b.scheduler.Schedule(in.Client, in.Pet, in.RawAppointments)
	if err != nil {
		return nil, err
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)
	vars.Set("appointments", appointmentVars(apts))

	env := b.envelope(route.RouteAppointment, in.Recipients, "", &Template{Variables: vars})
	for _, inv := range invites {
		env.Attachments = append(env.Attachments, inviteAttachment(inv.Content, inv.Filename))
	}

	return &Request{Route: route.RouteAppointment, Endpoint: ep, Envelope: env}, nil
}

// appointmentVars renders sorted appointment records as template variable
// maps, preserving field order per record.
func appointmentVars(apts []calendar.Appointment) []*orderedmap.OrderedMap {
	out := make([]*orderedmap.OrderedMap, len(apts))
	for i, a := range apts {
		m := orderedmap.New()
		m.Set("day", a.Day)
		m.Set("date", a.Date)
		m.Set("time", a.Time)
		m.Set("street", a.Street)
		m.Set("number", a.Number)
		m.Set("area", a.Area)
		m.Set("location", a.Location)
		out[i] = m
	}
	return out
}

// LeadInput parameterizes the lead command family.
type LeadInput struct {
	Recipients      Recipients
	Client          string
	Pet             string
	Follow          bool
	Check           bool
	RawAvailability []byte
}

// Lead builds the lead request. Check takes precedence over follow; the
// default endpoint is confirmation. An availability document, when given,
// becomes a day-ordered variable mapping.
func (b *Builder) Lead(in LeadInput) (*Request, error) {
	ep := route.EndpointConfirmation
	switch {
	case in.Check:
		ep = route.EndpointCheck
	case in.Follow:
		ep = route.EndpointFollow
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)

	if len(in.RawAvailability) > 0 {
		slots, err := calendar.ParseAvailability(in.RawAvailability)
		if err != nil {
			return nil, err
		}
		vars.Set("availability", availabilityVars(slots))
	}

	env := b.envelope(route.RouteLead, in.Recipients, "", &Template{Variables: vars})
	return &Request{Route: route.RouteLead, Endpoint: ep, Envelope: env}, nil
}

// availabilityVars maps day names to time ranges, keeping document order.
func availabilityVars(slots []calendar.AvailabilitySlot) *orderedmap.OrderedMap {
	m := orderedmap.New()
	for _, s := range slots {
		m.Set(s.Day, fmt.Sprintf("%s - %s", s.From, s.Until))
	}
	return m
}

// QuoteInput parameterizes the quote command family.
type QuoteInput struct {
	Recipients Recipients
	Client     string
	Pet        string
	Follow     bool
	PDFPath    string
}

// Quote builds the quote request, attaching the static quote document
// under its deterministic name.
func (b *Builder) Quote(in QuoteInput) (*Request, error) {
	ep := route.EndpointIssue
	if in.Follow {
		ep = route.EndpointFollow
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)

	env := b.envelope(route.RouteQuote, in.Recipients, "", &Template{Variables: vars})
	if in.PDFPath != "" {
		b.appendFile(env, in.PDFPath, attach.KindPDF, "offerte.pdf")
	}

	return &Request{Route: route.RouteQuote, Endpoint: ep, Envelope: env}, nil
}

// ServiceInput parameterizes the service command family.
type ServiceInput struct {
	Recipients Recipients
	Client     string
	Pet        string
	Follow     bool
	Demo       bool
}

// Service builds the service request. Demo takes precedence over follow;
// the default endpoint is onboarding.
func (b *Builder) Service(in ServiceInput) (*Request, error) {
	ep := route.EndpointOnboarding
	switch {
	case in.Demo:
		ep = route.EndpointDemo
	case in.Follow:
		ep = route.EndpointFollow
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)

	env := b.envelope(route.RouteService, in.Recipients, "", &Template{Variables: vars})
	return &Request{Route: route.RouteService, Endpoint: ep, Envelope: env}, nil
}

// ResolutionInput parameterizes the resolution command family.
type ResolutionInput struct {
	Recipients Recipients
	Client     string
	Pet        string
	Follow     bool
}

// Resolution builds the resolution request: review by default, follow when
// flagged.
func (b *Builder) Resolution(in ResolutionInput) (*Request, error) {
	ep := route.EndpointReview
	if in.Follow {
		ep = route.EndpointFollow
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)

	env := b.envelope(route.RouteResolution, in.Recipients, "", &Template{Variables: vars})
	return &Request{Route: route.RouteResolution, Endpoint: ep, Envelope: env}, nil
}

// AffiliateInput parameterizes the affiliate command family.
type AffiliateInput struct {
	Recipients Recipients
	Client     string
	Pet        string
	Food       bool
}

// Affiliate builds the affiliate request. There is no default endpoint:
// without a recognized sub-mode the command is a no-op and the caller
// must not send. Flagged for product-owner clarification.
func (b *Builder) Affiliate(in AffiliateInput) (*Request, error) {
	if !in.Food {
		return nil, ErrNoAffiliateMode
	}

	vars := orderedmap.New()
	vars.Set("client", in.Client)
	vars.Set("pet", in.Pet)

	env := b.envelope(route.RouteAffiliate, in.Recipients, "", &Template{Variables: vars})
	return &Request{Route: route.RouteAffiliate, Endpoint: route.EndpointFood, Envelope: env}, nil
}

// TemplateFetchInput parameterizes the template-fetch command.
type TemplateFetchInput struct {
	Recipients Recipients
	Category   string
	File       string
}

// TemplateFetch builds the template-fetch request, selecting a remote
// template by category and file.
func (b *Builder) TemplateFetch(in TemplateFetchInput) (*Request, error) {
	tmpl := &Template{Category: in.Category, File: in.File}
	env := b.envelope(route.RouteTemplate, in.Recipients, "", tmpl)
	return &Request{Route: route.RouteTemplate, Endpoint: route.EndpointFetch, Envelope: env}, nil
}

// CustomInput parameterizes the custom-message command.
type CustomInput struct {
	Recipients  Recipients
	Subject     string
	Headers     map[string]string
	Vars        []string // key=value pairs, order preserved
	Attachments []string // file paths, kinds inferred
	// Quote switches the sender alias to the quote route's alias.
	Quote bool
}

// Custom builds a free-form message request on the custom route. The quote
// variant borrows the quote route's alias instead of the custom one.
func (b *Builder) Custom(in CustomInput) (*Request, error) {
	vars, err := ParseVars(in.Vars)
	if err != nil {
		return nil, err
	}

	aliasRoute := route.RouteCustom
	if in.Quote {
		aliasRoute = route.RouteQuote
	}

	env := b.envelope(aliasRoute, in.Recipients, in.Subject, &Template{Variables: vars})
	env.Headers = in.Headers
	for _, path := range in.Attachments {
		b.appendFile(env, path, attach.KindFromPath(path), "")
	}

	return &Request{Route: route.RouteCustom, Endpoint: route.EndpointMessageSend, Envelope: env}, nil
}

// ParseVars converts key=value flag pairs into an ordered variable map.
func ParseVars(kvs []string) (*orderedmap.OrderedMap, error) {
	vars := orderedmap.New()
	for _, kv := range kvs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, &ValidationError{
				Input: "variable",
				Err:   fmt.Errorf("want key=value, got %q", kv),
			}
		}
		vars.Set(key, value)
	}
	return vars, nil
}
