// Package calendar parses appointment documents, orders them
// chronologically, and generates ICS invitations for each entry.
package calendar

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultZone is the business's local timezone; appointment wire
	// dates and times are interpreted in it.
	DefaultZone = "Europe/Amsterdam"

	// DefaultDuration is the event length when the caller supplies none.
	DefaultDuration = 2 * time.Hour

	// wireLayout is the date+time format used by appointment documents.
	wireLayout = "02/01/2006 15:04"

	// icsLayout is the ICS "basic" UTC timestamp format.
	icsLayout = "20060102T150405Z"
)

// Appointment is one entry of an appointment wire document.
type Appointment struct {
	Date     string `json:"date"` // dd/mm/yyyy
	Time     string `json:"time"` // HH:mm
	Day      string `json:"day"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	Area     string `json:"area"`
	Location string `json:"location"`
}

// Invite is the generated calendar invitation for one appointment.
// It exists only within a single command execution.
type Invite struct {
	ICS      string
	Content  string // base64 of the ICS text
	Filename string
}

// ValidationError indicates a malformed appointment or availability document.
type ValidationError struct {
	Doc string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("calendar: invalid %s document: %v", e.Doc, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseAppointments deserializes a JSON array of appointment records.
// Failure is a hard error for the whole document.
func ParseAppointments(raw []byte) ([]Appointment, error) {
	var apts []Appointment
	if err := json.Unmarshal(raw, &apts); err != nil {
		return nil, &ValidationError{Doc: "appointment", Err: err}
	}
	return apts, nil
}

// AvailabilitySlot is one entry of an availability wire document.
// Slot order is meaningful to the rendered template and is preserved.
type AvailabilitySlot struct {
	Day   string `json:"day"`
	From  string `json:"from"`
	Until string `json:"until"`
}

// ParseAvailability deserializes a JSON array of availability slots.
func ParseAvailability(raw []byte) ([]AvailabilitySlot, error) {
	var slots []AvailabilitySlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, &ValidationError{Doc: "availability", Err: err}
	}
	return slots, nil
}

// Scheduler orders appointments chronologically and drives invite
// generation. Now and NewUID are injectable for tests.
type Scheduler struct {
	zone     *time.Location
	duration time.Duration
	now      func() time.Time
	newUID   func() string
	log      zerolog.Logger
}

// NewScheduler creates a Scheduler for the business timezone with the
// default event duration.
func NewScheduler(log zerolog.Logger) (*Scheduler, error) {
	zone, err := time.LoadLocation(DefaultZone)
	if err != nil {
		return nil, fmt.Errorf("calendar: load zone %s: %w", DefaultZone, err)
	}
	return &Scheduler{
		zone:     zone,
		duration: DefaultDuration,
		now:      time.Now,
		newUID:   func() string { return uuid.New().String() },
		log:      log,
	}, nil
}

// WithDuration overrides the event duration for subsequent invites.
func (s *Scheduler) WithDuration(d time.Duration) *Scheduler {
	s.duration = d
	return s
}

// Schedule parses an appointment document, sorts the records ascending by
// their instant in the business timezone, and generates one invite per
// record. The returned slices are index-aligned.
//
// A record whose date+time does not parse is a hard error surfaced before
// sorting; it is never silently ordered by a fallback comparison.
func (s *Scheduler) Schedule(client, pet string, raw []byte) ([]Appointment, []Invite, error) {
	apts, err := ParseAppointments(raw)
	if err != nil {
		return nil, nil, err
	}

	type timed struct {
		apt   Appointment
		start time.Time
	}

	entries := make([]timed, 0, len(apts))
	for _, a := range apts {
		start, err := time.ParseInLocation(wireLayout, a.Date+" "+a.Time, s.zone)
		if err != nil {
			return nil, nil, &ValidationError{
				Doc: "appointment",
				Err: fmt.Errorf("record %q %q: %w", a.Date, a.Time, err),
			}
		}
		entries = append(entries, timed{apt: a, start: start})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].start.Before(entries[j].start)
	})

	sorted := make([]Appointment, len(entries))
	invites := make([]Invite, len(entries))
	for i, e := range entries {
		sorted[i] = e.apt
		invites[i] = s.invite(client, pet, e.apt, e.start)
		s.log.Debug().
			Str("date", e.apt.Date).
			Str("time", e.apt.Time).
			Str("filename", invites[i].Filename).
			Msg("generated calendar invite")
	}

	return sorted, invites, nil
}

// invite renders one ICS VEVENT block for an appointment and wraps it as
// a base64 attachment payload.
func (s *Scheduler) invite(client, pet string, a Appointment, start time.Time) Invite {
	end := start.Add(s.duration)

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//mailctl//appointment//NL")
	line("METHOD:REQUEST")
	line("BEGIN:VEVENT")
	line("UID:%s", s.newUID())
	line("DTSTAMP:%s", s.now().UTC().Format(icsLayout))
	line("DTSTART:%s", start.UTC().Format(icsLayout))
	line("DTEND:%s", end.UTC().Format(icsLayout))
	line("SUMMARY:Afspraak voor %s (%s)", pet, client)
	line("DESCRIPTION:Afspraak op %s %s om %s voor %s van %s.", a.Day, a.Date, a.Time, pet, client)
	line("LOCATION:%s", icsLocation(a))
	line("END:VEVENT")
	line("END:VCALENDAR")

	ics := b.String()
	return Invite{
		ICS:      ics,
		Content:  base64.StdEncoding.EncodeToString([]byte(ics)),
		Filename: inviteFilename(a.Date, pet),
	}
}

// icsLocation joins the address fields with ICS line-break escapes, the
// two-character literal `\n`.
func icsLocation(a Appointment) string {
	parts := make([]string, 0, 3)
	if a.Street != "" || a.Number != "" {
		parts = append(parts, strings.TrimSpace(a.Street+" "+a.Number))
	}
	if a.Area != "" {
		parts = append(parts, a.Area)
	}
	if a.Location != "" {
		parts = append(parts, a.Location)
	}
	return strings.Join(parts, `\n`)
}

// inviteFilename builds appointment-{date}-{pet}.ics, replacing the wire
// date's slashes so the name is filesystem-safe.
func inviteFilename(date, pet string) string {
	return fmt.Sprintf("appointment-%s-%s.ics", strings.ReplaceAll(date, "/", "-"), pet)
}
