// Package route maps logical (route, endpoint) pairs onto concrete API
// targets and carries the per-route sender alias table.
package route

import (
	"fmt"
	"net/url"
)

// Route is a top-level business category of outgoing email.
type Route string

const (
	RouteSend        Route = "send"
	RouteInvoice     Route = "invoice"
	RouteAppointment Route = "appointment"
	RouteQuote       Route = "quote"
	RouteLead        Route = "lead"
	RouteService     Route = "service"
	RouteResolution  Route = "resolution"
	RouteAffiliate   Route = "affiliate"
	RouteCustom      Route = "custom"
	RouteTemplate    Route = "template"
)

// Endpoint is a specific API action within a route.
type Endpoint string

const (
	EndpointNew          Endpoint = "new"
	EndpointIssue        Endpoint = "issue"
	EndpointIssueSimple  Endpoint = "issue-simple"
	EndpointExpired      Endpoint = "expired"
	EndpointConfirmation Endpoint = "confirmation"
	EndpointReminder     Endpoint = "reminder"
	EndpointFollow       Endpoint = "follow"
	EndpointOnboarding   Endpoint = "onboarding"
	EndpointReview       Endpoint = "review"
	EndpointCheck        Endpoint = "check"
	EndpointFood         Endpoint = "food"
	EndpointFetch        Endpoint = "fetch"
	EndpointMessageSend  Endpoint = "message-send"
	EndpointDemo         Endpoint = "demo"
)

// Routes lists every known route, in declaration order.
func Routes() []Route {
	return []Route{
		RouteSend, RouteInvoice, RouteAppointment, RouteQuote, RouteLead,
		RouteService, RouteResolution, RouteAffiliate, RouteCustom, RouteTemplate,
	}
}

// defaultAlias is the sender local-part for routes without a specific mapping.
const defaultAlias = "info"

// aliases maps a route to the mailbox local-part used as the sender identity.
var aliases = map[Route]string{
	RouteInvoice:     "administratie",
	RouteAppointment: "afspraak",
	RouteQuote:       "offerte",
	RouteService:     "service",
	RouteResolution:  "klantenservice",
	RouteAffiliate:   "partners",
	RouteTemplate:    "noreply",
}

// ResolveError indicates that a (route, endpoint) pair did not produce a
// structurally valid request target.
type ResolveError struct {
	Route    Route
	Endpoint Endpoint
	Target   string
	Reason   string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("route: cannot resolve %s/%s (%q): %s", e.Route, e.Endpoint, e.Target, e.Reason)
}

// Resolver turns (route, endpoint) pairs into fully qualified API targets.
type Resolver struct {
	baseURL string
}

// NewResolver creates a Resolver for the given API base URL.
// The base URL must not end with a slash; a trailing slash is trimmed.
func NewResolver(baseURL string) *Resolver {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &Resolver{baseURL: baseURL}
}

// Resolve joins the base URL with /{route}/{endpoint} and validates the
// result. An invalid target is an error, never a placeholder URL.
func (r *Resolver) Resolve(rt Route, ep Endpoint) (string, error) {
	target := fmt.Sprintf("%s/%s/%s", r.baseURL, rt, ep)

	u, err := url.Parse(target)
	if err != nil {
		return "", &ResolveError{Route: rt, Endpoint: ep, Target: target, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ResolveError{Route: rt, Endpoint: ep, Target: target, Reason: "unsupported scheme"}
	}
	if u.Host == "" {
		return "", &ResolveError{Route: rt, Endpoint: ep, Target: target, Reason: "missing host"}
	}
	return target, nil
}

// Alias returns the sender local-part for the route. The mapping is total:
// routes without a specific alias fall back to the default.
func (r *Resolver) Alias(rt Route) string {
	if a, ok := aliases[rt]; ok {
		return a
	}
	return defaultAlias
}
