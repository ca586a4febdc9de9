// Package main provides mailctl, a command-line client that assembles
// structured email-send requests and dispatches them to the remote
// transactional-email API.
//
// Usage:
//
//	mailctl invoice --id 202401 --to klant@example.com
//	mailctl appointment --client Jansen --pet Rex --appointments '[{"date":"01/06/2024","time":"10:00",...}]' --to klant@example.com
//	mailctl custom --to klant@example.com --subject "Hallo" --var name=Jansen
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/sungwon/mailctl/internal/calendar"
	"github.com/sungwon/mailctl/internal/config"
	"github.com/sungwon/mailctl/internal/dispatch"
	"github.com/sungwon/mailctl/internal/invoice"
	"github.com/sungwon/mailctl/internal/logger"
	"github.com/sungwon/mailctl/internal/payload"
	"github.com/sungwon/mailctl/internal/route"
)

func main() {
	a := &app{}

	cliApp := &cli.App{
		Name:  "mailctl",
		Usage: "send transactional email through the mail API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "directory holding config.yaml",
				Value: ".",
			},
		},
		Before:   a.setup,
		Commands: a.commands(),
	}

	if err := cliApp.Run(os.Args); err != nil {
		// Errors are already logged with their class; keep stderr terse.
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app wires the components for one invocation.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	resolver *route.Resolver
	builder  *payload.Builder
	bridge   *dispatch.Bridge
}

// setup loads configuration and constructs every component once, before
// any command runs.
func (a *app) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	a.log = logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})

	a.resolver = route.NewResolver(cfg.API.BaseURL)

	scheduler, err := calendar.NewScheduler(a.log)
	if err != nil {
		return err
	}

	a.builder = payload.NewBuilder(a.resolver, scheduler, payload.Sender{
		Name:    cfg.Sender.Name,
		Domain:  cfg.Sender.Domain,
		ReplyTo: cfg.Sender.ReplyTo,
		Alias:   cfg.Sender.Alias,
	}, a.log)

	client := dispatch.NewHTTPClient(cfg.API.Timeout)
	a.bridge = dispatch.NewBridge(client, cfg.API.Key, a.log)

	return nil
}

// recipientFlags are shared by every send-capable command.
func recipientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "to", Usage: "recipient address (repeatable)"},
		&cli.StringSliceFlag{Name: "cc", Usage: "cc address (repeatable)"},
		&cli.StringSliceFlag{Name: "bcc", Usage: "bcc address (repeatable)"},
	}
}

func nameFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "client", Usage: "client name"},
		&cli.StringFlag{Name: "pet", Usage: "pet name"},
	}
}

// recipients collects the recipient set, falling back to the configured
// test address when no --to is given.
func (a *app) recipients(c *cli.Context) (payload.Recipients, error) {
	to := c.StringSlice("to")
	if len(to) == 0 && a.cfg.Addresses.Test != "" {
		to = []string{a.cfg.Addresses.Test}
	}
	if len(to) == 0 {
		return payload.Recipients{}, fmt.Errorf("at least one --to is required")
	}
	return payload.Recipients{
		To:  to,
		Cc:  c.StringSlice("cc"),
		Bcc: c.StringSlice("bcc"),
	}, nil
}

// dispatch resolves the request target, serializes the envelope, and
// performs the single send. The raw API response goes to stdout.
func (a *app) dispatch(c *cli.Context, req *payload.Request) error {
	url, err := a.resolver.Resolve(req.Route, req.Endpoint)
	if err != nil {
		return err
	}

	body, err := req.Envelope.Marshal()
	if err != nil {
		return err
	}

	a.log.Info().
		Str("route", string(req.Route)).
		Str("endpoint", string(req.Endpoint)).
		Int("recipients", len(req.Envelope.To)).
		Msg("dispatching request")

	resp, err := a.bridge.Send(c.Context, url, body)
	if err != nil {
		return err
	}
	if len(resp) > 0 {
		fmt.Println(string(resp))
	}
	return nil
}

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "invoice",
			Usage: "parse and send an invoice",
			Flags: append(recipientFlags(),
				&cli.StringFlag{Name: "id", Usage: "invoice identifier", Required: true},
				&cli.BoolFlag{Name: "close", Usage: "close the invoice in the parser"},
				&cli.StringFlag{Name: "return-to", Usage: "downstream tool for the parser result"},
				&cli.BoolFlag{Name: "expired", Usage: "send the expired-invoice variant"},
				&cli.BoolFlag{Name: "simple", Usage: "send the simple-issue variant"},
			),
			Action: a.runInvoice,
		},
		{
			Name:  "appointment",
			Usage: "send appointment confirmations with calendar invites",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.StringFlag{Name: "appointments", Usage: "JSON array of appointment records", Required: true},
				&cli.BoolFlag{Name: "reminder", Usage: "send the reminder variant"},
			),
			Action: a.runAppointment,
		},
		{
			Name:  "lead",
			Usage: "send a lead confirmation",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.BoolFlag{Name: "follow", Usage: "send the follow-up variant"},
				&cli.BoolFlag{Name: "check", Usage: "send the check variant (wins over --follow)"},
				&cli.StringFlag{Name: "availability", Usage: "JSON array of availability slots"},
			),
			Action: a.runLead,
		},
		{
			Name:  "quote",
			Usage: "send a quote",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.BoolFlag{Name: "follow", Usage: "send the follow-up variant"},
			),
			Action: a.runQuote,
		},
		{
			Name:  "service",
			Usage: "send a service onboarding message",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.BoolFlag{Name: "follow", Usage: "send the follow-up variant"},
				&cli.BoolFlag{Name: "demo", Usage: "send the demo variant (wins over --follow)"},
			),
			Action: a.runService,
		},
		{
			Name:  "resolution",
			Usage: "send a resolution review message",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.BoolFlag{Name: "follow", Usage: "send the follow-up variant"},
			),
			Action: a.runResolution,
		},
		{
			Name:  "affiliate",
			Usage: "send an affiliate message (requires a sub-mode flag)",
			Flags: append(append(recipientFlags(), nameFlags()...),
				&cli.BoolFlag{Name: "food", Usage: "food partner sub-mode"},
			),
			Action: a.runAffiliate,
		},
		{
			Name:  "template",
			Usage: "fetch a remote template",
			Flags: append(recipientFlags(),
				&cli.StringFlag{Name: "category", Usage: "template category"},
				&cli.StringFlag{Name: "file", Usage: "template file"},
			),
			Action: a.runTemplate,
		},
		{
			Name:  "custom",
			Usage: "send a free-form templated message",
			Flags: append(recipientFlags(),
				&cli.StringFlag{Name: "subject", Usage: "message subject"},
				&cli.StringSliceFlag{Name: "var", Usage: "template variable key=value (repeatable)"},
				&cli.StringSliceFlag{Name: "header", Usage: "extra header key=value (repeatable)"},
				&cli.StringSliceFlag{Name: "attach", Usage: "attachment file path (repeatable)"},
				&cli.BoolFlag{Name: "quote", Usage: "send with the quote route's alias"},
			),
			Action: a.runCustom,
		},
	}
}

func (a *app) runInvoice(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	parser := invoice.NewParser(a.cfg.Invoice.ParserBin, a.log)
	out, err := parser.Run(c.Context, c.String("id"), c.Bool("close"), c.String("return-to"))
	if err != nil {
		return err
	}
	if out != "" {
		a.log.Debug().Str("stdout", out).Msg("invoice parser output")
	}

	record, err := invoice.ReadRecord(a.cfg.Invoice.JSONPath)
	if err != nil {
		return err
	}

	req, err := a.builder.Invoice(payload.InvoiceInput{
		Recipients: rcpt,
		Record:     record,
		PDFPath:    a.cfg.Invoice.PDFPath,
		Expired:    c.Bool("expired"),
		Simple:     c.Bool("simple"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runAppointment(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Appointment(payload.AppointmentInput{
		Recipients:      rcpt,
		Client:          c.String("client"),
		Pet:             c.String("pet"),
		RawAppointments: []byte(c.String("appointments")),
		Reminder:        c.Bool("reminder"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runLead(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Lead(payload.LeadInput{
		Recipients:      rcpt,
		Client:          c.String("client"),
		Pet:             c.String("pet"),
		Follow:          c.Bool("follow"),
		Check:           c.Bool("check"),
		RawAvailability: []byte(c.String("availability")),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runQuote(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Quote(payload.QuoteInput{
		Recipients: rcpt,
		Client:     c.String("client"),
		Pet:        c.String("pet"),
		Follow:     c.Bool("follow"),
		PDFPath:    a.cfg.Quote.AttachmentPath,
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runService(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Service(payload.ServiceInput{
		Recipients: rcpt,
		Client:     c.String("client"),
		Pet:        c.String("pet"),
		Follow:     c.Bool("follow"),
		Demo:       c.Bool("demo"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runResolution(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Resolution(payload.ResolutionInput{
		Recipients: rcpt,
		Client:     c.String("client"),
		Pet:        c.String("pet"),
		Follow:     c.Bool("follow"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runAffiliate(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.Affiliate(payload.AffiliateInput{
		Recipients: rcpt,
		Client:     c.String("client"),
		Pet:        c.String("pet"),
		Food:       c.Bool("food"),
	})
	if err != nil {
		if errors.Is(err, payload.ErrNoAffiliateMode) {
			// No default endpoint for affiliate; nothing is sent.
			a.log.Warn().Msg("affiliate: no sub-mode flag given, nothing sent (pass --food)")
			return nil
		}
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runTemplate(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	req, err := a.builder.TemplateFetch(payload.TemplateFetchInput{
		Recipients: rcpt,
		Category:   c.String("category"),
		File:       c.String("file"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

func (a *app) runCustom(c *cli.Context) error {
	rcpt, err := a.recipients(c)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}

	req, err := a.builder.Custom(payload.CustomInput{
		Recipients:  rcpt,
		Subject:     c.String("subject"),
		Headers:     headers,
		Vars:        c.StringSlice("var"),
		Attachments: c.StringSlice("attach"),
		Quote:       c.Bool("quote"),
	})
	if err != nil {
		return err
	}
	return a.dispatch(c, req)
}

// parseHeaders converts key=value flag pairs into a header map.
func parseHeaders(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("header must be key=value, got %q", kv)
		}
		headers[key] = value
	}
	return headers, nil
}
