// Package invoice integrates the external invoice-parsing executable and
// the parsed Invoices JSON document it maintains.
package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Default literals substituted for fields missing from a parsed invoice
// record, keeping a partially-complete record sendable.
const (
	DefaultAmount = "0.00"
	DefaultText   = "N/A"
	DefaultNumber = "000000"
)

// SubprocessError indicates the external parser exited non-zero.
type SubprocessError struct {
	ExitCode int
	Stderr   string
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("invoice: parser exited %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// DataError indicates the Invoices document is absent or malformed.
type DataError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invoice: %s: %s", e.Path, e.Reason)
}

func (e *DataError) Unwrap() error { return e.Err }

// Parser invokes the external invoice-parsing executable.
type Parser struct {
	bin string
	log zerolog.Logger
}

// NewParser creates a Parser for the executable at bin.
func NewParser(bin string, log zerolog.Logger) *Parser {
	return &Parser{bin: bin, log: log}
}

// Run executes the parser for one invoice identifier. closeInvoice adds the
// close flag; returnTo, when non-empty, asks the parser to hand its result
// to the named downstream tool. A non-zero exit is a hard error carrying
// the captured stderr.
func (p *Parser) Run(ctx context.Context, id string, closeInvoice bool, returnTo string) (string, error) {
	args := []string{id}
	if closeInvoice {
		args = append(args, "--close")
	}
	if returnTo != "" {
		args = append(args, "--return-to", returnTo)
	}

	cmd := exec.CommandContext(ctx, p.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.log.Debug().Str("bin", p.bin).Strs("args", args).Msg("running invoice parser")

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitCode = ee.ExitCode()
		}
		return "", &SubprocessError{ExitCode: exitCode, Stderr: stderr.String()}
	}

	return stdout.String(), nil
}

// Record holds the string fields of one parsed invoice.
type Record map[string]string

// Get returns the named field, or def when the field is absent or empty.
func (r Record) Get(field, def string) string {
	if v, ok := r[field]; ok && v != "" {
		return v
	}
	return def
}

// invoicesDoc matches the on-disk document written by the parser.
type invoicesDoc struct {
	Invoices map[string]string `json:"Invoices"`
}

// ReadRecord loads the Invoices document at path. A missing file, malformed
// JSON, or an absent Invoices object is a hard error.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DataError{Path: path, Reason: "cannot read invoices document", Err: err}
	}

	var doc invoicesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DataError{Path: path, Reason: "malformed invoices document", Err: err}
	}
	if doc.Invoices == nil {
		return nil, &DataError{Path: path, Reason: `missing "Invoices" object`}
	}

	return Record(doc.Invoices), nil
}
