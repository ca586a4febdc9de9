package invoice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestReadRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoices.json")
	doc := `{"Invoices":{"invoiceNumber":"202401","amount":"125.50","vat":"21.00"}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	rec, err := ReadRecord(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Get("invoiceNumber", DefaultNumber) != "202401" {
		t.Errorf("expected invoiceNumber 202401, got %q", rec.Get("invoiceNumber", DefaultNumber))
	}
}

func TestReadRecord_MissingFile(t *testing.T) {
	_, err := ReadRecord("/nonexistent/invoices.json")

	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}
}

func TestReadRecord_MissingInvoicesKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoices.json")
	if err := os.WriteFile(path, []byte(`{"Other":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := ReadRecord(path)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}
	if !strings.Contains(de.Error(), "Invoices") {
		t.Errorf("error should name the missing key: %v", de)
	}
}

func TestReadRecord_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoices.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := ReadRecord(path)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DataError, got %T", err)
	}
}

func TestRecord_GetDefaults(t *testing.T) {
	rec := Record{"amount": "10.00", "note": ""}

	if got := rec.Get("amount", DefaultAmount); got != "10.00" {
		t.Errorf("expected present value, got %q", got)
	}
	if got := rec.Get("vat", DefaultAmount); got != "0.00" {
		t.Errorf("expected amount default, got %q", got)
	}
	if got := rec.Get("note", DefaultText); got != "N/A" {
		t.Errorf("empty value must fall back to default, got %q", got)
	}
	if got := rec.Get("invoiceNumber", DefaultNumber); got != "000000" {
		t.Errorf("expected number default, got %q", got)
	}
}

func TestParser_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on /bin/sh")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "parser.sh")
	script := "#!/bin/sh\necho \"parsed $1\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o700); err != nil {
		t.Fatal(err)
	}

	p := NewParser(bin, zerolog.Nop())
	out, err := p.Run(context.Background(), "202401", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "parsed 202401" {
		t.Errorf("unexpected stdout: %q", out)
	}
}

func TestParser_Run_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on /bin/sh")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "parser.sh")
	script := "#!/bin/sh\necho \"boom\" >&2\nexit 3\n"
	if err := os.WriteFile(bin, []byte(script), 0o700); err != nil {
		t.Fatal(err)
	}

	p := NewParser(bin, zerolog.Nop())
	_, err := p.Run(context.Background(), "202401", true, "mailctl")

	var se *SubprocessError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SubprocessError, got %T", err)
	}
	if se.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", se.ExitCode)
	}
	if !strings.Contains(se.Stderr, "boom") {
		t.Errorf("expected captured stderr, got %q", se.Stderr)
	}
}
