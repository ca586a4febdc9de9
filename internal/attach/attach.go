// Package attach resolves local files into base64-encoded, type-tagged
// attachment units for the outbound payload.
package attach

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind tags the attachment content type, derived from the file extension.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindJPG     Kind = "jpg"
	KindPNG     Kind = "png"
	KindTXT     Kind = "txt"
	KindJSON    Kind = "json"
	KindUnknown Kind = "unknown"
)

// KindFromPath infers the attachment kind from the path's extension,
// case-insensitively. No extension or an unrecognized one yields KindUnknown.
func KindFromPath(path string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "pdf":
		return KindPDF
	case "jpg", "jpeg":
		return KindJPG
	case "png":
		return KindPNG
	case "txt":
		return KindTXT
	case "json":
		return KindJSON
	default:
		return KindUnknown
	}
}

// SoftFailure records a file that could not be read for an attachment.
// It is carried on the Attachment rather than returned, so callers can
// choose between degrading the payload and aborting the command.
type SoftFailure struct {
	Path string
	Err  error
}

func (e *SoftFailure) Error() string {
	return fmt.Sprintf("attach: read %s: %v", e.Path, e.Err)
}

func (e *SoftFailure) Unwrap() error { return e.Err }

// Attachment is one resolved file: base64 payload, kind tag, display name.
type Attachment struct {
	Path    string
	Kind    Kind
	Content string // base64 of the file bytes; empty on read failure
	Name    string
	Err     *SoftFailure // non-nil when the file could not be read
}

// Load reads the file at path, inferring kind and display name.
// A read failure yields an Attachment with empty Content and a non-nil Err;
// it never returns an error itself.
func Load(path string) Attachment {
	return LoadTyped(path, KindFromPath(path), "")
}

// LoadTyped reads the file at path with an explicit kind and optional
// display name. An empty name defaults to the path's base name.
func LoadTyped(path string, kind Kind, name string) Attachment {
	if name == "" {
		name = filepath.Base(path)
	}
	att := Attachment{Path: path, Kind: kind, Name: name}

	data, err := os.ReadFile(path)
	if err != nil {
		att.Err = &SoftFailure{Path: path, Err: err}
		return att
	}
	att.Content = base64.StdEncoding.EncodeToString(data)
	return att
}

// LoadAll resolves every path with one forced kind, used when a batch of
// attachments shares a known kind.
func LoadAll(paths []string, kind Kind) []Attachment {
	atts := make([]Attachment, 0, len(paths))
	for _, p := range paths {
		atts = append(atts, LoadTyped(p, kind, ""))
	}
	return atts
}
