package model

import (
	"strings"

	"github.com/tidwall/gjson"
)

// MaxContentLength is the number of characters of visible text and serialized
// markup a page collaborator captures. Longer content is cut to this size
// before it is handed to the feature engine.
const MaxContentLength = 5000

// Snapshot is the raw observation of a single page load.
// It is produced by a page collaborator (the browser extension, or the
// capture package for the CLI) and consumed by the feature engine.
//
// Design decision: Every field is a plain string (empty when absent) rather
// than a pointer or an optional type. The feature engine must never fail on
// page content, and a zero value that is always safe to read removes a whole
// class of nil checks from the derivations.
type Snapshot struct {
	// URL is the full location of the page (window.location.href).
	URL string `json:"url"`

	// Hostname is the host part of the location, without port.
	Hostname string `json:"hostname"`

	// DOMText is the visible text of the page body.
	DOMText string `json:"domText"`

	// HTMLContent is the serialized markup of the document element.
	HTMLContent string `json:"htmlContent"`

	// Title is the document title.
	Title string `json:"title"`

	// Favicon is the resolved favicon URL, empty when the page declares none.
	Favicon string `json:"favicon,omitempty"`

	// Links contains the resolved href of every anchor on the page.
	// The feature engine does not use it; it is carried for reports.
	Links []string `json:"links,omitempty"`
}

// DecodeSnapshot builds a Snapshot from an arbitrary JSON document.
// It never fails: invalid JSON, non-object documents, nulls and values of the
// wrong type all produce empty fields.
//
// Design decision: We read the payload with gjson instead of encoding/json
// because the payload comes from an untrusted page context. A typed decoder
// rejects the whole document when one field has the wrong type, while the
// engine contract is to degrade field by field.
func DecodeSnapshot(data []byte) Snapshot {
	if !gjson.ValidBytes(data) {
		return Snapshot{}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Snapshot{}
	}

	s := Snapshot{
		URL:         stringField(root, "url"),
		Hostname:    stringField(root, "hostname"),
		DOMText:     stringField(root, "domText"),
		HTMLContent: stringField(root, "htmlContent"),
		Title:       stringField(root, "title"),
		Favicon:     stringField(root, "favicon"),
	}

	links := root.Get("links")
	if links.IsArray() {
		links.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				s.Links = append(s.Links, v.Str)
			}
			return true
		})
	}

	return s.Normalize()
}

// UnmarshalJSON implements json.Unmarshaler using the same total decoding as
// DecodeSnapshot, so a Snapshot embedded in a larger request body is decoded
// leniently too.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = DecodeSnapshot(data)
	return nil
}

// Normalize returns a copy of the snapshot with the URL and hostname cleared
// when they contain only whitespace. Other fields are kept verbatim because
// their whitespace is meaningful (line counts, line lengths).
func (s Snapshot) Normalize() Snapshot {
	if strings.TrimSpace(s.URL) == "" {
		s.URL = ""
	}
	if strings.TrimSpace(s.Hostname) == "" {
		s.Hostname = ""
	}
	if len(s.Links) > 0 {
		s.Links = append([]string(nil), s.Links...)
	}
	return s
}

// HasTitle reports whether the snapshot carries a non-blank title.
func (s Snapshot) HasTitle() bool {
	return strings.TrimSpace(s.Title) != ""
}

// stringField returns the value at path when it is a JSON string, or "".
func stringField(root gjson.Result, path string) string {
	v := root.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
