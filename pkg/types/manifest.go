// Package types defines the burrow/warren manifest model shared by all
// rabit packages. Manifests are immutable once parsed; callers replace
// them by re-fetching, never by mutating in place.
package types

import (
	"encoding/json"
	"fmt"
)

// ManifestKind discriminates the two manifest document types.
type ManifestKind string

const (
	KindBurrow ManifestKind = "burrow"
	KindWarren ManifestKind = "warren"
)

// EntryKind classifies one entry inside a burrow.
type EntryKind string

const (
	EntryFile   EntryKind = "file"
	EntryDir    EntryKind = "dir"
	EntryBurrow EntryKind = "burrow"
	EntryMap    EntryKind = "map"
	EntryLink   EntryKind = "link"
)

// MaxEntries is the hard cap on entries in a single manifest. Documents
// exceeding it are rejected as invalid.
const MaxEntries = 10000

// DefaultMaxAgeSeconds applies when a manifest does not declare its own
// cache lifetime.
const DefaultMaxAgeSeconds = 3600

// Entry is one item in a burrow's listing.
//
// Resolution rules differ by kind: burrow and dir entries are resolved by
// appending the discovery naming convention to URI, while map entries
// fetch URI directly as a manifest file. The two must never be swapped.
type Entry struct {
	ID        string    `json:"id"`
	Kind      EntryKind `json:"kind"`
	URI       string    `json:"uri"`
	Title     string    `json:"title,omitempty"`
	Priority  int       `json:"priority,omitempty"`
	SHA256    string    `json:"sha256,omitempty"`
	SizeBytes int64     `json:"sizeBytes,omitempty"`
	MediaType string    `json:"mediaType,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Burrow is a manifest listing navigable entries for one location.
type Burrow struct {
	SpecVersion   string       `json:"specVersion"`
	Kind          ManifestKind `json:"kind"`
	Title         string       `json:"title,omitempty"`
	Description   string       `json:"description,omitempty"`
	UpdatedAt     string       `json:"updatedAt,omitempty"`
	BaseURI       string       `json:"baseUri,omitempty"`
	MaxAgeSeconds int          `json:"maxAgeSeconds,omitempty"`
	Entries       []Entry      `json:"entries"`
}

// ManifestRef points at another manifest from a warren.
type ManifestRef struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Warren is a registry manifest listing burrows and other warrens.
type Warren struct {
	SpecVersion   string        `json:"specVersion"`
	Kind          ManifestKind  `json:"kind"`
	Title         string        `json:"title,omitempty"`
	Description   string        `json:"description,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
	BaseURI       string        `json:"baseUri,omitempty"`
	MaxAgeSeconds int           `json:"maxAgeSeconds,omitempty"`
	Burrows       []ManifestRef `json:"burrows,omitempty"`
	Warrens       []ManifestRef `json:"warrens,omitempty"`
}

// Manifest is implemented by both document types so caches and loaders
// can handle them uniformly.
type Manifest interface {
	// ManifestKind reports whether the document is a burrow or warren.
	ManifestKind() ManifestKind
	// Base returns the URI children resolve against.
	Base() string
	// MaxAge returns the declared cache lifetime in seconds, or the
	// default when the document does not declare one.
	MaxAge() int
}

func (b *Burrow) ManifestKind() ManifestKind { return KindBurrow }
func (w *Warren) ManifestKind() ManifestKind { return KindWarren }

func (b *Burrow) Base() string { return b.BaseURI }
func (w *Warren) Base() string { return w.BaseURI }

// MaxAge returns the declared cache lifetime in seconds, or the default.
func (b *Burrow) MaxAge() int {
	if b.MaxAgeSeconds > 0 {
		return b.MaxAgeSeconds
	}
	return DefaultMaxAgeSeconds
}

// MaxAge returns the declared cache lifetime in seconds, or the default.
func (w *Warren) MaxAge() int {
	if w.MaxAgeSeconds > 0 {
		return w.MaxAgeSeconds
	}
	return DefaultMaxAgeSeconds
}

// rawBurrow exists so required-field absence is distinguishable from an
// empty value after unmarshaling.
type rawBurrow struct {
	Burrow
	RawEntries *[]Entry `json:"entries"`
}

type rawWarren struct {
	Warren
	RawBurrows *[]ManifestRef `json:"burrows"`
	RawWarrens *[]ManifestRef `json:"warrens"`
}

// ParseBurrow validates data as a burrow manifest. The uri is attached to
// any resulting error for diagnostics.
func ParseBurrow(data []byte, uri string) (*Burrow, error) {
	var raw rawBurrow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if raw.SpecVersion == "" {
		return nil, missingField(uri, "specVersion")
	}
	if raw.Kind != KindBurrow {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("kind is %q, want %q", raw.Kind, KindBurrow)}
	}
	if raw.RawEntries == nil {
		return nil, missingField(uri, "entries")
	}
	if len(*raw.RawEntries) > MaxEntries {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("%d entries exceeds limit of %d", len(*raw.RawEntries), MaxEntries)}
	}
	b := raw.Burrow
	b.Entries = *raw.RawEntries
	return &b, nil
}

// ParseWarren validates data as a warren manifest.
func ParseWarren(data []byte, uri string) (*Warren, error) {
	var raw rawWarren
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if raw.SpecVersion == "" {
		return nil, missingField(uri, "specVersion")
	}
	if raw.Kind != KindWarren {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("kind is %q, want %q", raw.Kind, KindWarren)}
	}
	if raw.RawBurrows == nil && raw.RawWarrens == nil {
		return nil, missingField(uri, "burrows or warrens")
	}
	w := raw.Warren
	if raw.RawBurrows != nil {
		w.Burrows = *raw.RawBurrows
	}
	if raw.RawWarrens != nil {
		w.Warrens = *raw.RawWarrens
	}
	if len(w.Burrows)+len(w.Warrens) > MaxEntries {
		return nil, &Error{Kind: ErrInvalidManifest, URI: uri, Msg: fmt.Sprintf("%d references exceeds limit of %d", len(w.Burrows)+len(w.Warrens), MaxEntries)}
	}
	return &w, nil
}

func missingField(uri, field string) *Error {
	return &Error{Kind: ErrInvalidManifest, URI: uri, Msg: "missing required field " + field}
}
