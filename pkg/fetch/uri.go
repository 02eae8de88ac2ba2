package fetch

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// extensionPattern matches a trailing dot-extension in a path segment.
var extensionPattern = regexp.MustCompile(`\.[A-Za-z0-9]+$`)

// FilePath converts a file:// URI to a platform path. Plain paths pass
// through unchanged. Windows drive-letter URIs (file:///C:/x) lose the
// leading slash so the result is a usable OS path.
func FilePath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	p := strings.TrimPrefix(uri, "file://")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if trimmed := strings.TrimPrefix(p, "/"); windowsDrive.MatchString(trimmed) {
		p = trimmed
	}
	if p == "" {
		p = "/"
	}
	return p
}

// NormalizeDir coerces a URI into directory-like form: a trailing slash
// is appended unless the last path segment looks like a filename with an
// extension. File-like URIs pass through so that reference resolution
// replaces the final segment instead of descending into it.
func NormalizeDir(uri string) string {
	if uri == "" || strings.HasSuffix(uri, "/") {
		return uri
	}
	seg := uri
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		seg = uri[i+1:]
	}
	if extensionPattern.MatchString(seg) {
		return uri
	}
	return uri + "/"
}

// DirectoryOf strips the final path segment, keeping the trailing slash.
// Directory-like URIs are returned unchanged.
func DirectoryOf(uri string) string {
	if strings.HasSuffix(uri, "/") {
		return uri
	}
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[:i+1]
	}
	return uri
}

// Parent returns the syntactic parent location of uri, directory-form,
// or "" once the root of the authority (or filesystem) is reached.
func Parent(uri string) string {
	root := rootOf(uri)
	trimmed := strings.TrimSuffix(uri, "/")
	if trimmed == "" || len(trimmed) < len(root) {
		return ""
	}
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	parent := trimmed[:i+1]
	if len(parent) < len(root) {
		return ""
	}
	return parent
}

// rootOf returns the non-strippable prefix of uri: scheme plus authority
// for URLs, "/" for plain paths.
func rootOf(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		rest := uri[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return uri[:i+3+j+1]
		}
		return uri + "/"
	}
	return "/"
}

// Resolve resolves ref against a base URI. Absolute references (scheme,
// git@, or OS-absolute path) win outright; otherwise standard URL
// reference resolution applies, with a plain path join for non-URL bases.
func Resolve(base, ref string) string {
	if ref == "" {
		return base
	}
	if schemePattern.MatchString(ref) || strings.HasPrefix(ref, "git@") || isAbsPath(ref) {
		return ref
	}
	if schemePattern.MatchString(base) {
		bu, err := url.Parse(base)
		if err == nil {
			ru, err := url.Parse(ref)
			if err == nil {
				return bu.ResolveReference(ru).String()
			}
		}
	}
	joined := path.Join(DirectoryOf(base), ref)
	if strings.HasSuffix(ref, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}
