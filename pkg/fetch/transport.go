// Package fetch retrieves manifest and entry content across transports:
// HTTP(S), the local filesystem, and git hosting reached over HTTP with a
// clone-cache fallback. All outbound network requests pass through a
// shared rate limiter.
package fetch

import (
	"regexp"
	"strings"
)

// Transport identifies the access mechanism for a URI.
type Transport string

const (
	TransportHTTPS Transport = "https"
	TransportHTTP  Transport = "http"
	TransportFile  Transport = "file"
	TransportGit   Transport = "git"
	TransportSSH   Transport = "ssh"
	TransportFTP   Transport = "ftp"
)

// windowsDrive matches OS-absolute Windows paths like C:\ or C:/.
var windowsDrive = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// Classify maps a URI onto its transport from syntax alone. It performs
// no I/O and has no failure mode: unrecognized schemes default to https.
func Classify(uri string) Transport {
	switch {
	case strings.HasPrefix(uri, "file://"), isAbsPath(uri):
		return TransportFile
	case strings.HasPrefix(uri, "git://"), strings.HasPrefix(uri, "git@"), strings.Contains(uri, ".git"):
		return TransportGit
	case strings.HasPrefix(uri, "ssh://"), strings.HasPrefix(uri, "sftp://"):
		return TransportSSH
	case strings.HasPrefix(uri, "ftp://"), strings.HasPrefix(uri, "ftps://"):
		return TransportFTP
	case strings.HasPrefix(uri, "http://"):
		return TransportHTTP
	default:
		return TransportHTTPS
	}
}

// isAbsPath reports whether uri is an OS-absolute path on any platform.
// Both separators are accepted so that classification does not change
// across platforms.
func isAbsPath(uri string) bool {
	if strings.HasPrefix(uri, "/") || strings.HasPrefix(uri, `\\`) {
		return true
	}
	return windowsDrive.MatchString(uri)
}
