package fetch

import (
	"net/url"
	"strings"
)

// RepoRef locates one file inside a hosted git repository. It is the
// rewritten form of a raw-content URL, used by the clone fallback when
// the direct HTTP fetch fails.
type RepoRef struct {
	CloneURL string // https clone URL, no .git suffix
	Branch   string
	Path     string // slash-separated path inside the repository
}

// ParseRawURL recognizes raw-content URL patterns of the common git
// hosts and rewrites them to repository+branch+path form. It returns
// false for anything it does not recognize.
func ParseRawURL(uri string) (RepoRef, bool) {
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return RepoRef{}, false
	}
	host := strings.ToLower(u.Hostname())
	segs := splitPath(u.Path)

	switch {
	case host == "raw.githubusercontent.com":
		// /<owner>/<repo>/<branch>/<path> or /<owner>/<repo>/refs/heads/<branch>/<path>
		if len(segs) < 4 {
			return RepoRef{}, false
		}
		owner, repo := segs[0], segs[1]
		rest := segs[2:]
		if len(rest) >= 3 && rest[0] == "refs" && rest[1] == "heads" {
			rest = rest[2:]
		}
		if len(rest) < 2 {
			return RepoRef{}, false
		}
		return RepoRef{
			CloneURL: "https://github.com/" + owner + "/" + repo,
			Branch:   rest[0],
			Path:     strings.Join(rest[1:], "/"),
		}, true

	case host == "github.com":
		// /<owner>/<repo>/raw/<branch>/<path>
		return matchRawSegment(host, segs, "raw")

	case host == "gitlab.com" || strings.HasPrefix(host, "gitlab."):
		// /<group>/.../<repo>/-/raw/<branch>/<path>
		for i := 0; i+2 < len(segs); i++ {
			if segs[i] == "-" && segs[i+1] == "raw" {
				if i < 2 || i+3 > len(segs) {
					return RepoRef{}, false
				}
				return RepoRef{
					CloneURL: "https://" + host + "/" + strings.Join(segs[:i], "/"),
					Branch:   segs[i+2],
					Path:     strings.Join(segs[i+3:], "/"),
				}, true
			}
		}
		return RepoRef{}, false

	case host == "bitbucket.org":
		// /<owner>/<repo>/raw/<branch>/<path>
		return matchRawSegment(host, segs, "raw")

	case host == "codeberg.org" || strings.HasPrefix(host, "gitea."):
		// /<owner>/<repo>/raw/branch/<branch>/<path>
		if len(segs) >= 6 && segs[2] == "raw" && segs[3] == "branch" {
			return RepoRef{
				CloneURL: "https://" + host + "/" + segs[0] + "/" + segs[1],
				Branch:   segs[4],
				Path:     strings.Join(segs[5:], "/"),
			}, true
		}
		return RepoRef{}, false
	}
	return RepoRef{}, false
}

func matchRawSegment(host string, segs []string, marker string) (RepoRef, bool) {
	if len(segs) < 5 || segs[2] != marker {
		return RepoRef{}, false
	}
	return RepoRef{
		CloneURL: "https://" + host + "/" + segs[0] + "/" + segs[1],
		Branch:   segs[3],
		Path:     strings.Join(segs[4:], "/"),
	}, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
