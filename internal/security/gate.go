// Package security implements the ordered, pure pre-dispatch predicates of
// spec §4.2: host allow-list, method gate, path canonicalisation, and the
// POST content-type gate. Every predicate is a function over an already
// parsed *wire.Request; none of them touch the filesystem or the network, so
// they are trivially unit-testable in isolation, matching the teacher's
// allowedType() helper in internal/server/server.go, generalized here into a
// full ordered gate chain instead of a single allow-list check.
package security

import (
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/config"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/wire"
)

// Outcome carries what dispatch needs once a request has cleared every gate.
type Outcome struct {
	Path        string // canonical filesystem path under the content root
	Query       string // raw query string, if any
	DecodedPath string // decoded request path, pre-root-join (e.g. "/upload"); "" and "/" become "/index.html"
}

// Check runs every predicate in spec order, returning either a validated
// Outcome or a fully-formed error Response. No handler runs when the
// returned Response is non-nil.
func Check(req *wire.Request, cfg *config.Config) (*Outcome, *wire.Response) {
	if resp := checkHost(req, cfg); resp != nil {
		return nil, resp
	}
	if resp := checkMethod(req); resp != nil {
		return nil, resp
	}
	path, query, decoded, resp := canonicalizePath(req.Target, cfg.ContentRoot)
	if resp != nil {
		return nil, resp
	}
	if resp := checkContentType(req); resp != nil {
		return nil, resp
	}
	if resp := checkBodySize(req); resp != nil {
		return nil, resp
	}
	return &Outcome{Path: path, Query: query, DecodedPath: decoded}, nil
}

// checkHost enforces spec §4.2 rule 1. The allow-list admits the server's
// own bind host and literal "localhost" (regardless of what the server was
// actually bound to — a deliberate quirk carried from the source, documented
// in SPEC_FULL.md's Open Questions), plus 127.0.0.1. A ":<port>" suffix is
// only stripped before the comparison when it equals the server's own
// configured port, or when the hostname is localhost/127.0.0.1 (those two
// accept any port): a request naming the right host but the wrong port must
// still be rejected, not silently waved through.
func checkHost(req *wire.Request, cfg *config.Config) *wire.Response {
	host, present := req.Headers.Get("Host")
	if !present {
		if req.Version == "HTTP/1.1" {
			return errorResponse(400, "missing Host header")
		}
		return nil
	}
	hostname, port := splitHostPort(host)
	hostname = strings.ToLower(hostname)

	if hostname == "localhost" || hostname == "127.0.0.1" {
		return nil
	}
	if hostname == strings.ToLower(cfg.Host) && (port == "" || port == cfg.Port) {
		return nil
	}
	return errorResponse(403, "host not allowed")
}

// splitHostPort splits "host[:port]" on the last colon, but only when
// everything after it is numeric; a host with no port, or a colon that
// isn't introducing one, is returned with an empty port.
func splitHostPort(host string) (string, string) {
	i := strings.LastIndexByte(host, ':')
	if i < 0 {
		return host, ""
	}
	port := host[i+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return host, ""
	}
	return host[:i], port
}

// checkMethod enforces spec §4.2 rule 2.
func checkMethod(req *wire.Request) *wire.Response {
	if req.Method == wire.MethodGet || req.Method == wire.MethodPost {
		return nil
	}
	return &wire.Response{
		Status:      405,
		ContentType: "text/plain; charset=utf-8",
		Extra:       []wire.HeaderField{{Name: "Allow", Value: "GET, POST"}},
		Body:        []byte("405 Method Not Allowed\n"),
	}
}

// checkContentType enforces spec §4.2 rule 4 (POST only).
func checkContentType(req *wire.Request) *wire.Response {
	if req.Method != wire.MethodPost {
		return nil
	}
	ct, _ := req.Headers.Get("Content-Type")
	media := strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])
	if strings.EqualFold(media, "application/json") {
		return nil
	}
	return &wire.Response{
		Status:      415,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("415 Unsupported Media Type\n"),
	}
}

// checkBodySize enforces spec §4.2 rule 5. The codec already refuses to read
// a body beyond config.MaxBodyBytes (returning wire.ErrBodyTooLarge, mapped
// to 400 by the connection worker before the gate ever runs), so this is a
// defense-in-depth check against a body the codec already accepted.
func checkBodySize(req *wire.Request) *wire.Response {
	if int64(len(req.Body)) > config.MaxBodyBytes {
		return errorResponse(400, "body exceeds size cap")
	}
	return nil
}

// canonicalizePath implements spec §4.2 rule 3 and spec §3's Canonical Path
// invariant: the result must be lexically contained within the absolute
// content root. filepath.Join already calls filepath.Clean, so however many
// ".." segments the request contains, the joined path can only ever escape
// the root if the prefix check below lets it — which it never does.
func canonicalizePath(target, contentRoot string) (string, string, string, *wire.Response) {
	rawPath := target
	query := ""
	if i := strings.IndexByte(target, '?'); i >= 0 {
		rawPath = target[:i]
		query = target[i+1:]
	}
	if strings.HasPrefix(rawPath, "//") || strings.Contains(rawPath, "://") {
		return "", "", "", errorResponse(403, "absolute path not allowed")
	}
	// PathUnescape, not QueryUnescape: a literal '+' in a path segment is a
	// literal '+', not an encoded space. The +-as-space rule only applies to
	// application/x-www-form-urlencoded query strings.
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", "", "", errorResponse(403, "malformed path encoding")
	}
	if strings.ContainsRune(decoded, 0) {
		return "", "", "", errorResponse(403, "null byte in path")
	}
	resourcePath := decoded
	if resourcePath == "" || resourcePath == "/" {
		resourcePath = "/index.html"
	}
	stripped := strings.TrimPrefix(resourcePath, "/")
	joined := filepath.Join(contentRoot, stripped)
	root := filepath.Clean(contentRoot)
	if joined != root && !strings.HasPrefix(joined, root+string(filepath.Separator)) {
		return "", "", "", errorResponse(403, "path escapes content root")
	}
	return joined, query, resourcePath, nil
}

func errorResponse(status int, message string) *wire.Response {
	return &wire.Response{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(strconv.Itoa(status) + " " + wire.ReasonPhrase(status) + ": " + message + "\n"),
	}
}
