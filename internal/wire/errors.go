package wire

import "errors"

// Sentinel parse errors. Every one except ErrConnectionClosed maps to a 400
// response at the connection-worker boundary (spec §7); sentinel errors are the teacher's
// convention for simple, comparable error values (see storage.ErrNotFound in
// the teacher repository this module was adapted from).
var (
	ErrMalformedRequestLine = errors.New("wire: malformed request line")
	ErrHeaderTooLarge       = errors.New("wire: header block exceeds cap")
	ErrUnsupportedVersion   = errors.New("wire: unsupported http version")
	ErrMalformedHeader      = errors.New("wire: malformed header line")
	ErrObsoleteFold         = errors.New("wire: obsolete header line folding unsupported")
	ErrChunkedUnsupported   = errors.New("wire: chunked transfer-encoding unsupported")
	ErrBodyTooLarge         = errors.New("wire: body exceeds cap")
	ErrMalformedContentLen  = errors.New("wire: malformed content-length")
	// ErrConnectionClosed signals the peer closed before sending any bytes of
	// a new request; the connection worker treats this as a silent close,
	// never as a 400.
	ErrConnectionClosed = errors.New("wire: connection closed before request")
)
