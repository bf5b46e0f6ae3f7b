// Package connection runs the per-connection state machine (spec §4.5):
// read a request, dispatch it through the security gate and resource
// handlers, write the response, then decide whether the connection stays
// ACTIVE for another request or moves to CLOSING. The loop shape — read,
// handle, flush, loop-or-return — is grounded on the raw-socket reference
// server x-httpd's conn.serve(), since the teacher repository never opens a
// socket directly; everything else (request/response types, security gate,
// handlers) is the teacher's own split, generalized to this domain.
package connection

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/config"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/handler"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/logging"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/security"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/wire"
)

// Worker serves accepted connections one at a time, each end to end. Workers
// are cheap, stateless values — the dispatcher constructs one per pool
// goroutine and reuses it for every connection that goroutine drains; all
// per-connection state lives inside Serve.
type Worker struct {
	cfg *config.Config
	log *logging.Logger
	tag string
}

// New returns a Worker that logs under tag (e.g. "Thread-3").
func New(cfg *config.Config, log *logging.Logger, tag string) *Worker {
	return &Worker{cfg: cfg, log: log, tag: tag}
}

// Serve runs the ACTIVE/WRITING/CLOSING loop over conn until the connection
// closes, either because the peer went away, an error forced it, or the
// close-decision rules below say so. Serve always closes conn before
// returning.
func (w *Worker) Serve(conn net.Conn) {
	defer conn.Close()

	traceID := uuid.NewString()
	limiter := wire.NewLimitReader(conn)
	br := bufio.NewReader(limiter)
	bw := bufio.NewWriter(conn)

	served := 0
	for {
		if err := conn.SetReadDeadline(time.Now().Add(config.IdleTimeout)); err != nil {
			return
		}

		req, err := wire.ParseRequest(br, limiter, config.MaxHeaderBytes, config.MaxBodyBytes)
		if err != nil {
			w.handleParseError(err, bw, traceID)
			return
		}

		// Writes are not idle-bounded; only the wait for the next request is.
		_ = conn.SetReadDeadline(time.Time{})

		resp := w.dispatch(req)
		served++
		keepAlive := decideKeepAlive(req, resp, served)
		resp.KeepAlive = keepAlive

		if err := wire.WriteResponse(bw, resp); err != nil {
			w.log.Log(w.tag, "write error on trace %s: %v", traceID, err)
			return
		}

		w.log.Log(w.tag, "%s %s -> %d (%s) trace=%s", req.RawMethod, req.Target, resp.Status, humanize.Bytes(uint64(len(resp.Body))), traceID)

		if !keepAlive {
			return
		}
	}
}

// handleParseError maps a codec failure to a response, if one is owed, and
// logs the outcome. A peer that closes cleanly before sending any bytes, an
// idle timeout, and a peer that closes mid-request produce no response at
// all; every other failure gets one final 400 response before the
// connection closes.
func (w *Worker) handleParseError(err error, bw *bufio.Writer, traceID string) {
	if errors.Is(err, wire.ErrConnectionClosed) {
		return
	}
	if isTimeout(err) {
		w.log.Log(w.tag, "idle timeout, closing trace=%s", traceID)
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		w.log.Log(w.tag, "connection closed mid-request trace=%s", traceID)
		return
	}

	// Every remaining parse failure (malformed request line, oversized
	// header block, obsolete folding, chunked bodies, a malformed or
	// oversized Content-Length) is a client framing error: 400.
	status := 400
	resp := &wire.Response{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(wire.ReasonPhrase(status) + "\n"),
		KeepAlive:   false,
	}
	if werr := wire.WriteResponse(bw, resp); werr != nil {
		w.log.Log(w.tag, "write error responding to parse failure trace=%s: %v", traceID, werr)
		return
	}
	w.log.Log(w.tag, "parse error -> %d trace=%s: %v", status, traceID, err)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// dispatch runs the security gate and, if it passes, the resource handler
// matching the request's method.
func (w *Worker) dispatch(req *wire.Request) *wire.Response {
	outcome, errResp := security.Check(req, w.cfg)
	if errResp != nil {
		return errResp
	}
	switch req.Method {
	case wire.MethodGet:
		return handler.ServeFile(outcome.Path)
	case wire.MethodPost:
		return handler.PersistUpload(outcome.DecodedPath, req.Body, w.cfg.UploadsDir)
	default:
		// The method gate already rejected everything but GET/POST.
		return &wire.Response{Status: 500, ContentType: "text/plain; charset=utf-8", Body: []byte("500 Internal Server Error\n")}
	}
}

// decideKeepAlive applies spec §4.5's five ordered close-decision rules.
// served is the count of requests served on this connection, including the
// one that just completed.
func decideKeepAlive(req *wire.Request, resp *wire.Response, served int) bool {
	if resp.Status >= 400 && resp.Status != 404 {
		return false
	}
	explicitKeepAlive := hasConnectionToken(req, "keep-alive")
	explicitClose := hasConnectionToken(req, "close")
	if req.Version == "HTTP/1.0" && !explicitKeepAlive {
		return false
	}
	if req.Version == "HTTP/1.1" && explicitClose {
		return false
	}
	if served >= config.MaxRequestsPerConn {
		return false
	}
	return true
}

func hasConnectionToken(req *wire.Request, token string) bool {
	v, ok := req.Headers.Get("Connection")
	if !ok {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
