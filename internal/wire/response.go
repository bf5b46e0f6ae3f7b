package wire

import (
	"bufio"
	"fmt"
	"time"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/config"
)

// rfc7231Date is the IMF-fixdate layout the Date header must use (RFC 7231
// §7.1.1.1), spelled out directly instead of importing net/http for its
// TimeFormat constant — this package owns HTTP framing end to end.
const rfc7231Date = "Mon, 02 Jan 2006 15:04:05 GMT"

// ServerName is the value emitted in every response's Server header.
const ServerName = "Socket-HTTP/1.1"

// HeaderField is an ordered, single key/value pair used for the
// handler-specific headers appended after the standard framing set.
type HeaderField struct {
	Name  string
	Value string
}

// Response is a fully framed HTTP response (spec §3 "Response").
type Response struct {
	Status      int
	ContentType string        // empty means no Content-Type header is emitted
	Extra       []HeaderField // handler-specific headers, e.g. Content-Disposition, Allow
	Body        []byte

	// KeepAlive selects "Connection: keep-alive" plus the Keep-Alive
	// parameter header; false selects "Connection: close".
	KeepAlive bool
}

// reasonPhrases holds the IANA default reason phrase for every status this
// server emits (spec §6).
var reasonPhrases = map[int]string{
	200: "OK",
	201: "Created",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	415: "Unsupported Media Type",
	500: "Internal Server Error",
	503: "Service Unavailable",
}

// ReasonPhrase returns the IANA default reason phrase for status, or
// "Unknown" if this server never emits that code.
func ReasonPhrase(status int) string {
	if r, ok := reasonPhrases[status]; ok {
		return r
	}
	return "Unknown"
}

// WriteResponse formats and flushes resp onto bw. Header order is Date,
// Server, Content-Type, Content-Length, Connection, Keep-Alive (when
// applicable), then handler-specific headers, then a blank line and the
// body (spec §4.1 "Format").
func WriteResponse(bw *bufio.Writer, resp *Response) error {
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.Status, ReasonPhrase(resp.Status)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "Date: %s\r\n", time.Now().UTC().Format(rfc7231Date)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "Server: %s\r\n", ServerName); err != nil {
		return err
	}
	if resp.ContentType != "" {
		if _, err := fmt.Fprintf(bw, "Content-Type: %s\r\n", resp.ContentType); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(bw, "Content-Length: %d\r\n", len(resp.Body)); err != nil {
		return err
	}
	if resp.KeepAlive {
		if _, err := bw.WriteString("Connection: keep-alive\r\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "Keep-Alive: timeout=%d, max=%d\r\n", config.KeepAliveTimeoutSeconds, config.KeepAliveMax); err != nil {
			return err
		}
	} else {
		if _, err := bw.WriteString("Connection: close\r\n"); err != nil {
			return err
		}
	}
	for _, h := range resp.Extra {
		if _, err := fmt.Fprintf(bw, "%s: %s\r\n", h.Name, h.Value); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if len(resp.Body) > 0 {
		if _, err := bw.Write(resp.Body); err != nil {
			return err
		}
	}
	return bw.Flush()
}
