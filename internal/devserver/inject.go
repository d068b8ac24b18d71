package devserver

import (
	"bytes"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 512 * 1024
)

// injectScript inserts tag before the closing body tag of doc, or appends it
// when doc has none.
func injectScript(doc []byte, tag string) []byte {
	at := bodyEnd(doc)
	out := make([]byte, 0, len(doc)+len(tag))
	out = append(out, doc[:at]...)
	out = append(out, tag...)
	return append(out, doc[at:]...)
}

// bodyEnd returns the offset of the last </body> in doc, or len(doc).
func bodyEnd(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))
	offset, at := 0, len(doc)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return at
		}
		n := len(z.Raw())
		if tt == html.EndTagToken {
			if name, _ := z.TagName(); string(name) == "body" {
				at = offset
			}
		}
		offset += n
	}
}

func isHTMLPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html") || strings.HasSuffix(p, ".htm")
}

// injectLiveReload wraps next so HTML pages load the live reload client.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMLPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		// Partial and conditional responses cannot be rewritten.
		r.Header.Del("Range")
		r.Header.Del("If-Modified-Since")
		r.Header.Del("If-None-Match")

		iw := &injectingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(iw, r)
		iw.finalize()
	})
}

// injectingWriter buffers HTML bodies up to maxInjectSize and rewrites them
// in finalize. Anything else, or anything larger, passes through.
type injectingWriter struct {
	http.ResponseWriter
	status        int
	buf           []byte
	buffering     bool
	passthrough   bool
	headerWritten bool
}

func (w *injectingWriter) WriteHeader(code int) {
	w.status = code
	if w.passthrough {
		w.ResponseWriter.WriteHeader(code)
		w.headerWritten = true
	}
}

func (w *injectingWriter) Write(data []byte) (int, error) {
	if !w.buffering && !w.passthrough {
		if !w.injectable() {
			w.startPassthrough()
			return w.ResponseWriter.Write(data)
		}
		w.buffering = true
	}
	if w.passthrough {
		return w.ResponseWriter.Write(data)
	}
	if len(w.buf)+len(data) > maxInjectSize {
		w.startPassthrough()
		if len(w.buf) > 0 {
			if _, err := w.ResponseWriter.Write(w.buf); err != nil {
				return 0, err
			}
			w.buf = nil
		}
		return w.ResponseWriter.Write(data)
	}
	w.buf = append(w.buf, data...)
	return len(data), nil
}

func (w *injectingWriter) injectable() bool {
	ct := w.Header().Get("Content-Type")
	return w.status == http.StatusOK && (ct == "" || strings.Contains(ct, "text/html"))
}

func (w *injectingWriter) startPassthrough() {
	w.passthrough = true
	w.buffering = false
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	w.headerWritten = true
}

func (w *injectingWriter) finalize() {
	if w.passthrough {
		return
	}
	if !w.buffering {
		if !w.headerWritten {
			// Bodyless (HEAD) responses must not advertise the uninjected length.
			if w.injectable() {
				w.Header().Del("Content-Length")
			}
			w.ResponseWriter.WriteHeader(w.status)
		}
		return
	}
	out := injectScript(w.buf, scriptTag)
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(out)
}
