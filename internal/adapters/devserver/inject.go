package devserver

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const maxInjectSize = 512 * 1024

var (
	closingBody = []byte("</body>")
	scriptTag   = []byte(`<script async src="` + ScriptPath + `"></script></body>`)
)

// injectScript adds the live-reload client to HTML responses before </body>.
func injectScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ".html") {
			next.ServeHTTP(w, r)
			return
		}

		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response up to maxInjectSize. Anything else, or anything
// larger, is passed through unchanged.
type injector struct {
	http.ResponseWriter
	status      int
	buf         []byte
	buffering   bool
	passthrough bool
	wroteHeader bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.writeHeader()
	}
}

func (i *injector) writeHeader() {
	if i.wroteHeader {
		return
	}
	i.wroteHeader = true
	i.ResponseWriter.WriteHeader(i.status)
}

func (i *injector) Write(data []byte) (int, error) {
	if !i.buffering && !i.passthrough {
		ct := i.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			i.passthrough = true
		} else {
			i.buffering = true
		}
	}

	if i.passthrough {
		i.writeHeader()
		return i.ResponseWriter.Write(data)
	}

	if len(i.buf)+len(data) > maxInjectSize {
		i.passthrough = true
		i.buffering = false
		i.writeHeader()
		if len(i.buf) > 0 {
			if _, err := i.ResponseWriter.Write(i.buf); err != nil {
				return 0, err
			}
			i.buf = nil
		}
		return i.ResponseWriter.Write(data)
	}

	i.buf = append(i.buf, data...)
	return len(data), nil
}

func (i *injector) finalize() {
	if i.passthrough || !i.buffering {
		i.writeHeader()
		return
	}

	body := i.buf
	if idx := bytes.LastIndex(body, closingBody); idx >= 0 {
		body = append(append(body[:idx:idx], scriptTag...), body[idx+len(closingBody):]...)
	}
	i.Header().Set("Content-Length", strconv.Itoa(len(body)))
	i.writeHeader()
	_, _ = i.ResponseWriter.Write(body)
}
