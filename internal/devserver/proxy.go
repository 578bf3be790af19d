package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/momento/internal/logging"
	echo "github.com/labstack/echo/v4"
)

// newProxy forwards requests under mount to target. The backend serves its
// routes under the same mount, so the prefix stays on the forwarded path.
func newProxy(target, mount string, timeout time.Duration) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("api target must be an absolute URL: " + target)
	}

	baseTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.Transport = baseTransport

	origDirector := p.Director
	p.Director = func(req *http.Request) {
		originalHost := req.Host
		originalProto := "http"
		if req.TLS != nil {
			originalProto = "https"
		} else if xf := req.Header.Get("X-Forwarded-Proto"); xf != "" {
			originalProto = xf
		}

		rest := strings.TrimPrefix(req.URL.Path, mount)
		req.URL.Path = mount + rest
		if rp := req.URL.RawPath; rp != "" {
			req.URL.RawPath = mount + strings.TrimPrefix(rp, mount)
		}

		origDirector(req)
		req.Host = u.Host

		if req.Header.Get("X-Forwarded-Proto") == "" {
			req.Header.Set("X-Forwarded-Proto", originalProto)
		}
		if req.Header.Get("X-Forwarded-Host") == "" && originalHost != "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		status, msg := http.StatusBadGateway, "upstream unavailable"
		if isTimeout(err) {
			status, msg = http.StatusGatewayTimeout, "upstream timeout"
		}
		logging.FromContext(r.Context()).Error("proxy error",
			"target", target, "path", r.URL.Path, "status", status, "error", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
	}

	p.FlushInterval = 100 * time.Millisecond

	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()
		p.ServeHTTP(c.Response(), c.Request().WithContext(ctx))
		return nil
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
