package devserver

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
)

const APIMount = "/api"

type Deps struct {
	APITarget string
	StaticDir string
	Timeout   time.Duration
	Log       *slog.Logger
}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.Use(ecM.Recover())
	e.Use(ecM.RequestID())
	e.Use(RequestLogger(d.Log, d.APITarget))
	e.Use(ecM.StaticWithConfig(ecM.StaticConfig{
		Root:  d.StaticDir,
		Index: "index.html",
		Skipper: func(c echo.Context) bool {
			return routeKind(c.Request().URL.Path) != kindStatic || hiddenFile(c.Request().URL.Path)
		},
	}))

	apiProxy, err := newProxy(d.APITarget, APIMount, d.Timeout)
	if err != nil {
		return err
	}

	e.Any(APIMount, apiProxy)
	e.Any(APIMount+"/*", apiProxy)

	return nil
}

// hiddenFile reports paths the static root must never serve: dotfiles such as
// .env and local database files that may hold a session token.
func hiddenFile(p string) bool {
	for _, seg := range strings.Split(path.Clean("/"+p), "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	name := strings.ToLower(path.Base(p))
	for _, ext := range []string{".db", ".db-journal", ".db-wal", ".db-shm", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
