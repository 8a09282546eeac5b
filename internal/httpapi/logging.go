package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, JSON lines go to the
// standard logger's writer.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog != nil {
		return zlog
	}
	l := zerolog.New(log.Writer()).With().Timestamp().Logger()
	return &l
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("CODERD_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// reqLog scopes log events to one request at its effective level.
type reqLog struct {
	r     *http.Request
	lvl   LogLevel
	route string
	start time.Time
}

func newReqLog(r *http.Request, route string) reqLog {
	return reqLog{r: r, lvl: requestLogLevel(r), route: route, start: time.Now()}
}

// at returns an event when the request logs at level, nil otherwise. Nil
// events are no-ops in zerolog.
func (l reqLog) at(level LogLevel) *zerolog.Event {
	if level == LevelOff || l.lvl < level {
		return nil
	}
	lg := logger()
	ev := lg.Info()
	if level == LevelError {
		ev = lg.Error()
	}
	ev = ev.Str("route", l.route)
	if rid := middleware.GetReqID(l.r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	return ev
}

const clipLen = 200

// clip shortens s for debug logs.
func clip(s string) string {
	if len(s) <= clipLen {
		return s
	}
	return s[:clipLen] + "..."
}
