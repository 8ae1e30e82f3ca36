package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// sessionPrefix is how much of a bearer token may appear in logs.
const sessionPrefix = 6

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Slot(index int) slog.Attr {
	return slog.Int("slot", index)
}

// Session records the first characters of a session token.
func Session(token string) slog.Attr {
	if token == "" {
		return slog.Attr{}
	}
	if len(token) > sessionPrefix {
		token = token[:sessionPrefix] + "…"
	}
	return slog.String("session", token)
}

func Identity(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("identity", name)
}

func Path(p string) slog.Attr {
	return slog.String("path", p)
}

func Sheet(name string) slog.Attr {
	return slog.String("sheet", name)
}

func Range(addr string) slog.Attr {
	return slog.String("range", addr)
}

func App(owner, name string) slog.Attr {
	return slog.String("app", owner+"/"+name)
}

func Version(v int) slog.Attr {
	return slog.Int("version", v)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}
