package log

import (
	"log/slog"
	"time"
)

func Flow[T ~string](name T) slog.Attr {
	return slog.String("flow", string(name))
}

func Task[T ~string](id T) slog.Attr {
	return slog.String("task", string(id))
}

func Agent[T ~string](id T) slog.Attr {
	return slog.String("agent", string(id))
}

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

// DurationMs records a duration in whole milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Int64("duration_ms", d.Milliseconds())
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
