package log

import (
	"fmt"
	"strings"
)

type LogLevel int

const (
	Debug LogLevel = iota
	Info
	Warn
	Error
	Off
)

func (l LogLevel) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Off:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// Parse converts a configured level name. An empty name selects Info.
func Parse(level string) (LogLevel, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return Debug, nil
	case "", "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR":
		return Error, nil
	case "OFF", "NONE":
		return Off, nil
	default:
		return Info, fmt.Errorf("dfs: invalid log level '%s'", level)
	}
}

// Terminal escape sequences per level, reset for anything else.
var colors = map[LogLevel]string{
	Debug: "\033[34m",
	Info:  "\033[32m",
	Warn:  "\033[33m",
	Error: "\033[31m",
}

func (l LogLevel) color() string {
	if c, ok := colors[l]; ok {
		return c
	}
	return "\033[0m"
}
