package sources

import (
	"time"

	"cogload/internal/domain"
	"cogload/internal/signalproc"
)

var ideEventMap = map[string]string{
	"COMPILE_ERROR":   signalproc.EventCompileError,
	"COMPILE_SUCCESS": signalproc.EventCompileOK,
	"FILE_SAVE":       signalproc.EventFileSave,
	"FILE_SWITCH":     signalproc.EventWindowChange,
	"KEYSTROKE":       signalproc.EventKeystroke,
	"DEBUG_START":     signalproc.EventDebugStart,
	"DEBUG_STOP":      signalproc.EventDebugStop,
	"TEST_FAIL":       signalproc.EventCompileError, // treated the same as a compile error for load
	"TEST_PASS":       signalproc.EventCompileOK,
	"TERMINAL_CMD":    signalproc.EventTerminalCmd,
}

// IDEPayload is the raw shape sent by the VSCode extension.
type IDEPayload struct {
	Type      string         `json:"type"`
	Timestamp *float64       `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// ParseIDEEvent converts an IDEPayload into a TelemetryEvent.
func ParseIDEEvent(p IDEPayload, now func() time.Time) (domain.TelemetryEvent, bool) {
	internalType, ok := ideEventMap[p.Type]
	if !ok {
		return domain.TelemetryEvent{}, false
	}

	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	meta := map[string]any{
		"language": stringFieldOr(data, "language", "unknown"),
	}

	switch internalType {
	case signalproc.EventCompileError:
		meta["error_count"] = data["errorCount"]
		meta["file"] = stringField(data, "file")
	case signalproc.EventKeystroke:
		meta["interval_ms"] = data["intervalMs"]
	case signalproc.EventWindowChange:
		meta["app"] = "vscode"
		meta["file"] = stringField(data, "file")
	case signalproc.EventTerminalCmd:
		meta["command"] = stringField(data, "command")
	}

	return domain.TelemetryEvent{
		Source:    domain.SourceIDE,
		EventType: internalType,
		Timestamp: resolveTimestamp(p.Timestamp, now),
		Metadata:  meta,
	}, true
}

func stringFieldOr(data map[string]any, key, fallback string) string {
	if s := stringField(data, key); s != "" {
		return s
	}
	return fallback
}
