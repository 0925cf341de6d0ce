package sources

import (
	"time"

	"cogload/internal/domain"
	"cogload/internal/signalproc"
)

var desktopEventMap = map[string]string{
	"WINDOW_FOCUS":  signalproc.EventWindowChange,
	"WINDOW_BLUR":   signalproc.EventWindowChange,
	"MOUSE_IDLE":    signalproc.EventIdleStart,
	"MOUSE_ACTIVE":  signalproc.EventIdleEnd,
	"SCREEN_LOCK":   signalproc.EventIdleStart,
	"SCREEN_UNLOCK": signalproc.EventIdleEnd,
}

// DesktopPayload is the raw shape sent by the desktop agent.
type DesktopPayload struct {
	Type      string         `json:"type"`
	Timestamp *float64       `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// ParseDesktopEvent converts a DesktopPayload into a TelemetryEvent.
func ParseDesktopEvent(p DesktopPayload, now func() time.Time) (domain.TelemetryEvent, bool) {
	internalType, ok := desktopEventMap[p.Type]
	if !ok {
		return domain.TelemetryEvent{}, false
	}

	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	meta := map[string]any{}
	if internalType == signalproc.EventWindowChange {
		meta["app"] = stringFieldOr(data, "app", "unknown")
		meta["title"] = stringField(data, "title")
	}

	return domain.TelemetryEvent{
		Source:    domain.SourceDesktop,
		EventType: internalType,
		Timestamp: resolveTimestamp(p.Timestamp, now),
		Metadata:  meta,
	}, true
}
