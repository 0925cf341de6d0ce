// Package sources normalizes raw payloads from each instrumentation
// plugin (browser extension, IDE extension, desktop agent, LMS connector)
// into domain.TelemetryEvent. An unrecognized raw event type yields
// (zero value, false) rather than an error; the HTTP transport answers such
// a payload with 422 and nothing enters the aggregator.
package sources

import (
	"net/url"
	"strings"
	"time"

	"cogload/internal/domain"
	"cogload/internal/signalproc"
)

var browserEventMap = map[string]string{
	"TAB_SWITCH":   signalproc.EventTabSwitch,
	"TAB_CLOSE":    signalproc.EventTabSwitch,
	"NAVIGATION":   signalproc.EventNavigation,
	"PAGE_SCROLL":  signalproc.EventScroll,
	"FOCUS_LOST":   signalproc.EventWindowChange,
	"FOCUS_GAINED": signalproc.EventWindowChange,
	"IDLE_START":   signalproc.EventIdleStart,
	"IDLE_END":     signalproc.EventIdleEnd,
}

// academicDomains is a heuristic allow-list for detecting "academic"
// browsing — extend as needed.
var academicDomains = map[string]bool{
	"scholar.google.com":      true,
	"arxiv.org":               true,
	"pubmed.ncbi.nlm.nih.gov": true,
	"jstor.org":               true,
	"semanticscholar.org":     true,
	"coursera.org":            true,
	"edx.org":                 true,
	"khanacademy.org":         true,
	"stackoverflow.com":       true,
	"docs.python.org":         true,
	"developer.mozilla.org":   true,
}

// IsAcademicURL reports whether rawURL's host matches the academic
// allow-list: exact match, or a subdomain of one (one leading "www." is
// stripped first, so "www.arxiv.org" and "arxiv.org" both match).
func IsAcademicURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return false
	}
	for domainName := range academicDomains {
		if host == domainName || strings.HasSuffix(host, "."+domainName) {
			return true
		}
	}
	return false
}

// BrowserPayload is the raw shape POSTed by the browser extension.
type BrowserPayload struct {
	Type      string         `json:"type"`
	Timestamp *float64       `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// ParseBrowserEvent converts a BrowserPayload into a TelemetryEvent.
func ParseBrowserEvent(p BrowserPayload, now func() time.Time) (domain.TelemetryEvent, bool) {
	internalType, ok := browserEventMap[p.Type]
	if !ok {
		return domain.TelemetryEvent{}, false
	}

	ts := resolveTimestamp(p.Timestamp, now)
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	meta := map[string]any{}

	switch internalType {
	case signalproc.EventTabSwitch:
		toURL := stringField(data, "toUrl")
		meta["from_url"] = stringField(data, "fromUrl")
		meta["to_url"] = toURL
		meta["is_academic"] = IsAcademicURL(toURL)
	case signalproc.EventScroll:
		meta["delta_y"] = data["deltaY"]
		meta["url"] = stringField(data, "url")
	case signalproc.EventNavigation:
		u := stringField(data, "url")
		meta["url"] = u
		meta["is_academic"] = IsAcademicURL(u)
	}

	return domain.TelemetryEvent{
		Source:    domain.SourceBrowser,
		EventType: internalType,
		Timestamp: ts,
		Metadata:  meta,
	}, true
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func resolveTimestamp(ts *float64, now func() time.Time) float64 {
	if ts != nil {
		return *ts
	}
	return float64(now().UnixNano()) / 1e9
}
