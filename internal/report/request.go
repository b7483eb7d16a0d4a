// internal/report/request.go
package report

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tamzrod/thermostat/internal/sensor"
	"github.com/tamzrod/thermostat/internal/settings"
)

// ErrNotConfigured is returned when the report host or path is not set.
var ErrNotConfigured = errors.New("report: host or path not configured")

// Report is the state sent in one report cycle.
type Report struct {
	Temperature float32
	RelayOn     bool
	Comment     string
	Sensors     []sensor.Reading
}

// Target returns the configured report host and path.
func Target(reg *settings.Registry) (host, path string, err error) {
	host, okHost := reg.Text(settings.NameHost)
	path, okPath := reg.Text(settings.NameReport)
	if !okHost || !okPath || host == "" || path == "" {
		return "", "", ErrNotConfigured
	}
	return host, path, nil
}

// BuildRequest renders the report request for the current settings.
//
//	GET <path>?ident=..&des=..&tmp=..&relay=on|off&txt=..[&sensor_<addr>=..] HTTP/1.0
//	Host: <host>
//	[If-None-Match: <etag>]
func BuildRequest(reg *settings.Registry, r Report) ([]byte, error) {
	host, path, err := Target(reg)
	if err != nil {
		return nil, err
	}

	ident, _ := reg.Text(settings.NameIdentity)
	des, _ := reg.Scalar(settings.NameDesired)

	var b strings.Builder
	b.WriteString("GET ")
	b.WriteString(path)
	b.WriteString("?ident=")
	b.WriteString(ident)
	b.WriteString("&des=")
	b.WriteString(formatTemp(des.Float()))
	b.WriteString("&tmp=")
	b.WriteString(formatTemp(r.Temperature))
	b.WriteString("&relay=")
	if r.RelayOn {
		b.WriteString("on")
	} else {
		b.WriteString("off")
	}
	b.WriteString("&txt=")
	b.WriteString(SanitizeComment(r.Comment))

	for _, s := range r.Sensors {
		if !s.OK {
			continue
		}
		b.WriteString("&sensor_")
		b.WriteString(s.Addr.String())
		b.WriteByte('=')
		b.WriteString(formatTemp(s.TempC))
	}

	b.WriteString(" HTTP/1.0\r\nHost: ")
	b.WriteString(host)
	b.WriteString("\r\n")

	if etag, ok := reg.Text(settings.NameETag); ok && etag != "" {
		b.WriteString("If-None-Match: ")
		b.WriteString(etag)
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

// SanitizeComment replaces spaces with '+'. Nothing else is escaped.
func SanitizeComment(s string) string {
	return strings.ReplaceAll(s, " ", "+")
}

func formatTemp(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 2, 32)
}
