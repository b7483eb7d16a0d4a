// internal/settings/form.go
package settings

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// FormFields maps setup-form field names to setting names.
var FormFields = map[string]string{
	"ssid":          "ssid",
	"pswd":          "rotpass",
	"lpswd":         "rotlpswd",
	"ident":         NameIdentity,
	"host":          NameHost,
	"port":          NamePort,
	"cpath":         "cfgpath",
	"rpath":         NameReport,
	"des_temp":      NameDesired,
	"precision":     "precision",
	"maxreporttime": NameReportEvery,
	"mode":          NameMode,
}

// rotatedPrefix marks settings stored obfuscated with Rotate.
const rotatedPrefix = "rot"

// Pair is one submitted form field.
type Pair struct {
	Name  string
	Value string
}

// ParsePair splits "name=value" on the first '='.
func ParsePair(s string) (Pair, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Pair{}, fmt.Errorf("settings: %q is not name=value", s)
	}
	return Pair{Name: name, Value: value}, nil
}

// ApplyForm applies submitted form fields in order and reports whether any
// setting changed. Values for rot-prefixed settings are obfuscated before
// storing. Empty values for rot-prefixed and numeric settings are ignored, so
// an unfilled field never blanks or rejects the stored one.
//
// All valid fields are applied even when some fail, unknown names included;
// the failures are joined.
func ApplyForm(r *Registry, pairs []Pair) (bool, error) {
	changed := false
	var errs []error

	for _, p := range pairs {
		target, ok := FormFields[p.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("form field %s: %w", p.Name, ErrUnknownField))
			continue
		}

		value := p.Value
		if _, scalar := r.Scalar(target); scalar && value == "" {
			continue
		}
		if strings.HasPrefix(target, rotatedPrefix) {
			if value == "" {
				continue
			}
			value = Rotate(value, rotation(r))
		}

		c, err := r.Set(target, value)
		if err != nil {
			errs = append(errs, fmt.Errorf("form field %s: %w", p.Name, err))
			continue
		}
		changed = changed || c
	}

	return changed, errors.Join(errs...)
}

// Rotate obfuscates s by rotating every byte right by n bits.
func Rotate(s string, n int) string {
	b := []byte(s)
	for i := range b {
		b[i] = bits.RotateLeft8(b[i], -n)
	}
	return string(b)
}

// Unrotate reverses Rotate.
func Unrotate(s string, n int) string {
	return Rotate(s, -n)
}

// rotation returns the configured password rotation in [0, 8).
func rotation(r *Registry) int {
	v, ok := r.Scalar(NameRot)
	if !ok {
		return 0
	}
	n := int(v.Int()) % 8
	if n < 0 {
		n += 8
	}
	return n
}

// Password returns the clear text of a rot-prefixed setting.
func Password(r *Registry, name string) (string, bool) {
	s, ok := r.Text(name)
	if !ok {
		return "", false
	}
	return Unrotate(s, rotation(r)), true
}
