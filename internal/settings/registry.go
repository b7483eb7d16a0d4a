// internal/settings/registry.go
package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ScalarField describes one fixed-width numeric setting.
type ScalarField struct {
	Name    string
	Kind    Kind
	Default string   // parsed at registry construction; empty means zero
	Labels  []string // optional enum names; index is the stored number
}

// StringField describes one variable-length textual setting.
type StringField struct {
	Name string
}

// Setting is the result of a lookup.
// Exactly one of Scalar (IsString false) or Text (IsString true) is meaningful.
// Text is nil when the string field holds no buffer.
type Setting struct {
	Name     string
	IsString bool
	Scalar   Value
	Text     *string

	labels []string
}

// String formats the setting for display.
func (s Setting) String() string {
	if s.IsString {
		if s.Text == nil {
			return ""
		}
		return *s.Text
	}
	return formatScalar(ScalarField{Kind: s.Scalar.Kind(), Labels: s.labels}, s.Scalar)
}

type scalarSlot struct {
	field ScalarField
	value Value
}

type stringSlot struct {
	field StringField
	value *string
}

// Registry owns every setting value. Descriptor order is fixed at
// construction and is the on-media order used by the codec.
//
// A Registry is not safe for concurrent use; callers run one exchange at a time.
type Registry struct {
	scalars []scalarSlot
	strs    []stringSlot
}

// NewRegistry validates the descriptor tables and returns a registry holding
// the default values.
func NewRegistry(scalars []ScalarField, strs []StringField) (*Registry, error) {
	seen := make(map[string]struct{}, len(scalars)+len(strs))

	claim := func(name string) error {
		if name == "" {
			return errors.New("settings: empty field name")
		}
		if strings.ContainsAny(name, "=\r\n") {
			return fmt.Errorf("settings: field name %q contains a reserved character", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("settings: duplicate field name %q", name)
		}
		seen[name] = struct{}{}
		return nil
	}

	r := &Registry{
		scalars: make([]scalarSlot, 0, len(scalars)),
		strs:    make([]stringSlot, 0, len(strs)),
	}

	for _, f := range scalars {
		if err := claim(f.Name); err != nil {
			return nil, err
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("settings: field %q: invalid kind %d", f.Name, uint8(f.Kind))
		}
		f.Labels = append([]string(nil), f.Labels...)

		v := Zero(f.Kind)
		if f.Default != "" {
			var err error
			v, err = parseScalar(f, f.Default)
			if err != nil {
				return nil, fmt.Errorf("settings: field %q default: %w", f.Name, err)
			}
		}
		r.scalars = append(r.scalars, scalarSlot{field: f, value: v})
	}

	for _, f := range strs {
		if err := claim(f.Name); err != nil {
			return nil, err
		}
		r.strs = append(r.strs, stringSlot{field: f})
	}

	return r, nil
}

// Get looks a setting up by exact name: scalar table first, then strings.
func (r *Registry) Get(name string) (Setting, bool) {
	if i := r.scalarIndex(name); i >= 0 {
		s := r.scalars[i]
		return Setting{Name: s.field.Name, Scalar: s.value, labels: s.field.Labels}, true
	}
	if i := r.stringIndex(name); i >= 0 {
		s := r.strs[i]
		return Setting{Name: s.field.Name, IsString: true, Text: cloneText(s.value)}, true
	}
	return Setting{}, false
}

// Set parses raw into the named field and reports whether the stored value
// changed. On error the stored value is left untouched.
//
// For string fields raw is stored verbatim; "" stores no buffer.
func (r *Registry) Set(name, raw string) (bool, error) {
	if i := r.scalarIndex(name); i >= 0 {
		s := &r.scalars[i]
		v, err := parseScalar(s.field, raw)
		if err != nil {
			return false, fmt.Errorf("settings: %s: %w", name, err)
		}
		if v.Equal(s.value) {
			return false, nil
		}
		s.value = v
		return true, nil
	}

	if i := r.stringIndex(name); i >= 0 {
		s := &r.strs[i]
		var next *string
		if raw != "" {
			next = cloneText(&raw)
		}
		if textEqual(s.value, next) {
			return false, nil
		}
		s.value = next
		return true, nil
	}

	return false, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Scalar returns the current value of a scalar field.
func (r *Registry) Scalar(name string) (Value, bool) {
	i := r.scalarIndex(name)
	if i < 0 {
		return Value{}, false
	}
	return r.scalars[i].value, true
}

// Text returns the contents of a string field. ok is false when the field is
// unknown or holds no buffer.
func (r *Registry) Text(name string) (string, bool) {
	i := r.stringIndex(name)
	if i < 0 || r.strs[i].value == nil {
		return "", false
	}
	return *r.strs[i].value, true
}

// Label returns the enum label of a scalar field, or its number when the
// field has no label for the current value.
func (r *Registry) Label(name string) (string, bool) {
	i := r.scalarIndex(name)
	if i < 0 {
		return "", false
	}
	return formatScalar(r.scalars[i].field, r.scalars[i].value), true
}

// ---- codec access (definition order) ----

func (r *Registry) NumScalars() int { return len(r.scalars) }

func (r *Registry) ScalarAt(i int) (ScalarField, Value) {
	s := r.scalars[i]
	return s.field, s.value
}

// SetScalarAt installs v at index i. v must have the field's kind.
func (r *Registry) SetScalarAt(i int, v Value) error {
	s := &r.scalars[i]
	if v.Kind() != s.field.Kind {
		return fmt.Errorf("settings: field %q: kind %s, got %s", s.field.Name, s.field.Kind, v.Kind())
	}
	s.value = v
	return nil
}

// ScalarBlockSize is the byte length of all scalar fields laid end to end.
func (r *Registry) ScalarBlockSize() int {
	n := 0
	for _, s := range r.scalars {
		n += s.field.Kind.Size()
	}
	return n
}

func (r *Registry) NumStrings() int { return len(r.strs) }

// StringAt returns the field and a copy of its buffer (nil when absent).
func (r *Registry) StringAt(i int) (StringField, *string) {
	s := r.strs[i]
	return s.field, cloneText(s.value)
}

// SetStringAt replaces the buffer at index i; nil or "" clears it.
func (r *Registry) SetStringAt(i int, text *string) {
	if text != nil && *text == "" {
		text = nil
	}
	r.strs[i].value = cloneText(text)
}

// Each walks every setting in definition order, scalars first.
func (r *Registry) Each(fn func(s Setting)) {
	for _, s := range r.scalars {
		fn(Setting{Name: s.field.Name, Scalar: s.value, labels: s.field.Labels})
	}
	for _, s := range r.strs {
		fn(Setting{Name: s.field.Name, IsString: true, Text: cloneText(s.value)})
	}
}

// ---- snapshot ----

// Snapshot is a detached copy of every value in a registry.
type Snapshot struct {
	scalars []Value
	strs    []*string
}

// Snapshot copies all current values.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		scalars: make([]Value, len(r.scalars)),
		strs:    make([]*string, len(r.strs)),
	}
	for i, sc := range r.scalars {
		s.scalars[i] = sc.value
	}
	for i, st := range r.strs {
		s.strs[i] = cloneText(st.value)
	}
	return s
}

// Restore puts back the values captured by Snapshot.
// The snapshot MUST come from this registry.
func (r *Registry) Restore(s Snapshot) {
	for i := range r.scalars {
		if i < len(s.scalars) {
			r.scalars[i].value = s.scalars[i]
		}
	}
	for i := range r.strs {
		if i < len(s.strs) {
			r.strs[i].value = cloneText(s.strs[i])
		}
	}
}

// ---- helpers ----

func (r *Registry) scalarIndex(name string) int {
	for i := range r.scalars {
		if r.scalars[i].field.Name == name {
			return i
		}
	}
	return -1
}

func (r *Registry) stringIndex(name string) int {
	for i := range r.strs {
		if r.strs[i].field.Name == name {
			return i
		}
	}
	return -1
}

func parseScalar(f ScalarField, raw string) (Value, error) {
	label := strings.TrimSpace(raw)
	for i, l := range f.Labels {
		if l == label {
			return IntValue(f.Kind, int64(i)), nil
		}
	}
	return ParseValue(f.Kind, raw)
}

func formatScalar(f ScalarField, v Value) string {
	if len(f.Labels) > 0 && v.Kind() != Float {
		if n := v.Int(); n >= 0 && n < int64(len(f.Labels)) {
			return f.Labels[n]
		}
	}
	return v.String()
}

func cloneText(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.Clone(*p)
	return &s
}

func textEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
