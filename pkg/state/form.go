package state

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
)

// File is an uploaded attachment.
type File struct {
	Name string
	Data []byte
}

// Form is the parsed request body of a form submission: an ordered
// multi-valued field map, file attachments, and the validation errors
// accumulated by controller or filter code.
type Form struct {
	values    map[string][]string
	order     []string
	files     map[string][]File
	errors    map[string]string
	submitted bool
	kept      bool
}

// NewForm creates an empty, unsubmitted form.
func NewForm() *Form {
	return &Form{
		values: map[string][]string{},
		files:  map[string][]File{},
		errors: map[string]string{},
	}
}

// Add appends a value for a field, preserving submission order.
func (f *Form) Add(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.order = append(f.order, name)
	}
	f.values[name] = append(f.values[name], value)
}

// Value returns the first value for a field, or "".
func (f *Form) Value(name string) string {
	if vs := f.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns all values submitted for a field.
func (f *Form) Values(name string) []string {
	return f.values[name]
}

// Names returns the field names in submission order.
func (f *Form) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// AddFile attaches an uploaded file to a field.
func (f *Form) AddFile(name string, file File) {
	f.files[name] = append(f.files[name], file)
}

// File returns the first file uploaded for a field, or nil.
func (f *Form) File(name string) *File {
	if fs := f.files[name]; len(fs) > 0 {
		return &fs[0]
	}
	return nil
}

// Submitted reports whether a body was actually posted.
func (f *Form) Submitted() bool {
	return f.submitted
}

// SetSubmitted marks the form as carrying posted data.
func (f *Form) SetSubmitted(submitted bool) {
	f.submitted = submitted
}

// Keep carries the form through the next redirect via the flash cookie,
// so a failed validation can re-render the form with its input intact.
func (f *Form) Keep() {
	f.kept = true
}

// IsKept reports whether the form should survive the next redirect.
func (f *Form) IsKept() bool {
	return f.kept
}

// Valid reports whether no validation rule has failed so far.
func (f *Form) Valid() bool {
	return len(f.errors) == 0
}

// Error returns the validation message recorded for a field, or "".
func (f *Form) Error(name string) string {
	return f.errors[name]
}

// Errors returns a copy of all validation errors, field name to message.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// AddError records a validation failure for a field. The first error
// per field wins.
func (f *Form) AddError(name, message string) {
	if _, ok := f.errors[name]; !ok {
		f.errors[name] = message
	}
}

// Validation rules. Applied imperatively by controller or filter code.

// Required fails when the field is empty.
func (f *Form) Required(name string) {
	if f.Value(name) == "" {
		f.AddError(name, fmt.Sprintf("%s is required", name))
	}
}

// Email fails when the field is not a parseable address.
func (f *Form) Email(name string) {
	if v := f.Value(name); v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			f.AddError(name, fmt.Sprintf("%s must be a valid email address", name))
		}
	}
}

// MinLength fails when the field is shorter than n characters.
func (f *Form) MinLength(name string, n int) {
	if len(f.Value(name)) < n {
		f.AddError(name, fmt.Sprintf("%s must be at least %d characters", name, n))
	}
}

// MaxLength fails when the field is longer than n characters.
func (f *Form) MaxLength(name string, n int) {
	if len(f.Value(name)) > n {
		f.AddError(name, fmt.Sprintf("%s must be at most %d characters", name, n))
	}
}

// Match fails when the field does not match the pattern.
func (f *Form) Match(name string, pattern *regexp.Regexp) {
	if !pattern.MatchString(f.Value(name)) {
		f.AddError(name, fmt.Sprintf("%s has an invalid format", name))
	}
}

// Range fails when the field is not a number within [min, max].
func (f *Form) Range(name string, min, max float64) {
	v, err := strconv.ParseFloat(f.Value(name), 64)
	if err != nil || v < min || v > max {
		f.AddError(name, fmt.Sprintf("%s must be between %v and %v", name, min, max))
	}
}

// EqualTo fails when two fields differ, e.g. password confirmation.
func (f *Form) EqualTo(name, other string) {
	if f.Value(name) != f.Value(other) {
		f.AddError(name, fmt.Sprintf("%s must match %s", name, other))
	}
}

// serializedForm is the wire shape used when a kept form travels inside
// the flash cookie. Files never travel; only field values and errors do.
type serializedForm struct {
	Values    map[string][]string `json:"values"`
	Order     []string            `json:"order"`
	Errors    map[string]string   `json:"errors"`
	Submitted bool                `json:"submitted"`
}

// Encode serializes the form for flash carriage.
func (f *Form) Encode() (string, error) {
	data, err := json.Marshal(serializedForm{
		Values:    f.values,
		Order:     f.order,
		Errors:    f.errors,
		Submitted: f.submitted,
	})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeForm rebuilds a kept form from its flash-cookie encoding.
// Returns ok=false on any failure, matching the cookie layer's
// degrade-to-absent policy.
func DecodeForm(encoded string) (*Form, bool) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false
	}

	var s serializedForm
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}

	form := NewForm()
	form.order = s.Order
	form.submitted = s.Submitted
	if s.Values != nil {
		form.values = s.Values
	}
	if s.Errors != nil {
		form.errors = s.Errors
	}
	return form, true
}
