package state

// Well-known flash keys.
const (
	FlashError   = "error"
	FlashWarning = "warning"
	FlashSuccess = "success"
)

// Flash carries messages across exactly one redirect: written on
// response N, read and discarded on request N+1. It can also carry a
// submitted form so a redirect-on-validation-failure can re-populate
// the fields.
type Flash struct {
	values  map[string]string
	form    *Form
	discard bool
	invalid bool
	changed bool
}

// NewFlash creates an empty flash scope.
func NewFlash() *Flash {
	return &Flash{values: map[string]string{}}
}

// RestoreFlash rebuilds a flash scope from a decoded cookie. The
// restored flash is marked for discard: it has been read once and must
// not survive another request.
func RestoreFlash(values map[string]string, form *Form) *Flash {
	if values == nil {
		values = map[string]string{}
	}
	return &Flash{values: values, form: form, discard: true}
}

// Get retrieves a flash value. Returns "" if absent.
func (f *Flash) Get(key string) string {
	return f.values[key]
}

// Set stores a flash value for the next request. Entries containing
// reserved delimiter characters are dropped silently.
func (f *Flash) Set(key, value string) {
	if !storable(key) || !storable(value) {
		return
	}
	f.values[key] = value
	f.changed = true
}

// SetError stores a message under the "error" key.
func (f *Flash) SetError(message string) { f.Set(FlashError, message) }

// SetWarning stores a message under the "warning" key.
func (f *Flash) SetWarning(message string) { f.Set(FlashWarning, message) }

// SetSuccess stores a message under the "success" key.
func (f *Flash) SetSuccess(message string) { f.Set(FlashSuccess, message) }

// Error returns the "error" message, if any.
func (f *Flash) Error() string { return f.values[FlashError] }

// Warning returns the "warning" message, if any.
func (f *Flash) Warning() string { return f.values[FlashWarning] }

// Success returns the "success" message, if any.
func (f *Flash) Success() string { return f.values[FlashSuccess] }

// Values returns a copy of all flash values.
func (f *Flash) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// HasContent reports whether the flash holds at least one value.
func (f *Flash) HasContent() bool {
	return len(f.values) > 0
}

// KeepForm attaches a submitted form so it survives the next redirect.
func (f *Flash) KeepForm(form *Form) {
	f.form = form
	f.changed = true
}

// Form returns the carried form, or nil.
func (f *Flash) Form() *Form {
	return f.form
}

// IsDiscard reports whether this flash was consumed on the current
// request and must be cleared from the client.
func (f *Flash) IsDiscard() bool {
	return f.discard
}

// HasChanges reports whether new values were written this request.
func (f *Flash) HasChanges() bool {
	return f.changed
}

// Invalidate marks the flash invalid; the cookie layer clears it.
func (f *Flash) Invalidate() {
	f.invalid = true
}

// IsInvalid reports whether the flash was invalidated.
func (f *Flash) IsInvalid() bool {
	return f.invalid
}
