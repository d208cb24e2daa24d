package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form model.
type RenderOptions struct {
	// Values pre-populates rendered controls keyed by field name.
	Values map[string]string
	// Errors surfaces validation feedback keyed by field name. Use
	// MapErrorPayload to fold unknown keys into FormErrors.
	Errors map[string][]string
	// FormErrors are shown above the fields.
	FormErrors []string
	// ReadOnly renders the accepted submission instead of inputs.
	ReadOnly bool
	// Hidden fields are emitted verbatim, sorted by name.
	Hidden map[string]string
}

// FieldErrors lifts single messages into the slice form renderers consume.
func FieldErrors(errs map[string]string) map[string][]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string][]string, len(errs))
	for name, message := range errs {
		out[name] = []string{message}
	}
	return out
}
