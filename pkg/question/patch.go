package question

// Patch carries a partial update. Nil fields are left untouched, so "not
// provided" is distinct from a zero value. Identity and save status are not
// patchable.
type Patch struct {
	Type       *Type     `json:"type,omitempty"`
	Label      *string   `json:"label,omitempty"`
	HelperText *string   `json:"helperText,omitempty"`
	NumberType *string   `json:"numberType,omitempty"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Options    *[]string `json:"options,omitempty"`
	Required   *bool     `json:"required,omitempty"`
	Hidden     *bool     `json:"hidden,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Type == nil && p.Label == nil && p.HelperText == nil &&
		p.NumberType == nil && p.Min == nil && p.Max == nil &&
		p.Options == nil && p.Required == nil && p.Hidden == nil
}

// Apply merges the patch into q and returns the result; q is not modified.
func (p Patch) Apply(q Question) Question {
	out := q.Clone()
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.HelperText != nil {
		out.HelperText = *p.HelperText
	}
	if p.NumberType != nil {
		out.NumberType = *p.NumberType
	}
	if p.Min != nil {
		out.Min = Float(*p.Min)
	}
	if p.Max != nil {
		out.Max = Float(*p.Max)
	}
	if p.Options != nil {
		out.Options = append([]string{}, (*p.Options)...)
	}
	if p.Required != nil {
		out.Required = *p.Required
	}
	if p.Hidden != nil {
		out.Hidden = *p.Hidden
	}
	return out
}

// String, Bool and Kind are small constructors for patch literals.
func String(v string) *string { return &v }

func Bool(v bool) *bool { return &v }

func Kind(t Type) *Type { return &t }

// Strings wraps options for a patch.
func Strings(values ...string) *[]string {
	out := append([]string{}, values...)
	return &out
}
