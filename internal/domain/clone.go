package domain

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = make([]FieldOption, len(f.Options))
		copy(out.Options, f.Options)
	}
	if f.Validation != nil {
		v := *f.Validation
		v.MinLength = cloneIntPtr(f.Validation.MinLength)
		v.MaxLength = cloneIntPtr(f.Validation.MaxLength)
		v.Min = cloneFloatPtr(f.Validation.Min)
		v.Max = cloneFloatPtr(f.Validation.Max)
		out.Validation = &v
	}
	out.DefaultValue = cloneValue(f.DefaultValue)
	return out
}

// Clone returns a deep copy of the section and all of its fields.
func (s Section) Clone() Section {
	out := s
	if s.Fields != nil {
		out.Fields = make([]Field, len(s.Fields))
		for i, field := range s.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	return out
}

func cloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, section := range sections {
		out[i] = section.Clone()
	}
	return out
}

// cloneValue copies the JSON-shaped values stored in field defaults and ticket data.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
