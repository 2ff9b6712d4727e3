package plugin

// MergeOptions resolves the effective options for a plugin run: the
// declared schema supplies defaults, supplied values override known
// keys, and keys the schema does not declare are dropped.
func MergeOptions(schema map[string]Option, supplied Options) Options {
	merged := make(Options, len(schema))
	for key, opt := range schema {
		merged[key] = opt.Default
	}
	for key, value := range supplied {
		if _, known := schema[key]; known {
			merged[key] = value
		}
	}
	return merged
}

// String reads a string option, falling back when absent or mistyped.
func (o Options) String(key, fallback string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return fallback
}

// Int reads an integer option, falling back when absent or mistyped.
// JSON-decoded numbers arrive as float64 and are accepted.
func (o Options) Int(key string, fallback int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Bool reads a boolean option, falling back when absent or mistyped.
func (o Options) Bool(key string, fallback bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return fallback
}
