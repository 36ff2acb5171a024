package utils

// StringPtr returns a pointer to the string value
func StringPtr(s string) *string {
	return &s
}

// DerefString returns "" for nil.
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
