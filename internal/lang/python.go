package lang

// The Python walker distinguishes class, function, and decorated definitions
// per kind, so only call sites dispatch through the spec.
func init() {
	Register(&Spec{
		Language:       Python,
		FileExtensions: []string{".py"},
		CallNodeTypes:  []string{"call"},
	})
}
