package lang

func init() {
	Register(&Spec{
		Language:       Go,
		FileExtensions: []string{".go"},
		TypeNodeTypes:  []string{"type_spec"},
		CallNodeTypes:  []string{"call_expression"},
	})
}
