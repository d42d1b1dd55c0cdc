package lang

func init() {
	Register(&Spec{
		Language:       TypeScript,
		FileExtensions: []string{".ts", ".mts", ".cts"},
		CallNodeTypes:  []string{"call_expression"},
	})

	Register(&Spec{
		Language:       TSX,
		FileExtensions: []string{".tsx"},
		CallNodeTypes:  []string{"call_expression"},
	})
}
