package lang

func init() {
	Register(&Spec{
		Language:       JavaScript,
		FileExtensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		CallNodeTypes:  []string{"call_expression"},
	})
}
