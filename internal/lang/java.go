package lang

func init() {
	Register(&Spec{
		Language:       Java,
		FileExtensions: []string{".java"},
		TypeNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
		},
		CallNodeTypes: []string{"method_invocation"},
	})
}
