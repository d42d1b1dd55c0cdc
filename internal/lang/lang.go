package lang

// Language identifies a supported programming language.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	Java       Language = "java"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
)

// All returns every language a walker is registered for.
func All() []Language {
	return []Language{Go, Python, Java, JavaScript, TypeScript, TSX}
}

// Spec defines the tree-sitter node kinds a walker dispatches on by set
// membership. Kinds a walker must handle individually stay in the walker.
type Spec struct {
	Language       Language
	FileExtensions []string

	// TypeNodeTypes lists type declaration kinds, for walkers that treat
	// every type declaration alike.
	TypeNodeTypes []string
	// CallNodeTypes lists call-expression kinds.
	CallNodeTypes []string
}

// registry maps file extensions to specs.
var registry = map[string]*Spec{}

// Register adds a Spec to the extension registry.
func Register(spec *Spec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the Spec for a file extension (e.g. ".go"), or nil.
func ForExtension(ext string) *Spec {
	return registry[ext]
}

// ForLanguage returns the Spec for a language, or nil.
func ForLanguage(l Language) *Spec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// ForName maps a lower-cased language name to a Language tag.
func ForName(name string) (Language, bool) {
	for _, l := range All() {
		if string(l) == name {
			return l, true
		}
	}
	return "", false
}

// Detect returns the Language for a file extension.
func Detect(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// Extensions returns every registered file extension.
func Extensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}
