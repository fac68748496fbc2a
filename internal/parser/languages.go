package parser

import (
	"path/filepath"
	"strings"
	"unsafe"

	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// languageSpec describes how to interpret one grammar's parse tree:
// which top-level node types are analyzable declarations, and which
// carry file-level context that every chunk needs.
type languageSpec struct {
	provider     func() unsafe.Pointer
	declKinds    map[string]types.NodeKind
	contextKinds map[string]bool
}

// languageSpecs maps language names to their compiled-in grammar and
// node classification tables.
var languageSpecs = map[string]*languageSpec{
	"cpp": {
		provider: tree_sitter_cpp.Language,
		declKinds: map[string]types.NodeKind{
			"function_definition":  types.NodeFunction,
			"class_specifier":      types.NodeClass,
			"struct_specifier":     types.NodeStruct,
			"namespace_definition": types.NodeNamespace,
		},
		contextKinds: map[string]bool{
			"preproc_include":            true,
			"using_declaration":          true,
			"namespace_alias_definition": true,
		},
	},
	"python": {
		provider: tree_sitter_python.Language,
		declKinds: map[string]types.NodeKind{
			"function_definition":  types.NodeFunction,
			"class_definition":     types.NodeClass,
			"decorated_definition": types.NodeFunction,
		},
		contextKinds: map[string]bool{
			"import_statement":        true,
			"import_from_statement":   true,
			"future_import_statement": true,
		},
	},
	"go": {
		provider: tree_sitter_go.Language,
		declKinds: map[string]types.NodeKind{
			"function_declaration": types.NodeFunction,
			"method_declaration":   types.NodeFunction,
			"type_declaration":     types.NodeStruct,
		},
		contextKinds: map[string]bool{
			"package_clause":     true,
			"import_declaration": true,
		},
	},
}

// extensionLanguages maps file extensions to language names
var extensionLanguages = map[string]string{
	".cpp": "cpp",
	".cc":  "cpp",
	".cxx": "cpp",
	".hpp": "cpp",
	".hh":  "cpp",
	".h":   "cpp",
	".py":  "python",
	".go":  "go",
}

// DetectLanguage determines the language for a file from its extension.
// Returns empty string for unsupported files.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	return extensionLanguages[ext]
}

// SupportedLanguages returns the names of all compiled-in grammars
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageSpecs))
	for name := range languageSpecs {
		names = append(names, name)
	}
	return names
}
