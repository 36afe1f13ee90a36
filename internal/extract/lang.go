// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd002-tag-extraction R2;
//
//	docs/ARCHITECTURE § Tag Extraction.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// langSpec holds the tree-sitter language and query patterns for a file type.
// An empty refQ marks a definitions-only grammar; references for those files
// are backfilled from the identifier tokenizer.
type langSpec struct {
	name string
	lang *sitter.Language
	defQ string // Tree-sitter query for definitions (capture @name)
	refQ string // Tree-sitter query for references (capture @ref)

	defOnce  sync.Once
	defQuery *sitter.Query
	defErr   error

	refOnce  sync.Once
	refQuery *sitter.Query
	refErr   error
}

// defPatterns returns the compiled definitions query, compiling it at most
// once. Compiled queries are safe to share across goroutines.
func (s *langSpec) defPatterns() (*sitter.Query, error) {
	s.defOnce.Do(func() {
		s.defQuery, s.defErr = sitter.NewQuery([]byte(s.defQ), s.lang)
	})
	return s.defQuery, s.defErr
}

// refPatterns returns the compiled references query, or (nil, nil) for
// definitions-only grammars.
func (s *langSpec) refPatterns() (*sitter.Query, error) {
	if s.refQ == "" {
		return nil, nil
	}
	s.refOnce.Do(func() {
		s.refQuery, s.refErr = sitter.NewQuery([]byte(s.refQ), s.lang)
	})
	return s.refQuery, s.refErr
}

// specsByExt maps file extensions to their langSpec.
var specsByExt = map[string]*langSpec{
	".go": {
		name: "go",
		lang: golang.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(method_declaration name: (field_identifier) @name)
			(type_declaration (type_spec name: (type_identifier) @name))
		`,
		refQ: `
			(call_expression function: (identifier) @ref)
			(call_expression function: (selector_expression field: (field_identifier) @ref))
			(type_identifier) @ref
		`,
	},
	".py": {
		name: "python",
		lang: python.GetLanguage(),
		defQ: `
			(function_definition name: (identifier) @name)
			(class_definition name: (identifier) @name)
		`,
		refQ: `
			(call function: (identifier) @ref)
			(call function: (attribute attribute: (identifier) @ref))
		`,
	},
	".js": {
		name: "javascript",
		lang: javascript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (identifier) @name)
			(variable_declarator name: (identifier) @name)
		`,
		refQ: `
			(call_expression function: (identifier) @ref)
			(call_expression function: (member_expression property: (property_identifier) @ref))
			(new_expression constructor: (identifier) @ref)
		`,
	},
	".ts": {
		name: "typescript",
		lang: typescript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name)
			(class_declaration name: (type_identifier) @name)
			(interface_declaration name: (type_identifier) @name)
			(variable_declarator name: (identifier) @name)
		`,
		refQ: `
			(call_expression function: (identifier) @ref)
			(call_expression function: (member_expression property: (property_identifier) @ref))
			(type_identifier) @ref
		`,
	},
	// Ruby and YAML grammars only tag definitions here; references come
	// from the tokenizer backfill.
	".rb": {
		name: "ruby",
		lang: ruby.GetLanguage(),
		defQ: `
			(method name: (identifier) @name)
			(singleton_method name: (identifier) @name)
			(class name: (constant) @name)
			(module name: (constant) @name)
		`,
	},
	".yaml": {
		name: "yaml",
		lang: yaml.GetLanguage(),
		defQ: `
			(block_mapping_pair key: (flow_node) @name)
		`,
	},
	".yml": {
		name: "yaml",
		lang: yaml.GetLanguage(),
		defQ: `
			(block_mapping_pair key: (flow_node) @name)
		`,
	},
}

// shebangLangs maps interpreter names found on a #! line to a known
// extension's spec.
var shebangLangs = map[string]string{
	"python":  ".py",
	"python3": ".py",
	"ruby":    ".rb",
	"node":    ".js",
}

// resolveByExtension returns the spec for a path's extension, or nil.
func resolveByExtension(path string) *langSpec {
	return specsByExt[strings.ToLower(filepath.Ext(path))]
}

// resolveByContent inspects the first line of the source for a shebang and
// maps the interpreter to a supported language. Returns nil when the content
// gives no signal.
func resolveByContent(src []byte) *langSpec {
	if !bytes.HasPrefix(src, []byte("#!")) {
		return nil
	}
	line := src
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		line = src[:i]
	}
	fields := strings.Fields(string(line[2:]))
	if len(fields) == 0 {
		return nil
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	if ext, ok := shebangLangs[interp]; ok {
		return specsByExt[ext]
	}
	return nil
}

// resolveLang resolves the language for a file: extension first, then the
// content heuristic. Returns nil for unsupported files, which is routine,
// not an error.
func resolveLang(path string, src []byte) *langSpec {
	if spec := resolveByExtension(path); spec != nil {
		return spec
	}
	return resolveByContent(src)
}

// Language returns the tree-sitter language used for a file, or nil when the
// file is unsupported. Used by the tree renderer so both stages parse with
// the same grammar.
func Language(path string, src []byte) *sitter.Language {
	if spec := resolveLang(path, src); spec != nil {
		return spec.lang
	}
	return nil
}
