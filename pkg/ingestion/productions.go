// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

// prodKind enumerates the ways a syntax node can produce a symbol.
type prodKind int

const (
	// prodContainer emits a class-like symbol and walks its body with the
	// symbol as parent.
	prodContainer prodKind = iota + 1
	// prodCallable emits a Method inside a container or receiver block,
	// otherwise a Function. Its body is not walked.
	prodCallable
	// prodReceiverMethod emits a Go method with metadata["receiver"].
	prodReceiverMethod
	// prodTypeSpec emits a Go struct as Class and a Go interface as Interface.
	prodTypeSpec
	// prodImplBlock emits nothing; callables in its body become methods of
	// the implemented type.
	prodImplBlock
	// prodDecorated widens the span of the wrapped definition to cover its
	// decorators and delegates to it.
	prodDecorated
	// prodVarFunction emits a callable bound to a variable or class field,
	// when the bound value is a function expression.
	prodVarFunction
)

type production struct {
	kind prodKind
	// symbol is the emitted kind for prodContainer.
	symbol SymbolKind
	// nameField overrides the "name" field lookup.
	nameField string
}

func (p production) nameFieldOrDefault() string {
	if p.nameField != "" {
		return p.nameField
	}
	return "name"
}

type docStyle int

const (
	docComments docStyle = iota
	docPythonString
)

// grammarRules is the extraction table for one language.
type grammarRules struct {
	productions map[string]production
	doc         docStyle
	// commentTypes are the node types that make up a doc comment block.
	commentTypes map[string]bool
	// transparent node types may sit between a doc comment and the
	// definition it documents (Rust attributes, for example).
	transparent map[string]bool
	// functionValues are the node types accepted as a prodVarFunction value.
	functionValues map[string]bool
}

var (
	container = func(k SymbolKind) production { return production{kind: prodContainer, symbol: k} }
	callable  = production{kind: prodCallable}
)

var jsFunctionValues = map[string]bool{
	"arrow_function":                true,
	"function":                      true,
	"function_expression":           true,
	"generator_function":            true,
	"generator_function_expression": true,
}

var javascriptProductions = map[string]production{
	"class_declaration":              container(KindClass),
	"method_definition":              callable,
	"function_declaration":           callable,
	"generator_function_declaration": callable,
	"variable_declarator":            {kind: prodVarFunction},
	"field_definition":               {kind: prodVarFunction, nameField: "property"},
}

func typescriptProductions() map[string]production {
	m := make(map[string]production, len(javascriptProductions)+10)
	for k, v := range javascriptProductions {
		m[k] = v
	}
	m["abstract_class_declaration"] = container(KindClass)
	m["interface_declaration"] = container(KindInterface)
	m["enum_declaration"] = container(KindEnum)
	m["internal_module"] = container(KindModule)
	m["module"] = container(KindModule)
	m["method_signature"] = callable
	m["abstract_method_signature"] = callable
	m["function_signature"] = callable
	m["public_field_definition"] = production{kind: prodVarFunction}
	delete(m, "field_definition")
	return m
}

// languageRules is the closed production table, keyed by language.
var languageRules = map[Language]*grammarRules{
	LangPython: {
		productions: map[string]production{
			"class_definition":     container(KindClass),
			"function_definition":  callable,
			"decorated_definition": {kind: prodDecorated},
		},
		doc: docPythonString,
	},
	LangJavaScript: {
		productions:    javascriptProductions,
		commentTypes:   map[string]bool{"comment": true},
		functionValues: jsFunctionValues,
	},
	LangTypeScript: {
		productions:    typescriptProductions(),
		commentTypes:   map[string]bool{"comment": true},
		transparent:    map[string]bool{"decorator": true},
		functionValues: jsFunctionValues,
	},
	LangTSX: {
		productions:    typescriptProductions(),
		commentTypes:   map[string]bool{"comment": true},
		transparent:    map[string]bool{"decorator": true},
		functionValues: jsFunctionValues,
	},
	LangGo: {
		productions: map[string]production{
			"function_declaration": callable,
			"method_declaration":   {kind: prodReceiverMethod},
			"type_spec":            {kind: prodTypeSpec},
			"method_spec":          callable,
			"method_elem":          callable,
		},
		commentTypes: map[string]bool{"comment": true},
	},
	LangJava: {
		productions: map[string]production{
			"class_declaration":       container(KindClass),
			"record_declaration":      container(KindClass),
			"interface_declaration":   container(KindInterface),
			"enum_declaration":        container(KindEnum),
			"method_declaration":      callable,
			"constructor_declaration": callable,
		},
		commentTypes: map[string]bool{"line_comment": true, "block_comment": true, "comment": true},
	},
	LangRust: {
		productions: map[string]production{
			"struct_item":             container(KindClass),
			"union_item":              container(KindClass),
			"enum_item":               container(KindEnum),
			"trait_item":              container(KindInterface),
			"mod_item":                container(KindModule),
			"impl_item":               {kind: prodImplBlock},
			"function_item":           callable,
			"function_signature_item": callable,
		},
		commentTypes: map[string]bool{"line_comment": true, "block_comment": true},
		transparent:  map[string]bool{"attribute_item": true},
	},
}
