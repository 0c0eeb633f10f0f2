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

import (
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

const truncationMarker = "\n... [truncated]"

// symbolWalker turns one syntax tree into symbols.
type symbolWalker struct {
	rules    *grammarRules
	content  []byte
	filePath string
	maxBody  int64

	// receiver and trait describe the enclosing Rust impl block.
	receiver string
	trait    string

	symbols   []*CodeSymbol
	truncated int
}

func (w *symbolWalker) walkChildren(node *sitter.Node, parent *CodeSymbol) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		w.visit(node.NamedChild(i), nil, parent)
	}
}

// visit handles node. outer, when set, is a wrapping node whose extent
// becomes the symbol's span (decorators, export-less declarations).
func (w *symbolWalker) visit(node, outer *sitter.Node, parent *CodeSymbol) {
	if node == nil {
		return
	}
	prod, ok := w.rules.productions[node.Type()]
	if !ok {
		w.walkChildren(node, parent)
		return
	}

	switch prod.kind {
	case prodContainer:
		sym := w.newSymbol(node, outer, prod, prod.symbol, parent)
		if sym == nil {
			w.walkChildren(node, parent)
			return
		}
		w.emit(sym, parent)
		if body := node.ChildByFieldName("body"); body != nil {
			prevRecv, prevTrait := w.receiver, w.trait
			w.receiver, w.trait = "", ""
			w.walkChildren(body, sym)
			w.receiver, w.trait = prevRecv, prevTrait
		}

	case prodCallable:
		sym := w.newSymbol(node, outer, prod, w.callableKind(parent), parent)
		if sym == nil {
			w.walkChildren(node, parent)
			return
		}
		w.attachReceiver(sym)
		w.emit(sym, parent)

	case prodReceiverMethod:
		sym := w.newSymbol(node, outer, prod, KindMethod, nil)
		if sym == nil {
			return
		}
		if recv := receiverTypeName(node.ChildByFieldName("receiver"), w.content); recv != "" {
			sym.Metadata = map[string]string{"receiver": recv}
		}
		w.emit(sym, nil)

	case prodTypeSpec:
		w.visitTypeSpec(node, prod, parent)

	case prodImplBlock:
		body := node.ChildByFieldName("body")
		if body == nil {
			return
		}
		prevRecv, prevTrait := w.receiver, w.trait
		w.receiver = baseTypeName(node.ChildByFieldName("type"), w.content)
		w.trait = baseTypeName(node.ChildByFieldName("trait"), w.content)
		w.walkChildren(body, parent)
		w.receiver, w.trait = prevRecv, prevTrait

	case prodDecorated:
		def := node.ChildByFieldName("definition")
		if def == nil {
			w.walkChildren(node, parent)
			return
		}
		w.visit(def, node, parent)

	case prodVarFunction:
		w.visitVarFunction(node, prod, parent)
	}
}

// callableKind: methods belong to a type; functions in a module or at file
// scope stay functions.
func (w *symbolWalker) callableKind(parent *CodeSymbol) SymbolKind {
	if w.receiver != "" {
		return KindMethod
	}
	if parent != nil && parent.Kind != KindModule {
		return KindMethod
	}
	return KindFunction
}

func (w *symbolWalker) visitTypeSpec(node *sitter.Node, prod production, parent *CodeSymbol) {
	typ := node.ChildByFieldName("type")
	if typ == nil {
		return
	}
	var kind SymbolKind
	switch typ.Type() {
	case "struct_type":
		kind = KindClass
	case "interface_type":
		kind = KindInterface
	default:
		return
	}

	// A lone spec takes the declaration's extent so the "type" keyword and
	// the comment above it belong to the symbol.
	var outer *sitter.Node
	if decl := node.Parent(); decl != nil && decl.Type() == "type_declaration" && countNamed(decl, "type_spec") == 1 {
		outer = decl
	}
	sym := w.newSymbol(node, outer, prod, kind, parent)
	if sym == nil {
		return
	}
	w.emit(sym, parent)
	if kind == KindInterface {
		w.walkChildren(typ, sym)
	}
}

func (w *symbolWalker) visitVarFunction(node *sitter.Node, prod production, parent *CodeSymbol) {
	value := node.ChildByFieldName("value")
	if value == nil {
		return
	}
	if !w.rules.functionValues[value.Type()] {
		w.walkChildren(node, parent)
		return
	}
	nameNode := node.ChildByFieldName(prod.nameFieldOrDefault())
	if nameNode == nil || strings.HasSuffix(nameNode.Type(), "pattern") {
		return
	}

	var outer *sitter.Node
	if decl := node.Parent(); decl != nil && node.Type() == "variable_declarator" &&
		(decl.Type() == "lexical_declaration" || decl.Type() == "variable_declaration") &&
		decl.NamedChildCount() == 1 {
		outer = decl
	}
	sym := w.buildSymbol(node, outer, value, nameNode, w.callableKind(parent), parent)
	if sym == nil {
		return
	}
	w.attachReceiver(sym)
	w.emit(sym, parent)
}

func (w *symbolWalker) attachReceiver(sym *CodeSymbol) {
	if w.receiver == "" {
		return
	}
	sym.Metadata = map[string]string{"receiver": w.receiver}
	if w.trait != "" {
		sym.Metadata["trait"] = w.trait
	}
}

// newSymbol builds the symbol for node, or returns nil when the node has no
// name (anonymous classes, unnamed functions).
func (w *symbolWalker) newSymbol(node, outer *sitter.Node, prod production, kind SymbolKind, parent *CodeSymbol) *CodeSymbol {
	nameNode := node.ChildByFieldName(prod.nameFieldOrDefault())
	if nameNode == nil {
		return nil
	}
	return w.buildSymbol(node, outer, node, nameNode, kind, parent)
}

// buildSymbol assembles a symbol. def carries the body used for the
// signature; the span covers outer when set, else node.
func (w *symbolWalker) buildSymbol(node, outer, def, nameNode *sitter.Node, kind SymbolKind, parent *CodeSymbol) *CodeSymbol {
	span := node
	if outer != nil {
		span = outer
	}
	name := strings.TrimSpace(w.text(nameNode))
	if name == "" {
		return nil
	}

	sym := &CodeSymbol{
		Name:     name,
		Kind:     kind,
		FilePath: w.filePath,
		Span: Span{
			StartLine: int(span.StartPoint().Row) + 1,
			EndLine:   int(span.EndPoint().Row) + 1,
			StartCol:  int(span.StartPoint().Column) + 1,
			EndCol:    int(span.EndPoint().Column) + 1,
		},
		Body:      w.truncateBody(w.text(span)),
		Signature: w.signature(span, def, node, kind),
	}
	if parent != nil {
		sym.Parent = parent.Name
	}
	if w.rules.doc == docPythonString {
		sym.Docstring = pythonDocstring(node, w.content)
	} else {
		sym.Docstring = w.commentDoc(span)
	}
	return sym
}

func (w *symbolWalker) emit(sym *CodeSymbol, parent *CodeSymbol) {
	if parent != nil {
		parent.Children = append(parent.Children, sym)
	}
	w.symbols = append(w.symbols, sym)
}

func (w *symbolWalker) text(node *sitter.Node) string {
	return string(w.content[node.StartByte():node.EndByte()])
}

func (w *symbolWalker) truncateBody(body string) string {
	if w.maxBody <= 0 || int64(len(body)) <= w.maxBody {
		return body
	}
	cut := int(w.maxBody)
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	w.truncated++
	return body[:cut] + truncationMarker
}

// signature is the declaration header: text from the start of span up to
// the body of def, whitespace collapsed, trailing "{" or ":" removed.
// Nodes without a body use their first line, or their whole text for
// bodiless callables such as interface methods.
func (w *symbolWalker) signature(span, def, node *sitter.Node, kind SymbolKind) string {
	start := span.StartByte()
	if def == node && span != node && node.Type() != "type_spec" {
		// Decorators are not part of the header.
		start = node.StartByte()
	}

	var raw string
	if body := def.ChildByFieldName("body"); body != nil && body.StartByte() >= start {
		raw = string(w.content[start:body.StartByte()])
	} else {
		raw = string(w.content[start:span.EndByte()])
		if kind != KindFunction && kind != KindMethod {
			if i := strings.IndexByte(raw, '\n'); i >= 0 {
				raw = raw[:i]
			}
		}
	}

	sig := strings.Join(strings.Fields(raw), " ")
	sig = strings.TrimRight(sig, " ;")
	sig = strings.TrimSuffix(sig, "{")
	sig = strings.TrimSuffix(sig, ":")
	return strings.TrimSpace(sig)
}

// commentDoc collects the contiguous comment block directly above anchor.
// When anchor has none and sits inside an export statement, the block
// above the export is used.
func (w *symbolWalker) commentDoc(anchor *sitter.Node) string {
	if len(w.rules.commentTypes) == 0 {
		return ""
	}
	doc := w.commentsAbove(anchor)
	if doc == "" {
		if p := anchor.Parent(); p != nil && p.Type() == "export_statement" {
			doc = w.commentsAbove(p)
		}
	}
	return doc
}

func (w *symbolWalker) commentsAbove(anchor *sitter.Node) string {
	var blocks []string
	nextRow := anchor.StartPoint().Row
	for prev := anchor.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if w.rules.transparent[prev.Type()] {
			nextRow = prev.StartPoint().Row
			continue
		}
		if !w.rules.commentTypes[prev.Type()] {
			break
		}
		if prev.EndPoint().Row+1 < nextRow {
			break
		}
		blocks = append(blocks, cleanComment(w.text(prev)))
		nextRow = prev.StartPoint().Row
	}
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return strings.TrimSpace(strings.Join(blocks, "\n"))
}

// cleanComment strips comment markers from one comment node.
func cleanComment(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/*") {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
		raw = strings.TrimLeft(raw, "*!")
		lines := strings.Split(raw, "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "*")
			lines[i] = strings.TrimSpace(line)
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "/!")
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// pythonDocstring returns the string literal opening def's body, unquoted.
func pythonDocstring(def *sitter.Node, content []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return unquotePython(string(content[str.StartByte():str.EndByte()]))
}

func unquotePython(lit string) string {
	lit = strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(lit) >= 2*len(q) && strings.HasPrefix(lit, q) && strings.HasSuffix(lit, q) {
			return dedentDoc(lit[len(q) : len(lit)-len(q)])
		}
	}
	return strings.TrimSpace(lit)
}

// dedentDoc trims the docstring and strips the common indentation of its
// continuation lines.
func dedentDoc(doc string) string {
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	if len(lines) == 1 {
		return lines[0]
	}
	indent := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}
	for i := 1; i < len(lines); i++ {
		if indent > 0 && len(lines[i]) >= indent {
			lines[i] = lines[i][indent:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func countNamed(node *sitter.Node, typ string) int {
	n := 0
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if node.NamedChild(i).Type() == typ {
			n++
		}
	}
	return n
}

// receiverTypeName extracts the type from a Go receiver list:
// "(s *Server)" gives "Server", "(c *Container[T])" gives "Container".
func receiverTypeName(receiver *sitter.Node, content []byte) string {
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		child := receiver.NamedChild(i)
		if child.Type() == "parameter_declaration" {
			return baseTypeName(child.ChildByFieldName("type"), content)
		}
	}
	return ""
}

// baseTypeName reduces a type expression to its bare name, dropping
// pointers, references and type arguments.
func baseTypeName(typeNode *sitter.Node, content []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "type_identifier", "identifier":
		return string(content[typeNode.StartByte():typeNode.EndByte()])
	case "generic_type":
		if inner := typeNode.ChildByFieldName("type"); inner != nil {
			return baseTypeName(inner, content)
		}
	case "pointer_type", "reference_type":
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			child := typeNode.NamedChild(i)
			if child.Type() != "lifetime" && child.Type() != "mutable_specifier" {
				return baseTypeName(child, content)
			}
		}
	}
	name := string(content[typeNode.StartByte():typeNode.EndByte()])
	name = strings.TrimLeft(name, "*&")
	if idx := strings.IndexAny(name, "[<"); idx > 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}
