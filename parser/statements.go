package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/deepnoodle-ai/scopegen/ast"
	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/internal/token"
)

// parseStmt decodes one statement: a mapping whose first key is the
// statement keyword. Statements that cannot be decoded become BadStmt.
func (p *Parser) parseStmt(n *yaml.Node) ast.Stmt {
	bad := &ast.BadStmt{From: p.pos(n)}
	if n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		p.errorf(errors.E1002, n, "expected a statement, found %s", describe(n))
		return bad
	}
	key, value := n.Content[0], n.Content[1]
	typ := token.Lookup(key.Value)
	if typ == token.ILLEGAL {
		p.errorf(errors.E1001, key, "unknown statement %q", key.Value).
			WithSuggestions(errors.SuggestSimilar(key.Value, token.Keywords()))
		return bad
	}
	if len(n.Content) > 2 && typ != token.CALL {
		extra := n.Content[2]
		p.errorf(errors.E1002, extra, "unexpected field %q after %s statement", extra.Value, typ)
		return bad
	}
	pos := p.pos(key)

	var stmt ast.Stmt
	switch typ {
	case token.SCOPE:
		stmt = p.parseScope(pos, value)
	case token.TRY:
		stmt = p.parseTry(pos, value)
	case token.LOOP:
		stmt = p.parseLoop(pos, value)
	case token.SWITCH:
		stmt = p.parseSwitch(pos, value)
	case token.IF:
		stmt = p.parseIf(pos, value)
	case token.LABEL:
		if name, ok := p.name(value, "label name"); ok {
			stmt = &ast.Label{LabelPos: pos, Name: name}
		}
	case token.GOTO:
		if label, ok := p.name(value, "goto label"); ok {
			stmt = &ast.Goto{GotoPos: pos, Label: label}
		}
	case token.BREAK:
		if label, ok := p.optionalName(value, "break label"); ok {
			stmt = &ast.Break{BreakPos: pos, Label: label}
		}
	case token.CONTINUE:
		if label, ok := p.optionalName(value, "continue label"); ok {
			stmt = &ast.Continue{ContinuePos: pos, Label: label}
		}
	case token.RETURN:
		if v, ok := p.optionalName(value, "return"); ok && v == "" {
			stmt = &ast.Return{ReturnPos: pos}
		} else if ok {
			p.errorf(errors.E1002, value, "return does not take a value")
		}
	case token.CALL:
		stmt = p.parseCall(pos, n)
	case token.THROW:
		if typeName, ok := p.name(value, "exception type"); ok {
			stmt = &ast.Throw{ThrowPos: pos, Type: typeName}
		}
	}
	if stmt == nil {
		return bad
	}
	return stmt
}

func (p *Parser) parseScope(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "scope", "var", "type", "body")
	if fields == nil {
		return nil
	}
	varName, ok := p.required(n, fields, "scope", "var")
	if !ok {
		return nil
	}
	typeName, ok := p.required(n, fields, "scope", "type")
	if !ok {
		return nil
	}
	return &ast.Scope{ScopePos: pos, Var: varName, Type: typeName, Body: p.parseBlock(fields["body"])}
}

func (p *Parser) parseTry(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "try", "body", "catch", "finally")
	if fields == nil {
		return nil
	}
	try := &ast.Try{TryPos: pos, Body: p.parseBlock(fields["body"])}
	if list, ok := fields["catch"]; ok {
		if list.Kind != yaml.SequenceNode {
			p.errorf(errors.E1002, list, "catch must be a list of clauses")
			return nil
		}
		for _, c := range list.Content {
			clause := p.parseCatch(c)
			if clause == nil {
				return nil
			}
			try.Catches = append(try.Catches, clause)
		}
	}
	if f, ok := fields["finally"]; ok {
		try.Finally = p.parseBlock(f)
		if try.Finally == nil {
			try.Finally = &ast.Block{Start: p.pos(f)}
		}
	}
	if len(try.Catches) == 0 && try.Finally == nil {
		p.errorf(errors.E1003, n, "try needs a catch clause or a finally block")
		return nil
	}
	return try
}

func (p *Parser) parseCatch(n *yaml.Node) *ast.Catch {
	fields := p.fields(n, "catch clause", "type", "body")
	if fields == nil {
		return nil
	}
	typeName, ok := p.required(n, fields, "catch clause", "type")
	if !ok {
		return nil
	}
	return &ast.Catch{CatchPos: p.pos(n), Type: typeName, Body: p.parseBlock(fields["body"])}
}

func (p *Parser) parseLoop(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "loop", "label", "cond", "body")
	if fields == nil {
		return nil
	}
	cond, ok := p.required(n, fields, "loop", "cond")
	if !ok {
		return nil
	}
	label, ok := p.optionalName(fields["label"], "loop label")
	if !ok {
		return nil
	}
	return &ast.Loop{LoopPos: pos, Label: label, Cond: cond, Body: p.parseBlock(fields["body"])}
}

func (p *Parser) parseSwitch(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "switch", "label", "on", "cases", "default")
	if fields == nil {
		return nil
	}
	on, ok := p.required(n, fields, "switch", "on")
	if !ok {
		return nil
	}
	label, ok := p.optionalName(fields["label"], "switch label")
	if !ok {
		return nil
	}
	sw := &ast.Switch{SwitchPos: pos, Label: label, On: on}
	if list, ok := fields["cases"]; ok {
		if list.Kind != yaml.SequenceNode {
			p.errorf(errors.E1002, list, "cases must be a list")
			return nil
		}
		for _, c := range list.Content {
			arm := p.parseCase(c)
			if arm == nil {
				return nil
			}
			sw.Cases = append(sw.Cases, arm)
		}
	}
	if d, ok := fields["default"]; ok {
		sw.Default = p.parseBlock(d)
		if sw.Default == nil {
			sw.Default = &ast.Block{Start: p.pos(d)}
		}
	}
	return sw
}

func (p *Parser) parseCase(n *yaml.Node) *ast.Case {
	fields := p.fields(n, "case", "values", "body")
	if fields == nil {
		return nil
	}
	values, ok := fields["values"]
	if !ok {
		p.errorf(errors.E1003, n, "case is missing field %q", "values")
		return nil
	}
	arm := &ast.Case{CasePos: p.pos(n), Body: p.parseBlock(fields["body"])}
	if err := values.Decode(&arm.Values); err != nil {
		p.errorf(errors.E1002, values, "case values must be a list of integers")
		return nil
	}
	return arm
}

func (p *Parser) parseIf(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "if", "cond", "then", "else")
	if fields == nil {
		return nil
	}
	cond, ok := p.required(n, fields, "if", "cond")
	if !ok {
		return nil
	}
	stmt := &ast.If{IfPos: pos, Cond: cond, Then: p.parseBlock(fields["then"])}
	if e, ok := fields["else"]; ok {
		stmt.Else = p.parseBlock(e)
	}
	return stmt
}

// parseCall decodes both `call: f` and `{call: f, nothrow: true}`.
func (p *Parser) parseCall(pos token.Position, n *yaml.Node) ast.Stmt {
	fields := p.fields(n, "call", "call", "nothrow")
	if fields == nil {
		return nil
	}
	name, ok := p.name(fields["call"], "callee")
	if !ok {
		return nil
	}
	call := &ast.Call{CallPos: pos, Func: name}
	if v, ok := fields["nothrow"]; ok {
		if err := v.Decode(&call.NoThrow); err != nil {
			p.errorf(errors.E1002, v, "nothrow must be a boolean")
			return nil
		}
	}
	return call
}

// required decodes a mandatory string field of a statement.
func (p *Parser) required(n *yaml.Node, fields map[string]*yaml.Node, stmt, field string) (string, bool) {
	v, ok := fields[field]
	if !ok {
		p.errorf(errors.E1003, n, "%s is missing field %q", stmt, field)
		return "", false
	}
	return p.name(v, stmt+" "+field)
}
