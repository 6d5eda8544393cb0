package idl

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/creachadair/mds/mapset"
)

// keywords are the reserved words of Candid text syntax. Field and
// method names that collide with a keyword must be quoted.
var keywords = mapset.New(
	"type", "import", "service", "func", "opt", "vec", "record",
	"variant", "blob", "principal", "query", "oneway",
	"composite_query", "true", "false", "null", "none", "reserved",
	"empty", "bool", "nat", "int", "nat8", "nat16", "nat32", "nat64",
	"int8", "int16", "int32", "int64", "float32", "float64", "text",
)

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokText
	tokNumber
	tokPunct
)

type token struct {
	kind tokKind
	// text is the identifier, the decoded text literal, the number
	// literal verbatim, or the punctuation.
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokText:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

// lex splits src into tokens.
func lex(src string) ([]token, error) {
	var (
		ret []token
		pos = 0
	)
	for {
		var err error
		if pos, err = skipSpace(src, pos); err != nil {
			return nil, err
		}
		if pos == len(src) {
			return append(ret, token{tokEOF, "", pos}), nil
		}

		start := pos
		c := src[pos]
		switch {
		case c == '"':
			s, n, err := lexText(src[pos:])
			if err != nil {
				return nil, ParseError{pos, err}
			}
			pos += n
			ret = append(ret, token{tokText, s, start})
		case isDigit(c) || ((c == '-' || c == '+') && pos+1 < len(src) && isDigit(src[pos+1])):
			pos++
			for pos < len(src) {
				c := src[pos]
				if isDigit(c) || isIdentByte(c) || c == '.' {
					pos++
				} else if (c == '-' || c == '+') && isExponent(src[start:pos]) {
					pos++
				} else {
					break
				}
			}
			ret = append(ret, token{tokNumber, src[start:pos], start})
		case isIdentByte(c):
			for pos < len(src) && (isIdentByte(src[pos]) || isDigit(src[pos])) {
				pos++
			}
			ret = append(ret, token{tokIdent, src[start:pos], start})
		case strings.HasPrefix(src[pos:], "->"):
			pos += 2
			ret = append(ret, token{tokPunct, "->", start})
		case strings.ContainsRune("(){};,:=.", rune(c)):
			pos++
			ret = append(ret, token{tokPunct, string(c), start})
		default:
			r, _ := utf8.DecodeRuneInString(src[pos:])
			return nil, ParseError{pos, fmt.Errorf("unexpected character %q", r)}
		}
	}
}

// skipSpace returns the offset of the first byte at or after pos
// that is not whitespace or part of a comment.
func skipSpace(src string, pos int) (int, error) {
	for pos < len(src) {
		switch {
		case strings.ContainsRune(" \t\r\n", rune(src[pos])):
			pos++
		case strings.HasPrefix(src[pos:], "//"):
			end := strings.IndexByte(src[pos:], '\n')
			if end < 0 {
				return len(src), nil
			}
			pos += end + 1
		case strings.HasPrefix(src[pos:], "/*"):
			end := strings.Index(src[pos+2:], "*/")
			if end < 0 {
				return 0, ParseError{pos, errors.New("unterminated comment")}
			}
			pos += end + 4
		default:
			return pos, nil
		}
	}
	return pos, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// isExponent reports whether the number literal so far ends in a
// decimal exponent marker.
func isExponent(lit string) bool {
	if !strings.HasSuffix(lit, "e") && !strings.HasSuffix(lit, "E") {
		return false
	}
	lit = strings.TrimLeft(lit, "+-")
	return !strings.HasPrefix(lit, "0x") && !strings.HasPrefix(lit, "0X")
}

// lexText decodes the quoted text literal at the front of s, and
// returns its contents and the number of bytes consumed.
//
// Text literals may contain arbitrary bytes through \xx escapes, so
// the returned string is not necessarily valid UTF-8.
func lexText(s string) (string, int, error) {
	var ret strings.Builder
	for i := 1; i < len(s); {
		c := s[i]
		switch c {
		case '"':
			return ret.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errors.New("unterminated text literal")
			}
			esc := s[i+1]
			i += 2
			switch esc {
			case 'n':
				ret.WriteByte('\n')
			case 'r':
				ret.WriteByte('\r')
			case 't':
				ret.WriteByte('\t')
			case '\\', '"', '\'':
				ret.WriteByte(esc)
			case 'u':
				end := strings.IndexByte(s[i:], '}')
				if !strings.HasPrefix(s[i:], "{") || end < 0 {
					return "", 0, errors.New(`invalid \u escape, want \u{hex}`)
				}
				r, err := strconv.ParseUint(strings.ReplaceAll(s[i+1:i+end], "_", ""), 16, 32)
				if err != nil || !utf8.ValidRune(rune(r)) {
					return "", 0, fmt.Errorf("invalid unicode escape %q", s[i-2:i+end+1])
				}
				ret.WriteRune(rune(r))
				i += end + 1
			default:
				if i+1 > len(s) {
					return "", 0, errors.New("unterminated text literal")
				}
				b, err := strconv.ParseUint(s[i-1:i+1], 16, 8)
				if err != nil {
					return "", 0, fmt.Errorf("invalid escape %q", s[i-2:i+1])
				}
				ret.WriteByte(byte(b))
				i++
			}
		default:
			ret.WriteByte(c)
			i++
		}
	}
	return "", 0, errors.New("unterminated text literal")
}

type parser struct {
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) peek() token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	ret := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return ret
}

func (p *parser) errorf(t token, msg string, args ...any) error {
	return ParseError{t.pos, fmt.Errorf(msg, args...)}
}

func (p *parser) expect(punct string) error {
	if t := p.next(); !t.is(punct) {
		return p.errorf(t, "expected %q, got %s", punct, t)
	}
	return nil
}

func (p *parser) expectEOF() error {
	if t := p.peek(); t.kind != tokEOF {
		return p.errorf(t, "unexpected %s after end", t)
	}
	return nil
}

// accept consumes the next token if it is the given punctuation.
func (p *parser) accept(punct string) bool {
	if p.peek().is(punct) {
		p.next()
		return true
	}
	return false
}

// sequence parses elements separated by sep until close, and
// consumes close. A trailing separator is permitted.
func (p *parser) sequence(sep, close string, elem func() error) error {
	for !p.accept(close) {
		if err := elem(); err != nil {
			return err
		}
		if p.accept(sep) {
			continue
		}
		if t := p.peek(); !t.is(close) {
			return p.errorf(t, "expected %q or %q, got %s", sep, close, t)
		}
	}
	return nil
}

// ParseType parses a type in Candid text syntax.
func ParseType(s string) (Type, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ParseTypes parses a parenthesized list of types in Candid text
// syntax, such as the argument types of a method: "(nat, text)".
func ParseTypes(s string) ([]Type, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	ret, err := p.parseTypeList()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *parser) parseType() (Type, error) {
	t := p.next()
	if t.kind != tokIdent {
		return nil, p.errorf(t, "expected type, got %s", t)
	}
	if prim, ok := strToPrim[t.text]; ok {
		return prim, nil
	}
	switch t.text {
	case "opt":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return OptT{elem}, nil
	case "vec":
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return VecT{elem}, nil
	case "blob":
		return VecT{PrimNat8}, nil
	case "record":
		fs, err := p.parseTypeFields(false)
		if err != nil {
			return nil, err
		}
		return RecordT{fs}, nil
	case "variant":
		fs, err := p.parseTypeFields(true)
		if err != nil {
			return nil, err
		}
		return VariantT{fs}, nil
	case "func":
		return p.parseFuncType()
	case "service":
		return p.parseServiceType()
	}
	if keywords.Has(t.text) {
		return nil, p.errorf(t, "unexpected keyword %q", t.text)
	}
	return VarT{t.text}, nil
}

// isLabel reports whether t can be a field label.
func isLabel(t token) bool {
	return t.kind == tokIdent || t.kind == tokText || t.kind == tokNumber
}

func (p *parser) parseLabel() (Label, error) {
	t := p.next()
	switch t.kind {
	case tokIdent, tokText:
		if !utf8.ValidString(t.text) {
			return Label{}, p.errorf(t, "label %s is not valid UTF-8", t)
		}
		return NamedLabel(t.text), nil
	case tokNumber:
		id, err := strconv.ParseUint(strings.ReplaceAll(t.text, "_", ""), 10, 32)
		if err != nil {
			return Label{}, p.errorf(t, "invalid field ID %s", t)
		}
		return IDLabel(uint32(id)), nil
	default:
		return Label{}, p.errorf(t, "expected field label, got %s", t)
	}
}

// fieldIDs tracks the field IDs of a record or variant being parsed.
type fieldIDs struct {
	seen mapset.Set[uint32]
	next uint32
}

// add records l, and reports an error if it's a duplicate.
func (f *fieldIDs) add(p *parser, t token, l Label) error {
	if f.seen == nil {
		f.seen = mapset.New[uint32]()
	}
	if f.seen.Has(l.ID) {
		return p.errorf(t, "duplicate field %s", labelString(l))
	}
	f.seen.Add(l.ID)
	f.next = l.ID + 1
	return nil
}

func (p *parser) parseTypeFields(isVariant bool) ([]TypeField, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var (
		ret []TypeField
		ids fieldIDs
	)
	err := p.sequence(";", "}", func() error {
		start := p.peek()
		var f TypeField
		switch after := p.peekN(1); {
		case isLabel(start) && after.is(":"):
			l, err := p.parseLabel()
			if err != nil {
				return err
			}
			p.next()
			t, err := p.parseType()
			if err != nil {
				return err
			}
			f = TypeField{l, t}
		case isVariant && isLabel(start) && (after.is(";") || after.is("}")):
			l, err := p.parseLabel()
			if err != nil {
				return err
			}
			f = TypeField{l, PrimNull}
		case isVariant:
			return p.errorf(start, "expected variant field, got %s", start)
		default:
			t, err := p.parseType()
			if err != nil {
				return err
			}
			f = TypeField{IDLabel(ids.next), t}
		}
		if err := ids.add(p, start, f.Label); err != nil {
			return err
		}
		ret = append(ret, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// parseTypeList parses a parenthesized argument list. Arguments may be
// named, but the names are not retained.
func (p *parser) parseTypeList() ([]Type, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	ret := []Type{}
	err := p.sequence(",", ")", func() error {
		if isLabel(p.peek()) && p.peekN(1).is(":") {
			p.next()
			p.next()
		}
		t, err := p.parseType()
		if err != nil {
			return err
		}
		ret = append(ret, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *parser) parseFuncType() (FuncT, error) {
	args, err := p.parseTypeList()
	if err != nil {
		return FuncT{}, err
	}
	if err := p.expect("->"); err != nil {
		return FuncT{}, err
	}
	rets, err := p.parseTypeList()
	if err != nil {
		return FuncT{}, err
	}
	ret := FuncT{Args: args, Rets: rets}
	for {
		m, ok := strToMode[p.peek().text]
		if !ok || p.peek().kind != tokIdent {
			break
		}
		p.next()
		ret.Modes = append(ret.Modes, m)
	}
	return ret, nil
}

func (p *parser) parseServiceType() (ServiceT, error) {
	if err := p.expect("{"); err != nil {
		return ServiceT{}, err
	}
	var ret ServiceT
	seen := mapset.New[string]()
	err := p.sequence(";", "}", func() error {
		t := p.next()
		if t.kind != tokIdent && t.kind != tokText {
			return p.errorf(t, "expected method name, got %s", t)
		}
		if seen.Has(t.text) {
			return p.errorf(t, "duplicate method %q", t.text)
		}
		seen.Add(t.text)
		if err := p.expect(":"); err != nil {
			return err
		}
		var (
			mt  Type
			err error
		)
		if p.peek().is("(") {
			mt, err = p.parseFuncType()
		} else {
			mt, err = p.parseType()
		}
		if err != nil {
			return err
		}
		ret.Methods = append(ret.Methods, Method{t.text, mt})
		return nil
	})
	if err != nil {
		return ServiceT{}, err
	}
	return ret, nil
}

// ParseDocument parses a schema document in Candid text syntax: a
// sequence of type declarations and imports, optionally followed by a
// service declaration.
func ParseDocument(s string) (*Document, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	ret := &Document{}
	names := mapset.New[string]()
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return ret, nil
		case t.kind == tokIdent && t.text == "type":
			name := p.next()
			if name.kind != tokIdent || keywords.Has(name.text) {
				return nil, p.errorf(name, "expected type name, got %s", name)
			}
			if names.Has(name.text) {
				return nil, p.errorf(name, "duplicate declaration of %q", name.text)
			}
			names.Add(name.text)
			if err := p.expect("="); err != nil {
				return nil, err
			}
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if err := p.expect(";"); err != nil {
				return nil, err
			}
			ret.Decls = append(ret.Decls, Decl{name.text, typ})
		case t.kind == tokIdent && t.text == "import":
			path := p.next()
			if path.kind != tokText {
				return nil, p.errorf(path, "expected import path, got %s", path)
			}
			if err := p.expect(";"); err != nil {
				return nil, err
			}
			ret.Imports = append(ret.Imports, path.text)
		case t.kind == tokIdent && t.text == "service":
			if p.peek().kind == tokIdent {
				ret.ServiceName = p.next().text
			}
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			svc, err := p.parseServiceDecl()
			if err != nil {
				return nil, err
			}
			ret.Service = svc
			p.accept(";")
			if err := p.expectEOF(); err != nil {
				return nil, err
			}
			return ret, nil
		default:
			return nil, p.errorf(t, "expected declaration, got %s", t)
		}
	}
}

func (p *parser) parseServiceDecl() (Type, error) {
	var args []Type
	if p.peek().is("(") {
		var err error
		if args, err = p.parseTypeList(); err != nil {
			return nil, err
		}
		if err := p.expect("->"); err != nil {
			return nil, err
		}
	}

	var svc Type
	if p.peek().is("{") {
		s, err := p.parseServiceType()
		if err != nil {
			return nil, err
		}
		svc = s
	} else {
		t := p.next()
		if t.kind != tokIdent || keywords.Has(t.text) {
			return nil, p.errorf(t, "expected service type, got %s", t)
		}
		svc = VarT{t.text}
	}

	if args != nil {
		return ClassT{args, svc}, nil
	}
	return svc, nil
}

// ParseValue parses a value in Candid text syntax.
//
// Numeric literals without a type annotation parse as a [Number], or
// as a [Float64] if they have a fractional part or exponent. An
// annotation such as "5 : nat8" converts the value to the given type.
func ParseValue(s string) (Value, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	ret, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ParseArgs parses a parenthesized argument list in Candid text
// syntax, such as "(42, \"hello\")". A single value without
// parentheses is also accepted.
func ParseArgs(s string) ([]Value, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	ret := []Value{}
	if p.peek().kind == tokEOF {
		return ret, nil
	}
	if !p.accept("(") {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		return []Value{v}, nil
	}
	err = p.sequence(",", ")", func() error {
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		ret = append(ret, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *parser) parseValue() (Value, error) {
	start := p.peek()
	v, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.accept(":") {
		return v, nil
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ret, err := annotate(v, t, nil, true)
	if err != nil {
		return nil, ParseError{start.pos, err}
	}
	return ret, nil
}

func (p *parser) parsePrimary() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokText:
		if !utf8.ValidString(t.text) {
			return nil, p.errorf(t, "text %s is not valid UTF-8", t)
		}
		return Text(t.text), nil
	case tokNumber:
		return parseNumber(p, t)
	case tokPunct:
		if t.is("(") {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, p.errorf(t, "expected value, got %s", t)
	case tokEOF:
		return nil, p.errorf(t, "expected value, got %s", t)
	}

	switch t.text {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null{}, nil
	case "none":
		return None{}, nil
	case "reserved":
		return Reserved{}, nil
	case "opt":
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return Opt{v}, nil
	case "vec":
		if err := p.expect("{"); err != nil {
			return nil, err
		}
		ret := Vec{}
		err := p.sequence(";", "}", func() error {
			v, err := p.parseValue()
			if err != nil {
				return err
			}
			ret = append(ret, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ret, nil
	case "record":
		return p.parseRecord()
	case "variant":
		return p.parseVariant()
	case "blob":
		s := p.next()
		if s.kind != tokText {
			return nil, p.errorf(s, "expected blob literal, got %s", s)
		}
		return Blob([]byte(s.text)), nil
	case "principal", "service", "func":
		s := p.next()
		if s.kind != tokText {
			return nil, p.errorf(s, "expected principal text, got %s", s)
		}
		pr, err := ParsePrincipal(s.text)
		if err != nil {
			return nil, ParseError{s.pos, err}
		}
		switch t.text {
		case "principal":
			return pr, nil
		case "service":
			return Service{pr}, nil
		}
		if err := p.expect("."); err != nil {
			return nil, err
		}
		m := p.next()
		if m.kind != tokIdent && m.kind != tokText {
			return nil, p.errorf(m, "expected method name, got %s", m)
		}
		return Func{pr, m.text}, nil
	}
	return nil, p.errorf(t, "expected value, got %s", t)
}

func parseNumber(p *parser, t token) (Value, error) {
	lit := t.text
	digits := strings.TrimLeft(lit, "+-")
	isHex := strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X")
	if !isHex && strings.ContainsAny(digits, ".eE") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
		if err != nil {
			return nil, p.errorf(t, "invalid float literal %s", t)
		}
		return Float64(f), nil
	}
	if _, ok := new(big.Int).SetString(lit, 0); !ok {
		return nil, p.errorf(t, "invalid number literal %s", t)
	}
	return Number(lit), nil
}

func (p *parser) parseRecord() (Value, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var (
		ret = Record{}
		ids fieldIDs
	)
	err := p.sequence(";", "}", func() error {
		start := p.peek()
		l := IDLabel(ids.next)
		if isLabel(start) && p.peekN(1).is("=") {
			var err error
			if l, err = p.parseLabel(); err != nil {
				return err
			}
			p.next()
		}
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		if err := ids.add(p, start, l); err != nil {
			return err
		}
		ret = append(ret, Field{l, v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *parser) parseVariant() (Value, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	l, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	var v Value = Null{}
	if p.accept("=") {
		if v, err = p.parseValue(); err != nil {
			return nil, err
		}
	}
	p.accept(";")
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return Variant{Field: Field{l, v}}, nil
}
