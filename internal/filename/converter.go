// Package filename implements the output file name pattern language.
//
// A pattern is a sequence of tokens followed by an extension token:
//
//	<c:N>    original base name; N = 0 keep case, 1 lowercase, 2 uppercase
//	<d:W:S>  index+S zero padded to W+1 digits
//	text     copied verbatim
//	.<old>   keep the original extension, or a literal one such as .jpg
package filename

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// KeepExtension is the extension token that preserves the input's suffix.
const KeepExtension = ".<old>"

type TokenKind int

const (
	Literal TokenKind = iota
	BaseName
	Number
)

type Case int

const (
	KeepCase Case = iota
	LowerCase
	UpperCase
)

// Token is one element of a parsed pattern.
type Token struct {
	Kind  TokenKind
	Text  string // Literal
	Case  Case   // BaseName
	Width int    // Number: digit count minus one
	Start int    // Number: offset added to the sequence index
}

func (t Token) String() string {
	switch t.Kind {
	case BaseName:
		return fmt.Sprintf("<c:%d>", t.Case)
	case Number:
		return fmt.Sprintf("<d:%d:%d>", t.Width, t.Start)
	default:
		return t.Text
	}
}

// Pattern is a parsed file name pattern.
type Pattern struct {
	Tokens  []Token
	KeepExt bool
	// Ext is the literal extension including its dot; unused when KeepExt.
	Ext string
}

// String encodes p back into the pattern language.
func (p Pattern) String() string {
	var sb strings.Builder
	for _, t := range p.Tokens {
		sb.WriteString(t.String())
	}
	if p.KeepExt {
		sb.WriteString(KeepExtension)
	} else {
		sb.WriteString(p.Ext)
	}
	return sb.String()
}

// Parse splits pattern into tokens. Malformed tokens are dropped and
// reported; the remaining tokens still apply.
func Parse(pattern string) (Pattern, []error) {
	var p Pattern
	var errs []error

	body := pattern
	if strings.HasSuffix(body, KeepExtension) {
		p.KeepExt = true
		body = strings.TrimSuffix(body, KeepExtension)
	} else {
		lastTag := strings.LastIndexAny(body, "<>")
		if dot := strings.LastIndex(body, "."); dot >= 0 && dot > lastTag {
			p.Ext = body[dot:]
			body = body[:dot]
		}
	}

	for len(body) > 0 {
		open := strings.IndexByte(body, '<')
		if open < 0 {
			p.Tokens = appendLiteral(p.Tokens, body)
			break
		}
		if open > 0 {
			p.Tokens = appendLiteral(p.Tokens, body[:open])
		}
		end := strings.IndexByte(body[open:], '>')
		if end < 0 {
			errs = append(errs, fmt.Errorf("unterminated token %q", body[open:]))
			break
		}
		raw := body[open+1 : open+end]
		body = body[open+end+1:]

		tok, err := parseToken(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.Tokens = append(p.Tokens, tok)
	}
	return p, errs
}

func appendLiteral(tokens []Token, text string) []Token {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == Literal {
		tokens[n-1].Text += text
		return tokens
	}
	return append(tokens, Token{Kind: Literal, Text: text})
}

func parseToken(raw string) (Token, error) {
	parts := strings.Split(raw, ":")
	args := make([]int, 0, len(parts)-1)
	for _, a := range parts[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return Token{}, fmt.Errorf("token <%s>: bad argument %q", raw, a)
		}
		args = append(args, n)
	}

	switch {
	case parts[0] == "c" && len(args) == 1:
		c := Case(args[0])
		if c < KeepCase || c > UpperCase {
			c = KeepCase
		}
		return Token{Kind: BaseName, Case: c}, nil
	case parts[0] == "d" && (len(args) == 1 || len(args) == 2):
		t := Token{Kind: Number, Width: max(args[0], 0)}
		if len(args) == 2 {
			t.Start = args[1]
		}
		return t, nil
	}
	return Token{}, fmt.Errorf("unknown token <%s>", raw)
}

// Apply renders the output name for fileName at sequence position index.
func (p Pattern) Apply(fileName string, index int) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)

	var sb strings.Builder
	for _, t := range p.Tokens {
		switch t.Kind {
		case BaseName:
			switch t.Case {
			case LowerCase:
				sb.WriteString(strings.ToLower(base))
			case UpperCase:
				sb.WriteString(strings.ToUpper(base))
			default:
				sb.WriteString(base)
			}
		case Number:
			sb.WriteString(fmt.Sprintf("%0*d", t.Width+1, index+t.Start))
		default:
			sb.WriteString(t.Text)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	if p.KeepExt {
		sb.WriteString(ext)
	} else {
		sb.WriteString(p.Ext)
	}
	return sb.String()
}

// Convert applies pattern to fileName (no directory) at index. Malformed
// tokens are logged and skipped.
func Convert(fileName, pattern string, index int) string {
	p, errs := Parse(pattern)
	for _, err := range errs {
		log.WithField("pattern", pattern).Warnf("filename: %v", err)
	}
	return p.Apply(fileName, index)
}
