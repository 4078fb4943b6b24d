package log4g

/*
Layout patterns.

A pattern is literal text with placeholders marked by '%':

	%[-][0][width][.max]name[{arg}]

  - '-' left-aligns the value inside width (default is right alignment)
  - '0' pads with zeros instead of spaces (right alignment only)
  - width is the minimal value length in runes
  - .max truncates longer values keeping their last max runes
  - {arg} is an optional per-placeholder argument

Placeholders:

	%level, %p         level name; {full} (default), {short} or {lower}
	%msg, %message, %m message text
	%date, %timestamp, %d
	                   event time; {arg} is a Go time layout or one of
	                   ISO8601, RFC3339, UNIX, UNIXMS (default DEFAULT_TIME_FORMAT)
	%logger, %name, %c logger name
	%color             ANSI color sequence for the event level
	%reset             ANSI reset sequence
	%n                 new line
	%%                 literal percent sign

Any text outside markers is copied verbatim, whitespace included. Unknown
names and malformed markers are rejected by Compile, so rendering a compiled
layout never fails.
*/

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

type tokenKind basetype

const (
	_TOKEN_LITERAL tokenKind = iota
	_TOKEN_LEVEL
	_TOKEN_MESSAGE
	_TOKEN_DATE
	_TOKEN_LOGGER
	_TOKEN_COLOR
	_TOKEN_RESET
	_TOKEN_MAX_for_checks_only
)

// Canonical placeholder names, indexed by tokenKind.
var tokenNames = [_TOKEN_MAX_for_checks_only]string{
	"", "level", "msg", "date", "logger", "color", "reset",
}

var placeholders = map[string]tokenKind{
	"level":     _TOKEN_LEVEL,
	"p":         _TOKEN_LEVEL,
	"msg":       _TOKEN_MESSAGE,
	"message":   _TOKEN_MESSAGE,
	"m":         _TOKEN_MESSAGE,
	"date":      _TOKEN_DATE,
	"timestamp": _TOKEN_DATE,
	"d":         _TOKEN_DATE,
	"logger":    _TOKEN_LOGGER,
	"name":      _TOKEN_LOGGER,
	"c":         _TOKEN_LOGGER,
	"color":     _TOKEN_COLOR,
	"reset":     _TOKEN_RESET,
}

type dateMode basetype

const (
	_DATE_LAYOUT dateMode = iota
	_DATE_UNIX
	_DATE_UNIXMS
)

var namedDateLayouts = map[string]string{
	"ISO8601": "2006-01-02T15:04:05.000Z07:00",
	"RFC3339": time.RFC3339,
}

// Token is a single compiled layout element: either literal text or a
// placeholder with its modifiers. Tokens are immutable.
type Token struct {
	levels *LevelMap // level names map for level placeholders
	text   string    // literal text or date layout
	arg    string    // raw argument as written in the pattern
	min    int
	max    int
	kind   tokenKind
	date   dateMode
	left   bool
	zero   bool
}

// IsLiteral reports whether the token is literal text.
func (t Token) IsLiteral() bool { return t.kind == _TOKEN_LITERAL }

// Text returns the literal text (empty for placeholders).
func (t Token) Text() string {
	if t.IsLiteral() {
		return t.text
	}
	return ""
}

// Placeholder returns the canonical placeholder name (empty for literals).
func (t Token) Placeholder() string { return tokenNames[t.kind] }

// Arg returns the placeholder argument as written in the pattern.
func (t Token) Arg() string { return t.arg }

// Width returns the minimal and maximal width modifiers (0 when not set).
func (t Token) Width() (min, max int) { return t.min, t.max }

// Layout is a compiled pattern. It is immutable and safe for concurrent use.
type Layout struct {
	pattern string
	tokens  []Token
}

// Pattern returns the source pattern.
func (lt *Layout) Pattern() string { return lt.pattern }

// Tokens returns a copy of the compiled token sequence.
func (lt *Layout) Tokens() []Token {
	return append([]Token(nil), lt.tokens...)
}

// WithoutColors returns a layout with %color and %reset tokens dropped, for
// sinks that are not terminals. The receiver is returned when it has none.
func (lt *Layout) WithoutColors() *Layout {
	tokens := make([]Token, 0, len(lt.tokens))
	for _, t := range lt.tokens {
		if t.kind != _TOKEN_COLOR && t.kind != _TOKEN_RESET {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == len(lt.tokens) {
		return lt
	}
	return &Layout{pattern: lt.pattern, tokens: tokens}
}

/////////////////////////////////////////////////////////////////////////////////////////

// Compiled layouts are kept per distinct pattern so configuring the same
// pattern again (or from several loggers) does not parse it twice.
var layoutCache = cache.New(cache.NoExpiration, 0)

// Compile parses pattern into a Layout. Malformed patterns fail with a
// *LayoutSyntaxError naming the offending position.
func Compile(pattern string) (*Layout, error) {
	if cached, found := layoutCache.Get(pattern); found {
		return cached.(*Layout), nil
	}
	tokens, err := tokenize(pattern)
	if err != nil {
		return nil, err
	}
	lt := &Layout{pattern: pattern, tokens: tokens}
	layoutCache.SetDefault(pattern, lt)
	return lt, nil
}

// MustCompile is like Compile but panics on error. Intended for patterns
// known at compile time.
func MustCompile(pattern string) *Layout {
	lt, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return lt
}

func syntaxError(pattern string, pos, end int, reason string) error {
	if end > len(pattern) {
		end = len(pattern)
	}
	return &LayoutSyntaxError{
		Pattern:  pattern,
		Fragment: pattern[pos:end],
		Reason:   reason,
		Pos:      pos,
	}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

// Reads a decimal number starting at i, returns the value and the next index.
func readNumber(p string, i int) (int, int) {
	n := 0
	for i < len(p) && isDigit(p[i]) {
		if n < 1<<16 {
			n = n*10 + int(p[i]-'0')
		}
		i++
	}
	return n, i
}

// tokenize splits the pattern into literal and placeholder tokens. Adjacent
// literal pieces ("a%%b") are merged into one token.
func tokenize(p string) ([]Token, error) {
	tokens := []Token{}
	literal := []byte{}
	flush := func() {
		if len(literal) > 0 {
			tokens = append(tokens, Token{kind: _TOKEN_LITERAL, text: string(literal)})
			literal = literal[:0]
		}
	}
	for i := 0; i < len(p); {
		if p[i] != '%' {
			literal = append(literal, p[i])
			i++
			continue
		}
		start := i
		i++
		if i >= len(p) {
			return nil, syntaxError(p, start, i, "dangling '%' at the end of pattern")
		}
		if p[i] == '%' {
			literal = append(literal, '%')
			i++
			continue
		}
		t := Token{}
		if p[i] == '-' {
			t.left = true
			i++
		}
		if i < len(p) && p[i] == '0' {
			t.zero = true
			i++
		}
		if t.left && t.zero {
			return nil, syntaxError(p, start, i, "'-' and '0' flags can't be combined")
		}
		t.min, i = readNumber(p, i)
		if i < len(p) && p[i] == '.' {
			i++
			if i >= len(p) || !isDigit(p[i]) {
				return nil, syntaxError(p, start, i, "missing maximal width after '.'")
			}
			t.max, i = readNumber(p, i)
			if t.max == 0 {
				return nil, syntaxError(p, start, i, "maximal width must be positive")
			}
		}
		nameStart := i
		for i < len(p) && isLetter(p[i]) {
			i++
		}
		name := p[nameStart:i]
		if name == "" {
			return nil, syntaxError(p, start, i+1, "missing placeholder name")
		}
		hasArg := false
		if i < len(p) && p[i] == '{' {
			end := i + 1
			for end < len(p) && p[end] != '}' {
				end++
			}
			if end >= len(p) {
				return nil, syntaxError(p, start, len(p), "unterminated '{'")
			}
			t.arg = p[i+1 : end]
			hasArg = true
			i = end + 1
		}
		if name == "n" {
			if i-start != 2 {
				return nil, syntaxError(p, start, i, "%n takes no modifiers")
			}
			literal = append(literal, '\n')
			continue
		}
		kind, known := placeholders[name]
		if !known {
			return nil, syntaxError(p, start, i, "unknown placeholder `"+name+"`")
		}
		t.kind = kind
		if err := t.applyArg(hasArg); err != nil {
			return nil, syntaxError(p, start, i, err.Error())
		}
		flush()
		tokens = append(tokens, t)
	}
	flush()
	return tokens, nil
}

type argError string

func (e argError) Error() string { return string(e) }

// Validates and interprets the placeholder argument.
func (t *Token) applyArg(hasArg bool) error {
	switch t.kind {
	case _TOKEN_LEVEL:
		switch t.arg {
		case "", "full":
			t.levels = LevelFullNames
		case "short":
			t.levels = LevelShortNames
		case "lower":
			t.levels = LevelLowerNames
		default:
			return argError("unknown level format `" + t.arg + "`")
		}
	case _TOKEN_DATE:
		switch t.arg {
		case "":
			t.text = DEFAULT_TIME_FORMAT
		case "UNIX":
			t.date = _DATE_UNIX
		case "UNIXMS":
			t.date = _DATE_UNIXMS
		default:
			if named, ok := namedDateLayouts[t.arg]; ok {
				t.text = named
			} else {
				t.text = t.arg
			}
		}
	case _TOKEN_COLOR, _TOKEN_RESET:
		if hasArg || t.min > 0 || t.max > 0 || t.left || t.zero {
			return argError("%" + tokenNames[t.kind] + " takes no modifiers")
		}
	default:
		if hasArg {
			return argError("%" + tokenNames[t.kind] + " takes no argument")
		}
	}
	return nil
}

/////////////////////////////////////////////////////////////////////////////////////////

// Event is a single log call as seen by a layout.
type Event struct {
	Time       time.Time
	Message    string
	LoggerName string
	Level      LogLevel
}

// Render returns the event text produced by the layout.
func (lt *Layout) Render(ev Event) string {
	return string(lt.AppendTo(make([]byte, 0, DEFAULT_OUT_BUFF), ev))
}

// AppendTo appends the rendered event to buf and returns the extended buffer.
func (lt *Layout) AppendTo(buf []byte, ev Event) []byte {
	level := normLevel(ev.Level)
	for i := range lt.tokens {
		t := &lt.tokens[i]
		switch t.kind {
		case _TOKEN_LITERAL:
			buf = append(buf, t.text...)
		case _TOKEN_LEVEL:
			buf = t.appendPadded(buf, t.levels[level])
		case _TOKEN_MESSAGE:
			buf = t.appendPadded(buf, ev.Message)
		case _TOKEN_LOGGER:
			buf = t.appendPadded(buf, ev.LoggerName)
		case _TOKEN_DATE:
			buf = t.appendPadded(buf, t.formatTime(ev.Time))
		case _TOKEN_COLOR:
			buf = append(buf, ANSI_COL_PRFX...)
			buf = append(buf, LevelColorOnBlackMap[level]...)
			buf = append(buf, ANSI_COL_SUFX...)
		case _TOKEN_RESET:
			buf = append(buf, ANSI_COL_RESET...)
		}
	}
	return buf
}

func (t *Token) formatTime(tm time.Time) string {
	switch t.date {
	case _DATE_UNIX:
		return strconv.FormatInt(tm.Unix(), 10)
	case _DATE_UNIXMS:
		return strconv.FormatInt(tm.UnixMilli(), 10)
	}
	return tm.Format(t.text)
}

// Applies width modifiers to a resolved placeholder value.
func (t *Token) appendPadded(buf []byte, val string) []byte {
	if t.min == 0 && t.max == 0 {
		return append(buf, val...)
	}
	count := utf8.RuneCountInString(val)
	if t.max > 0 && count > t.max {
		// keep the last max runes
		for skip := count - t.max; skip > 0; skip-- {
			_, size := utf8.DecodeRuneInString(val)
			val = val[size:]
		}
		count = t.max
	}
	pad := t.min - count
	if pad <= 0 {
		return append(buf, val...)
	}
	if t.left {
		buf = append(buf, val...)
		return appendRepeat(buf, ' ', pad)
	}
	fill := byte(' ')
	if t.zero {
		fill = '0'
	}
	buf = appendRepeat(buf, fill, pad)
	return append(buf, val...)
}

func appendRepeat(buf []byte, c byte, n int) []byte {
	for range n {
		buf = append(buf, c)
	}
	return buf
}
