package engine

import "strings"

// kwPrefix marks a keyword after preprocessing: :size becomes "__kw_size".
const kwPrefix = "__kw_"

// preprocessSource rewrites script source into something zygomys accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot collide with user variables.
//   - hyphens inside identifiers become underscores (wipe-tower ->
//     wipe_tower); zygomys would read them as subtraction.
//   - ; comments become // comments.
//
// String literals, both quoted and backticked, pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	src := source
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			i = copyQuoted(&out, src, i, '"', true)
		case c == '`':
			i = copyQuoted(&out, src, i, '`', false)
		case c == ';':
			out.WriteString("//")
			for i < len(src) && src[i] == ';' {
				i++
			}
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			out.WriteString(src[i : i+end])
			i += end
		case c == ':' && i+1 < len(src) && src[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(src) && isLetter(src[i+1]):
			j := i + 1
			for j < len(src) && isKeywordChar(src[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.WriteString(src[i+1 : j])
			out.WriteByte('"')
			i = j
		case c == '-' && i > 0 && i+1 < len(src) && isIdentChar(src[i-1]) && isLetter(src[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// copyQuoted copies the literal starting at src[i] up to and including its
// closing quote and returns the index after it.
func copyQuoted(out *strings.Builder, src string, i int, quote byte, escapes bool) int {
	out.WriteByte(src[i])
	i++
	for i < len(src) && src[i] != quote {
		if escapes && src[i] == '\\' && i+1 < len(src) {
			out.WriteString(src[i : i+2])
			i += 2
			continue
		}
		out.WriteByte(src[i])
		i++
	}
	if i < len(src) {
		out.WriteByte(src[i])
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isKeywordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
