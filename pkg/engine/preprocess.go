package engine

import (
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// kwPrefix marks keyword strings produced by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites block-script source into something zygomys
// reads:
//
//   - :keyword becomes the string "__kw_keyword"
//   - kebab-case identifiers become snake_case (hexa-vertices -> hexa_vertices)
//   - ; comments become // comments
//
// String literals are copied untouched. The := operator is preserved and a
// dash between a letter and a digit stays a minus sign.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	b := source
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(b) && b[j] != '"' {
				if b[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(b) {
				j++
			}
			if j > len(b) {
				j = len(b)
			}
			out.WriteString(b[i:j])
			i = j

		case c == '`':
			j := strings.IndexByte(b[i+1:], '`')
			if j < 0 {
				out.WriteString(b[i:])
				return out.String()
			}
			out.WriteString(b[i : i+j+2])
			i += j + 2

		case c == ';':
			for i < len(b) && b[i] == ';' {
				i++
			}
			j := strings.IndexByte(b[i:], '\n')
			if j < 0 {
				j = len(b) - i
			}
			out.WriteString("//")
			out.WriteString(b[i : i+j])
			i += j

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + b[i+1:j] + `"`)
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword arguments
// ---------------------------------------------------------------------------

// isKW returns the keyword name of s when s is a preprocessed keyword.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is an argument list split into keyword and positional values.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs splits args. A trailing keyword without a value maps to nil.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}
