package shell

import "strings"

// VarLookup resolves a $NAME reference during tokenization. The shell
// composes its local variable table with the process environment;
// a nil lookup resolves nothing.
type VarLookup func(name string) (string, bool)

// Tokenize splits one raw input line into shell words.
//
// Words are separated by whitespace outside quotes. A single- or
// double-quoted span at the start of a word is taken verbatim, except
// that inside double quotes a backslash escapes the next character.
// Outside quotes a backslash escapes the next character and both are
// consumed as a literal. An unterminated quote runs to the end of the
// input. After de-quoting, every token undergoes $NAME substitution.
//
// Tokenize is a pure function of its inputs and never fails. Tokens
// that expand to the empty string are dropped.
func Tokenize(line string, lookup VarLookup) []string {
	var tokens []string
	i := 0
	for i < len(line) {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			break
		}

		var word strings.Builder
		if line[i] == '"' || line[i] == '\'' {
			quote := line[i]
			i++
			for i < len(line) && line[i] != quote {
				if line[i] == '\\' && quote == '"' && i+1 < len(line) {
					i++
				}
				word.WriteByte(line[i])
				i++
			}
			if i < len(line) {
				i++ // closing quote
			}
		} else {
			for i < len(line) && !isSpace(line[i]) {
				if line[i] == '\\' && i+1 < len(line) {
					i++
				}
				word.WriteByte(line[i])
				i++
			}
		}

		if tok := expandVars(word.String(), lookup); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// expandVars substitutes every $NAME reference, where NAME is a run of
// alphanumerics and underscores. Unknown names, and a bare $ with no
// name, expand to nothing.
func expandVars(s string, lookup VarLookup) string {
	if !strings.ContainsRune(s, '$') {
		return s
	}

	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			out.WriteByte(s[i])
			continue
		}

		j := i + 1
		for j < len(s) && isNameChar(s[j]) {
			j++
		}
		name := s[i+1 : j]
		i = j - 1

		if name == "" || lookup == nil {
			continue
		}
		if value, ok := lookup(name); ok {
			out.WriteString(value)
		}
	}
	return out.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isNameChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
