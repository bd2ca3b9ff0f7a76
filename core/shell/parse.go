package shell

// Stage is one command within a pipeline.
type Stage struct {
	// Args is the argv; Args[0] names the program or builtin.
	Args []string
	// InFile redirects stdin from a file when set.
	InFile string
	// OutFile redirects stdout to a file when set; Append selects
	// append-vs-truncate.
	OutFile string
	Append  bool
}

func (s Stage) hasRedirect() bool {
	return s.InFile != "" || s.OutFile != ""
}

// Pipeline is an ordered sequence of stages plus a background flag.
type Pipeline struct {
	Stages     []Stage
	Background bool
}

// Parse groups tokens into a pipeline in a single left-to-right scan.
//
// `|` closes the current stage. `<`, `>` and `>>` consume the next
// token as the stage's redirect target; the last occurrence wins and a
// trailing operator with no filename is dropped. `&` sets the
// background flag but does not terminate the argument scan: tokens
// after `&` still append to the current stage. That mirrors the
// historical behavior of this shell rather than convention.
//
// Stages with no arguments and no redirection are dropped, so an input
// of only pipe tokens yields a pipeline with zero stages.
func Parse(tokens []string) Pipeline {
	var pl Pipeline
	var cur Stage

	flush := func() {
		if len(cur.Args) > 0 || cur.hasRedirect() {
			pl.Stages = append(pl.Stages, cur)
		}
		cur = Stage{}
	}

	for i := 0; i < len(tokens); {
		switch tokens[i] {
		case "|":
			flush()
			i++
		case "<":
			if i+1 < len(tokens) {
				cur.InFile = tokens[i+1]
				i += 2
			} else {
				i++
			}
		case ">":
			if i+1 < len(tokens) {
				cur.OutFile = tokens[i+1]
				cur.Append = false
				i += 2
			} else {
				i++
			}
		case ">>":
			if i+1 < len(tokens) {
				cur.OutFile = tokens[i+1]
				cur.Append = true
				i += 2
			} else {
				i++
			}
		case "&":
			pl.Background = true
			i++
		default:
			cur.Args = append(cur.Args, tokens[i])
			i++
		}
	}
	flush()

	return pl
}
