// Package compute builds what runs on the cluster: the worker script
// assembled from source units and the Slurm batch file that invokes it.
package compute

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"
)

// Binding is a variable made available to the worker script, rendered as an
// assignment statement.
type Binding struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Dialect describes the language of the worker script.
type Dialect interface {
	Name() string
	// Extension of script files, including the dot.
	Ext() string
	// Command which runs a script of this dialect.
	Interpreter() string
	// Assignment statement for b.
	Assign(b Binding) string
	// Generated entry point exposing the function "entry" on the command line.
	EntryPoint(entry string) string
}

// NewDialect returns the dialect with the given name. An empty interpreter
// selects the dialect's default.
func NewDialect(name, interpreter string) (Dialect, error) {
	switch name {
	case "python", "":
		if interpreter == "" {
			interpreter = "python"
		}
		return Python{Command: interpreter}, nil
	case "bash":
		if interpreter == "" {
			interpreter = "bash"
		}
		return Bash{Command: interpreter}, nil
	default:
		return nil, fmt.Errorf("unknown script dialect: %s", name)
	}
}

// AssembleScript joins the preamble, the bindings (one per line), each unit
// source in order and the dialect's entry point with blank lines.
// Unit sources are not validated.
func AssembleScript(d Dialect, preamble string, bindings []Binding, units []string, entry string) string {
	assigns := make([]string, 0, len(bindings))
	for _, b := range bindings {
		assigns = append(assigns, d.Assign(b))
	}

	pieces := make([]string, 0, len(units)+3)
	pieces = append(pieces, preamble, strings.Join(assigns, "\n"))
	pieces = append(pieces, units...)
	pieces = append(pieces, d.EntryPoint(entry))
	return strings.Join(pieces, "\n\n")
}

// Python scripts expose the entry function through python-fire.
type Python struct {
	Command string
}

// Name implements Dialect.
func (Python) Name() string { return "python" }

// Ext implements Dialect.
func (Python) Ext() string { return ".py" }

// Interpreter implements Dialect.
func (p Python) Interpreter() string { return p.Command }

// Assign implements Dialect.
func (Python) Assign(b Binding) string {
	return b.Name + " = " + pythonLiteral(b.Value)
}

// EntryPoint implements Dialect.
func (Python) EntryPoint(entry string) string {
	return fmt.Sprintf("def main():\n    fire.Fire(%s)\nif __name__ == '__main__':\n    main()", entry)
}

// pythonString quotes s as a single-quoted Python literal. Control and line
// separator characters are escaped so the literal stays on one line.
func pythonString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x100 && unicode.IsControl(r) {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func pythonLiteral(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return pythonString(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = pythonLiteral(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		items := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			items = append(items, pythonLiteral(k.Interface())+": "+pythonLiteral(rv.MapIndex(k).Interface()))
		}
		sort.Strings(items)
		return "{" + strings.Join(items, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// Bash scripts call the entry function with the script's arguments when
// executed directly.
type Bash struct {
	Command string
}

// Name implements Dialect.
func (Bash) Name() string { return "bash" }

// Ext implements Dialect.
func (Bash) Ext() string { return ".sh" }

// Interpreter implements Dialect.
func (b Bash) Interpreter() string { return b.Command }

// Assign implements Dialect.
func (Bash) Assign(b Binding) string {
	var s string
	switch x := b.Value.(type) {
	case nil:
		s = ""
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	return b.Name + "=" + shellquote.Join(s)
}

// EntryPoint implements Dialect.
func (Bash) EntryPoint(entry string) string {
	return fmt.Sprintf("if [[ \"${BASH_SOURCE[0]}\" == \"${0}\" ]]; then\n    %s \"$@\"\nfi", entry)
}
