package compute

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// allCells marks a Unit which spans the whole file, or every code cell of
// a notebook.
const allCells = -1

// Unit is one piece of source code copied into the worker script: a source
// file, or one code cell of a Jupyter notebook written "path.ipynb#N".
type Unit struct {
	Path string
	Cell int
}

// ParseUnit parses "path", "path.ipynb" or "path.ipynb#N".
func ParseUnit(s string) (Unit, error) {
	if s == "" {
		return Unit{}, fmt.Errorf("empty unit")
	}
	i := strings.LastIndex(s, "#")
	if i < 0 {
		return Unit{Path: s, Cell: allCells}, nil
	}
	p, idx := s[:i], s[i+1:]
	if !strings.HasSuffix(p, ".ipynb") {
		return Unit{}, fmt.Errorf("unit %q: cell indexes are only valid for .ipynb notebooks", s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return Unit{}, fmt.Errorf("unit %q: invalid cell index %q", s, idx)
	}
	return Unit{Path: p, Cell: n}, nil
}

func (u Unit) String() string {
	if u.Cell == allCells {
		return u.Path
	}
	return fmt.Sprintf("%s#%d", u.Path, u.Cell)
}

func (u Unit) isNotebook() bool {
	return strings.HasSuffix(u.Path, ".ipynb")
}

// Source reads the unit's source text.
func (u Unit) Source() (string, error) {
	if !u.isNotebook() {
		b, err := ioutil.ReadFile(u.Path)
		if err != nil {
			return "", fmt.Errorf("reading unit %s: %v", u, err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	}

	nb, err := readNotebook(u.Path)
	if err != nil {
		return "", err
	}
	if u.Cell != allCells {
		return nb.codeCell(u.Cell)
	}

	var parts []string
	for i, c := range nb.Cells {
		if c.CellType != "code" {
			continue
		}
		src, err := nb.codeCell(i)
		if err != nil {
			return "", err
		}
		parts = append(parts, src)
	}
	return strings.Join(parts, "\n\n"), nil
}

// LoadUnits reads the source of every unit, in order.
func LoadUnits(units []Unit) ([]string, error) {
	out := make([]string, 0, len(units))
	for _, u := range units {
		src, err := u.Source()
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

type notebook struct {
	path  string
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string              `json:"cell_type"`
	Source   jsoniter.RawMessage `json:"source"`
}

func readNotebook(path string) (*notebook, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook %s: %v", path, err)
	}
	nb := &notebook{path: path}
	if err := json.Unmarshal(b, nb); err != nil {
		return nil, fmt.Errorf("parsing notebook %s: %v", path, err)
	}
	return nb, nil
}

// codeCell returns the source of cell i, which must be a code cell.
func (nb *notebook) codeCell(i int) (string, error) {
	if i < 0 || i >= len(nb.Cells) {
		return "", fmt.Errorf("notebook %s has %d cells, no cell %d", nb.path, len(nb.Cells), i)
	}
	c := nb.Cells[i]
	if c.CellType != "code" {
		return "", fmt.Errorf("cell %d of notebook %s is a %s cell, not a code cell", i, nb.path, c.CellType)
	}

	// nbformat stores sources as either a list of lines or a single string
	var lines []string
	if err := json.Unmarshal(c.Source, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}
	var s string
	if err := json.Unmarshal(c.Source, &s); err != nil {
		return "", fmt.Errorf("cell %d of notebook %s: invalid source: %v", i, nb.path, err)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
