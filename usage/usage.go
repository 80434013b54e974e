// Package usage summarises the cluster queue by user.
package usage

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Lines with exactly this many fields describe a running job.
const jobFields = 8

// Field indexes of a queue listing line.
const (
	userField  = 3
	coresField = 4
)

// Entry is one job of a queue listing.
type Entry struct {
	User  string
	Cores int
}

// Parse reads a queue listing. Lines without exactly eight whitespace
// separated fields are ignored, as are lines whose core count is not an
// integer (headers).
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		f := strings.Fields(s.Text())
		if len(f) != jobFields {
			continue
		}
		cores, err := strconv.Atoi(f[coresField])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{User: f[userField], Cores: cores})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading queue listing: %v", err)
	}
	return entries, nil
}

// UserUsage is the total usage of one user.
type UserUsage struct {
	User  string
	Jobs  int
	Cores int
}

// Aggregate sums entries per user, sorted by cores descending and then by
// user name.
func Aggregate(entries []Entry) []UserUsage {
	idx := map[string]int{}
	var out []UserUsage
	for _, e := range entries {
		i, ok := idx[e.User]
		if !ok {
			i = len(out)
			idx[e.User] = i
			out = append(out, UserUsage{User: e.User})
		}
		out[i].Jobs++
		out[i].Cores += e.Cores
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cores != out[j].Cores {
			return out[i].Cores > out[j].Cores
		}
		return out[i].User < out[j].User
	})
	return out
}

// WriteReport prints one "user<TAB>cores" line per user.
func WriteReport(w io.Writer, usage []UserUsage) error {
	for _, u := range usage {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", u.User, u.Cores); err != nil {
			return err
		}
	}
	return nil
}

const (
	graphTitle = "Users @ CCV"
	graphXAxis = "# CPUS"
	barRune    = "█"
)

// WriteGraph draws a horizontal bar chart of cores per user. The longest bar
// is "width" cells wide.
func WriteGraph(w io.Writer, usage []UserUsage, width int) error {
	if width < 1 {
		width = 50
	}
	label, max := 0, 0
	for _, u := range usage {
		if n := runewidth.StringWidth(u.User); n > label {
			label = n
		}
		if u.Cores > max {
			max = u.Cores
		}
	}

	b := &strings.Builder{}
	fmt.Fprintf(b, "%s\n\n", graphTitle)
	for _, u := range usage {
		n := 0
		if max > 0 {
			n = u.Cores * width / max
		}
		if n == 0 && u.Cores > 0 {
			n = 1
		}
		fmt.Fprintf(b, "%s | %s %d\n", runewidth.FillRight(u.User, label), strings.Repeat(barRune, n), u.Cores)
	}
	fmt.Fprintf(b, "%s   %s\n", strings.Repeat(" ", label), graphXAxis)

	_, err := io.WriteString(w, b.String())
	return err
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

// CompactLines removes blank lines from a command's output.
func CompactLines(s string) string {
	return blankLines.ReplaceAllString(s, "\n")
}
