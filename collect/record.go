package collect

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shamaton/msgpack/v2"
)

// Record is one result file: the input tuple of an array task and the
// output it produced.
type Record struct {
	In  Tuple       `json:"in" msgpack:"in"`
	Out interface{} `json:"out" msgpack:"out"`
}

// Result file encodings, chosen by file extension.
const (
	JSONExt    = ".json"
	MsgpackExt = ".msgpack"
)

// DecodeFile reads a result file.
func DecodeFile(path string) (Record, error) {
	var rec Record
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return rec, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case JSONExt:
		err = json.Unmarshal(b, &rec)
	case MsgpackExt:
		err = msgpack.Unmarshal(b, &rec)
	default:
		return rec, fmt.Errorf("%s: unknown result file extension", path)
	}
	if err != nil {
		return rec, fmt.Errorf("decoding %s: %v", path, err)
	}
	if rec.In == nil {
		return rec, fmt.Errorf("%s: missing \"in\" tuple", path)
	}
	for i, v := range rec.In {
		rec.In[i] = normalize(v)
	}
	rec.Out = normalize(rec.Out)
	return rec, nil
}

// EncodeFile writes rec to path, encoded according to the extension.
func EncodeFile(path string, rec Record) error {
	var b []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case JSONExt:
		b, err = json.Marshal(rec)
	case MsgpackExt:
		b, err = msgpack.Marshal(rec)
	default:
		return fmt.Errorf("%s: unknown result file extension", path)
	}
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Load decodes every result file into a Lookup. Files are read in lexical
// order.
func Load(files []string) (*Lookup, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	l := NewLookup()
	for _, f := range sorted {
		rec, err := DecodeFile(f)
		if err != nil {
			return nil, err
		}
		l.Add(rec.In, rec.Out)
	}
	return l, nil
}

// WriteResults writes every entry of l to path as a JSON array of records.
func WriteResults(path string, l *Lookup) error {
	b, err := json.MarshalIndent(l.Records(), "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, append(b, '\n'), 0644)
}
