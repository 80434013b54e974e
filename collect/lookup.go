package collect

// Lookup maps parameter tuples to the outputs computed for them.
type Lookup struct {
	keys   []Tuple
	values []interface{}
	index  map[string]int
}

// NewLookup returns an empty Lookup.
func NewLookup() *Lookup {
	return &Lookup{index: map[string]int{}}
}

// Add sets the output for tuple "in". A tuple added twice keeps its first
// position and its latest output.
func (l *Lookup) Add(in Tuple, out interface{}) {
	k := in.Key()
	if i, ok := l.index[k]; ok {
		l.values[i] = out
		return
	}
	l.index[k] = len(l.keys)
	l.keys = append(l.keys, in)
	l.values = append(l.values, out)
}

// Get returns the output for the tuple made of "in". Unknown tuples return
// (nil, false).
func (l *Lookup) Get(in ...interface{}) (interface{}, bool) {
	i, ok := l.index[Tuple(in).Key()]
	if !ok {
		return nil, false
	}
	return l.values[i], true
}

// Keys returns the known tuples in the order they were added.
func (l *Lookup) Keys() []Tuple {
	return append([]Tuple(nil), l.keys...)
}

// Len returns the number of distinct tuples.
func (l *Lookup) Len() int {
	return len(l.keys)
}

// Records returns every entry as a Record, in the order they were added.
func (l *Lookup) Records() []Record {
	out := make([]Record, len(l.keys))
	for i, k := range l.keys {
		out[i] = Record{In: k, Out: l.values[i]}
	}
	return out
}
