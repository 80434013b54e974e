package collect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupDistinctTuples(t *testing.T) {
	l := NewLookup()
	l.Add(Tuple{1, "a"}, 10)
	l.Add(Tuple{2, "a"}, 20)
	l.Add(Tuple{1.0, "a"}, 11)

	assert.Equal(t, 2, l.Len())
	v, ok := l.Get(1, "a")
	assert.True(t, ok)
	assert.Equal(t, 11, v)

	assert.Equal(t, []Tuple{{1, "a"}, {2, "a"}}, l.Keys())

	v, ok = l.Get(3, "a")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestTupleKeyNormalizesNumbers(t *testing.T) {
	assert.Equal(t, Tuple{int8(5)}.Key(), Tuple{float64(5)}.Key())
	assert.Equal(t, Tuple{uint16(5), []int{1, 2}}.Key(), Tuple{5.0, []interface{}{1.0, 2.0}}.Key())
	assert.NotEqual(t, Tuple{5}.Key(), Tuple{"5"}.Key())
}

func TestTupleKeyKeepsLargeIntegersDistinct(t *testing.T) {
	const big = int64(1) << 53
	assert.NotEqual(t, Tuple{big}.Key(), Tuple{big + 1}.Key())
	assert.NotEqual(t, Tuple{uint64(math.MaxUint64)}.Key(), Tuple{uint64(math.MaxUint64 - 1)}.Key())
	assert.Equal(t, `[9007199254740993]`, Tuple{big + 1}.Key())

	var decoded []interface{}
	assert.NoError(t, json.Unmarshal([]byte(`[5, 2.5]`), &decoded))
	assert.Equal(t, Tuple{5, 2.5}.Key(), Tuple(decoded).Key())
	assert.Equal(t, Tuple{int64(5)}.Key(), Tuple{float32(5)}.Key())
	assert.NotEqual(t, Tuple{5}.Key(), Tuple{5.5}.Key())

	l := NewLookup()
	l.Add(Tuple{big}, "a")
	l.Add(Tuple{big + 1}, "b")
	assert.Equal(t, 2, l.Len())
	v, ok := l.Get(big + 1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}
