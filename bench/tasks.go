package bench

import (
	"math"
	"math/big"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Task is one benchmark workload.
type Task struct {
	Name string
	// Unit is the smallest piece of work. The multi-core suite submits
	// units to a pool; the single-core suite loops over them.
	Unit func(r *rand.Rand)
	// Units per sample in the single-core suite.
	Loops int
	// Units per sample in the multi-core suite.
	Reps int
}

// Tasks are the benchmark workloads, in run order.
var Tasks = []Task{
	{Name: "fft", Unit: fft, Loops: 10, Reps: 100},
	{Name: "eig", Unit: eig, Loops: 10, Reps: 100},
	{Name: "rando", Unit: rando, Loops: 1, Reps: 20},
	{Name: "multi", Unit: multi, Loops: 10000, Reps: 1000},
	{Name: "matinv", Unit: matinv, Loops: 10, Reps: 50},
	{Name: "sorter", Unit: sorter, Loops: 100, Reps: 100},
	{Name: "itersum", Unit: itersum, Loops: 1, Reps: 50},
	{Name: "funceval", Unit: funceval, Loops: 1, Reps: 20},
	{Name: "symbexpand", Unit: symbexpand, Loops: 1, Reps: 10},
}

func random(r *rand.Rand, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = r.Float64()
	}
	return s
}

func randomMatrix(r *rand.Rand, n int) *mat.Dense {
	return mat.NewDense(n, n, random(r, n*n))
}

// fft transforms 100,000 random reals.
func fft(r *rand.Rand) {
	seq := random(r, 100000)
	fourier.NewFFT(len(seq)).Coefficients(nil, seq)
}

// eig computes the eigenvalues of a random 100x100 matrix.
func eig(r *rand.Rand) {
	var e mat.Eigen
	if e.Factorize(randomMatrix(r, 100), mat.EigenNone) {
		e.Values(nil)
	}
}

// rando fills a 2000x2000 matrix with random numbers.
func rando(r *rand.Rand) {
	randomMatrix(r, 2000)
}

// multi is the element-wise product of two random 100x100 matrices.
func multi(r *rand.Rand) {
	var b mat.Dense
	b.MulElem(randomMatrix(r, 100), randomMatrix(r, 100))
}

// matinv inverts a random 100x100 matrix.
func matinv(r *rand.Rand) {
	var inv mat.Dense
	// A near singular random matrix still costs a full inversion.
	_ = inv.Inverse(randomMatrix(r, 100))
}

// sorter sorts 10,000 random reals.
func sorter(r *rand.Rand) {
	sort.Float64s(random(r, 10000))
}

var itersumSink int

// itersum runs a nested sum over a million iterations.
func itersum(r *rand.Rand) {
	sum := 0
	for i0 := 0; i0 < 100; i0++ {
		for i1 := 0; i1 < 100; i1++ {
			for i2 := 0; i2 < 100; i2++ {
				sum += i0 + i1 + i2
			}
		}
	}
	itersumSink = sum
}

var funcs = []func(float64) float64{
	math.Sin,
	math.Cos,
	math.Tan,
	func(x float64) float64 { return 1 / x },
	math.Log10,
	math.Log2,
}

// funceval evaluates common functions over a million points.
func funceval(r *rand.Rand) {
	theta := floats.Span(make([]float64, 1000000), 0.1, 2*math.Pi)
	out := make([]float64, len(theta))
	for _, f := range funcs {
		for i, x := range theta {
			out[i] = f(x)
		}
	}
}

// symbexpand expands the product of 20 random monomials a*x+b.
func symbexpand(r *rand.Rand) {
	poly := []*big.Int{big.NewInt(1)}
	for i := 0; i < 20; i++ {
		poly = mulLinear(poly, int64(r.Intn(10)), int64(1+r.Intn(9)))
	}
}

// mulLinear multiplies the polynomial with coefficients p (lowest degree
// first) by a*x+b.
func mulLinear(p []*big.Int, a, b int64) []*big.Int {
	ba, bb := big.NewInt(a), big.NewInt(b)
	out := make([]*big.Int, len(p)+1)
	for i := range out {
		out[i] = new(big.Int)
	}
	tmp := new(big.Int)
	for i, c := range p {
		out[i].Add(out[i], tmp.Mul(c, bb))
		out[i+1].Add(out[i+1], tmp.Mul(c, ba))
	}
	return out
}
