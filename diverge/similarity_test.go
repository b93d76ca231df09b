package diverge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"main", "main", 1},
		{"AsyncTask #1", "AsyncTask #2", 11.0 / 12.0},
		{"Binder_1", "Binder_12", 8.0 / 9.0},
		{"Binder_1", "Binder_2", 7.0 / 8.0},
		{"main", "RenderThread", 0},
		{"", "main", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, NameSimilarity(tt.a, tt.b), 1e-12)
			assert.InDelta(t, tt.want, NameSimilarity(tt.b, tt.a), 1e-12, "must be symmetric")
		})
	}
}

func TestCoverageSimilarity_JaccardOverTargets(t *testing.T) {
	// GIVEN {A, B, C} vs {B, C, D}; kinds and markers differ but are ignored
	a := evs("ent x.A", "ent x.B", "xit x.B", "ent x.C")
	b := evs("ent! x.B", "unr x.C", "ent x.D")

	// THEN |{B, C}| / |{A, B, C, D}| = 0.5
	assert.InDelta(t, 0.5, CoverageSimilarity(a, b), 1e-12)
}

func TestCoverageSimilarity_IndentationIsNotIdentity(t *testing.T) {
	// GIVEN the same methods at different nesting indentation
	a := evs("ent com.example.A.a", "ent .com.example.B.b")
	b := evs("ent ...com.example.A.a", "ent com.example.B.b")

	// THEN they count as the same methods
	assert.InDelta(t, 1.0, CoverageSimilarity(a, b), 1e-12)
}

func TestCoverageSimilarity_EmptyUnion_IsZero(t *testing.T) {
	assert.Equal(t, 0.0, CoverageSimilarity(nil, nil))
	assert.Equal(t, 0.0, CoverageSimilarity(nil, evs("ent x.A")))
}

func TestThreadSimilarity_DisjointMethods_ZeroRegardlessOfName(t *testing.T) {
	a := thread("main", "ent x.A")
	b := thread("main", "ent x.B")
	assert.Equal(t, 0.0, ThreadSimilarity(a, b))
}

func TestThreadSimilarity_IdenticalMethods_EqualsNameSimilarity(t *testing.T) {
	a := thread("pool-1-thread-1", "ent x.A", "xit x.A")
	b := thread("pool-1-thread-2", "ent x.A")
	assert.InDelta(t, NameSimilarity(a.Name, b.Name), ThreadSimilarity(a, b), 1e-12)
}

func TestThreadSimilarity_BoundedInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	names := []string{"", "main", "mainline", "Binder_1", "Binder_2", "x"}
	methods := []string{"ent m.A", "ent m.B", "xit m.C", "unr m.D", "ent m.E"}
	randomThread := func() *ThreadTrace {
		th := &ThreadTrace{Name: names[rng.Intn(len(names))]}
		for n := rng.Intn(6); n > 0; n-- {
			th.Events = append(th.Events, ev(methods[rng.Intn(len(methods))]))
		}
		return th
	}
	for i := 0; i < 500; i++ {
		s := ThreadSimilarity(randomThread(), randomThread())
		if s < 0 || s > 1 {
			t.Fatalf("similarity %v outside [0, 1]", s)
		}
	}
}
