package sampler

import "testing"

func TestIndicesExactCount(t *testing.T) {
	cases := []struct{ n, m int }{
		{600, 300},
		{301, 300},
		{1000, 7},
		{150, 150},
		{5, 1},
	}
	for _, tc := range cases {
		got := Indices(tc.n, tc.m)
		want := tc.m
		if tc.m > tc.n {
			want = tc.n
		}
		if len(got) != want {
			t.Errorf("Indices(%d, %d): got %d indices, want %d", tc.n, tc.m, len(got), want)
			continue
		}
		if got[0] != 0 {
			t.Errorf("Indices(%d, %d): first index %d, want 0", tc.n, tc.m, got[0])
		}
		for i := 1; i < len(got); i++ {
			if got[i] <= got[i-1] {
				t.Errorf("Indices(%d, %d): not strictly increasing at %d: %d <= %d",
					tc.n, tc.m, i, got[i], got[i-1])
			}
			if got[i] >= tc.n {
				t.Errorf("Indices(%d, %d): index %d out of range", tc.n, tc.m, got[i])
			}
		}
	}
}

func TestIndicesIdentityWhenUnderBudget(t *testing.T) {
	got := Indices(10, 50)
	if len(got) != 10 {
		t.Fatalf("got %d indices, want 10", len(got))
	}
	for i, idx := range got {
		if idx != i {
			t.Fatalf("index %d: got %d, want %d", i, idx, i)
		}
	}
}

func TestIndicesEmpty(t *testing.T) {
	if got := Indices(0, 10); got != nil {
		t.Fatalf("Indices(0, 10) = %v, want nil", got)
	}
}

func TestBudgetsProportional(t *testing.T) {
	got := Budgets([]int{300, 300}, 300)
	if got[0] != 150 || got[1] != 150 {
		t.Fatalf("Budgets([300 300], 300) = %v, want [150 150]", got)
	}
}

func TestBudgetsUnderBudgetKeepsAll(t *testing.T) {
	got := Budgets([]int{40, 60}, 150)
	if got[0] != 40 || got[1] != 60 {
		t.Fatalf("got %v, want [40 60]", got)
	}
}

func TestBudgetsSumAndBounds(t *testing.T) {
	counts := []int{7, 0, 93, 250}
	max := 100
	got := Budgets(counts, max)

	sum := 0
	for i, q := range got {
		sum += q
		if q > counts[i] {
			t.Errorf("camera %d: quota %d exceeds count %d", i, q, counts[i])
		}
	}
	if sum != max {
		t.Errorf("quotas sum to %d, want %d", sum, max)
	}
	if got[1] != 0 {
		t.Errorf("empty camera got quota %d, want 0", got[1])
	}
}

func TestBudgetsZeroTotal(t *testing.T) {
	got := Budgets([]int{0, 0}, 100)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("got %v, want [0 0]", got)
	}
}
