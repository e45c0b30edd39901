package pagination

import "testing"

func TestParams_DefaultLimit(t *testing.T) {
	p := Params{Limit: 0}
	if p.DefaultLimit() != DefaultLimit {
		t.Fatalf("expected %d, got %d", DefaultLimit, p.DefaultLimit())
	}
}

func TestParams_DefaultLimit_Negative(t *testing.T) {
	p := Params{Limit: -1}
	if p.DefaultLimit() != DefaultLimit {
		t.Fatalf("expected %d, got %d", DefaultLimit, p.DefaultLimit())
	}
}

func TestParams_DefaultLimit_Positive(t *testing.T) {
	p := Params{Limit: 50}
	if p.DefaultLimit() != 50 {
		t.Fatalf("expected 50, got %d", p.DefaultLimit())
	}
}

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Params
		maxLimit int
		want     Params
	}{
		{"defaults", Params{}, 0, Params{Offset: 0, Limit: DefaultLimit}},
		{"keeps valid", Params{Offset: 40, Limit: 10}, 0, Params{Offset: 40, Limit: 10}},
		{"clamps to MaxLimit", Params{Limit: 500}, 0, Params{Limit: MaxLimit}},
		{"clamps to custom max", Params{Limit: 60}, 50, Params{Limit: 50}},
		{"default above custom max", Params{}, 5, Params{Limit: 5}},
		{"negative offset", Params{Offset: -3, Limit: 10}, 0, Params{Offset: 0, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(tt.maxLimit)
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParams_HasNext(t *testing.T) {
	p := Params{Offset: 10, Limit: 10}
	if !p.HasNext(21) {
		t.Fatal("expected next page when rows remain")
	}
	if p.HasNext(20) {
		t.Fatal("expected no next page at exact end")
	}
	if p.HasNext(0) {
		t.Fatal("expected no next page for empty result")
	}
}

func TestParams_Prev(t *testing.T) {
	if _, ok := (Params{Offset: 0, Limit: 10}).Prev(); ok {
		t.Fatal("expected no prev page on first page")
	}
	prev, ok := Params{Offset: 5, Limit: 10}.Prev()
	if !ok {
		t.Fatal("expected prev page")
	}
	if prev.Offset != 0 {
		t.Fatalf("expected prev offset clamped to 0, got %d", prev.Offset)
	}
	prev, _ = Params{Offset: 30, Limit: 10}.Prev()
	if prev.Offset != 20 {
		t.Fatalf("expected prev offset 20, got %d", prev.Offset)
	}
}

func TestConstants(t *testing.T) {
	if DefaultLimit != 20 {
		t.Fatalf("expected DefaultLimit=20, got %d", DefaultLimit)
	}
	if MaxLimit != 100 {
		t.Fatalf("expected MaxLimit=100, got %d", MaxLimit)
	}
}
