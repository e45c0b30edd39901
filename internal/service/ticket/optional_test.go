package ticket

import "testing"

func TestOptional_ZeroValueIsSet(t *testing.T) {
	o := Some(int64(0))
	v, ok := o.Get()
	if !ok || v != 0 {
		t.Fatalf("expected set zero, got %v %v", v, ok)
	}
	if !o.IsSet() {
		t.Fatal("expected IsSet true")
	}
}

func TestOptional_None(t *testing.T) {
	o := None[string]()
	if o.IsSet() {
		t.Fatal("expected unset")
	}
	var zero Optional[string]
	if zero.IsSet() {
		t.Fatal("expected zero Optional to be unset")
	}
}
