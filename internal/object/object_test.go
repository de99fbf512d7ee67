package object

import "testing"

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		value Object
		want  bool
	}{
		{Nil, false},
		{False, false},
		{True, true},
		{&Number{Value: 0}, true},
		{&String{Value: ""}, true},
	}

	for _, tt := range tests {
		if got := IsTruthy(tt.value); got != tt.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", tt.value.Inspect(), got, tt.want)
		}
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		value Object
		want  string
	}{
		{Nil, "nil"},
		{&Number{Value: 3}, "3"},
		{&Number{Value: 3.5}, "3.5"},
		{&String{Value: "hi"}, "hi"},
		{True, "true"},
	}

	for _, tt := range tests {
		if got := Stringify(tt.value); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestClassFindMethodWalksSuperclass(t *testing.T) {
	base := &Class{Name: "Base", Methods: map[string]*Function{
		"greet": {Declaration: nil},
	}}
	sub := &Class{Name: "Sub", Superclass: base, Methods: map[string]*Function{}}

	fn, ok := sub.FindMethod("greet")
	if !ok {
		t.Fatalf("expected to find 'greet' via the superclass")
	}
	if fn != base.Methods["greet"] {
		t.Errorf("resolved method did not come from the base class")
	}

	if _, ok := sub.FindMethod("missing"); ok {
		t.Errorf("did not expect to find an undeclared method")
	}
}

func TestClassFindClassMethodWalksSuperclass(t *testing.T) {
	base := &Class{Name: "Base", ClassMethods: map[string]*Function{
		"create": {Declaration: nil},
	}}
	sub := &Class{Name: "Sub", Superclass: base}

	if _, ok := sub.FindClassMethod("create"); !ok {
		t.Fatalf("expected to find the static method via the superclass")
	}
}

func TestInstanceGetReadsFields(t *testing.T) {
	class := &Class{Name: "Point", Methods: map[string]*Function{}}
	instance := &Instance{Class: class, Fields: map[string]Object{"x": &Number{Value: 1}}}

	v, ok := instance.Get("x")
	if !ok || v.(*Number).Value != 1 {
		t.Errorf("expected field lookup to find x=1")
	}

	if _, ok := instance.Get("missing"); ok {
		t.Errorf("did not expect to find an undeclared field or method")
	}
}
