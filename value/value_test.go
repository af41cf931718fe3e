package value_test

import (
	"testing"

	"github.com/mickamy/microbat/value"
)

func TestArithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		op      string
		l, r    value.Value
		want    value.Value
		wantErr bool
	}{
		{"add integers", "add", value.NewInteger(1), value.NewInteger(2), value.NewInteger(3), false},
		{"sub integers", "sub", value.NewInteger(5), value.NewInteger(2), value.NewInteger(3), false},
		{"add with varchar fails", "add", value.NewInteger(1), value.NewVarchar("x"), value.Value{}, true},
		{"sub with null fails", "sub", value.NewNull(), value.NewInteger(1), value.Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got value.Value
			var err error
			switch tt.op {
			case "add":
				got, err = value.Add(tt.l, tt.r)
			case "sub":
				got, err = value.Sub(tt.l, tt.r)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNegate(t *testing.T) {
	t.Parallel()

	got, err := value.Negate(value.NewInteger(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(value.NewInteger(-5)) {
		t.Errorf("got %v, want -5", got)
	}

	if _, err := value.Negate(value.NewVarchar("x")); err == nil {
		t.Fatal("expected error negating a varchar")
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"null", value.NewNull(), "null"},
		{"integer", value.NewInteger(42), "42"},
		{"negative integer", value.NewInteger(-7), "-7"},
		{"varchar", value.NewVarchar("hello"), "hello"},
		{"empty varchar", value.NewVarchar(""), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeTag(t *testing.T) {
	t.Parallel()

	if tag := value.NewNull().TypeTag(); tag != value.TypeTagNull {
		t.Errorf("null tag = %q, want %q", tag, value.TypeTagNull)
	}
	if tag := value.NewInteger(1).TypeTag(); tag != value.TypeTagInteger {
		t.Errorf("integer tag = %q, want %q", tag, value.TypeTagInteger)
	}
	if tag := value.NewVarchar("x").TypeTag(); tag != value.TypeTagVarchar {
		t.Errorf("varchar tag = %q, want %q", tag, value.TypeTagVarchar)
	}
}
