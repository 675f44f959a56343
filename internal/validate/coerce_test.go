package validate

import "testing"

func TestCoerceStringValueInt(t *testing.T) {
	kind, warning := CoerceStringValue("42")
	if kind != CoercedInt {
		t.Errorf("kind = %v, want CoercedInt", kind)
	}
	want := "Value '42' looks like a Int. Consider using set-typed-argument."
	if warning != want {
		t.Errorf("warning = %q, want %q", warning, want)
	}
}

func TestCoerceStringValueFloat(t *testing.T) {
	kind, _ := CoerceStringValue("4.2")
	if kind != CoercedFloat {
		t.Errorf("kind = %v, want CoercedFloat", kind)
	}
}

func TestCoerceStringValueBoolean(t *testing.T) {
	kind, _ := CoerceStringValue("true")
	if kind != CoercedBoolean {
		t.Errorf("kind = %v, want CoercedBoolean", kind)
	}
}

func TestCoerceStringValuePlainStringUntouched(t *testing.T) {
	kind, warning := CoerceStringValue("hello")
	if kind != "" || warning != "" {
		t.Errorf("CoerceStringValue(hello) = (%q, %q), want (\"\", \"\")", kind, warning)
	}
}

func TestCoerceStringValueLeadingZeroIsNotInteger(t *testing.T) {
	// "007" doesn't round-trip through FormatInt, so it should not warn
	// as an Int, and it parses fine as a Float.
	kind, _ := CoerceStringValue("007")
	if kind == CoercedInt {
		t.Error("CoerceStringValue(007) classified as Int, want not-Int")
	}
}

func TestCoerceToIntegerRejectsBool(t *testing.T) {
	if _, ok := CoerceToInteger(true); ok {
		t.Error("CoerceToInteger(true) = ok, want not ok")
	}
}

func TestCoerceToBooleanRejectsNumber(t *testing.T) {
	if _, ok := CoerceToBoolean(1.0); ok {
		t.Error("CoerceToBoolean(1.0) = ok, want not ok")
	}
}
