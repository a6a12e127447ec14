package util

import "testing"

func TestAbs(t *testing.T) {
	if Abs(-5) != 5 {
		t.Error("Abs(-5) should be 5")
	}
	if Abs(5) != 5 {
		t.Error("Abs(5) should be 5")
	}
	if Abs(int32(-100)) != 100 {
		t.Error("Abs(int32(-100)) should be 100")
	}
	if Abs(int16(-32)) != 32 {
		t.Error("Abs(int16(-32)) should be 32")
	}
	if Abs(float32(-3.14)) != float32(3.14) {
		t.Error("Abs(float32(-3.14)) should be 3.14")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 {
		t.Error("Clamp(5, 0, 10) should be 5")
	}
	if Clamp(-5, 0, 10) != 0 {
		t.Error("Clamp(-5, 0, 10) should be 0")
	}
	if Clamp(15, 0, 10) != 10 {
		t.Error("Clamp(15, 0, 10) should be 10")
	}
}

func TestMinMaxInt(t *testing.T) {
	if MinInt(3, 7) != 3 || MinInt(7, 3) != 3 {
		t.Error("MinInt broken")
	}
	if MaxInt(3, 7) != 7 || MaxInt(7, 3) != 7 {
		t.Error("MaxInt broken")
	}
}
