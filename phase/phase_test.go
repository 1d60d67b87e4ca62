package phase

import "testing"

func TestLegOf(t *testing.T) {
	if LegOf(1) != LegOne {
		t.Fatalf("position 1 should be leg one")
	}
	if LegOf(2) != LegTwo {
		t.Fatalf("position 2 should be leg two")
	}
	if LegOf(3) != LegOne {
		t.Fatalf("position 3 should be leg one")
	}
}

func TestValidPairOppositeLegs(t *testing.T) {
	if !ValidPair(1, 2, 4) {
		t.Fatalf("1,2 should be a valid pair")
	}
	if ValidPair(1, 3, 4) {
		t.Fatalf("1,3 are same leg, should be invalid")
	}
}

func TestValidPairOutOfBounds(t *testing.T) {
	if ValidPair(1, 6, 4) {
		t.Fatalf("position 6 is out of bounds for total 4")
	}
}

func TestIsDualPhase(t *testing.T) {
	if !IsDualPhase([]int{1, 4}, 4) {
		t.Fatalf("expected dual phase for opposite legs")
	}
	if IsDualPhase([]int{1, 3}, 4) {
		t.Fatalf("same leg should not be dual phase")
	}
	if IsDualPhase([]int{1}, 4) {
		t.Fatalf("single tab should not be dual phase")
	}
	if IsDualPhase([]int{1, 2, 3}, 4) {
		t.Fatalf("three tabs is not a recognized multi-leg shape")
	}
}
