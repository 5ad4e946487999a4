package vectorstore

import (
	"strings"
	"testing"
)

func TestToVectorLiteral(t *testing.T) {
	lit, err := toVectorLiteral([]float32{0.5, -1, 2.25}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit != "[0.5,-1,2.25]" {
		t.Errorf("unexpected literal %q", lit)
	}
}

func TestToVectorLiteralEmpty(t *testing.T) {
	if _, err := toVectorLiteral(nil, 3); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestToVectorLiteralDimensionMismatch(t *testing.T) {
	_, err := toVectorLiteral([]float32{1, 2}, 3)
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if !strings.Contains(err.Error(), "does not match dimension") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestToVectorLiteralNoDimensionCheck(t *testing.T) {
	// dim <= 0 skips the length check
	if _, err := toVectorLiteral([]float32{1, 2}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
