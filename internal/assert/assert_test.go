package assert

import "testing"

func TestThat(t *testing.T) {
	// Holding conditions never panic
	That(true, "never fires")

	defer func() {
		r := recover()
		if Enabled && r == nil {
			t.Error("Expected panic for failed assertion in debug build")
		}
		if !Enabled && r != nil {
			t.Errorf("Expected no panic in release build, got %v", r)
		}
	}()
	That(false, "value %d out of range", 3)
}
