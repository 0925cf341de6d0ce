package notify

import "testing"

func TestSuppressAndAllowNeverPanic(t *testing.T) {
	c := New(nil)
	// Best-effort: the underlying OS command may not exist in this
	// environment, so we only assert the call completes without panicking.
	_ = c.Suppress()
	_ = c.Allow()
}
