//go:build nogrid

package grid

import (
	"context"
	"errors"
	"testing"
)

func TestRenderUnavailable(t *testing.T) {
	if Available() {
		t.Fatalf("expected rendering to be unavailable")
	}
	r, err := NewRenderer(&fakeTaskData{}, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := r.Render(context.Background(), testRecords(), DefaultOptions()); !errors.Is(err, ErrRenderingUnavailable) {
		t.Fatalf("expected ErrRenderingUnavailable, got %v", err)
	}
}
