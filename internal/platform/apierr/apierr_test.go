package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	domain "github.com/yungbote/campaign-canvas-backend/internal/domain/campaign"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
)

func TestFrom(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("load: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{"asset not found", domain.ErrAssetNotFound, http.StatusNotFound},
		{"no draft", domain.ErrNoDraft, http.StatusBadRequest},
		{"transition", domain.ErrInvalidTransition, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"passthrough", BadRequest("x", "Message is required"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := From(tc.err, "internal")
			if got.Status != tc.want {
				t.Fatalf("status: got=%d want=%d", got.Status, tc.want)
			}
		})
	}
	if From(nil, "x") != nil {
		t.Fatalf("nil error must map to nil")
	}
	if msg := BadRequest("x", "Message is required").Error(); msg != "Message is required" {
		t.Fatalf("message: got=%q", msg)
	}
}
