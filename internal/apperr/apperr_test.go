package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(KindUnknownDocument, "ask", "Unknown doc_id")
	wrapped := fmt.Errorf("handler: %w", base)
	if got := KindOf(wrapped); got != KindUnknownDocument {
		t.Errorf("KindOf = %s, want %s", got, KindUnknownDocument)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %s, want internal", got)
	}
	if !Is(wrapped, KindUnknownDocument) {
		t.Error("Is should match wrapped kind")
	}
	if Is(nil, KindInternal) {
		t.Error("Is(nil) should be false")
	}
}

func TestWrap_deadlineBecomesTimeout(t *testing.T) {
	err := Wrap(KindSynthesis, "summary", fmt.Errorf("call: %w", context.DeadlineExceeded))
	if err.Kind != KindTimeout {
		t.Errorf("kind = %s, want timeout", err.Kind)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("wrapped error should unwrap to DeadlineExceeded")
	}
}

func TestErrorf(t *testing.T) {
	cause := errors.New("boom")
	err := Errorf(KindEmbedding, "embed", "provider failed: %w", cause)
	if !errors.Is(err, cause) {
		t.Error("Errorf should keep the cause")
	}
	if Message(err) != "provider failed: boom" {
		t.Errorf("Message = %q", Message(err))
	}
	if err.Error() != "embed: provider failed: boom" {
		t.Errorf("Error = %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidRequest, http.StatusBadRequest},
		{KindUnsupportedMedia, http.StatusBadRequest},
		{KindExtraction, http.StatusBadRequest},
		{KindTooLarge, http.StatusRequestEntityTooLarge},
		{KindUnknownDocument, http.StatusNotFound},
		{KindNotIndexed, http.StatusConflict},
		{KindEmbedding, http.StatusBadGateway},
		{KindSynthesis, http.StatusBadGateway},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindInternal, http.StatusInternalServerError},
		{Kind("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
