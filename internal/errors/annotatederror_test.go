package errors

import (
	"github.com/stretchr/testify/require"
	"log/slog"
	"slices"
	"testing"
)

func sourceOf(t *testing.T, err AnnotatedError) string {
	t.Helper()
	group := err.LogValue().Group()
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	require.GreaterOrEqual(t, sourceIdx, 0, "source attribute missing")
	return group[sourceIdx].Value.String()
}

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := err.Wrap(sentinel)
	require.ErrorIs(t, wrapped, sentinel)

	// Ensure log values are coming through.
	group := err.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	require.Contains(t, sourceOf(t, err), "annotatederror_test.go")
}

func TestWrap(t *testing.T) {
	sentinel := NewSentinel("not found")
	wrapped := Wrap(sentinel, "load slot", slog.String("key", "player"))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "load slot: not found", wrapped.Error())

	var annotated AnnotatedError
	require.True(t, As(wrapped, &annotated))
	require.Contains(t, sourceOf(t, annotated), "annotatederror_test.go")
	require.Contains(t, annotated.LogValue().Group(), slog.String("key", "player"))
}

func TestMark(t *testing.T) {
	operation := NewSentinel("round advance failed")
	cause := Wrap(NewSentinel("unexpected status"), "GET next_round")
	marked := Mark(cause, operation)
	require.ErrorIs(t, marked, operation)
	require.ErrorIs(t, marked, cause)
	require.Equal(t, "round advance failed: GET next_round: unexpected status", marked.Error())
}

func TestSlogError(t *testing.T) {
	attr := SlogError(Wrap(NewSentinel("boom"), "save slot", slog.String("key", "currentGame")))
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("message", "save slot: boom"))
	contextIdx := slices.IndexFunc(group, func(a slog.Attr) bool { return a.Key == "context" })
	require.GreaterOrEqual(t, contextIdx, 0)

	plain := SlogError(NewSentinel("plain"))
	require.Len(t, plain.Value.Group(), 1)
}
