package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockStrategy implements Strategy for testing.
type mockStrategy struct {
	name  string
	body  string
	err   error
	calls int
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) Fetch(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.body, m.err
}

func TestChain_FirstUsableBodyWins(t *testing.T) {
	s1 := &mockStrategy{name: "primary", body: "<?xml version=\"1.0\"?><doc/>"}
	s2 := &mockStrategy{name: "fallback", body: "<html></html>"}

	chain := NewChain(s1, s2)
	body := chain.Fetch(context.Background(), "20240130800123")

	assert.Equal(t, s1.body, body)
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 0, s2.calls)
}

func TestChain_FallsThroughOnError(t *testing.T) {
	s1 := &mockStrategy{name: "primary", err: errors.New("not xml")}
	s2 := &mockStrategy{name: "fallback", body: "<html>report</html>"}

	chain := NewChain(s1, s2)
	body := chain.Fetch(context.Background(), "20240130800123")

	assert.Equal(t, "<html>report</html>", body)
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 1, s2.calls)
}

func TestChain_EmptyBodyTreatedAsUnusable(t *testing.T) {
	s1 := &mockStrategy{name: "primary", body: ""}
	s2 := &mockStrategy{name: "fallback", body: "content"}

	chain := NewChain(s1, s2)
	assert.Equal(t, "content", chain.Fetch(context.Background(), "x"))
}

func TestChain_AllExhaustedReturnsEmpty(t *testing.T) {
	s1 := &mockStrategy{name: "s1", err: errors.New("down")}
	s2 := &mockStrategy{name: "s2", err: errors.New("also down")}

	chain := NewChain(s1, s2)
	body := chain.Fetch(context.Background(), "20240130800123")

	// Never an error: the filing proceeds with an empty body.
	assert.Empty(t, body)
}
