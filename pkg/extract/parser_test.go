package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logfield/grok-go/pkg/extract"
)

func emit(eventType string) extract.Parser {
	return extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		return extract.Result{Events: []extract.Event{{Type: eventType}}, Matched: true}, nil
	})
}

func fail(msg string) extract.Parser {
	return extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		return extract.Result{}, errors.New(msg)
	})
}

var noMatch = extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
	return extract.Result{}, nil
})

func TestParserFunc(t *testing.T) {
	called := false
	p := extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		called = true
		assert.Equal(t, "test line", line)
		return extract.Result{Matched: true}, nil
	})

	result, err := p.ParseLine(context.Background(), "test line")
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, result.Matched)
}

func TestChain_All(t *testing.T) {
	chain := &extract.Chain{
		Mode:    extract.ChainAll,
		Parsers: []extract.Parser{emit("a"), noMatch, nil, emit("b")},
	}

	result, err := chain.ParseLine(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "a", result.Events[0].Type)
	assert.Equal(t, "b", result.Events[1].Type)
}

func TestChain_First(t *testing.T) {
	var calls []string
	track := func(name string, matched bool) extract.Parser {
		return extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
			calls = append(calls, name)
			if !matched {
				return extract.Result{}, nil
			}
			return extract.Result{Events: []extract.Event{{Type: name}}, Matched: true}, nil
		})
	}

	chain := &extract.Chain{
		Mode:    extract.ChainFirst,
		Parsers: []extract.Parser{track("miss", false), track("hit", true), track("never", true)},
	}

	result, err := chain.ParseLine(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "hit", result.Events[0].Type)
	assert.Equal(t, []string{"miss", "hit"}, calls)
}

func TestChain_ErrorStopsChainAll(t *testing.T) {
	calls := 0
	counter := extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		calls++
		return extract.Result{Matched: true}, nil
	})
	chain := &extract.Chain{Parsers: []extract.Parser{fail("boom"), counter}}

	result, err := chain.ParseLine(context.Background(), "x")
	require.EqualError(t, err, "boom")
	assert.False(t, result.Matched)
	assert.Zero(t, calls)
}

func TestChain_ContinueOnError(t *testing.T) {
	chain := &extract.Chain{
		Mode:    extract.ChainContinueOnError,
		Parsers: []extract.Parser{fail("p1 error"), emit("ok"), fail("p3 error")},
	}

	result, err := chain.ParseLine(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p1 error")
	assert.Contains(t, err.Error(), "p3 error")
	assert.True(t, result.Matched)
	assert.Len(t, result.Events, 1)
}

func TestChain_Empty(t *testing.T) {
	result, err := (&extract.Chain{}).ParseLine(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, result.Events)
}

func TestChain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		cancel()
		return extract.Result{Events: []extract.Event{{Type: "first"}}, Matched: true}, nil
	})
	chain := &extract.Chain{Parsers: []extract.Parser{cancelling, emit("second")}}

	result, err := chain.ParseLine(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "first", result.Events[0].Type)
}

func TestChainMode_String(t *testing.T) {
	assert.Equal(t, "all", extract.ChainAll.String())
	assert.Equal(t, "first", extract.ChainFirst.String())
	assert.Equal(t, "continue-on-error", extract.ChainContinueOnError.String())
	assert.Equal(t, "unknown", extract.ChainMode(42).String())
}
