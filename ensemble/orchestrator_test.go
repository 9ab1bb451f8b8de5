package ensemble

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jervinho777/clipbrain/llm"
)

func TestOrchestrator_CallAllReturnsOneResultPerBackend(t *testing.T) {
	t.Parallel()
	a := newMockProvider("a").WithContent("answer a")
	b := newMockProvider("b").WithContent("answer b")
	c := newMockProvider("c").WithError(errors.New("down"))
	eng := newTestEngine(backendSpec("a", a), backendSpec("b", b), backendSpec("c", c))

	results := eng.orchestrator.CallAll(context.Background(), InvocationRequest{Prompt: "q"})

	require.Len(t, results, 3)
	assert.True(t, results["a"].Success)
	assert.True(t, results["b"].Success)
	assert.False(t, results["c"].Success)
	assert.Equal(t, "answer a", results["a"].Content)
}

func TestOrchestrator_WaitsForEveryBackend(t *testing.T) {
	t.Parallel()
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})

	slow := newMockProvider("slow").WithReply(func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		started.Done()
		<-release
		return textResponse("slow answer"), nil
	})
	fast := newMockProvider("fast").WithReply(func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		started.Done()
		return nil, errors.New("fast failure")
	})
	eng := newTestEngine(backendSpec("slow", slow), backendSpec("fast", fast))

	done := make(chan map[string]InvocationResult, 1)
	go func() {
		done <- eng.orchestrator.CallAll(context.Background(), InvocationRequest{Prompt: "q"})
	}()

	started.Wait()
	select {
	case <-done:
		t.Fatal("fan-in returned before the slow backend completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	results := <-done
	require.Len(t, results, 2)
	assert.True(t, results["slow"].Success, "a sibling failure must not drop the slow voice")
	assert.False(t, results["fast"].Success)
}

func TestOrchestrator_SubsetSelection(t *testing.T) {
	t.Parallel()
	a := newMockProvider("a").WithContent("x")
	b := newMockProvider("b").WithContent("y")
	eng := newTestEngine(backendSpec("a", a), backendSpec("b", b))

	results := eng.orchestrator.CallAll(context.Background(), InvocationRequest{Prompt: "q"}, "b")

	require.Len(t, results, 1)
	assert.Contains(t, results, "b")
	assert.Zero(t, a.callCount())
}

func TestOrchestrator_CancellationYieldsFailedResults(t *testing.T) {
	t.Parallel()
	blocked := newMockProvider("blocked").WithReply(func(*llm.ChatRequest) (*llm.ChatResponse, error) {
		return textResponse("never seen"), nil
	})
	eng := newTestEngine(backendSpec("a", blocked))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := eng.orchestrator.CallAll(ctx, InvocationRequest{Prompt: "q"})
	require.Len(t, results, 1)
	assert.False(t, results["a"].Success)
}

func TestOrchestrator_EmptySubset(t *testing.T) {
	t.Parallel()
	eng := newTestEngine()
	results := eng.orchestrator.CallAll(context.Background(), InvocationRequest{Prompt: "q"})
	assert.Empty(t, results)
}
