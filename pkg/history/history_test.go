package history

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weighted builds alternating user/assistant messages whose text is their
// token weight.
func weighted(weights ...int) []message.Message {
	msgs := make([]message.Message, len(weights))
	for i, w := range weights {
		r := role.User
		if i%2 == 1 {
			r = role.Assistant
		}
		msgs[i] = message.NewText(r, strconv.Itoa(w))
	}
	return msgs
}

type counter struct {
	calls int
	err   error
}

func (c *counter) count(_ context.Context, msgs []message.Message) (int, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	total := 0
	for _, m := range msgs {
		n, _ := strconv.Atoi(m.TextContent())
		total += n
	}
	return total, nil
}

func TestTrim_WithinBudget(t *testing.T) {
	c := &counter{}
	msgs := weighted(10, 10, 10, 10)

	got, tokens, err := Trim(context.Background(), msgs, 100, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs, got)
	assert.Equal(t, 40, tokens)
	assert.Equal(t, 1, c.calls)
}

func TestTrim_EstimatedFirstPass(t *testing.T) {
	c := &counter{}
	msgs := weighted(10, 10, 10, 10, 10, 10, 10, 10, 10, 10)

	got, tokens, err := Trim(context.Background(), msgs, 45, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs[8:], got)
	assert.Equal(t, 20, tokens)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, role.User, got[0].Role)
}

func TestTrim_OneAtATimeAfterFirstPass(t *testing.T) {
	c := &counter{}
	msgs := weighted(1, 1, 1, 1, 40, 40)

	got, tokens, err := Trim(context.Background(), msgs, 81, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs[4:], got)
	assert.Equal(t, 80, tokens)
	assert.Equal(t, 3, c.calls)
}

func TestTrim_SkipsLeadingToolResults(t *testing.T) {
	msgs := weighted(10, 10, 10, 10, 10, 10, 10, 10)
	msgs[3] = message.New(role.Assistant, content.Text{Text: "10"}, content.ToolCall{ID: "t1", Name: "read_passage"})
	msgs[4] = message.New(role.User, content.ToolResult{ToolCallID: "t1", Content: "10"})
	perMessage := func(_ context.Context, ms []message.Message) (int, error) {
		return 10 * len(ms), nil
	}

	got, tokens, err := Trim(context.Background(), msgs, 55, perMessage)

	require.NoError(t, err)
	assert.Equal(t, msgs[6:], got)
	assert.Equal(t, 20, tokens)
}

func TestTrim_KeepsOversizedLastMessage(t *testing.T) {
	c := &counter{}
	msgs := weighted(1000, 1000, 1000)

	got, tokens, err := Trim(context.Background(), msgs, 10, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs[2:], got)
	assert.Equal(t, 1000, tokens)
}

func TestTrim_TenMessagesOnlyLastFits(t *testing.T) {
	c := &counter{}
	msgs := weighted(100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	msgs[9] = message.NewText(role.User, "100")

	got, tokens, err := Trim(context.Background(), msgs, 150, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs[9:], got)
	assert.Equal(t, 100, tokens)
	assert.LessOrEqual(t, c.calls, 2)
}

func TestTrim_SingleMessageOverBudget(t *testing.T) {
	c := &counter{}
	msgs := weighted(500)

	got, tokens, err := Trim(context.Background(), msgs, 10, c.count)

	require.NoError(t, err)
	assert.Equal(t, msgs, got)
	assert.Equal(t, 500, tokens)
}

func TestTrim_Empty(t *testing.T) {
	c := &counter{}

	got, tokens, err := Trim(context.Background(), nil, 10, c.count)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, tokens)
	assert.Zero(t, c.calls)
}

func TestTrim_CountError(t *testing.T) {
	boom := errors.New("count unavailable")
	c := &counter{err: boom}

	_, _, err := Trim(context.Background(), weighted(1, 1), 10, c.count)

	require.ErrorIs(t, err, boom)
}

func TestEstimator_Count(t *testing.T) {
	e := Estimator{
		System: []string{"12345678"},
		Tools:  []toolbox.Tool{{Name: "ab", InputSchema: json.RawMessage("{}")}},
	}

	n, err := e.Count(context.Background(), []message.Message{message.NewText(role.User, "abcd")})

	require.NoError(t, err)
	// system 2+4, tool 1+10, message 1+4
	assert.Equal(t, 22, n)
}

func TestEstimateMessages_AllParts(t *testing.T) {
	msgs := []message.Message{
		message.New(role.Assistant,
			content.Thinking{Text: "12345"},
			content.ToolCall{ID: "1", Name: "ab", Arguments: "{}"},
		),
		message.New(role.User, content.ToolResult{ToolCallID: "1", Content: "abc"}),
	}

	// 4 + 2 + 2, then 4 + 1
	assert.Equal(t, 13, EstimateMessages(msgs))
}
