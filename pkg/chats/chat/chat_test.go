package chat

import (
	"testing"

	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/stretchr/testify/assert"
)

func TestChat_ZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())
	_, ok := c.Last()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
}

func TestChat_AppendAndAt(t *testing.T) {
	c := New(message.NewText(role.User, "hello"))
	c.Append(message.NewText(role.Assistant, "hi"), message.NewText(role.User, "again"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "hi", c.At(1).TextContent())

	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "again", last.TextContent())
}

func TestChat_MessagesReturnsCopy(t *testing.T) {
	c := New(message.NewText(role.User, "hello"))

	msgs := c.Messages()
	msgs[0] = message.NewText(role.User, "changed")

	assert.Equal(t, "hello", c.At(0).TextContent())
}

func TestChat_Replace(t *testing.T) {
	c := New(message.NewText(role.User, "a"), message.NewText(role.Assistant, "b"))

	c.Replace(message.NewText(role.User, "c"))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "c", c.At(0).TextContent())
}
