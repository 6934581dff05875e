package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil, "Seeding")
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestInterrupt_CancelsOnce(t *testing.T) {
	var out bytes.Buffer
	handler := NewInterruptHandler(&out, "Seeding")

	ctx, stop := handler.HandleInterrupts(context.Background())
	defer stop()

	handler.Interrupt()
	handler.Interrupt()

	<-ctx.Done()
	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Seeding interrupted!"))
}

func TestHandleInterrupts_StopCancels(t *testing.T) {
	handler := NewInterruptHandler(&bytes.Buffer{}, "Seeding")
	ctx, stop := handler.HandleInterrupts(context.Background())

	stop()
	stop()

	<-ctx.Done()
	assert.False(t, handler.WasInterrupted())
}
