package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "ask", 0)
	log.V(1).Info("hidden")
	log.Error(errors.New("boom"), "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	log = New(&buf, "ask", 1)
	log.V(1).Info("visible", "model", "gpt-4o-mini")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "gpt-4o-mini")
}
