package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/trainingdesk/internal/build"
)

func TestString(t *testing.T) {
	assert.Equal(t, "trainingdesk dev (commit unknown, built unknown)", build.String())
}

func TestLogAttrs(t *testing.T) {
	attr := build.LogAttrs()
	assert.Equal(t, "build", attr.Key)
	assert.Len(t, attr.Value.Group(), 3)
}
