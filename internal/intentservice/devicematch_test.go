package intentservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jarvis-brain/core/internal/intentservice"
)

func TestResolveDevice_ExactMatch(t *testing.T) {
	matched, ok, ambiguous := intentservice.ResolveDevice("Living Room TV", []string{"Living Room TV", "Kitchen TV"})
	assert.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "Living Room TV", matched)
}

func TestResolveDevice_CaseInsensitiveMatch(t *testing.T) {
	matched, ok, ambiguous := intentservice.ResolveDevice("living room tv", []string{"Living Room TV", "Kitchen TV"})
	assert.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "Living Room TV", matched)
}

func TestResolveDevice_PartialMatch(t *testing.T) {
	matched, ok, ambiguous := intentservice.ResolveDevice("office", []string{"Office Lamp", "Bedroom Lamp"})
	assert.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "Office Lamp", matched)
}

func TestResolveDevice_AmbiguousPartialMatch(t *testing.T) {
	_, ok, ambiguous := intentservice.ResolveDevice("lamp", []string{"Office Lamp", "Bedroom Lamp"})
	assert.False(t, ok)
	assert.True(t, ambiguous)
}

func TestResolveDevice_FuzzyMatchTypo(t *testing.T) {
	matched, ok, _ := intentservice.ResolveDevice("livingroom tv", []string{"Living Room TV"})
	assert.True(t, ok)
	assert.Equal(t, "Living Room TV", matched)
}

func TestResolveDevice_NoMatch(t *testing.T) {
	_, ok, ambiguous := intentservice.ResolveDevice("spaceship", []string{"Office Lamp", "Bedroom Lamp"})
	assert.False(t, ok)
	assert.False(t, ambiguous)
}
