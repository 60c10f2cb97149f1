package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Navigation(t *testing.T) {
	intent, confidence := Classify("how do I get to the library")
	assert.Equal(t, IntentNavigation, intent)
	assert.Greater(t, confidence, 0.5)
}

func TestClassify_FacultyInfo(t *testing.T) {
	intent, _ := Classify("who is professor sharma")
	assert.Equal(t, IntentFacultyInfo, intent)
}

func TestClassify_Greeting(t *testing.T) {
	intent, _ := Classify("hello there")
	assert.Equal(t, IntentGreeting, intent)
}

func TestClassify_Farewell(t *testing.T) {
	intent, _ := Classify("goodbye and thank you")
	assert.Equal(t, IntentFarewell, intent)
}

func TestClassify_Help(t *testing.T) {
	intent, _ := Classify("what can you do")
	assert.Equal(t, IntentHelp, intent)
}

func TestClassify_NoMatch(t *testing.T) {
	intent, confidence := Classify("zzz qqq xxx")
	assert.Equal(t, IntentUnknown, intent)
	assert.Zero(t, confidence)
}

func TestClassify_EmptyText(t *testing.T) {
	intent, confidence := Classify("")
	assert.Equal(t, IntentUnknown, intent)
	assert.Zero(t, confidence)
}

func TestClassify_HighestWeightedPatternWins(t *testing.T) {
	// Both navigation ("where is") and campus_info ("library") match;
	// navigation carries the higher weight and a longer span.
	intent, _ := Classify("where is the library")
	assert.Equal(t, IntentNavigation, intent)
}

func TestClassify_ConfidenceBounds(t *testing.T) {
	inputs := []string{
		"how do I get to the canteen",
		"who is the principal",
		"tell me about placements",
		"hello",
		"bye",
		"some words that match nothing",
	}
	for _, in := range inputs {
		_, confidence := Classify(in)
		assert.GreaterOrEqual(t, confidence, 0.0, "input %q", in)
		assert.LessOrEqual(t, confidence, 1.0, "input %q", in)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		intent, confidence := Classify("how do I get to the library")
		assert.Equal(t, IntentNavigation, intent)
		assert.InDelta(t, 0.90*(0.7+0.3*float64(len("how do I get"))/float64(len("how do I get to the library"))), confidence, 1e-9)
	}
}
