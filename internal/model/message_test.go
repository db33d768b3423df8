package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_SetLabelsDedupesPreservingOrder(t *testing.T) {
	m := &Message{}
	m.SetLabels([]string{"B", "A", "B", "C", "A"})
	assert.Equal(t, []string{"B", "A", "C"}, m.Labels())
}

func TestMessage_LabelsOnEmptyStorage(t *testing.T) {
	m := &Message{}
	assert.Nil(t, m.Labels())
}

func TestMessage_LabelsOnMalformedStorageDoesNotError(t *testing.T) {
	m := &Message{LabelsJSON: "{not json"}
	assert.Nil(t, m.Labels())
}

func TestSummarize_BoundsToMaxRunes(t *testing.T) {
	body := ""
	for i := 0; i < 500; i++ {
		body += "x"
	}
	summary := Summarize(body)
	assert.Len(t, []rune(summary), SummaryMaxRunes)
}

func TestSummarize_ShortBodyUnchanged(t *testing.T) {
	assert.Equal(t, "hi", Summarize("hi"))
}
