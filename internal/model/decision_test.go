package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// telegram_push_enabled = false vetoes delivery regardless of what the
// rule decision says.
func TestDecision_PushTelegramEffective_AccountVetoWins(t *testing.T) {
	decision := Decision{PushTelegram: true}
	assert.False(t, decision.PushTelegramEffective(false))
	assert.True(t, decision.PushTelegramEffective(true))
}

func TestAccount_EffectiveInterval_InheritsGlobalWhenNil(t *testing.T) {
	a := &Account{}
	assert.Equal(t, int64(600), int64(a.EffectiveInterval(600_000_000_000)/1_000_000_000))
}

func TestAccount_EffectiveInterval_FloorsAtFiveSeconds(t *testing.T) {
	seconds := 1
	a := &Account{PollIntervalSeconds: &seconds}
	assert.Equal(t, int64(5), int64(a.EffectiveInterval(0)/1_000_000_000))
}
