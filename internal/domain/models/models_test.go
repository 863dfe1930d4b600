package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotStatusFor(t *testing.T) {
	assert.Equal(t, SlotSoldOut, SlotStatusFor(0, 20))
	assert.Equal(t, SlotFillingFast, SlotStatusFor(4, 20))
	assert.Equal(t, SlotAvailable, SlotStatusFor(5, 20))
}

func TestSameSeatsIgnoresOrder(t *testing.T) {
	assert.True(t, SameSeats([]string{"A2", "A1"}, []string{"A1", "A2"}))
	assert.False(t, SameSeats([]string{"A1"}, []string{"A1", "A2"}))
	assert.False(t, SameSeats([]string{"A1", "A3"}, []string{"A1", "A2"}))
}

func TestSeatLockExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, SeatLock{ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, SeatLock{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestCampaignRules(t *testing.T) {
	c := MessageCampaign{Status: CampaignRunning, TotalMessages: 8, SentMessages: 2}
	assert.InDelta(t, 25.0, c.Progress(), 0.001)
	assert.True(t, c.CanPause())
	assert.False(t, c.CanResume())
	assert.True(t, c.CanCancel())

	c.Status = CampaignCompleted
	assert.False(t, c.CanCancel())
	assert.Zero(t, MessageCampaign{}.Progress())
}

func TestMessageCanRetry(t *testing.T) {
	assert.True(t, Message{Status: MessageFailed, RetryCount: 2, MaxRetries: 3}.CanRetry())
	assert.False(t, Message{Status: MessageFailed, RetryCount: 3, MaxRetries: 3}.CanRetry())
	assert.False(t, Message{Status: MessageSent, MaxRetries: 3}.CanRetry())
}

func TestContactHistoryKeepsFive(t *testing.T) {
	var c Contact
	for i := 0; i < 7; i++ {
		c.AppendHistory(ConversationEntry{Message: string(rune('a' + i))})
	}
	assert.Len(t, c.ConversationHistory, HistoryLimit)
	assert.Equal(t, "c", c.ConversationHistory[0].Message)
}

func TestLoyaltyPoints(t *testing.T) {
	assert.Equal(t, 350, LoyaltyPoints(3, 5099))
}
