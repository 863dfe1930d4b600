package services

import (
	"context"
	"fmt"
	"time"

	"adventurebuddha/internal/clients/whatsapp"
	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/events"
	"adventurebuddha/internal/repositories"
	"adventurebuddha/internal/utils"
)

// NextBatchDelay is the pause between two batches of one campaign.
const NextBatchDelay = 60 * time.Second

// CampaignQueue schedules a batch run for a campaign.
type CampaignQueue interface {
	Enqueue(ctx context.Context, campaignID int64, delay time.Duration) error
}

// CampaignSender sends campaign messages one batch at a time.
type CampaignSender struct {
	Campaigns repositories.CampaignRepository
	Messages  repositories.MessageRepository
	Sender    whatsapp.Sender
	Queue     CampaignQueue
	Events    events.Publisher
	Now       clock
	Sleep     func(ctx context.Context, d time.Duration) error
}

func (s CampaignSender) tag() string { return utils.WorkerTag("campaign") }

func (s CampaignSender) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return MessagingService{}.sleep(ctx, d)
}

// ProcessBatch sends the next batch of a campaign. It is a no-op for campaigns
// that are not running or due. More work is re-enqueued after NextBatchDelay.
func (s CampaignSender) ProcessBatch(ctx context.Context, campaignID int64) error {
	c, err := s.Campaigns.Get(campaignID)
	if err != nil {
		return repoErr("campaign", err)
	}
	if !c.Sendable() {
		utils.LogEvent(s.tag(), "campaign", "skip", fmt.Sprintf("campaign_id=%d status=%s", c.ID, c.Status))
		return nil
	}
	now := s.Now.now()
	if c.Status == models.CampaignScheduled {
		if c.ScheduledAt != nil && c.ScheduledAt.After(now) {
			return s.enqueue(ctx, c.ID, c.ScheduledAt.Sub(now))
		}
		if err := s.Campaigns.SetStatus(c.ID, models.CampaignRunning, &now, nil); err != nil {
			return repoErr("campaign", err)
		}
		c.Status = models.CampaignRunning
	}

	batch := c.BatchSize
	if batch <= 0 {
		batch = models.DefaultBatchSize
	}
	msgs, err := s.Messages.Queued(c.ID, batch)
	if err != nil {
		return repoErr("message", err)
	}
	if len(msgs) == 0 {
		return s.complete(c)
	}

	for i, m := range msgs {
		if i > 0 {
			if err := s.sleep(ctx, time.Duration(c.DelayBetweenMessages)*time.Second); err != nil {
				return err
			}
			current, err := s.Campaigns.Get(c.ID)
			if err != nil {
				return repoErr("campaign", err)
			}
			if !current.Sendable() {
				utils.LogEvent(s.tag(), "campaign", "stopped", fmt.Sprintf("campaign_id=%d status=%s", c.ID, current.Status))
				return nil
			}
		}
		if _, err := s.Deliver(ctx, c, m); err != nil {
			return err
		}
	}

	if err := s.Campaigns.NextBatch(c.ID); err != nil {
		return repoErr("campaign", err)
	}
	return s.enqueue(ctx, c.ID, NextBatchDelay)
}

// Deliver sends one message and records the outcome. A provider failure is
// recorded on the message and reported as sent=false, not as an error.
func (s CampaignSender) Deliver(ctx context.Context, c models.MessageCampaign, m models.Message) (bool, error) {
	if err := s.Messages.MarkSending(m.ID); err != nil {
		return false, repoErr("message", err)
	}
	sender := s.Sender
	if sender == nil {
		sender = &whatsapp.Mock{}
	}
	res, sendErr := sender.SendMessage(ctx, m.PhoneNumber, m.Content, m.AttachmentURL)
	now := s.Now.now()

	if sendErr != nil {
		if err := s.Messages.MarkFailed(m.ID, sendErr.Error()); err != nil {
			return false, repoErr("message", err)
		}
		s.addLog(m.ID, "failed", map[string]any{"error": sendErr.Error(), "attempt": m.RetryCount + 1})
		if err := s.Campaigns.RecordSend(c.ID, false, now); err != nil {
			return false, repoErr("campaign", err)
		}
		return false, nil
	}

	if err := s.Messages.MarkSent(m.ID, res.MessageID, now); err != nil {
		return false, repoErr("message", err)
	}
	s.addLog(m.ID, "sent", map[string]any{"provider_message_id": res.MessageID, "status": res.Status})
	if err := s.Campaigns.RecordSend(c.ID, true, now); err != nil {
		return false, repoErr("campaign", err)
	}
	return true, nil
}

// addLog records a delivery event. The send itself already happened, so a
// failed log write is only reported.
func (s CampaignSender) addLog(messageID int64, event string, details map[string]any) {
	if err := s.Messages.AddLog(messageID, event, details); err != nil {
		utils.LogEvent(s.tag(), "campaign", "message_log_failed", fmt.Sprintf("message_id=%d event=%s: %v", messageID, event, err))
	}
}

func (s CampaignSender) complete(c models.MessageCampaign) error {
	now := s.Now.now()
	if err := s.Campaigns.SetStatus(c.ID, models.CampaignCompleted, nil, &now); err != nil {
		return repoErr("campaign", err)
	}
	utils.LogEvent(s.tag(), "campaign", "completed", fmt.Sprintf("campaign_id=%d", c.ID))
	events.Emit(s.Events, s.tag(), events.New(events.CampaignCompleted, c.CreatedBy,
		"Campaign completed", c.Name, map[string]any{"campaign_id": c.ID}))
	return nil
}

func (s CampaignSender) enqueue(ctx context.Context, campaignID int64, delay time.Duration) error {
	if s.Queue == nil {
		return nil
	}
	return s.Queue.Enqueue(ctx, campaignID, delay)
}
