package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
)

// WebhookPoster posts a message to a Slack incoming webhook.
// slacklib.PostWebhookContext satisfies it.
type WebhookPoster func(ctx context.Context, url string, msg *slacklib.WebhookMessage) error

// SlackWebhook sends stage changes to a Slack incoming webhook.
type SlackWebhook struct {
	url  string
	post WebhookPoster
}

// NewSlackWebhook creates a sender for the given webhook URL. A nil poster
// uses the slack-go client.
func NewSlackWebhook(url string, post WebhookPoster) *SlackWebhook {
	if post == nil {
		post = slacklib.PostWebhookContext
	}
	return &SlackWebhook{url: url, post: post}
}

func (s *SlackWebhook) Name() string {
	return "slack"
}

func (s *SlackWebhook) Send(ctx context.Context, change StageChange) error {
	msg := &slacklib.WebhookMessage{
		Text:   StageChangeText(change),
		Blocks: &slacklib.Blocks{BlockSet: BuildStageChangeBlocks(change)},
	}
	if err := s.post(ctx, s.url, msg); err != nil {
		return fmt.Errorf("notify.SlackWebhook.Send: %w", err)
	}
	return nil
}

// StageChangeText is the plain-text fallback for a stage change.
func StageChangeText(change StageChange) string {
	return fmt.Sprintf("%s moved from %s to %s on %s", change.Label, change.From, change.To, change.Board)
}

// BuildStageChangeBlocks builds Slack Block Kit blocks for a stage change.
func BuildStageChangeBlocks(change StageChange) []slacklib.Block {
	text := fmt.Sprintf("*%s*\n`%s` → `%s`", change.Label, change.From, change.To)
	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)

	footerText := "board: " + change.Board
	if change.Actor != "" {
		footerText += " · by " + change.Actor
	}
	footer := slacklib.NewContextBlock("",
		slacklib.NewTextBlockObject(slacklib.MarkdownType, footerText, false, false),
	)

	return []slacklib.Block{section, footer}
}
