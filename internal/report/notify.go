package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/pkg/telegram"
)

// Notifier delivers a digest over Telegram. A nil client or empty chat ID
// means Telegram is not configured; the digest is logged instead so a run
// without credentials still surfaces its results.
type Notifier struct {
	client telegram.Client
	chatID string
	maxLen int

	// pause spaces consecutive sends to stay under the bot rate limit.
	pause time.Duration
	sleep func(time.Duration)
}

func NewNotifier(client telegram.Client, chatID string, maxLen int) *Notifier {
	if maxLen <= 0 || maxLen > telegram.MaxMessageLen {
		maxLen = telegram.MaxMessageLen
	}
	return &Notifier{
		client: client,
		chatID: chatID,
		maxLen: maxLen,
		pause:  time.Second,
		sleep:  time.Sleep,
	}
}

// Send delivers the summary and each city message, splitting oversized city
// messages at listing boundaries. Continuation chunks repeat the city label.
// Delivery failures are logged and skipped; notification problems never fail
// an evaluation run.
func (n *Notifier) Send(ctx context.Context, d Digest) {
	if d.Summary == "" && len(d.Cities) == 0 {
		zap.L().Info("nothing to notify about")
		return
	}
	if n.client == nil || n.chatID == "" {
		zap.L().Info("telegram not configured, printing digest")
		fmt.Println(d.Summary)
		for _, c := range d.Cities {
			fmt.Println(c.Message)
		}
		return
	}

	n.deliver(ctx, d.Summary)

	for _, c := range d.Cities {
		contHeader := fmt.Sprintf("🇪🇸 <b>%s</b> (cont.)\n\n", c.Label)
		parts := Split(c.Message, n.maxLen-len(contHeader))
		for i, part := range parts {
			if i > 0 {
				part = contHeader + part
			}
			n.deliver(ctx, part)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, text string) {
	if text == "" {
		return
	}
	err := n.client.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		zap.L().Error("telegram delivery failed", zap.Error(err))
		return
	}
	n.sleep(n.pause)
}
