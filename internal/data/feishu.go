package data

import (
	"context"
	"fmt"

	"github.com/devricklin/automessage/internal/biz/repo"
	"github.com/devricklin/automessage/internal/infra/feishu"
)

// feishuNotifier posts notifications into one Feishu chat
type feishuNotifier struct {
	client *feishu.Client
	chatID string
}

// NewFeishuNotifier creates a Notifier repository that sends a post message to chatID
func NewFeishuNotifier(client *feishu.Client, chatID string) repo.NotifierRepo {
	return &feishuNotifier{client: client, chatID: chatID}
}

// Notify sends title and body as a Feishu post
func (n *feishuNotifier) Notify(ctx context.Context, title, body string) error {
	if err := n.client.SendPost(ctx, n.chatID, title, body); err != nil {
		return fmt.Errorf("feishu notification: %w", err)
	}
	return nil
}
