package feishu

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Client is the Feishu API client used for outbound notifications
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
}

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
}

// WithBaseURL points the client at a different open platform endpoint
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, opts ...Option) *Client {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	larkOpts := []lark.ClientOptionFunc{lark.WithLogLevel(larkcore.LogLevelError)}
	if o.baseURL != "" {
		larkOpts = append(larkOpts, lark.WithOpenBaseUrl(o.baseURL))
	}

	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret, larkOpts...),
	}
}

// SendPost sends a rich text (post) message with a title and one paragraph per line
func (c *Client) SendPost(ctx context.Context, chatID, title string, lines ...string) error {
	paragraphs := make([][]map[string]string, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, []map[string]string{{"tag": "text", "text": line}})
	}
	post := map[string]any{
		"zh_cn": map[string]any{
			"title":   title,
			"content": paragraphs,
		},
	}
	contentJSON, _ := json.Marshal(post)

	return c.send(ctx, chatID, larkim.MsgTypePost, string(contentJSON))
}

func (c *Client) send(ctx context.Context, chatID, msgType, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}
	return nil
}
