// Package gmail reads bank alert snippets and statement attachments from a
// Gmail mailbox. Token issue and refresh happen outside this package.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// Client wraps the Gmail service.
type Client struct {
	svc *gmailapi.Service
}

// Attachment is one file attached to a message.
type Attachment struct {
	MessageID string
	Filename  string
	Data      []byte
}

// New builds a client from explicit options.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithToken builds a client that authenticates with a fixed OAuth token.
func NewWithToken(ctx context.Context, tok *oauth2.Token) (*Client, error) {
	return New(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
}

// LoadToken reads an OAuth token saved as JSON.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token %s has no access token", path)
	}
	return &tok, nil
}

// Query appends a date range to a search pattern. Gmail treats after as
// inclusive and before as exclusive.
func Query(search string, from, to time.Time) string {
	var b strings.Builder
	b.WriteString(search)
	if !from.IsZero() {
		fmt.Fprintf(&b, " after:%s", from.Format("2006/01/02"))
	}
	if !to.IsZero() {
		fmt.Fprintf(&b, " before:%s", to.Format("2006/01/02"))
	}
	return strings.TrimSpace(b.String())
}

func (c *Client) messageIDs(ctx context.Context, q string) ([]string, error) {
	var ids []string
	call := c.svc.Users.Messages.List(user).Q(q).Context(ctx)
	err := call.Pages(ctx, func(resp *gmailapi.ListMessagesResponse) error {
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for %q: %w", q, err)
	}
	log.WithField("query", q).Debugf("found %d messages", len(ids))
	return ids, nil
}

// Snippets returns the snippet of every message matching search in
// [from, to).
func (c *Client) Snippets(ctx context.Context, search string, from, to time.Time) ([]string, error) {
	ids, err := c.messageIDs(ctx, Query(search, from, to))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		msg, err := c.svc.Users.Messages.Get(user, id).Format("minimal").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to read message %s: %w", id, err)
		}
		out = append(out, msg.Snippet)
	}
	return out, nil
}

// Attachments downloads every attachment of the messages matching search in
// [from, to). A message that cannot be read is logged and skipped.
func (c *Client) Attachments(ctx context.Context, search string, from, to time.Time) ([]Attachment, error) {
	ids, err := c.messageIDs(ctx, Query(search, from, to))
	if err != nil {
		return nil, err
	}
	var out []Attachment
	for _, id := range ids {
		msg, err := c.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
		if err != nil {
			log.WithField("message", id).Errorf("failed to read message: %v", err)
			continue
		}
		for _, part := range fileParts(msg.Payload) {
			data, err := c.partData(ctx, id, part)
			if err != nil {
				log.WithFields(log.Fields{"message": id, "file": part.Filename}).Errorf("failed to fetch attachment: %v", err)
				continue
			}
			out = append(out, Attachment{MessageID: id, Filename: part.Filename, Data: data})
		}
	}
	return out, nil
}

// fileParts walks the MIME tree for parts carrying a filename.
func fileParts(p *gmailapi.MessagePart) []*gmailapi.MessagePart {
	if p == nil {
		return nil
	}
	var out []*gmailapi.MessagePart
	if p.Filename != "" && p.Body != nil {
		out = append(out, p)
	}
	for _, child := range p.Parts {
		out = append(out, fileParts(child)...)
	}
	return out
}

func (c *Client) partData(ctx context.Context, messageID string, part *gmailapi.MessagePart) ([]byte, error) {
	encoded := part.Body.Data
	if encoded == "" && part.Body.AttachmentId != "" {
		body, err := c.svc.Users.Messages.Attachments.Get(user, messageID, part.Body.AttachmentId).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		encoded = body.Data
	}
	if encoded == "" {
		return nil, fmt.Errorf("attachment %s has no data", part.Filename)
	}
	return decode(encoded)
}

// decode accepts padded and unpadded base64url.
func decode(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
