package httpapi

import (
	"context"
	"net/http"
	"net/url"
)

// ForumClient fetches forum fragments.
type ForumClient struct {
	c *Client
}

func NewForumClient(c *Client) *ForumClient {
	return &ForumClient{c: c}
}

// IssueFragment returns the HTML body of an issue.
func (f *ForumClient) IssueFragment(ctx context.Context, issueID string) (string, error) {
	path := "/forum/issue/" + url.PathEscape(issueID) + "?body="
	status, raw, err := f.c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", &StatusError{Path: path, Status: status}
	}
	return string(raw), nil
}
