package fetch

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// StaticViewerStrategy fetches the static rendered-HTML viewer page.
// Usable whenever the body carries an HTML root marker; pages that need
// script execution fall through to the browser strategy.
type StaticViewerStrategy struct {
	client Client
}

// NewStaticViewerStrategy creates the static viewer strategy.
func NewStaticViewerStrategy(client Client) *StaticViewerStrategy {
	return &StaticViewerStrategy{client: client}
}

func (s *StaticViewerStrategy) Name() string { return "static_viewer" }

func (s *StaticViewerStrategy) Fetch(ctx context.Context, receiptNo string) (string, error) {
	raw, err := s.client.Get(ctx, s.client.StaticViewerURL(receiptNo))
	if err != nil {
		return "", err
	}
	body := string(raw)
	if !strings.Contains(strings.ToLower(body), "<html") {
		return "", eris.Errorf("static_viewer: response for %s has no html root", receiptNo)
	}
	return body, nil
}
