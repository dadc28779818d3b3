package fetch

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"
)

// Client issues document requests. Satisfied by *dart.Client.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
	DocumentURL(receiptNo string) string
	StaticViewerURL(receiptNo string) string
	MainViewerURL(receiptNo string) string
}

// DocumentStrategy fetches the structured document.xml endpoint. The
// endpoint sometimes answers with a JSON error body under a 200, so
// usability is decided by the XML payload signature, not the declared
// content type.
type DocumentStrategy struct {
	client Client
}

// NewDocumentStrategy creates the primary document.xml strategy.
func NewDocumentStrategy(client Client) *DocumentStrategy {
	return &DocumentStrategy{client: client}
}

func (s *DocumentStrategy) Name() string { return "document_xml" }

func (s *DocumentStrategy) Fetch(ctx context.Context, receiptNo string) (string, error) {
	raw, err := s.client.Get(ctx, s.client.DocumentURL(receiptNo))
	if err != nil {
		return "", err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(raw, " \t\r\n"), []byte("<?xml")) {
		return "", eris.Errorf("document_xml: response for %s is not an xml document", receiptNo)
	}
	return string(raw), nil
}
