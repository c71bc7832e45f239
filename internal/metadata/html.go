package metadata

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// ScanHTML returns the <meta> entries of an HTML document in document order.
// Tags without a name attribute are skipped.
func ScanHTML(r io.Reader) ([]Entry, error) {
	z := html.NewTokenizer(r)
	var entries []Entry
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("scan html: %w", err)
			}
			return entries, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var e Entry
			for _, a := range tok.Attr {
				switch a.Key {
				case "name":
					e.Name = a.Val
				case "content":
					e.Content = a.Val
				}
			}
			if e.Name != "" {
				entries = append(entries, e)
			}
		}
	}
}
