package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/roach88/emend/internal/dataset"
)

// Listing is one announcement extracted from the listings table.
type Listing struct {
	Title string
	URL   string
}

var (
	selListingTable = cascadia.MustCompile("table.Normal")
	selTBody        = cascadia.MustCompile("tbody")
	selRow          = cascadia.MustCompile("tr")
	selSubHead      = cascadia.MustCompile("tr.SubHead")
	selTitleAnchor  = cascadia.MustCompile("td.TÍTULOCell a[href]")
	selAnchor       = cascadia.MustCompile("a[href]")
)

// FetchListings downloads the announcements page and extracts its listing
// table. Relative links resolve against the page URL.
func (c *Client) FetchListings(ctx context.Context, pageURL string) ([]Listing, error) {
	doc, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}
	listings, err := ExtractListings(doc, base)
	if err != nil {
		return nil, err
	}
	c.log.Debug("extracted listings", slog.Int("count", len(listings)))
	return listings, nil
}

// ExtractListings pulls the announcement rows out of a parsed page. The
// table is the one with class Normal; header rows carry class SubHead and
// are skipped. Each remaining row's listing anchor is the link inside the
// title cell when present, otherwise the first anchor whose text is not the
// download action. Zero extracted listings is an error so layout drift on
// the portal fails loudly instead of emptying the snapshot.
func ExtractListings(doc *html.Node, base *url.URL) ([]Listing, error) {
	table := selListingTable.MatchFirst(doc)
	if table == nil {
		return nil, errors.New("listings table not found")
	}
	scope := table
	if tbody := selTBody.MatchFirst(table); tbody != nil {
		scope = tbody
	}

	var listings []Listing
	for _, row := range selRow.MatchAll(scope) {
		if selSubHead.Match(row) {
			continue
		}
		anchor := pickAnchor(row)
		if anchor == nil {
			continue
		}
		title := collapseSpace(nodeText(anchor))
		href := attrValue(anchor, "href")
		if title == "" || href == "" {
			continue
		}
		listings = append(listings, Listing{
			Title: title,
			URL:   resolveRef(base, href),
		})
	}

	if len(listings) == 0 {
		return nil, errors.New("no listings extracted")
	}
	return listings, nil
}

// WriteListings writes the rows as a two-column CSV snapshot.
func WriteListings(path string, listings []Listing) error {
	rows := make([][]string, len(listings))
	for i, l := range listings {
		rows[i] = []string{l.Title, l.URL}
	}
	return dataset.WriteTable(path, []string{"titulo", "url"}, rows)
}

// pickAnchor chooses the row's listing link: the title-cell anchor when the
// row has one, else the first anchor with text other than "DESCARGAR" (the
// attachment download action).
func pickAnchor(row *html.Node) *html.Node {
	if a := selTitleAnchor.MatchFirst(row); a != nil {
		return a
	}
	for _, a := range selAnchor.MatchAll(row) {
		text := collapseSpace(nodeText(a))
		if text == "" || strings.EqualFold(text, "DESCARGAR") {
			continue
		}
		return a
	}
	return nil
}

// nodeText concatenates the text descendants of n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// collapseSpace trims and collapses whitespace runs to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// resolveRef resolves href against base, falling back to the raw value when
// it does not parse as a URL.
func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
