package adapters

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/bet-lab/reference-validator/internal/model"
)

// Arxiv queries the arXiv Atom API by arXiv ID. It is the one adapter
// whose requests are additionally serialized by the Rate Limiter's
// dedicated arXiv gate.
type Arxiv struct {
	Client *Client
}

func (a *Arxiv) Name() model.SourceName { return model.SourceArxiv }

// atomFeed mirrors the two namespaces the arXiv Atom API mixes into one
// response: the base Atom namespace for id/title/author/published, and
// the arXiv-specific namespace for journal_ref/doi/comment.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Published  string        `xml:"published"`
	Authors    []atomAuthor  `xml:"author"`
	Categories []atomCat     `xml:"category"`
	JournalRef string        `xml:"http://arxiv.org/schemas/atom journal_ref"`
	DOI        string        `xml:"http://arxiv.org/schemas/atom doi"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCat struct {
	Term string `xml:"term,attr"`
}

func (a *Arxiv) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.ArxivID == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("http://export.arxiv.org/api/query?id_list=%s", url.QueryEscape(q.ArxivID))
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		func(body []byte) (model.SourceRecord, error) {
			var feed atomFeed
			if err := xml.Unmarshal(body, &feed); err != nil {
				return nil, err
			}
			if len(feed.Entries) == 0 {
				return nil, nil
			}
			entry := feed.Entries[0]

			authors := make([]string, 0, len(entry.Authors))
			for _, au := range entry.Authors {
				authors = append(authors, au.Name)
			}
			categories := make([]string, 0, len(entry.Categories))
			for _, c := range entry.Categories {
				categories = append(categories, c.Term)
			}

			record := model.SourceRecord{
				"title":      strings.TrimSpace(entry.Title),
				"authors":    strings.Join(authors, " and "),
				"published":  entry.Published,
				"arxiv_id":   q.ArxivID,
				"categories": strings.Join(categories, ", "),
			}
			if entry.JournalRef != "" {
				record["journal_ref"] = entry.JournalRef
			}
			if entry.DOI != "" {
				record["doi"] = entry.DOI
			}
			return record, nil
		},
	)
}
