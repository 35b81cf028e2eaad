package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/model"
)

// DBLP queries the DBLP publication search API by title (and author, as
// a relevance hint baked into the same query string).
type DBLP struct {
	Client *Client
}

func (a *DBLP) Name() model.SourceName { return model.SourceDBLP }

type dblpResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info struct {
					Title   string `json:"title"`
					Authors struct {
						Author jsonStringOrSlice `json:"author"`
					} `json:"authors"`
					Year  string `json:"year"`
					Venue string `json:"venue"`
					Type  string `json:"type"`
				} `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

func (a *DBLP) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.Title == "" {
		return nil, nil
	}
	query := q.Title
	if q.Author != "" {
		query = q.Title + " " + q.Author
	}
	endpoint := fmt.Sprintf("https://dblp.org/search/publ/api?q=%s&format=json&h=1", url.QueryEscape(query))
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		func(body []byte) (model.SourceRecord, error) {
			var resp dblpResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}
			hits := resp.Result.Hits.Hit
			if len(hits) == 0 {
				return nil, nil
			}
			info := hits[0].Info
			record := model.SourceRecord{
				"title": info.Title,
				"year":  info.Year,
				"venue": info.Venue,
				"type":  info.Type,
			}
			if authors := info.Authors.Author.Strings(); len(authors) > 0 {
				record["authors"] = strings.Join(authors, " and ")
			}
			return record, nil
		},
	)
}

// jsonStringOrSlice decodes DBLP's inconsistent "author" shape: a bare
// string for a single author, an array of strings for several.
type jsonStringOrSlice struct {
	values []string
}

func (j *jsonStringOrSlice) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		j.values = []string{single}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err != nil {
		return err
	}
	j.values = multi
	return nil
}

func (j jsonStringOrSlice) Strings() []string { return j.values }
