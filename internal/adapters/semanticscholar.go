package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/model"
)

// SemanticScholar queries the Semantic Scholar Graph API, preferring a
// direct DOI lookup when a DOI hint is available and falling back to
// title search otherwise.
type SemanticScholar struct {
	Client *Client
}

func (a *SemanticScholar) Name() model.SourceName { return model.SourceSemanticScholar }

const semanticScholarFields = "title,authors,year,venue,externalIds"

type semanticScholarPaper struct {
	Title       string                      `json:"title"`
	Authors     []semanticScholarAuthor     `json:"authors"`
	Year        int                         `json:"year"`
	Venue       string                      `json:"venue"`
	ExternalIDs map[string]string           `json:"externalIds"`
}

type semanticScholarAuthor struct {
	Name string `json:"name"`
}

type semanticScholarSearchResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

func (a *SemanticScholar) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.DOI != "" {
		endpoint := fmt.Sprintf("https://api.semanticscholar.org/graph/v1/paper/DOI:%s?fields=%s",
			url.PathEscape(q.DOI), semanticScholarFields)
		return Fetch(ctx, a.Name(),
			func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
			func(body []byte) (model.SourceRecord, error) {
				var paper semanticScholarPaper
				if err := json.Unmarshal(body, &paper); err != nil {
					return nil, err
				}
				return mapSemanticScholarPaper(paper), nil
			},
		)
	}
	if q.Title == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("https://api.semanticscholar.org/graph/v1/paper/search?query=%s&fields=%s&limit=1",
		url.QueryEscape(q.Title), semanticScholarFields)
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		func(body []byte) (model.SourceRecord, error) {
			var resp semanticScholarSearchResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}
			if len(resp.Data) == 0 {
				return nil, nil
			}
			return mapSemanticScholarPaper(resp.Data[0]), nil
		},
	)
}

func mapSemanticScholarPaper(paper semanticScholarPaper) model.SourceRecord {
	authors := make([]string, 0, len(paper.Authors))
	for _, au := range paper.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}
	record := model.SourceRecord{
		"title": paper.Title,
		"venue": paper.Venue,
	}
	if len(authors) > 0 {
		record["authors"] = strings.Join(authors, " and ")
	}
	if paper.Year > 0 {
		record["year"] = strconv.Itoa(paper.Year)
	}
	if doi, ok := paper.ExternalIDs["DOI"]; ok && doi != "" {
		record["doi"] = doi
	}
	if arxiv, ok := paper.ExternalIDs["ArXiv"]; ok && arxiv != "" {
		record["externalIds.ArXiv"] = arxiv
	}
	return record
}
