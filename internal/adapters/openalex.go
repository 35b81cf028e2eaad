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

// OpenAlex queries the OpenAlex works API, either by DOI or by title
// search. It is scheduled whenever a non-arXiv DOI is present (even
// after Crossref already succeeded) for its superior venue naming.
type OpenAlex struct {
	Client *Client
}

func (a *OpenAlex) Name() model.SourceName { return model.SourceOpenAlex }

type openAlexWork struct {
	Title            string                 `json:"title"`
	Authorships      []openAlexAuthorship   `json:"authorships"`
	PublicationYear  int                    `json:"publication_year"`
	PrimaryLocation  openAlexPrimaryLoc     `json:"primary_location"`
	DOI              string                 `json:"doi"`
	Biblio           openAlexBiblio         `json:"biblio"`
	Type             string                 `json:"type"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexPrimaryLoc struct {
	Source struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type openAlexSearchResponse struct {
	Results []openAlexWork `json:"results"`
}

func (a *OpenAlex) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	switch {
	case q.DOI != "":
		endpoint := fmt.Sprintf("https://api.openalex.org/works/https://doi.org/%s", url.PathEscape(q.DOI))
		return Fetch(ctx, a.Name(),
			func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
			func(body []byte) (model.SourceRecord, error) {
				var work openAlexWork
				if err := json.Unmarshal(body, &work); err != nil {
					return nil, err
				}
				return mapOpenAlexWork(work), nil
			},
		)
	case q.Title != "":
		endpoint := fmt.Sprintf("https://api.openalex.org/works?search=%s&per-page=1", url.QueryEscape(q.Title))
		return Fetch(ctx, a.Name(),
			func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
			func(body []byte) (model.SourceRecord, error) {
				var resp openAlexSearchResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					return nil, err
				}
				if len(resp.Results) == 0 {
					return nil, nil
				}
				return mapOpenAlexWork(resp.Results[0]), nil
			},
		)
	default:
		return nil, nil
	}
}

func mapOpenAlexWork(work openAlexWork) model.SourceRecord {
	authors := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}
	record := model.SourceRecord{
		"title": work.Title,
		"type":  work.Type,
	}
	if len(authors) > 0 {
		record["authorships"] = strings.Join(authors, " and ")
	}
	if work.PublicationYear > 0 {
		record["publication_year"] = strconv.Itoa(work.PublicationYear)
	}
	if work.PrimaryLocation.Source.DisplayName != "" {
		record["primary_location.source.display_name"] = work.PrimaryLocation.Source.DisplayName
	}
	if work.DOI != "" {
		record["doi"] = strings.TrimPrefix(strings.TrimPrefix(work.DOI, "https://doi.org/"), "http://doi.org/")
	}
	if work.Biblio.Volume != "" {
		record["biblio.volume"] = work.Biblio.Volume
	}
	if work.Biblio.Issue != "" {
		record["biblio.issue"] = work.Biblio.Issue
	}
	if work.Biblio.FirstPage != "" {
		record["biblio.first_page"] = work.Biblio.FirstPage
	}
	if work.Biblio.LastPage != "" {
		record["biblio.last_page"] = work.Biblio.LastPage
	}
	return record
}
