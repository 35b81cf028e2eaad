package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/model"
)

// Crossref queries the Crossref works API by DOI.
type Crossref struct {
	Client *Client
}

func (a *Crossref) Name() model.SourceName { return model.SourceCrossref }

type crossrefResponse struct {
	Message struct {
		Title           []string `json:"title"`
		Author          []crossrefAuthor `json:"author"`
		ContainerTitle  []string `json:"container-title"`
		PublishedPrint  crossrefDateParts `json:"published-print"`
		PublishedOnline crossrefDateParts `json:"published-online"`
		Volume          string   `json:"volume"`
		Page            string   `json:"page"`
		DOI             string   `json:"DOI"`
		ISSN            []string `json:"ISSN"`
		Type            string   `json:"type"`
	} `json:"message"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (a *Crossref) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.DOI == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("https://api.crossref.org/works/%s", url.PathEscape(q.DOI))
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		parseCrossrefResponse,
	)
}

func parseCrossrefResponse(body []byte) (model.SourceRecord, error) {
	var resp crossrefResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	msg := resp.Message
	record := model.SourceRecord{
		"DOI":  msg.DOI,
		"type": msg.Type,
	}
	if len(msg.Title) > 0 {
		record["title"] = msg.Title[0]
	}
	if len(msg.ContainerTitle) > 0 {
		record["container-title"] = msg.ContainerTitle[0]
	}
	if len(msg.Author) > 0 {
		record["author"] = formatAuthors(msg.Author)
	}
	dateParts := msg.PublishedPrint.DateParts
	if len(dateParts) == 0 {
		dateParts = msg.PublishedOnline.DateParts
	}
	if len(dateParts) > 0 && len(dateParts[0]) > 0 {
		record["published-print.date-parts"] = dateParts[0][0]
	}
	if msg.Volume != "" {
		record["volume"] = msg.Volume
	}
	if msg.Page != "" {
		record["page"] = msg.Page
	}
	if len(msg.ISSN) > 0 {
		record["ISSN"] = strings.Join(msg.ISSN, ", ")
	}
	return record, nil
}

// formatAuthors renders a Crossref author list as "Family, Given and
// Family, Given and ...", the shape the Field Comparator's Crossref
// author transformer expects.
func formatAuthors(authors []crossrefAuthor) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		switch {
		case a.Family != "" && a.Given != "":
			parts = append(parts, fmt.Sprintf("%s, %s", a.Family, a.Given))
		case a.Family != "":
			parts = append(parts, a.Family)
		}
	}
	return strings.Join(parts, " and ")
}
