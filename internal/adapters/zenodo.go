package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/bet-lab/reference-validator/internal/model"
)

// Zenodo queries the Zenodo records API, extracting the record id from
// a DOI carrying the Zenodo prefix 10.5281/zenodo.<id>.
type Zenodo struct {
	Client *Client
}

func (a *Zenodo) Name() model.SourceName { return model.SourceZenodo }

type zenodoResponse struct {
	Metadata struct {
		Title    string `json:"title"`
		Creators []struct {
			Name string `json:"name"`
		} `json:"creators"`
		PublicationDate    string `json:"publication_date"`
		DOI                string `json:"doi"`
		RelatedIdentifiers []struct {
			Identifier string `json:"identifier"`
			Relation   string `json:"relation"`
		} `json:"related_identifiers"`
	} `json:"metadata"`
}

func (a *Zenodo) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.DOI == "" || !model.IsZenodoDOI(q.DOI) {
		return nil, nil
	}
	id := strings.TrimPrefix(q.DOI, "10.5281/zenodo.")
	endpoint := fmt.Sprintf("https://zenodo.org/api/records/%s", id)
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		parseZenodoResponse,
	)
}

func parseZenodoResponse(body []byte) (model.SourceRecord, error) {
	var resp zenodoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	meta := resp.Metadata

	creators := make([]string, 0, len(meta.Creators))
	for _, c := range meta.Creators {
		if c.Name != "" {
			creators = append(creators, c.Name)
		}
	}
	related := make([]string, 0, len(meta.RelatedIdentifiers))
	for _, r := range meta.RelatedIdentifiers {
		related = append(related, fmt.Sprintf("%s:%s", r.Relation, r.Identifier))
	}

	record := model.SourceRecord{
		"title":     meta.Title,
		"publisher": "Zenodo",
		"doi":       meta.DOI,
	}
	if len(creators) > 0 {
		record["creators"] = strings.Join(creators, " and ")
	}
	if meta.PublicationDate != "" {
		record["publication_date"] = meta.PublicationDate
	}
	if len(related) > 0 {
		record["related_identifiers"] = strings.Join(related, ", ")
	}
	return record, nil
}
