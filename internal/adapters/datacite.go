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

// DataCite queries the DataCite REST API by DOI. It is scheduled
// unconditionally whenever a non-arXiv DOI is present, since a DataCite
// registration is common for datasets, software and Zenodo records that
// Crossref doesn't index.
type DataCite struct {
	Client *Client
}

func (a *DataCite) Name() model.SourceName { return model.SourceDataCite }

type dataCiteResponse struct {
	Data struct {
		Attributes struct {
			Titles []struct {
				Title string `json:"title"`
			} `json:"titles"`
			Creators []struct {
				Name string `json:"name"`
			} `json:"creators"`
			PublicationYear int    `json:"publicationYear"`
			Publisher       string `json:"publisher"`
			DOI             string `json:"doi"`
			Types           struct {
				ResourceTypeGeneral string `json:"resourceTypeGeneral"`
			} `json:"types"`
		} `json:"attributes"`
	} `json:"data"`
}

func (a *DataCite) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.DOI == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("https://api.datacite.org/dois/%s", url.PathEscape(q.DOI))
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		func(body []byte) (model.SourceRecord, error) {
			var resp dataCiteResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, err
			}
			attrs := resp.Data.Attributes

			creators := make([]string, 0, len(attrs.Creators))
			for _, c := range attrs.Creators {
				if c.Name != "" {
					creators = append(creators, c.Name)
				}
			}

			record := model.SourceRecord{
				"doi":       attrs.DOI,
				"publisher": attrs.Publisher,
			}
			if len(attrs.Titles) > 0 {
				record["titles"] = attrs.Titles[0].Title
			}
			if len(creators) > 0 {
				record["creators"] = strings.Join(creators, " and ")
			}
			if attrs.PublicationYear > 0 {
				record["publicationYear"] = strconv.Itoa(attrs.PublicationYear)
			}
			if attrs.Types.ResourceTypeGeneral != "" {
				record["types.resourceTypeGeneral"] = attrs.Types.ResourceTypeGeneral
			}
			return record, nil
		},
	)
}
