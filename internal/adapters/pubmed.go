package adapters

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/bet-lab/reference-validator/internal/model"
)

// PubMed queries the NCBI E-utilities efetch endpoint by PMID. Its
// response is the one other XML shape in the adapter set besides arXiv's
// Atom feed, with its own nesting rather than a namespace split.
type PubMed struct {
	Client *Client
}

func (a *PubMed) Name() model.SourceName { return model.SourcePubMed }

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			AuthorList   struct {
				Authors []pubmedAuthor `xml:"Author"`
			} `xml:"AuthorList"`
			Journal struct {
				Title       string `xml:"Title"`
				JournalIssue struct {
					PubDate struct {
						Year string `xml:"Year"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

func (a *PubMed) Execute(ctx context.Context, q Query) (model.SourceRecord, error) {
	if q.PMID == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf(
		"https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=pubmed&retmode=xml&id=%s",
		url.QueryEscape(q.PMID))
	return Fetch(ctx, a.Name(),
		func() ([]byte, error) { return a.Client.get(ctx, endpoint) },
		func(body []byte) (model.SourceRecord, error) {
			var set pubmedArticleSet
			if err := xml.Unmarshal(body, &set); err != nil {
				return nil, err
			}
			if len(set.Articles) == 0 {
				return nil, nil
			}
			article := set.Articles[0].MedlineCitation.Article

			authors := make([]string, 0, len(article.AuthorList.Authors))
			for _, au := range article.AuthorList.Authors {
				switch {
				case au.LastName != "" && au.ForeName != "":
					authors = append(authors, fmt.Sprintf("%s, %s", au.LastName, au.ForeName))
				case au.LastName != "":
					authors = append(authors, au.LastName)
				}
			}

			record := model.SourceRecord{
				"ArticleTitle": article.ArticleTitle,
				"Journal.Title": article.Journal.Title,
			}
			if len(authors) > 0 {
				record["Author"] = strings.Join(authors, " and ")
			}
			if year := article.Journal.JournalIssue.PubDate.Year; year != "" {
				record["PubDate.Year"] = year
			}
			return record, nil
		},
	)
}
