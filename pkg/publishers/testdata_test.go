package publishers

import "github.com/samvad-hq/samvad-news-digest/internal/domain"

func sampleEvent() Event {
	summary := "शहर में बारिश"
	return NewEvent("newsdata", "newsdata.io",
		domain.QueryState{Country: "in", Language: "en", Category: "top"},
		domain.EnrichedArticle{
			Article:            domain.Article{Title: "Rain in the city", Link: "https://ex.com/rain"},
			Summary:            "Rain lashed the city.",
			TranslatedSummary:  &summary,
			TranslatedLanguage: "hi",
		})
}
