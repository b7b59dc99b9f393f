package domain

import "strings"

// Domain contains core models and interfaces.

// Article is a raw feed entry. Link is its identity key.
type Article struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	SourceID    string   `json:"source_id,omitempty"`
	Link        string   `json:"link"`
	PubDate     string   `json:"pub_date,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Language    string   `json:"language,omitempty"`
	Creator     []string `json:"creator,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    []string `json:"category,omitempty"`
	Country     []string `json:"country,omitempty"`
}

// PlaceholderText is summarized when an article carries neither description nor content.
const PlaceholderText = "No content available"

// SummaryInput returns the text handed to the summarizer: description, else content, else the placeholder.
func (a Article) SummaryInput() string {
	if d := strings.TrimSpace(a.Description); d != "" {
		return d
	}
	if c := strings.TrimSpace(a.Content); c != "" {
		return c
	}
	return PlaceholderText
}

// EnrichedArticle is an Article plus its summary and an optional translated summary.
type EnrichedArticle struct {
	Article
	Summary            string  `json:"summary"`
	TranslatedSummary  *string `json:"translated_summary"`
	TranslatedLanguage string  `json:"translated_language,omitempty"`
}

// DisplaySummary returns the translated summary when present, the canonical one otherwise.
func (e EnrichedArticle) DisplaySummary() string {
	if e.TranslatedSummary != nil && *e.TranslatedSummary != "" {
		return *e.TranslatedSummary
	}
	return e.Summary
}

// Clone returns a copy that shares no pointers with e.
func (e EnrichedArticle) Clone() EnrichedArticle {
	out := e
	if e.TranslatedSummary != nil {
		t := *e.TranslatedSummary
		out.TranslatedSummary = &t
	}
	out.Creator = cloneStrings(e.Creator)
	out.Keywords = cloneStrings(e.Keywords)
	out.Category = cloneStrings(e.Category)
	out.Country = cloneStrings(e.Country)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// QueryState defines the active feed query.
type QueryState struct {
	Country    string `json:"country" yaml:"country"`
	Language   string `json:"language" yaml:"language"`
	Category   string `json:"category" yaml:"category"`
	SearchText string `json:"search_text,omitempty" yaml:"search_text"`
}

// Normalized lowercases the codes and category and trims the search text.
func (q QueryState) Normalized() QueryState {
	return QueryState{
		Country:    strings.ToLower(strings.TrimSpace(q.Country)),
		Language:   strings.ToLower(strings.TrimSpace(q.Language)),
		Category:   strings.ToLower(strings.TrimSpace(q.Category)),
		SearchText: strings.TrimSpace(q.SearchText),
	}
}

// PaginationState tracks the opaque continuation cursor. An empty cursor means none.
type PaginationState struct {
	NextPageCursor string `json:"next_page_cursor,omitempty"`
	HasMore        bool   `json:"has_more"`
}
