package server

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const maxBatchURLs = 100

// ProcessRequest is the body of POST /api/process. Exactly one of url, html
// and text must be set; the pipeline enforces that, the fields here only
// bound the tuning knobs.
type ProcessRequest struct {
	URL           string `json:"url,omitempty"`
	HTML          string `json:"html,omitempty"`
	Text          string `json:"text,omitempty"`
	Title         string `json:"title,omitempty"`
	MaxEntities   int    `json:"max_entities,omitempty"`
	MinImportance int    `json:"min_importance,omitempty"`
}

func (r ProcessRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, is.URL),
		validation.Field(&r.MaxEntities, validation.Min(0), validation.Max(100)),
		validation.Field(&r.MinImportance, validation.Min(0), validation.Max(10)),
	)
}

// BatchRequest is the body of POST /api/batch.
type BatchRequest struct {
	URLs          []string `json:"urls"`
	Concurrency   int      `json:"concurrency,omitempty"`
	MaxEntities   int      `json:"max_entities,omitempty"`
	MinImportance int      `json:"min_importance,omitempty"`
}

func (r BatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URLs,
			validation.Required,
			validation.Length(1, maxBatchURLs),
			validation.Each(validation.Required, is.URL)),
		validation.Field(&r.Concurrency, validation.Min(0), validation.Max(20)),
		validation.Field(&r.MaxEntities, validation.Min(0), validation.Max(100)),
		validation.Field(&r.MinImportance, validation.Min(0), validation.Max(10)),
	)
}
