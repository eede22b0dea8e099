// Package model contains the general data models and interfaces for the
// content moderation adapter.
package model // import "github.com/joincivil/content-moderation-adapter/pkg/model"

// Guideline is a community guideline registered on the moderation contract.
// Guidelines are immutable once created.
type Guideline struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	CreatorAddress string `json:"creator_address"`
}

// NewGuideline is a convenience function to init a Guideline
func NewGuideline(id string, text string, creatorAddress string) *Guideline {
	return &Guideline{
		ID:             id,
		Text:           text,
		CreatorAddress: creatorAddress,
	}
}

// HasCreator returns true if the creator address could be decoded
func (g *Guideline) HasCreator() bool {
	return g.CreatorAddress != ""
}
