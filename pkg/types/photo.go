package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("photo not found")

// Photo is one gallery record. Every facet is a single column; lighting is
// only multi valued on the filter side.
type Photo struct {
	Id               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string    `json:"title"`
	Url              string    `json:"url"`
	ThumbUrl         string    `json:"thumbUrl,omitempty"`
	Photographer     string    `json:"photographer,omitempty"`
	TakenAt          time.Time `json:"takenAt" gorm:"index"`
	Sport            string    `json:"sport,omitempty" gorm:"index"`
	Category         string    `json:"category,omitempty" gorm:"index"`
	PlayType         string    `json:"playType,omitempty" gorm:"index"`
	Intensity        string    `json:"intensity,omitempty" gorm:"index"`
	Lighting         string    `json:"lighting,omitempty" gorm:"index"`
	ColorTemperature string    `json:"colorTemperature,omitempty" gorm:"index"`
	TimeOfDay        string    `json:"timeOfDay,omitempty" gorm:"index"`
	Composition      string    `json:"composition,omitempty" gorm:"index"`
	Hidden           bool      `json:"hidden,omitempty" gorm:"index"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (Photo) TableName() string {
	return "photos"
}

// FacetValue returns the photo's value for a facet.
func (p *Photo) FacetValue(key FacetKey) string {
	switch key {
	case FacetSport:
		return p.Sport
	case FacetCategory:
		return p.Category
	case FacetPlayType:
		return p.PlayType
	case FacetIntensity:
		return p.Intensity
	case FacetLighting:
		return p.Lighting
	case FacetColorTemperature:
		return p.ColorTemperature
	case FacetTimeOfDay:
		return p.TimeOfDay
	case FacetComposition:
		return p.Composition
	}
	return ""
}

// Normalize lower cases facet values and assigns an id when missing.
func (p *Photo) Normalize() {
	if p.Id == uuid.Nil {
		p.Id = uuid.New()
	}
	p.Sport = NormalizeValue(p.Sport)
	p.Category = NormalizeValue(p.Category)
	p.PlayType = NormalizeValue(p.PlayType)
	p.Intensity = NormalizeValue(p.Intensity)
	p.Lighting = NormalizeValue(p.Lighting)
	p.ColorTemperature = NormalizeValue(p.ColorTemperature)
	p.TimeOfDay = NormalizeValue(p.TimeOfDay)
	p.Composition = NormalizeValue(p.Composition)
}
