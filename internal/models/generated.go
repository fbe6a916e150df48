package models

import (
	"errors"

	"github.com/google/uuid"
)

// OutputSize keys the generated map: VERY_SHORT is a one-line title, SHORT a
// one-paragraph summary, MEDIUM a one-shot article, LONG a multi-shot article.
type OutputSize string

const (
	SizeVeryShort OutputSize = "VERY_SHORT"
	SizeShort     OutputSize = "SHORT"
	SizeMedium    OutputSize = "MEDIUM"
	SizeLong      OutputSize = "LONG"
)

// GeneratedText holds both renderings of one artifact.
type GeneratedText struct {
	Markdown string `bson:"markdown_string" json:"markdown_string"`
	Plain    string `bson:"string" json:"string"`
}

// CategoryName is the closed categorization set.
type CategoryName string

const (
	CategoryTechnology   CategoryName = "TECHNOLOGY"
	CategoryScience      CategoryName = "SCIENCE"
	CategoryBusiness     CategoryName = "BUSINESS"
	CategoryHealth       CategoryName = "HEALTH"
	CategoryComedy       CategoryName = "COMEDY"
	CategorySports       CategoryName = "SPORTS"
	CategoryNews         CategoryName = "NEWS"
	CategoryEducation    CategoryName = "EDUCATION"
	CategoryEnvironment  CategoryName = "ENVIRONMENT"
	CategoryCulture      CategoryName = "CULTURE"
	CategorySpirituality CategoryName = "SPIRITUALITY"
	CategoryMovies       CategoryName = "MOVIES"
	CategoryPerspectives CategoryName = "PERSPECTIVES"
	CategoryGaming       CategoryName = "GAMING"
	CategoryMusic        CategoryName = "MUSIC"
)

var allCategories = map[CategoryName]bool{
	CategoryTechnology: true, CategoryScience: true, CategoryBusiness: true,
	CategoryHealth: true, CategoryComedy: true, CategorySports: true,
	CategoryNews: true, CategoryEducation: true, CategoryEnvironment: true,
	CategoryCulture: true, CategorySpirituality: true, CategoryMovies: true,
	CategoryPerspectives: true, CategoryGaming: true, CategoryMusic: true,
}

func (c CategoryName) IsValid() bool {
	return allCategories[c]
}

// CategoryNames lists the closed set in a stable order, for prompts.
func CategoryNames() []CategoryName {
	return []CategoryName{
		CategoryTechnology, CategoryScience, CategoryBusiness, CategoryHealth,
		CategoryComedy, CategorySports, CategoryNews, CategoryEducation,
		CategoryEnvironment, CategoryCulture, CategorySpirituality,
		CategoryMovies, CategoryPerspectives, CategoryGaming, CategoryMusic,
	}
}

// Category is the categorizer's verdict; shelf life and geography are carried
// through without interpretation.
type Category struct {
	Name        CategoryName `bson:"category" json:"category"`
	Description string       `bson:"category_description" json:"category_description"`
	Tags        []string     `bson:"category_tags" json:"category_tags"`
	ShelfLife   string       `bson:"shelf_life,omitempty" json:"shelf_life,omitempty"`
	Geography   string       `bson:"geography,omitempty" json:"geography,omitempty"`
}

var errArticleMissing = errors.New("cannot mark ARTICLE_GENERATED without a MEDIUM or LONG artifact")

// GeneratedContent is one record of "we have produced written artifacts from
// this video", joined back to its CollectedContent by external_id.
type GeneratedContent struct {
	ID                 string                       `bson:"_id" json:"id"`
	ExternalID         string                       `bson:"external_id" json:"external_id"`
	ContentType        ContentType                  `bson:"content_type" json:"content_type"`
	Generated          map[OutputSize]GeneratedText `bson:"generated" json:"generated"`
	Status             GeneratedStatus              `bson:"status" json:"status"`
	StatusDetails      []StatusDetail               `bson:"status_details" json:"status_details"`
	Category           *Category                    `bson:"category,omitempty" json:"category,omitempty"`
	ContentGeneratedAt float64                      `bson:"content_generated_at" json:"content_generated_at"`
	ReadingTimeSeconds int                          `bson:"reading_time_seconds" json:"reading_time_seconds"`
	CreatedAt          float64                      `bson:"created_at" json:"created_at"`
	UpdatedAt          float64                      `bson:"updated_at" json:"updated_at"`
}

// NewGeneratedContent builds the record the required-content stage persists.
// contentGeneratedAt is the source video's release timestamp, not now.
func NewGeneratedContent(externalID string, title, summary GeneratedText, contentGeneratedAt float64) GeneratedContent {
	now := EpochNow()
	return GeneratedContent{
		ID:          uuid.NewString(),
		ExternalID:  externalID,
		ContentType: ContentTypeYouTubeVideo,
		Generated: map[OutputSize]GeneratedText{
			SizeVeryShort: title,
			SizeShort:     summary,
		},
		Status: GenStatusRequiredContentGenerated,
		StatusDetails: []StatusDetail{
			{Status: string(GenStatusRequiredContentGenerated), CreatedAt: now, Reason: "title and summary generated"},
		},
		ContentGeneratedAt: contentGeneratedAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Transition returns a copy advanced to the given status. ARTICLE_GENERATED
// additionally requires a MEDIUM or LONG artifact to be present.
func (g GeneratedContent) Transition(to GeneratedStatus, reason string) (GeneratedContent, error) {
	if !generatedTransitionAllowed(g.Status, to) {
		return g, ErrInvalidTransition
	}
	if to == GenStatusArticleGenerated {
		_, medium := g.Generated[SizeMedium]
		_, long := g.Generated[SizeLong]
		if !medium && !long {
			return g, errArticleMissing
		}
	}
	now := EpochNow()
	next := g
	next.Status = to
	next.StatusDetails = append(append([]StatusDetail{}, g.StatusDetails...), StatusDetail{
		Status: string(to), CreatedAt: now, Reason: reason,
	})
	next.UpdatedAt = now
	return next, nil
}

// WithArtifact returns a copy carrying one more generated rendering.
func (g GeneratedContent) WithArtifact(size OutputSize, text GeneratedText) GeneratedContent {
	next := g
	next.Generated = make(map[OutputSize]GeneratedText, len(g.Generated)+1)
	for k, v := range g.Generated {
		next.Generated[k] = v
	}
	next.Generated[size] = text
	next.UpdatedAt = EpochNow()
	return next
}
