package seed

import (
	"fmt"

	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInGroups are created on every environment that enables seeding.
var BuiltInGroups = []models.Group{
	{Slug: "cats", Title: "Cats", Description: "Photos and stories about cats."},
	{Slug: "books", Title: "Books", Description: "What are you reading?"},
	{Slug: "travel", Title: "Travel", Description: "Notes from the road."},
	{Slug: "cooking", Title: "Cooking", Description: "Recipes and kitchen disasters."},
	{Slug: "music", Title: "Music", Description: "Albums, gigs and instruments."},
}

// Groups inserts the built-in groups that are missing and returns all of them.
func Groups(db *gorm.DB) ([]models.Group, error) {
	for _, g := range BuiltInGroups {
		group := g
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&group).Error
		if err != nil {
			return nil, fmt.Errorf("seeding group %q: %w", g.Slug, err)
		}
	}

	slugs := make([]string, 0, len(BuiltInGroups))
	for _, g := range BuiltInGroups {
		slugs = append(slugs, g.Slug)
	}
	var groups []models.Group
	if err := db.Where("slug IN ?", slugs).Order("title").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
