package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRecord() Record {
	return Record{
		Title:    "Blade Runner",
		Category: CategoryMovie,
		FilePath: "/uploads/movie/1-000000001-blade_runner.mp4",
		Genres:   []string{},
	}
}

func TestValidate_OK(t *testing.T) {
	rec := validRecord()
	rec.Year = "1982"
	rec.Rating = "8.1"
	rec.Genres = []string{"Sci-Fi", "Noir"}
	assert.NoError(t, rec.Validate())
}

func TestValidate_TitleRequired(t *testing.T) {
	rec := validRecord()
	rec.Title = "   "
	assert.Error(t, rec.Validate())
}

func TestValidate_Category(t *testing.T) {
	for _, cat := range Categories {
		rec := validRecord()
		rec.Category = cat
		assert.NoError(t, rec.Validate(), "category %s", cat)
	}

	rec := validRecord()
	rec.Category = "podcast"
	assert.Error(t, rec.Validate())
}

func TestValidate_FilePathRequiredExceptSeries(t *testing.T) {
	rec := validRecord()
	rec.FilePath = ""
	assert.Error(t, rec.Validate())

	rec.Category = CategoryTVSeries
	assert.NoError(t, rec.Validate())
}

func TestValidate_Year(t *testing.T) {
	cases := map[string]bool{
		"":     true,
		"2024": true,
		"202":  false,
		"abc":  false,
		"20245": false,
	}
	for year, ok := range cases {
		rec := validRecord()
		rec.Year = year
		err := rec.Validate()
		if ok {
			assert.NoError(t, err, "year %q", year)
		} else {
			assert.Error(t, err, "year %q", year)
		}
	}
}

func TestValidate_Rating(t *testing.T) {
	cases := map[string]bool{
		"":    true,
		"0":   true,
		"10":  true,
		"7.5": true,
		"-1":  false,
		"11":  false,
		"abc": false,
	}
	for rating, ok := range cases {
		rec := validRecord()
		rec.Rating = rating
		err := rec.Validate()
		if ok {
			assert.NoError(t, err, "rating %q", rating)
		} else {
			assert.Error(t, err, "rating %q", rating)
		}
	}
}

func TestValidate_DescriptionCap(t *testing.T) {
	rec := validRecord()
	rec.Description = string(make([]byte, 1001))
	assert.Error(t, rec.Validate())

	rec.Description = string(make([]byte, 1000))
	assert.NoError(t, rec.Validate())
}

func TestValidate_GenreLength(t *testing.T) {
	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	rec := validRecord()
	rec.Genres = []string{string(long)}
	assert.Error(t, rec.Validate())
}

func TestSplitGenres(t *testing.T) {
	assert.Equal(t, []string{"Action", "Drama"}, SplitGenres(" Action , Drama ,, "))
	assert.Equal(t, []string{}, SplitGenres(""))
	assert.NotNil(t, SplitGenres(""))
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 1, NextID(nil))
	assert.Equal(t, 1, NextID([]Record{}))
	assert.Equal(t, 8, NextID([]Record{{ID: 3}, {ID: 7}, {ID: 1}}))
}
