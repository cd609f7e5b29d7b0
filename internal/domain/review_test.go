package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingFromStars(t *testing.T) {
	tests := []struct {
		stars   int
		want    Rating
		wantErr bool
	}{
		{1, RatingOneStar, false},
		{3, RatingThreeStar, false},
		{5, RatingFiveStar, false},
		{0, 0, true},
		{6, 0, true},
		{-1, 0, true},
	}

	for _, tt := range tests {
		r, err := RatingFromStars(tt.stars)
		if tt.wantErr {
			assert.Error(t, err, "stars=%d", tt.stars)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, r)
		assert.Equal(t, tt.stars, r.Stars())
		assert.True(t, r.Valid())
	}
}

func TestRating_ZeroValueInvalid(t *testing.T) {
	var r Rating
	assert.False(t, r.Valid())
}
