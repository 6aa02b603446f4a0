package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.NotEqual(t, "Sup3rSecret!", hash)

	assert.True(t, CheckPassword("Sup3rSecret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "Ab1!", ErrPasswordLength},
		{"only lowercase", "abcdefgh", ErrPasswordComplexity},
		{"two classes", "abcdefg1", ErrPasswordComplexity},
		{"upper lower digit", "Abcdefg1", nil},
		{"lower digit special", "abcdef1!", nil},
		{"all four classes", "Abcdef1!", nil},
		{"length counts runes not bytes", "Päss1!", ErrPasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
