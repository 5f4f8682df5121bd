package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageValid(t *testing.T) {
	assert.True(t, LanguageRussian.Valid())
	assert.True(t, LanguageUzbek.Valid())
	assert.False(t, Language("en").Valid())
	assert.False(t, Language("").Valid())
}

func TestLanguageToggled(t *testing.T) {
	assert.Equal(t, LanguageUzbek, LanguageRussian.Toggled())
	assert.Equal(t, LanguageRussian, LanguageUzbek.Toggled())
}

func TestHasCity(t *testing.T) {
	pref := &UserPreference{}
	assert.False(t, pref.HasCity())

	pref.City = "Ташкент"
	assert.True(t, pref.HasCity())
}

func TestPreferenceUpdateEmpty(t *testing.T) {
	assert.True(t, PreferenceUpdate{}.Empty())

	city := ""
	assert.False(t, PreferenceUpdate{City: &city}.Empty())
}
