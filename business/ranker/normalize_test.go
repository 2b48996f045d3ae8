package ranker

import (
	"testing"

	"tripmatch/domain"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePreferencesSortsAndDedupes(t *testing.T) {
	raw := domain.RawPreferences{
		CountryIDs: []uint{9, 3, 9, 1},
		Continents: []string{"Europe", " asia ", "europe"},
		ThemeIDs:   []uint{7, 7, 2},
	}

	prefs, err := NormalizePreferences(raw)
	assert.NoError(t, err)
	assert.Equal(t, []uint{1, 3, 9}, prefs.CountryIDs)
	assert.Equal(t, []string{"asia", "europe"}, prefs.Continents)
	assert.Equal(t, []uint{2, 7}, prefs.ThemeIDs)
}

func TestNormalizePreferencesRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  domain.RawPreferences
	}{
		{"min above max", domain.RawPreferences{MinDurationDays: intPtr(14), MaxDurationDays: intPtr(7)}},
		{"negative min duration", domain.RawPreferences{MinDurationDays: intPtr(-1)}},
		{"negative budget", domain.RawPreferences{BudgetCeiling: floatPtr(-100)}},
		{"month zero", domain.RawPreferences{TargetMonth: intPtr(0)}},
		{"month thirteen", domain.RawPreferences{TargetMonth: intPtr(13)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizePreferences(tc.raw)
			assert.ErrorIs(t, err, ErrInvalidPreferences)
		})
	}
}

func TestFingerprintStableAcrossInputOrder(t *testing.T) {
	a, err := NormalizePreferences(domain.RawPreferences{
		CountryIDs: []uint{3, 1, 2},
		Continents: []string{"Asia", "europe"},
		ThemeIDs:   []uint{5, 5, 1},
	})
	assert.NoError(t, err)

	b, err := NormalizePreferences(domain.RawPreferences{
		CountryIDs: []uint{2, 3, 1, 1},
		Continents: []string{"EUROPE", "asia"},
		ThemeIDs:   []uint{1, 5},
	})
	assert.NoError(t, err)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintSeparatesDifferentPreferences(t *testing.T) {
	a, _ := NormalizePreferences(domain.RawPreferences{ThemeIDs: []uint{1}})
	b, _ := NormalizePreferences(domain.RawPreferences{ThemeIDs: []uint{2}})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	// nil and zero-valued optionals must not collide with set ones
	c, _ := NormalizePreferences(domain.RawPreferences{BudgetCeiling: floatPtr(0)})
	d, _ := NormalizePreferences(domain.RawPreferences{})
	assert.NotEqual(t, Fingerprint(c), Fingerprint(d))
}

func TestRawFingerprintDeterministic(t *testing.T) {
	raw := domain.RawPreferences{
		CountryIDs:    []uint{3, 1},
		BudgetCeiling: floatPtr(2500),
		TargetYear:    intPtr(2026),
	}
	assert.Equal(t, RawFingerprint(raw), RawFingerprint(raw))

	other := raw
	other.TargetYear = intPtr(2027)
	assert.NotEqual(t, RawFingerprint(raw), RawFingerprint(other))
}
