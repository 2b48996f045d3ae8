package ranker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"tripmatch/domain"
)

// NormalizePreferences validates a raw payload and produces its canonical
// form: ID sets sorted and deduplicated, strings trimmed. Identical raw
// inputs always yield byte-identical normalized output, which the cache keys
// depend on.
func NormalizePreferences(raw domain.RawPreferences) (domain.SearchPreferences, error) {
	if raw.MinDurationDays != nil && raw.MaxDurationDays != nil &&
		*raw.MinDurationDays > *raw.MaxDurationDays {
		return domain.SearchPreferences{}, fmt.Errorf(
			"min_duration %d > max_duration %d: %w",
			*raw.MinDurationDays, *raw.MaxDurationDays, ErrInvalidPreferences)
	}
	if raw.MinDurationDays != nil && *raw.MinDurationDays < 0 {
		return domain.SearchPreferences{}, fmt.Errorf("negative min_duration: %w", ErrInvalidPreferences)
	}
	if raw.BudgetCeiling != nil && *raw.BudgetCeiling < 0 {
		return domain.SearchPreferences{}, fmt.Errorf("negative budget ceiling: %w", ErrInvalidPreferences)
	}
	if raw.TargetMonth != nil && (*raw.TargetMonth < 1 || *raw.TargetMonth > 12) {
		return domain.SearchPreferences{}, fmt.Errorf("target month %d out of range: %w", *raw.TargetMonth, ErrInvalidPreferences)
	}

	prefs := domain.SearchPreferences{
		CountryIDs:      sortedUintSet(raw.CountryIDs),
		Continents:      sortedStringSet(raw.Continents),
		TripTypeID:      raw.TripTypeID,
		ThemeIDs:        sortedUintSet(raw.ThemeIDs),
		BudgetCeiling:   raw.BudgetCeiling,
		MinDurationDays: raw.MinDurationDays,
		MaxDurationDays: raw.MaxDurationDays,
		Difficulty:      raw.Difficulty,
		TargetYear:      raw.TargetYear,
		TargetMonth:     raw.TargetMonth,
	}

	return prefs, nil
}

// RawFingerprint keys the normalization cache. Field order is fixed and
// slices are hashed as given, so identical payloads hash identically.
func RawFingerprint(raw domain.RawPreferences) string {
	var b strings.Builder
	writeUints(&b, "c", raw.CountryIDs)
	writeStrings(&b, "k", raw.Continents)
	writeOptUint(&b, "t", raw.TripTypeID)
	writeUints(&b, "h", raw.ThemeIDs)
	writeOptFloat(&b, "b", raw.BudgetCeiling)
	writeOptInt(&b, "dl", raw.MinDurationDays)
	writeOptInt(&b, "dh", raw.MaxDurationDays)
	writeOptInt(&b, "df", raw.Difficulty)
	writeOptInt(&b, "y", raw.TargetYear)
	writeOptInt(&b, "m", raw.TargetMonth)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Fingerprint keys the trip-score cache: the canonical encoding of the
// normalized preferences.
func Fingerprint(prefs domain.SearchPreferences) string {
	var b strings.Builder
	writeUints(&b, "c", prefs.CountryIDs)
	writeStrings(&b, "k", prefs.Continents)
	writeOptUint(&b, "t", prefs.TripTypeID)
	writeUints(&b, "h", prefs.ThemeIDs)
	writeOptFloat(&b, "b", prefs.BudgetCeiling)
	writeOptInt(&b, "dl", prefs.MinDurationDays)
	writeOptInt(&b, "dh", prefs.MaxDurationDays)
	writeOptInt(&b, "df", prefs.Difficulty)
	writeOptInt(&b, "y", prefs.TargetYear)
	writeOptInt(&b, "m", prefs.TargetMonth)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func sortedUintSet(in []uint) []uint {
	if len(in) == 0 {
		return nil
	}
	out := make([]uint, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	dedup := out[:1]
	for _, v := range out[1:] {
		if v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

func sortedStringSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(strings.ToLower(s)); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)

	dedup := out[:1]
	for _, v := range out[1:] {
		if v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

func writeUints(b *strings.Builder, tag string, vals []uint) {
	b.WriteString(tag)
	b.WriteByte(':')
	for _, v := range vals {
		fmt.Fprintf(b, "%d,", v)
	}
	b.WriteByte(';')
}

func writeStrings(b *strings.Builder, tag string, vals []string) {
	b.WriteString(tag)
	b.WriteByte(':')
	for _, v := range vals {
		b.WriteString(v)
		b.WriteByte(',')
	}
	b.WriteByte(';')
}

func writeOptUint(b *strings.Builder, tag string, v *uint) {
	if v == nil {
		fmt.Fprintf(b, "%s:nil;", tag)
		return
	}
	fmt.Fprintf(b, "%s:%d;", tag, *v)
}

func writeOptInt(b *strings.Builder, tag string, v *int) {
	if v == nil {
		fmt.Fprintf(b, "%s:nil;", tag)
		return
	}
	fmt.Fprintf(b, "%s:%d;", tag, *v)
}

func writeOptFloat(b *strings.Builder, tag string, v *float64) {
	if v == nil {
		fmt.Fprintf(b, "%s:nil;", tag)
		return
	}
	fmt.Fprintf(b, "%s:%g;", tag, *v)
}
