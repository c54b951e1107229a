package i18n

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// maxAcceptLanguageLength bounds parsing of hostile oversized headers.
const maxAcceptLanguageLength = 4096

type languageTag struct {
	tag     string
	quality float64
}

// ParseAcceptLanguage picks the best available language for an
// Accept-Language header, honoring quality values. Exact tag matches
// beat base-language matches at the same quality. With no match at all
// the first available language wins.
//
// Header "en-US,en;q=0.9,pl;q=0.8" against ["pl", "en", "de"]
// resolves to "en".
func ParseAcceptLanguage(header string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if header == "" {
		return available[0]
	}

	for _, tag := range parseLanguageTags(header) {
		// Exact match first within this quality tier.
		for _, avail := range available {
			if normalizeTag(avail) == tag.tag {
				return avail
			}
		}
		for _, avail := range available {
			if baseLanguage(normalizeTag(avail)) == baseLanguage(tag.tag) {
				return avail
			}
		}
	}

	return available[0]
}

// parseLanguageTags splits the header into tags sorted by descending
// quality. Wildcards and malformed q-values are dropped.
func parseLanguageTags(header string) []languageTag {
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}

	var tags []languageTag
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		quality := 1.0
		langPart, qPart, hasQuality := strings.Cut(part, ";")
		langPart = strings.TrimSpace(langPart)

		if hasQuality {
			qPart = strings.TrimSpace(qPart)
			if strings.HasPrefix(qPart, "q=") {
				if q, err := strconv.ParseFloat(qPart[2:], 64); err == nil && q >= 0 && q <= 1 {
					quality = q
				}
			}
		}

		if langPart != "" && langPart != "*" {
			tags = append(tags, languageTag{tag: normalizeTag(langPart), quality: quality})
		}
	}

	slices.SortStableFunc(tags, func(a, b languageTag) int {
		return cmp.Compare(b.quality, a.quality)
	})
	return tags
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
