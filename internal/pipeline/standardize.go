package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/premises-cli/internal/model"
	"github.com/sells-group/premises-cli/pkg/places"
)

var (
	titleCaser = cases.Title(language.AmericanEnglish)

	// leadingNumber spots names that are really street addresses.
	leadingNumber = regexp.MustCompile(`^\d+\s`)

	multiSpace = regexp.MustCompile(`\s+`)
)

// standardize produces the canonical business name and address bundle from
// the place candidate, falling back to the user's input per field.
func (e *Engine) standardize(cur *rowState) Step {
	if cur.placeFound && cur.place != nil {
		placesName := strings.TrimSpace(cur.place.Name)
		originalName := strings.TrimSpace(cur.row.Name)

		switch {
		case placesName != "" && leadingNumber.MatchString(placesName):
			// The provider returned an address where a business name
			// should be. Prefer the user's name.
			if originalName != "" {
				cur.stdName = titleCaser.String(originalName)
			} else {
				cur.stdName = placesName
			}
		case placesName != "":
			cur.stdName = placesName
		default:
			cur.stdName = titleCaser.String(originalName)
		}
		cur.stdName = collapseSpaces(cur.stdName)

		parsed := places.ParseAddressComponents(cur.place.Components)
		line1 := parsed.AddressLine1
		if line1 == "" && cur.place.FormattedAddress != "" {
			line1 = strings.TrimSpace(strings.SplitN(cur.place.FormattedAddress, ",", 2)[0])
		}

		cur.stdAddr = model.StandardizedAddress{
			AddressLine1: fallback(line1, cur.row.Address),
			City:         fallback(parsed.City, cur.row.City),
			State:        fallback(parsed.State, cur.row.State),
			StateCode:    fallback(parsed.StateCode, cur.row.State),
			PostalCode:   fallback(parsed.PostalCode, cur.row.PostalCode),
		}
	} else {
		cur.stdName = collapseSpaces(titleCaser.String(cur.row.Name))
		cur.stdAddr = model.StandardizedAddress{
			AddressLine1: cur.row.Address,
			City:         cur.row.City,
			State:        cur.row.State,
			StateCode:    cur.row.State,
			PostalCode:   cur.row.PostalCode,
		}
	}

	return StepDatabaseQuery
}

func collapseSpaces(s string) string {
	return multiSpace.ReplaceAllString(s, " ")
}

func fallback(primary, alt string) string {
	if primary != "" {
		return primary
	}
	return alt
}
