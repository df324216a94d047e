// Package ingest implements the Notion ingestion pipeline: source listing,
// record retrieval, property extraction, lead normalization and source
// quality filtering.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

// unknownPropTypes tracks property types we have already logged, so an
// unrecognized type is reported once per process, not once per record.
var unknownPropTypes sync.Map

// Extract converts one upstream property into its canonical value: a string,
// a float64 or a []string depending on the property type. It is total over
// the known type set, nil-safe on every payload fragment, and returns an
// empty string for absent or unrecognized properties. One malformed field
// must never abort processing of an otherwise valid record.
func Extract(prop notionapi.Property) any {
	if prop == nil {
		return ""
	}

	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return firstPlainText(p.Title)

	case *notionapi.RichTextProperty:
		return firstPlainText(p.RichText)

	case *notionapi.SelectProperty:
		return p.Select.Name

	case *notionapi.StatusProperty:
		return p.Status.Name

	case *notionapi.MultiSelectProperty:
		names := make([]string, 0, len(p.MultiSelect))
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
		return names

	case *notionapi.NumberProperty:
		return p.Number

	case *notionapi.DateProperty:
		if p.Date == nil || p.Date.Start == nil {
			return ""
		}
		return time.Time(*p.Date.Start).Format(time.RFC3339)

	case *notionapi.PeopleProperty:
		names := make([]string, 0, len(p.People))
		for _, person := range p.People {
			names = append(names, person.Name)
		}
		return names

	case *notionapi.PhoneNumberProperty:
		return p.PhoneNumber

	case *notionapi.URLProperty:
		return p.URL

	default:
		propType := string(prop.GetType())
		if _, seen := unknownPropTypes.LoadOrStore(propType, true); !seen {
			zap.L().Debug("extract: unhandled property type", zap.String("type", propType))
		}
		return ""
	}
}

func firstPlainText(runs []notionapi.RichText) string {
	if len(runs) == 0 {
		return ""
	}
	return runs[0].PlainText
}

// Stringify coerces any extracted value to a string. Total by construction:
// nil becomes "", strings pass through, numbers take their minimal decimal
// form, lists are comma-joined. It guards the admission check against
// non-string values reaching strings.TrimSpace.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
