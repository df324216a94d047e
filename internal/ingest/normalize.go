package ingest

import (
	"sort"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// leadSlot identifies a fixed field of the normalized lead record.
type leadSlot int

const (
	slotDate leadSlot = iota
	slotName
	slotPhone
	slotCourse
	slotStatus
)

// slotRule routes a property to a lead slot when its lowercased name
// contains any of the keywords. Rules are evaluated in order and the first
// matching rule wins for a given property; later properties matching the
// same slot overwrite earlier ones.
type slotRule struct {
	slot     leadSlot
	keywords []string
}

// slotRules covers the column-name vocabulary seen across the upstream
// databases, Portuguese and English. Phone is checked before name so
// "Telefone Cliente" routes to the phone slot rather than tripping the
// "cliente" name keyword.
var slotRules = []slotRule{
	{slotDate, []string{"data", "date"}},
	{slotPhone, []string{"telefone", "phone", "tel", "fone"}},
	{slotName, []string{"nome", "name", "cliente"}},
	{slotCourse, []string{"curso", "course", "produto"}},
	{slotStatus, []string{"status", "etapa", "stage"}},
}

func matchSlot(propName string) (leadSlot, bool) {
	lower := strings.ToLower(propName)
	for _, rule := range slotRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.slot, true
			}
		}
	}
	return 0, false
}

// Normalize maps one raw record's property bag into a Lead. The second
// return value is the admission verdict: false when the record has neither
// a name nor a phone. The lead is returned either way, because the source
// quality filter measures contact completeness over the full batch,
// inadmissible records included; only admitted leads may be committed.
//
// Property names are visited in sorted order: the upstream map carries no
// order, and sorting makes the overwrite behavior (last write wins per
// slot) deterministic across runs.
func Normalize(page notionapi.Page, ownerLabel, sourceName string) (*model.Lead, bool) {
	lead := &model.Lead{
		Owner:      ownerLabel,
		SourceName: sourceName,
		LeadID:     string(page.ID),
		CreatedAt:  page.CreatedTime,
		UpdatedAt:  page.LastEditedTime,
	}

	names := sortedPropertyNames(page.Properties)

	for _, propName := range names {
		value := Stringify(Extract(page.Properties[propName]))

		if slot, ok := matchSlot(propName); ok {
			switch slot {
			case slotDate:
				lead.Date = value
			case slotName:
				lead.Name = value
			case slotPhone:
				lead.Phone = value
			case slotCourse:
				lead.Course = value
			case slotStatus:
				lead.Status = value
			}
		}

		// Every original field is preserved verbatim for downstream
		// inspection, matched or not.
		lead.Properties = append(lead.Properties, model.PropertyPair{
			Name:  "prop_" + strings.ToLower(propName),
			Value: value,
		})
	}

	// No column name looked like a status: fall back to the first property
	// whose upstream type is literally "status".
	if lead.Status == "" {
		for _, propName := range names {
			if _, ok := page.Properties[propName].(*notionapi.StatusProperty); ok {
				if value := Stringify(Extract(page.Properties[propName])); value != "" {
					lead.Status = value
					break
				}
			}
		}
	}

	return lead, lead.HasContact()
}

func sortedPropertyNames(props notionapi.Properties) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
