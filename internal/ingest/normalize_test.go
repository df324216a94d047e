package ingest

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titleProp(s string) *notionapi.TitleProperty {
	return &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: s}}}
}

func TestMatchSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		propName string
		want     leadSlot
		matched  bool
	}{
		{"Data", slotDate, true},
		{"Created Date", slotDate, true},
		{"Nome", slotName, true},
		{"Cliente", slotName, true},
		{"Telefone Cliente", slotPhone, true},
		{"fone", slotPhone, true},
		{"Curso de Interesse", slotCourse, true},
		{"Produto", slotCourse, true},
		{"Status do Lead", slotStatus, true},
		{"Etapa", slotStatus, true},
		{"Stage", slotStatus, true},
		{"Observações", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.propName, func(t *testing.T) {
			slot, ok := matchSlot(tt.propName)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.want, slot)
			}
		})
	}
}

func TestNormalizeSlotMapping(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	page := notionapi.Page{
		ID:             "page-1",
		CreatedTime:    created,
		LastEditedTime: created,
		Properties: notionapi.Properties{
			"Nome":             titleProp("Maria Silva"),
			"Telefone Cliente": &notionapi.PhoneNumberProperty{PhoneNumber: "+55 11 99999-0000"},
			"Curso":            &notionapi.SelectProperty{Select: notionapi.Option{Name: "Direito"}},
			"Status do Lead":   &notionapi.SelectProperty{Select: notionapi.Option{Name: "VENDA"}},
			"Data":             &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "2024-05-01"}}},
		},
	}

	lead, ok := Normalize(page, "CRM JOÃO", "Tabela João")
	require.True(t, ok)

	assert.Equal(t, "CRM JOÃO", lead.Owner)
	assert.Equal(t, "Tabela João", lead.SourceName)
	assert.Equal(t, "page-1", lead.LeadID)
	assert.Equal(t, created, lead.CreatedAt)
	assert.Equal(t, "Maria Silva", lead.Name)
	assert.Equal(t, "+55 11 99999-0000", lead.Phone)
	assert.Equal(t, "Direito", lead.Course)
	assert.Equal(t, "VENDA", lead.Status)
	assert.Equal(t, "2024-05-01", lead.Date)
}

func TestNormalizePreservesAllProperties(t *testing.T) {
	t.Parallel()

	page := notionapi.Page{
		ID: "page-2",
		Properties: notionapi.Properties{
			"Nome":        titleProp("João"),
			"Observações": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "ligou duas vezes"}}},
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	require.True(t, ok)

	require.Len(t, lead.Properties, 2)
	// Sorted property order: "Nome" before "Observações".
	assert.Equal(t, "prop_nome", lead.Properties[0].Name)
	assert.Equal(t, "João", lead.Properties[0].Value)
	assert.Equal(t, "prop_observações", lead.Properties[1].Name)
	assert.Equal(t, "ligou duas vezes", lead.Properties[1].Value)
}

func TestNormalizeAdmissionRequiresContact(t *testing.T) {
	t.Parallel()

	page := notionapi.Page{
		ID: "page-3",
		Properties: notionapi.Properties{
			"Nome":     titleProp("   "),
			"Telefone": &notionapi.PhoneNumberProperty{PhoneNumber: ""},
			"Status":   &notionapi.SelectProperty{Select: notionapi.Option{Name: "CONVERSANDO"}},
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	assert.False(t, ok)
	// The lead is still materialized so the quality filter can measure
	// batch completeness.
	require.NotNil(t, lead)
	assert.Equal(t, "CONVERSANDO", lead.Status)
}

func TestNormalizePhoneOnlyAdmitted(t *testing.T) {
	t.Parallel()

	page := notionapi.Page{
		ID: "page-4",
		Properties: notionapi.Properties{
			"Telefone": &notionapi.PhoneNumberProperty{PhoneNumber: "11 98888-7777"},
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	require.True(t, ok)
	assert.Empty(t, lead.Name)
	assert.Equal(t, "11 98888-7777", lead.Phone)
}

func TestNormalizeStatusTypeFallback(t *testing.T) {
	t.Parallel()

	// No column name matches a status keyword, but one property carries the
	// upstream status type.
	page := notionapi.Page{
		ID: "page-5",
		Properties: notionapi.Properties{
			"Nome":      titleProp("Pedro"),
			"Andamento": &notionapi.StatusProperty{Status: notionapi.Status{Name: "ABORDAGEM 2"}},
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	require.True(t, ok)
	assert.Equal(t, "ABORDAGEM 2", lead.Status)
}

func TestNormalizeNamedStatusWinsOverFallback(t *testing.T) {
	t.Parallel()

	page := notionapi.Page{
		ID: "page-6",
		Properties: notionapi.Properties{
			"Nome":      titleProp("Rita"),
			"Status":    &notionapi.SelectProperty{Select: notionapi.Option{Name: "VENDA"}},
			"Andamento": &notionapi.StatusProperty{Status: notionapi.Status{Name: "CONVERSANDO"}},
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	require.True(t, ok)
	assert.Equal(t, "VENDA", lead.Status)
}

func TestNormalizeMissingStatusStaysEmpty(t *testing.T) {
	t.Parallel()

	page := notionapi.Page{
		ID: "page-7",
		Properties: notionapi.Properties{
			"Nome": titleProp("Carla"),
		},
	}

	lead, ok := Normalize(page, "owner", "source")
	require.True(t, ok)
	assert.Empty(t, lead.Status)
}
