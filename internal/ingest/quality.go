package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/crm-funnel-cli/internal/config"
	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// duplicateOwnerPattern matches "<name> (<integer>)", the suffix Notion
// appends to duplicated pages.
var duplicateOwnerPattern = regexp.MustCompile(`^(.+)\s+\(\d+\)$`)

// QualityFilter decides whether an entire source's lead batch is committed
// to the corpus. Both predicates are heuristics driven by configuration,
// not guarantees.
type QualityFilter struct {
	cfg config.QualityConfig
}

// NewQualityFilter creates a filter with the given thresholds and lists.
func NewQualityFilter(cfg config.QualityConfig) *QualityFilter {
	return &QualityFilter{cfg: cfg}
}

// IsDuplicateOwner reports whether the owner label names a known or
// suspected upstream duplicate page: an exact (accent-insensitive) match of
// the exclusion list, or a trailing parenthesized numeral.
//
// The pattern will also flag legitimately numbered names such as
// "Batch (2)"; upstream does not disambiguate, and duplicate pages were the
// observed failure mode, so the pattern stays on.
func (f *QualityFilter) IsDuplicateOwner(ownerLabel string) bool {
	folded := foldAccents(ownerLabel)
	for _, excluded := range f.cfg.ExcludedOwners {
		if folded == foldAccents(excluded) {
			zap.L().Info("quality: owner on exclusion list", zap.String("owner", ownerLabel))
			return true
		}
	}

	if duplicateOwnerPattern.MatchString(ownerLabel) {
		zap.L().Warn("quality: owner label matches duplicate-page pattern",
			zap.String("owner", ownerLabel),
		)
		return true
	}

	return false
}

// IsLowQuality reports whether a source's provisional lead batch should be
// discarded. The conditions are independent and OR-ed: an empty batch; a
// contact-completeness fraction below the configured floor; a known
// problematic owner; or a small batch below the stricter secondary floor.
// Small noisy sources disproportionately pollute aggregate metrics, so the
// bar rises as sample size falls.
func (f *QualityFilter) IsLowQuality(leads []model.Lead, ownerLabel string) bool {
	log := zap.L().With(zap.String("owner", ownerLabel))

	if len(leads) == 0 {
		log.Info("quality: rejected, empty batch")
		return true
	}

	total := len(leads)
	withName, withPhone, withContact := 0, 0, 0
	for _, lead := range leads {
		hasName := strings.TrimSpace(lead.Name) != ""
		hasPhone := strings.TrimSpace(lead.Phone) != ""
		if hasName {
			withName++
		}
		if hasPhone {
			withPhone++
		}
		if hasName || hasPhone {
			withContact++
		}
	}
	contactPct := float64(withContact) / float64(total) * 100

	log.Debug("quality: batch analysis",
		zap.Int("total", total),
		zap.Int("with_name", withName),
		zap.Int("with_phone", withPhone),
		zap.Int("with_contact", withContact),
		zap.Float64("contact_pct", contactPct),
	)

	if contactPct < f.cfg.MinContactPct {
		log.Info("quality: rejected, contact completeness below floor",
			zap.Float64("contact_pct", contactPct),
			zap.Float64("floor", f.cfg.MinContactPct),
		)
		return true
	}

	folded := foldAccents(ownerLabel)
	for _, problematic := range f.cfg.ProblematicOwners {
		if strings.Contains(folded, foldAccents(problematic)) {
			log.Info("quality: rejected, known problematic owner")
			return true
		}
	}

	if total < f.cfg.SmallBatchSize && contactPct < f.cfg.SmallBatchContactPct {
		log.Info("quality: rejected, small batch below secondary floor",
			zap.Int("total", total),
			zap.Float64("contact_pct", contactPct),
			zap.Float64("floor", f.cfg.SmallBatchContactPct),
		)
		return true
	}

	log.Debug("quality: accepted")
	return false
}

// foldAccents strips combining marks so "LUÍSA" and "LUISA" compare equal.
// Owner labels arrive with inconsistent accenting across duplicate pages.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
