package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pim/backend/internal/contracts"
)

// FamilyMaskRepository builds family masks from the attribute requirements
// ⭐ SSOT: 패밀리 요구사항 SQL은 여기서만
type FamilyMaskRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ contracts.FamilyMaskLoader = (*FamilyMaskRepository)(nil)

// NewFamilyMaskRepository creates a new repository
func NewFamilyMaskRepository(pool *pgxpool.Pool, timeout time.Duration) *FamilyMaskRepository {
	return &FamilyMaskRepository{pool: pool, timeout: timeout}
}

// familyRequirementRow is one required attribute of a family for a channel/locale
type familyRequirementRow struct {
	FamilyCode    string
	ChannelCode   string
	LocaleCode    string
	AttributeCode string
	Scopable      bool
	Localizable   bool
}

// FromFamilyCodes loads the masks of the given families in one query
func (r *FamilyMaskRepository) FromFamilyCodes(ctx context.Context, familyCodes []string) (map[string]*contracts.FamilyMask, error) {
	if len(familyCodes) == 0 {
		return map[string]*contracts.FamilyMask{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	// 로케일 전용 속성은 지정된 로케일에서만 필수
	query := `
		SELECT
			f.code AS family_code,
			c.code AS channel_code,
			l.code AS locale_code,
			a.code AS attribute_code,
			a.is_scopable,
			a.is_localizable
		FROM pim_catalog_family f
		JOIN pim_catalog_attribute_requirement r ON r.family_id = f.id AND r.required = true
		JOIN pim_catalog_attribute a ON a.id = r.attribute_id
		JOIN pim_catalog_channel c ON c.id = r.channel_id
		JOIN pim_catalog_channel_locale cl ON cl.channel_id = c.id
		JOIN pim_catalog_locale l ON l.id = cl.locale_id AND l.is_activated = true
		WHERE f.code = ANY($1)
		  AND (
			NOT EXISTS (
				SELECT 1 FROM pim_catalog_attribute_locale al
				WHERE al.attribute_id = a.id
			)
			OR EXISTS (
				SELECT 1 FROM pim_catalog_attribute_locale al
				WHERE al.attribute_id = a.id AND al.locale_id = l.id
			)
		  )
		ORDER BY f.code, c.code, l.code, a.sort_order, a.code
	`

	rows, err := r.pool.Query(ctx, query, familyCodes)
	if err != nil {
		return nil, contracts.Unavailable("query family requirements", err)
	}
	defer rows.Close()

	var requirements []familyRequirementRow
	for rows.Next() {
		var row familyRequirementRow
		if err := rows.Scan(
			&row.FamilyCode,
			&row.ChannelCode,
			&row.LocaleCode,
			&row.AttributeCode,
			&row.Scopable,
			&row.Localizable,
		); err != nil {
			return nil, contracts.Unavailable("scan family requirement", err)
		}
		requirements = append(requirements, row)
	}

	if err := rows.Err(); err != nil {
		return nil, contracts.Unavailable("iterate family requirements", err)
	}

	return assembleFamilyMasks(requirements)
}

// assembleFamilyMasks groups rows per family and channel/locale, keeping row
// order for both the channel/locale entries and the required codes
func assembleFamilyMasks(rows []familyRequirementRow) (map[string]*contracts.FamilyMask, error) {
	type entry struct {
		channel, locale string
		codes           []contracts.RequirementCode
		seen            map[contracts.RequirementCode]struct{}
	}

	var familyOrder []string
	entries := make(map[string][]*entry)
	index := make(map[string]map[[2]string]*entry)

	for _, row := range rows {
		if _, ok := index[row.FamilyCode]; !ok {
			familyOrder = append(familyOrder, row.FamilyCode)
			index[row.FamilyCode] = make(map[[2]string]*entry)
		}

		key := [2]string{row.ChannelCode, row.LocaleCode}
		e, ok := index[row.FamilyCode][key]
		if !ok {
			e = &entry{channel: row.ChannelCode, locale: row.LocaleCode, seen: map[contracts.RequirementCode]struct{}{}}
			index[row.FamilyCode][key] = e
			entries[row.FamilyCode] = append(entries[row.FamilyCode], e)
		}

		code := requirementCodeFor(row)
		if _, dup := e.seen[code]; dup {
			continue
		}
		e.seen[code] = struct{}{}
		e.codes = append(e.codes, code)
	}

	masks := make(map[string]*contracts.FamilyMask, len(familyOrder))
	for _, familyCode := range familyOrder {
		perChannelAndLocale := make([]contracts.FamilyMaskPerChannelAndLocale, 0, len(entries[familyCode]))
		for _, e := range entries[familyCode] {
			perChannelAndLocale = append(perChannelAndLocale,
				contracts.NewFamilyMaskPerChannelAndLocale(e.channel, e.locale, e.codes))
		}

		mask, err := contracts.NewFamilyMask(familyCode, perChannelAndLocale)
		if err != nil {
			return nil, fmt.Errorf("family %s: %w", familyCode, err)
		}
		masks[familyCode] = mask
	}

	return masks, nil
}

// requirementCodeFor scopes the attribute by its scopable/localizable flags
func requirementCodeFor(row familyRequirementRow) contracts.RequirementCode {
	channel := contracts.AllChannels
	if row.Scopable {
		channel = row.ChannelCode
	}
	locale := contracts.AllLocales
	if row.Localizable {
		locale = row.LocaleCode
	}
	return contracts.NewRequirementCode(row.AttributeCode, channel, locale)
}
