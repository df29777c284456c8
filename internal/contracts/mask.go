package contracts

import (
	"encoding/json"
	"sort"
	"strings"
)

// Wildcard scopes of a requirement code
const (
	AllChannels = "<all_channels>"
	AllLocales  = "<all_locales>"
)

// codeSeparator joins the parts of the compound code form
const codeSeparator = "-"

// RequirementCode is one attribute/channel/locale triple.
// Channel is AllChannels for a non-scopable value, Locale is AllLocales for a
// non-localizable one.
// ⭐ SSOT: "attr-channel-locale" 문자열은 여기서만 파싱/생성
type RequirementCode struct {
	Attribute string
	Channel   string
	Locale    string
}

// NewRequirementCode builds a code; empty channel or locale means the wildcard
func NewRequirementCode(attribute, channel, locale string) RequirementCode {
	if channel == "" {
		channel = AllChannels
	}
	if locale == "" {
		locale = AllLocales
	}
	return RequirementCode{Attribute: attribute, Channel: channel, Locale: locale}
}

// ParseRequirementCode reads the compound form "{attribute}-{channel}-{locale}".
// Channel and locale are taken from the right so attribute codes keep any
// separator they contain.
func ParseRequirementCode(raw string) (RequirementCode, error) {
	localeAt := strings.LastIndex(raw, codeSeparator)
	if localeAt < 0 {
		return RequirementCode{}, &MalformedMaskError{Code: raw, Reason: "expected attribute-channel-locale"}
	}
	channelAt := strings.LastIndex(raw[:localeAt], codeSeparator)
	if channelAt < 0 {
		return RequirementCode{}, &MalformedMaskError{Code: raw, Reason: "expected attribute-channel-locale"}
	}

	code := RequirementCode{
		Attribute: raw[:channelAt],
		Channel:   raw[channelAt+1 : localeAt],
		Locale:    raw[localeAt+1:],
	}

	switch {
	case code.Attribute == "":
		return RequirementCode{}, &MalformedMaskError{Code: raw, Reason: "empty attribute"}
	case code.Channel == "":
		return RequirementCode{}, &MalformedMaskError{Code: raw, Reason: "empty channel"}
	case code.Locale == "":
		return RequirementCode{}, &MalformedMaskError{Code: raw, Reason: "empty locale"}
	}

	return code, nil
}

// ParseRequirementCodes parses every code, failing on the first malformed one
func ParseRequirementCodes(raw []string) ([]RequirementCode, error) {
	codes := make([]RequirementCode, 0, len(raw))
	for _, r := range raw {
		code, err := ParseRequirementCode(r)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// String renders the compound form
func (c RequirementCode) String() string {
	return c.Attribute + codeSeparator + c.Channel + codeSeparator + c.Locale
}

// Satisfies reports whether a product holding c fulfils required.
// A product-side wildcard widens c to every channel or locale; a wildcard on
// the requirement side is only met by the same wildcard.
func (c RequirementCode) Satisfies(required RequirementCode) bool {
	if c.Attribute != required.Attribute {
		return false
	}
	channelOK := c.Channel == required.Channel || c.Channel == AllChannels
	localeOK := c.Locale == required.Locale || c.Locale == AllLocales
	return channelOK && localeOK
}

// satisfyingCodes lists every code that Satisfies c
func (c RequirementCode) satisfyingCodes() []RequirementCode {
	candidates := []RequirementCode{c}
	if c.Channel != AllChannels {
		candidates = append(candidates, RequirementCode{c.Attribute, AllChannels, c.Locale})
	}
	if c.Locale != AllLocales {
		candidates = append(candidates, RequirementCode{c.Attribute, c.Channel, AllLocales})
	}
	if c.Channel != AllChannels && c.Locale != AllLocales {
		candidates = append(candidates, RequirementCode{c.Attribute, AllChannels, AllLocales})
	}
	return candidates
}

// =============================================================================
// Product mask
// =============================================================================

// ProductMask is the snapshot of the codes a product holds a value for
type ProductMask struct {
	id         int64
	identifier string
	familyCode string
	existing   map[RequirementCode]struct{}
}

// NewProductMask builds a product mask. An empty familyCode means the product
// has no family.
func NewProductMask(id int64, identifier, familyCode string, existing []RequirementCode) *ProductMask {
	set := make(map[RequirementCode]struct{}, len(existing))
	for _, code := range existing {
		set[code] = struct{}{}
	}
	return &ProductMask{
		id:         id,
		identifier: identifier,
		familyCode: familyCode,
		existing:   set,
	}
}

// ParseProductMask builds a product mask from compound codes
func ParseProductMask(id int64, identifier, familyCode string, existing []string) (*ProductMask, error) {
	codes, err := ParseRequirementCodes(existing)
	if err != nil {
		return nil, err
	}
	return NewProductMask(id, identifier, familyCode, codes), nil
}

func (m *ProductMask) ID() int64          { return m.id }
func (m *ProductMask) Identifier() string { return m.identifier }
func (m *ProductMask) FamilyCode() string { return m.familyCode }
func (m *ProductMask) HasFamily() bool    { return m.familyCode != "" }

// Len returns the number of existing codes
func (m *ProductMask) Len() int {
	return len(m.existing)
}

// Has reports whether the exact code is present
func (m *ProductMask) Has(code RequirementCode) bool {
	_, ok := m.existing[code]
	return ok
}

// Satisfies reports whether any existing code satisfies required
func (m *ProductMask) Satisfies(required RequirementCode) bool {
	for _, candidate := range required.satisfyingCodes() {
		if _, ok := m.existing[candidate]; ok {
			return true
		}
	}
	return false
}

// ExistingCodes returns the existing codes sorted by their compound form
func (m *ProductMask) ExistingCodes() []RequirementCode {
	codes := make([]RequirementCode, 0, len(m.existing))
	for code := range m.existing {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].String() < codes[j].String()
	})
	return codes
}

// =============================================================================
// Family mask
// =============================================================================

// FamilyMaskPerChannelAndLocale holds the required codes of one channel/locale.
// The index of a code is its position in the family's completeness definition.
type FamilyMaskPerChannelAndLocale struct {
	channelCode string
	localeCode  string
	required    []RequirementCode
}

// NewFamilyMaskPerChannelAndLocale copies required so later edits by the caller
// do not leak into the mask
func NewFamilyMaskPerChannelAndLocale(channelCode, localeCode string, required []RequirementCode) FamilyMaskPerChannelAndLocale {
	codes := make([]RequirementCode, len(required))
	copy(codes, required)
	return FamilyMaskPerChannelAndLocale{
		channelCode: channelCode,
		localeCode:  localeCode,
		required:    codes,
	}
}

func (m FamilyMaskPerChannelAndLocale) ChannelCode() string { return m.channelCode }
func (m FamilyMaskPerChannelAndLocale) LocaleCode() string  { return m.localeCode }

// RequiredCount returns the number of required codes
func (m FamilyMaskPerChannelAndLocale) RequiredCount() int {
	return len(m.required)
}

// RequiredCode returns the code at position
func (m FamilyMaskPerChannelAndLocale) RequiredCode(position int) RequirementCode {
	return m.required[position]
}

// RequiredCodes returns a copy of the ordered required codes
func (m FamilyMaskPerChannelAndLocale) RequiredCodes() []RequirementCode {
	codes := make([]RequirementCode, len(m.required))
	copy(codes, m.required)
	return codes
}

// FamilyMask groups a family's required codes per channel/locale
type FamilyMask struct {
	familyCode string
	masks      []FamilyMaskPerChannelAndLocale
}

// NewFamilyMask builds a family mask, rejecting a repeated channel/locale pair
func NewFamilyMask(familyCode string, masks []FamilyMaskPerChannelAndLocale) (*FamilyMask, error) {
	seen := make(map[[2]string]struct{}, len(masks))
	for _, m := range masks {
		key := [2]string{m.channelCode, m.localeCode}
		if _, dup := seen[key]; dup {
			return nil, &MalformedMaskError{
				Code:   familyCode,
				Reason: "duplicate channel/locale " + m.channelCode + "/" + m.localeCode,
			}
		}
		seen[key] = struct{}{}
	}

	own := make([]FamilyMaskPerChannelAndLocale, len(masks))
	copy(own, masks)
	return &FamilyMask{familyCode: familyCode, masks: own}, nil
}

func (f *FamilyMask) FamilyCode() string { return f.familyCode }

// Len returns the number of channel/locale entries
func (f *FamilyMask) Len() int {
	return len(f.masks)
}

// PerChannelAndLocale returns the entry at index i, in enumeration order
func (f *FamilyMask) PerChannelAndLocale(i int) FamilyMaskPerChannelAndLocale {
	return f.masks[i]
}

// familyMaskJSON is the cache/fixture wire form of a FamilyMask
type familyMaskJSON struct {
	FamilyCode string                `json:"family_code"`
	Masks      []familyMaskEntryJSON `json:"masks"`
}

type familyMaskEntryJSON struct {
	ChannelCode   string   `json:"channel_code"`
	LocaleCode    string   `json:"locale_code"`
	RequiredCodes []string `json:"required_codes"`
}

// MarshalJSON encodes the mask with requirement codes in compound form
func (f *FamilyMask) MarshalJSON() ([]byte, error) {
	wire := familyMaskJSON{FamilyCode: f.familyCode, Masks: make([]familyMaskEntryJSON, len(f.masks))}
	for i, m := range f.masks {
		codes := make([]string, len(m.required))
		for j, c := range m.required {
			codes[j] = c.String()
		}
		wire.Masks[i] = familyMaskEntryJSON{
			ChannelCode:   m.channelCode,
			LocaleCode:    m.localeCode,
			RequiredCodes: codes,
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes and re-validates a mask
func (f *FamilyMask) UnmarshalJSON(data []byte) error {
	var wire familyMaskJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	masks := make([]FamilyMaskPerChannelAndLocale, 0, len(wire.Masks))
	for _, m := range wire.Masks {
		codes, err := ParseRequirementCodes(m.RequiredCodes)
		if err != nil {
			return err
		}
		masks = append(masks, NewFamilyMaskPerChannelAndLocale(m.ChannelCode, m.LocaleCode, codes))
	}

	built, err := NewFamilyMask(wire.FamilyCode, masks)
	if err != nil {
		return err
	}
	*f = *built
	return nil
}
