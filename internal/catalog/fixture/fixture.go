package fixture

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/pim/backend/internal/contracts"
)

// File is the YAML document of a fixture catalog
type File struct {
	Families []Family  `yaml:"families" json:"families"`
	Products []Product `yaml:"products" json:"products"`
}

// Family lists the required codes of a family per channel/locale
type Family struct {
	Code         string        `yaml:"code" json:"code"`
	Requirements []Requirement `yaml:"requirements" json:"requirements"`
}

// Requirement is one channel/locale entry; Required keeps family order
type Requirement struct {
	Channel  string   `yaml:"channel" json:"channel"`
	Locale   string   `yaml:"locale" json:"locale"`
	Required []string `yaml:"required" json:"required"`
}

// Product lists the codes a product holds a value for
type Product struct {
	ID         int64    `yaml:"id" json:"id"`
	Identifier string   `yaml:"identifier" json:"identifier"`
	Family     string   `yaml:"family" json:"family"`
	Values     []string `yaml:"values" json:"values"`
}

// Catalog serves masks parsed from a fixture file.
// ⭐ SSOT: DB 없이 completeness를 계산할 때 쓰는 로더
type Catalog struct {
	products map[string]*contracts.ProductMask
	families map[string]*contracts.FamilyMask
	hash     string
}

var (
	_ contracts.ProductMaskLoader = (*Catalog)(nil)
	_ contracts.FamilyMaskLoader  = (*Catalog)(nil)
)

// Load reads a fixture file
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes, validates and indexes a fixture document
func Parse(data []byte) (*Catalog, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	if err := Validate(&file); err != nil {
		return nil, err
	}

	return build(&file)
}

func build(file *File) (*Catalog, error) {
	c := &Catalog{
		products: make(map[string]*contracts.ProductMask, len(file.Products)),
		families: make(map[string]*contracts.FamilyMask, len(file.Families)),
	}

	for i, f := range file.Families {
		entries := make([]contracts.FamilyMaskPerChannelAndLocale, 0, len(f.Requirements))
		for j, r := range f.Requirements {
			codes, err := contracts.ParseRequirementCodes(r.Required)
			if err != nil {
				return nil, ValidationError{fmt.Sprintf("families[%d].requirements[%d].required", i, j), err.Error()}
			}
			entries = append(entries, contracts.NewFamilyMaskPerChannelAndLocale(r.Channel, r.Locale, codes))
		}

		mask, err := contracts.NewFamilyMask(f.Code, entries)
		if err != nil {
			return nil, ValidationError{fmt.Sprintf("families[%d].requirements", i), err.Error()}
		}
		c.families[f.Code] = mask
	}

	for i, p := range file.Products {
		mask, err := contracts.ParseProductMask(p.ID, p.Identifier, p.Family, p.Values)
		if err != nil {
			return nil, ValidationError{fmt.Sprintf("products[%d].values", i), err.Error()}
		}
		c.products[p.Identifier] = mask
	}

	hash, err := Hash(file)
	if err != nil {
		return nil, err
	}
	c.hash = hash

	return c, nil
}

// Hash returns the SHA256 of the canonical JSON form of a fixture document
func Hash(file *File) (string, error) {
	jsonBytes, err := json.Marshal(file)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Hash identifies the fixture content the catalog was built from
func (c *Catalog) Hash() string {
	return c.hash
}

// FromProductIdentifiers returns the masks of the known identifiers
func (c *Catalog) FromProductIdentifiers(_ context.Context, identifiers []string) ([]*contracts.ProductMask, error) {
	masks := make([]*contracts.ProductMask, 0, len(identifiers))
	seen := make(map[string]struct{}, len(identifiers))
	for _, identifier := range identifiers {
		if _, dup := seen[identifier]; dup {
			continue
		}
		seen[identifier] = struct{}{}
		if mask, ok := c.products[identifier]; ok {
			masks = append(masks, mask)
		}
	}
	return masks, nil
}

// FromFamilyCodes returns the masks of the known families
func (c *Catalog) FromFamilyCodes(_ context.Context, familyCodes []string) (map[string]*contracts.FamilyMask, error) {
	masks := make(map[string]*contracts.FamilyMask, len(familyCodes))
	for _, code := range familyCodes {
		if mask, ok := c.families[code]; ok {
			masks[code] = mask
		}
	}
	return masks, nil
}

// ProductIdentifiers returns every product identifier of the fixture
func (c *Catalog) ProductIdentifiers() []string {
	identifiers := make([]string, 0, len(c.products))
	for identifier := range c.products {
		identifiers = append(identifiers, identifier)
	}
	return identifiers
}
