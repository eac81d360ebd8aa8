package product

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawProduct is an unprocessed product record as supplied by the catalogue.
// It is the Parser agent's input.
type RawProduct struct {
	ProductName    string `json:"Product_Name" yaml:"Product_Name"`
	Concentration  string `json:"Concentration" yaml:"Concentration"`
	SkinType       string `json:"Skin_Type" yaml:"Skin_Type"`
	KeyIngredients string `json:"Key_Ingredients" yaml:"Key_Ingredients"`
	Benefits       string `json:"Benefits" yaml:"Benefits"`
	HowToUse       string `json:"How_to_Use" yaml:"How_to_Use"`
	SideEffects    string `json:"Side_Effects" yaml:"Side_Effects"`
	Price          string `json:"Price" yaml:"Price"`
}

// StructuredProduct is the Parser agent's output and the input of every generator.
type StructuredProduct struct {
	ProductName             string             `json:"product_name"`
	PriceTag                string             `json:"price_tag"`
	Concentration           string             `json:"concentration"`
	TargetSkinTypes         []string           `json:"target_skin_types"`
	UsageInstructions       string             `json:"usage_instructions"`
	PotentialRisks          string             `json:"potential_risks"`
	PrimaryBenefits         []string           `json:"primary_benefits"`
	IngredientFunctionality []IngredientDetail `json:"ingredient_functionality"`
}

// IngredientDetail describes one key ingredient and its role for content generation.
type IngredientDetail struct {
	Ingredient string `json:"ingredient"`
	Role       string `json:"role"`
}

// Description is the Descriptor agent's output.
type Description struct {
	ProductDescription string `json:"product_description"`
	MarketingSlogan    string `json:"marketing_slogan"`
}

// FAQ is the FAQ Generator agent's output.
type FAQ struct {
	FAQs []FAQItem `json:"faqs"`
}

// FAQItem is a single question and answer.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Comparison is the Comparator agent's output.
type Comparison struct {
	KeyComparisonPoints    []ComparisonPoint `json:"key_comparison_points"`
	NeutralFeatureSummary  string            `json:"neutral_feature_summary"`
	PotentialDisadvantages string            `json:"potential_disadvantages"`
}

// ComparisonPoint is one row of a comparison table.
type ComparisonPoint struct {
	Category          string       `json:"category"`
	Value             StringOrList `json:"value"`
	ComparisonSummary string       `json:"comparison_summary"`
}

// StringOrList holds a JSON value that is either a string or a list of strings.
// It marshals back to the form it was decoded from.
type StringOrList struct {
	Values []string
	IsList bool
}

// String returns a single value, joining list values with ", ".
func (s StringOrList) String() string {
	if !s.IsList && len(s.Values) == 1 {
		return s.Values[0]
	}
	var buf bytes.Buffer
	for i, v := range s.Values {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v)
	}
	return buf.String()
}

func (s StringOrList) MarshalJSON() ([]byte, error) {
	if s.IsList {
		if s.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Values)
	}
	if len(s.Values) == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(s.Values[0])
}

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = StringOrList{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = StringOrList{Values: []string{v}}
	case '[':
		var v []string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = StringOrList{Values: v, IsList: true}
	default:
		return fmt.Errorf("value must be a string or a list of strings, got %s", trimmed)
	}
	return nil
}
