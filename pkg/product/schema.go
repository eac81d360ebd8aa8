package product

import "fmt"

// Kind names a document shape exchanged with an agent.
type Kind string

const (
	KindRaw         Kind = "raw"
	KindStructured  Kind = "structured"
	KindDescription Kind = "description"
	KindFAQ         Kind = "faq"
	KindComparison  Kind = "comparison"
)

// Kinds lists every document kind.
func Kinds() []Kind {
	return []Kind{KindRaw, KindStructured, KindDescription, KindFAQ, KindComparison}
}

const rawSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "RawProduct",
  "type": "object",
  "required": ["Product_Name", "Concentration", "Skin_Type", "Key_Ingredients", "Benefits", "How_to_Use", "Side_Effects", "Price"],
  "properties": {
    "Product_Name": {"type": "string", "minLength": 1, "description": "Name of the product"},
    "Concentration": {"type": "string", "description": "Chemical and ingredient concentration"},
    "Skin_Type": {"type": "string", "description": "Suitable skin types"},
    "Key_Ingredients": {"type": "string", "description": "Main ingredients"},
    "Benefits": {"type": "string", "description": "Benefits of using the product"},
    "How_to_Use": {"type": "string", "description": "Usage procedure"},
    "Side_Effects": {"type": "string", "description": "Possible side effects"},
    "Price": {"type": "string", "description": "Price including currency"}
  }
}`

const structuredSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "StructuredProduct",
  "type": "object",
  "required": ["product_name", "price_tag", "concentration", "target_skin_types", "usage_instructions", "potential_risks", "primary_benefits", "ingredient_functionality"],
  "properties": {
    "product_name": {"type": "string", "minLength": 1, "description": "Cleaned, standardized product name"},
    "price_tag": {"type": "string", "description": "Price including currency"},
    "concentration": {"type": "string", "description": "Primary active concentration details"},
    "target_skin_types": {"type": "array", "items": {"type": "string"}, "description": "Suitable skin types"},
    "usage_instructions": {"type": "string", "description": "Procedure for using the product"},
    "potential_risks": {"type": "string", "description": "Stated side effects or warnings"},
    "primary_benefits": {"type": "array", "items": {"type": "string"}, "description": "Key benefits"},
    "ingredient_functionality": {
      "type": "array",
      "description": "Key ingredients and their role for content generation",
      "items": {
        "type": "object",
        "required": ["ingredient", "role"],
        "properties": {
          "ingredient": {"type": "string"},
          "role": {"type": "string"}
        }
      }
    }
  }
}`

const descriptionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Description",
  "type": "object",
  "required": ["product_description", "marketing_slogan"],
  "properties": {
    "product_description": {"type": "string", "minLength": 1, "description": "SEO-friendly product description of about 200 words"},
    "marketing_slogan": {"type": "string", "description": "Short, catchy tagline"}
  }
}`

const faqSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "FAQ",
  "type": "object",
  "required": ["faqs"],
  "properties": {
    "faqs": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "question": {"type": "string", "minLength": 1},
          "answer": {"type": "string"}
        }
      }
    }
  }
}`

const comparisonSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Comparison",
  "type": "object",
  "required": ["key_comparison_points", "neutral_feature_summary", "potential_disadvantages"],
  "properties": {
    "key_comparison_points": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["category", "value", "comparison_summary"],
        "properties": {
          "category": {"type": "string"},
          "value": {
            "anyOf": [
              {"type": "string"},
              {"type": "array", "items": {"type": "string"}}
            ]
          },
          "comparison_summary": {"type": "string"}
        }
      }
    },
    "neutral_feature_summary": {"type": "string"},
    "potential_disadvantages": {"type": "string"}
  }
}`

var schemas = map[Kind]string{
	KindRaw:         rawSchema,
	KindStructured:  structuredSchema,
	KindDescription: descriptionSchema,
	KindFAQ:         faqSchema,
	KindComparison:  comparisonSchema,
}

// Schema returns the JSON Schema document for kind.
func Schema(kind Kind) (string, error) {
	s, ok := schemas[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind: %q", kind)
	}
	return s, nil
}
