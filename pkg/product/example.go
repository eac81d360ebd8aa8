package product

// ExampleRaw returns the sample record used by `kspar run --example`.
func ExampleRaw() RawProduct {
	return RawProduct{
		ProductName:    "Minimalist 2% Salicylic Acid Face Serum",
		Concentration:  "2% Salicylic Acid, 1% Zinc PCA",
		SkinType:       "Oily, Acne-Prone, Combination Skin",
		KeyIngredients: "Salicylic Acid, Zinc PCA, Aloe Vera Extract",
		Benefits:       "Exfoliates pores, reduces blackheads & whiteheads, controls oil, reduces redness.",
		HowToUse:       "Apply 2-3 drops after cleansing and before moisturizing. Use 3-4 times a week.",
		SideEffects:    "Mild tingling possible initially. Avoid use with other strong acids.",
		Price:          "₹699",
	}
}
