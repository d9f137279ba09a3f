package recipes

// Static taxonomy values as published by the search provider. Served directly
// so the frontend does not burn API quota on them.

var cuisines = []string{
	"African", "Asian", "American", "British", "Cajun", "Caribbean",
	"Chinese", "Eastern European", "European", "French", "German", "Greek",
	"Indian", "Irish", "Italian", "Japanese", "Jewish", "Korean",
	"Latin American", "Mediterranean", "Mexican", "Middle Eastern", "Nordic",
	"Southern", "Spanish", "Thai", "Vietnamese",
}

var diets = []string{
	"gluten free", "ketogenic", "vegetarian", "lacto-vegetarian",
	"ovo-vegetarian", "vegan", "pescetarian", "paleo", "primal", "whole30",
}

var intolerances = []string{
	"dairy", "egg", "gluten", "grain", "peanut", "seafood", "sesame",
	"shellfish", "soy", "sulfite", "tree nut", "wheat",
}

var mealTypes = []string{
	"main course", "side dish", "dessert", "appetizer", "salad", "bread",
	"breakfast", "soup", "beverage", "sauce", "marinade", "fingerfood",
	"snack", "drink",
}

func Cuisines() []string     { return cuisines }
func Diets() []string        { return diets }
func Intolerances() []string { return intolerances }
func MealTypes() []string    { return mealTypes }
