package constant

// Category labels returned by the classifier. Matching is by substring
// containment against the model output, not equality, since the model is
// not guaranteed to emit exactly one token.
const (
	CategoryArithmetic     = "ARITHMETIC"
	CategorySemantic       = "SEMANTIC"
	CategoryPersonalData   = "PERSONAL_DATA"
	CategoryGeneral        = "GENERAL"
	CategoryFrontendAction = "FRONTEND_ACTION"
	CategoryWebSearch      = "WEB_SEARCH"
)

// LoginRequiredPersonalData and LoginRequiredFrontendAction are sentinel
// context strings. The main system prompt instructs the model to ask the
// user to log in whenever the context contains "LOGIN_REQUIRED:".
const (
	LoginRequiredPersonalData   = "LOGIN_REQUIRED: User is not logged in. They need to log in to access personal data like meal plans, pantry items, or profile information."
	LoginRequiredFrontendAction = "LOGIN_REQUIRED: User is not logged in. They need to log in to perform actions like swapping foods or adding items to grocery list. Navigation is done via markdown links."

	FrontendActionInstruction = "User wants to perform a UI action. Generate the corresponding FRONTEND_COMMAND if needed (only for add_to_grocery or swap_food). For navigation, use markdown links instead."
)

// Keyword sets for sub-branch routing inside PERSONAL_DATA, GENERAL and
// FRONTEND_ACTION. Mixed English and Vietnamese, matched against the
// lowercased message.
var (
	MealPlanKeywords = []string{"plan", "thực đơn", "ăn gì", "dinner", "lunch", "breakfast", "meal"}

	PantryKeywords = []string{"pantry", "tủ"}

	HowToKeywords = []string{"how", "làm sao", "cách"}

	NavigationKeywords = []string{"navigate", "go to", "đến trang", "chuyển", "mở"}

	PublicPageKeywords = []string{"login", "register", "đăng ký", "đăng nhập"}
)

// FallbackStopwords are stripped from the semantic query before it is turned
// into a regex pattern, so "meals with egg" still matches "Fried Egg".
var FallbackStopwords = map[string]bool{
	"show": true, "me": true, "find": true, "suggest": true, "recommend": true,
	"meals": true, "meal": true, "with": true, "for": true,
	"a": true, "an": true, "the": true, "in": true, "on": true,
}

// AcceptedCommandTypes is the closed vocabulary of frontend command objects
// extracted from model output. Anything else is dropped silently.
var AcceptedCommandTypes = map[string]bool{
	"FRONTEND_COMMAND": true,
	"replace_food":     true,
	"add_to_grocery":   true,
	"search_food":      true,
}

// CategoryLabels resolves stored numeric category ids to display names when
// synthesizing food document text.
var CategoryLabels = map[int]string{
	1:  "Vegetables",
	2:  "Fruits",
	3:  "Grains & Cereals",
	4:  "Meat & Poultry",
	5:  "Seafood",
	6:  "Dairy & Eggs",
	7:  "Legumes & Nuts",
	8:  "Soups & Stews",
	9:  "Salads",
	10: "Desserts & Sweets",
	11: "Beverages",
	12: "Snacks",
}
