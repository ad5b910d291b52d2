package search

// Eligibility parameter names.
const (
	EligibilityGeneral             = "general"
	EligibilityGender              = "gender"
	EligibilityAge                 = "age"
	EligibilityIncome              = "income"
	EligibilityMembership          = "membership"
	EligibilityLanguageSpoken      = "languageSpoken"
	EligibilityOrientation         = "orientation"
	EligibilityCommunicableDisease = "communicableDisease"
	EligibilityFamilySize          = "familySize"
)

// EligibilityParameters lists every known eligibility parameter name.
var EligibilityParameters = []string{
	EligibilityGeneral,
	EligibilityGender,
	EligibilityAge,
	EligibilityIncome,
	EligibilityMembership,
	EligibilityLanguageSpoken,
	EligibilityOrientation,
	EligibilityCommunicableDisease,
	EligibilityFamilySize,
}

// IsEligibilityParameter reports whether name is a known parameter.
func IsEligibilityParameter(name string) bool {
	for _, p := range EligibilityParameters {
		if p == name {
			return true
		}
	}
	return false
}

// Document types the search can filter on.
const (
	DocumentPhotoID        = "photoId"
	DocumentReferralLetter = "referralLetter"
)
