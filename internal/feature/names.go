package feature

// Feature names of the classifier contract. The misspellings (Degits, Spacial)
// are part of the contract.
const (
	URLLength                  = "URLLength"
	DomainLength               = "DomainLength"
	IsDomainIP                 = "IsDomainIP"
	NoOfSubDomain              = "NoOfSubDomain"
	HasObfuscation             = "HasObfuscation"
	NoOfObfuscatedChar         = "NoOfObfuscatedChar"
	ObfuscationRatio           = "ObfuscationRatio"
	NoOfLettersInURL           = "NoOfLettersInURL"
	LetterRatioInURL           = "LetterRatioInURL"
	NoOfDegitsInURL            = "NoOfDegitsInURL"
	DegitRatioInURL            = "DegitRatioInURL"
	NoOfEqualsInURL            = "NoOfEqualsInURL"
	NoOfQMarkInURL             = "NoOfQMarkInURL"
	NoOfAmpersandInURL         = "NoOfAmpersandInURL"
	NoOfOtherSpecialCharsInURL = "NoOfOtherSpecialCharsInURL"
	SpacialCharRatioInURL      = "SpacialCharRatioInURL"
	IsHTTPS                    = "IsHTTPS"
	LineOfCode                 = "LineOfCode"
	LargestLineLength          = "LargestLineLength"
	HasFavicon                 = "HasFavicon"
	Robots                     = "Robots"
	IsResponsive               = "IsResponsive"
	NoOfURLRedirect            = "NoOfURLRedirect"
	NoOfSelfRedirect           = "NoOfSelfRedirect"
	HasDescription             = "HasDescription"
	NoOfPopup                  = "NoOfPopup"
	NoOfiFrame                 = "NoOfiFrame"
	HasExternalFormSubmit      = "HasExternalFormSubmit"
	HasSocialNet               = "HasSocialNet"
	HasSubmitButton            = "HasSubmitButton"
	HasHiddenFields            = "HasHiddenFields"
	HasPasswordField           = "HasPasswordField"
	Bank                       = "Bank"
	Pay                        = "Pay"
	Crypto                     = "Crypto"
	HasCopyrightInfo           = "HasCopyrightInfo"
	NoOfImage                  = "NoOfImage"
	NoOfCSS                    = "NoOfCSS"
	NoOfJS                     = "NoOfJS"
	NoOfSelfRef                = "NoOfSelfRef"
	NoOfEmptyRef               = "NoOfEmptyRef"
	NoOfExternalRef            = "NoOfExternalRef"
)

// fieldOrder is the order in which the classifier input is serialized.
var fieldOrder = []string{
	URLLength,
	DomainLength,
	IsDomainIP,
	NoOfSubDomain,
	HasObfuscation,
	NoOfObfuscatedChar,
	ObfuscationRatio,
	NoOfLettersInURL,
	LetterRatioInURL,
	NoOfDegitsInURL,
	DegitRatioInURL,
	NoOfEqualsInURL,
	NoOfQMarkInURL,
	NoOfAmpersandInURL,
	NoOfOtherSpecialCharsInURL,
	SpacialCharRatioInURL,
	IsHTTPS,
	LineOfCode,
	LargestLineLength,
	HasFavicon,
	Robots,
	IsResponsive,
	NoOfURLRedirect,
	NoOfSelfRedirect,
	HasDescription,
	NoOfPopup,
	NoOfiFrame,
	HasExternalFormSubmit,
	HasSocialNet,
	HasSubmitButton,
	HasHiddenFields,
	HasPasswordField,
	Bank,
	Pay,
	Crypto,
	HasCopyrightInfo,
	NoOfImage,
	NoOfCSS,
	NoOfJS,
	NoOfSelfRef,
	NoOfEmptyRef,
	NoOfExternalRef,
}

// fieldIndex maps a feature name to its position in fieldOrder.
var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(fieldOrder))
	for i, name := range fieldOrder {
		m[name] = i
	}
	return m
}()

// Names returns the classifier input field names in serialization order.
func Names() []string {
	return append([]string(nil), fieldOrder...)
}
