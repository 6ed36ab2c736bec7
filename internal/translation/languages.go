package translation

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languageTags maps the provider language codes accepted in configuration to
// BCP 47 tags. The codes follow the Baidu translation API.
var languageTags = map[string]language.Tag{
	"zh":  language.SimplifiedChinese,
	"en":  language.English,
	"yue": language.Make("yue"),
	"wyw": language.Make("lzh"),
	"jp":  language.Japanese,
	"kor": language.Korean,
	"fra": language.French,
	"spa": language.Spanish,
	"th":  language.Thai,
	"ara": language.Arabic,
	"ru":  language.Russian,
	"pt":  language.Portuguese,
	"de":  language.German,
	"it":  language.Italian,
	"el":  language.Greek,
	"nl":  language.Dutch,
	"pl":  language.Polish,
	"bul": language.Bulgarian,
	"est": language.Estonian,
	"dan": language.Danish,
	"fin": language.Finnish,
	"cs":  language.Czech,
	"rom": language.Romanian,
	"slo": language.Slovenian,
	"swe": language.Swedish,
	"hu":  language.Hungarian,
	"cht": language.TraditionalChinese,
	"vie": language.Vietnamese,
}

// IsSupported reports whether code is a known provider language code.
func IsSupported(code string) bool {
	_, ok := languageTags[code]
	return ok
}

// SupportedLanguages lists the provider language codes, sorted.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageTags))
	for code := range languageTags {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Tag returns the BCP 47 tag for a provider code.
func Tag(code string) (language.Tag, bool) {
	t, ok := languageTags[code]
	return t, ok
}

// DisplayName returns the English name of a provider language code, falling
// back to the code itself.
func DisplayName(code string) string {
	t, ok := languageTags[code]
	if !ok {
		return code
	}
	if name := display.English.Tags().Name(t); name != "" {
		return name
	}
	return code
}
