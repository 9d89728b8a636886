package validation

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales violation messages are rendered in. The first
// entry is the fallback.
var Supported = []language.Tag{language.English, language.SimplifiedChinese}

// Message keys that are not validator tags.
const (
	keyNumber  = "number"
	keyJSON    = "json"
	keyType    = "type"
	keyInvalid = "invalid"
)

// English messages carry a leading space because they are appended directly
// to the field label ("name must not be blank"); Chinese ones do not.
var messages = []struct {
	key    string
	en, zh string
}{
	{"required", " must not be blank", "不能为空"},
	{"notblank", " must not be blank", "不能为空"},
	{"min", " must be at least %s", "不能小于%s"},
	{"max", " must be at most %s", "不能大于%s"},
	{"gte", " must be greater than or equal to %s", "必须大于或等于%s"},
	{"lte", " must be less than or equal to %s", "必须小于或等于%s"},
	{"min_len", " must be at least %s characters long", "长度不能小于%s"},
	{"max_len", " must be at most %s characters long", "长度不能超过%s"},
	{"len_len", " must be exactly %s characters long", "长度必须为%s"},
	{"oneof", " must be one of [%s]", "必须是[%s]中的一个"},
	{"startswith", " must start with %s", "必须以%s开头"},
	{"uuid", " must be a valid UUID", "必须是合法的UUID"},
	{"exists", " does not exist", "不存在"},
	{"self", " must not reference the menu itself", "不能引用自身"},
	{keyNumber, " must be a number", "必须是数字"},
	{keyJSON, " must be valid JSON", "必须是合法的JSON"},
	{keyType, " has the wrong type", "类型不正确"},
	{keyInvalid, " is invalid", "无效"},
}

var (
	matcher  = language.NewMatcher(Supported)
	printers = map[language.Tag]*message.Printer{}
	known    = map[string]bool{}
	takesArg = map[string]bool{}
)

func init() {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for _, m := range messages {
		_ = b.SetString(language.English, m.key, m.en)
		_ = b.SetString(language.SimplifiedChinese, m.key, m.zh)
		known[m.key] = true
		takesArg[m.key] = strings.Contains(m.en, "%s")
	}
	for _, tag := range Supported {
		printers[tag] = message.NewPrinter(tag, message.Catalog(b))
	}
}

// Match picks the supported locale closest to the Accept-Language header
// value, or fallback when nothing matches.
func Match(acceptLanguage string, fallback language.Tag) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}

// Message renders the violation text for key in lang. Unknown keys render
// the generic "is invalid" text.
func Message(lang language.Tag, key, param string) string {
	if !known[key] {
		key = keyInvalid
	}
	p, ok := printers[lang]
	if !ok {
		p = printers[Match(lang.String(), Supported[0])]
	}
	if takesArg[key] {
		return p.Sprintf(key, param)
	}
	return p.Sprintf(key)
}
