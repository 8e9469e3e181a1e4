package syntax

import (
	"strings"
	"unicode"
)

// PropertyKind classifies a character property.
type PropertyKind uint8

const (
	PropAny PropertyKind = iota
	PropAssigned
	PropASCII
	PropGeneralCategory
	PropBinary
	PropScript
	PropScriptExtension
	PropNamed
	PropNumericType
	PropNumericValue
	PropMapping
	PropCCC
	PropAge
	PropBlock
	PropPOSIX
	PropPCRESpecial
	PropJavaSpecial
	PropInvalid
)

// Property is a \p{...} or [:...:] character property.
type Property struct {
	Kind     PropertyKind
	Inverted bool
	// Key is the raw key of a key=value property, empty otherwise.
	Key string
	// Value is the raw property text (the value of key=value properties).
	Value string
	// Name is the canonical value: a two-letter general category code such
	// as "Lu", a script name such as "Greek", a binary property name such as
	// "White_Space", or a POSIX class name such as "alnum".
	Name string
}

// generalCategories maps loose category spellings to their short codes.
var generalCategories = map[string]string{}

// GeneralCategoryNames maps general category codes to their long names.
var GeneralCategoryNames = map[string]string{
	"C":  "Other",
	"Cc": "Control",
	"Cf": "Format",
	"Cn": "Unassigned",
	"Co": "Private Use",
	"Cs": "Surrogate",
	"L":  "Letter",
	"LC": "Cased Letter",
	"Ll": "Lowercase Letter",
	"Lm": "Modifier Letter",
	"Lo": "Other Letter",
	"Lt": "Titlecase Letter",
	"Lu": "Uppercase Letter",
	"M":  "Mark",
	"Mc": "Spacing Mark",
	"Me": "Enclosing Mark",
	"Mn": "Nonspacing Mark",
	"N":  "Number",
	"Nd": "Decimal Number",
	"Nl": "Letter Number",
	"No": "Other Number",
	"P":  "Punctuation",
	"Pc": "Connector Punctuation",
	"Pd": "Dash Punctuation",
	"Pe": "Close Punctuation",
	"Pf": "Final Punctuation",
	"Pi": "Initial Punctuation",
	"Po": "Other Punctuation",
	"Ps": "Open Punctuation",
	"S":  "Symbol",
	"Sc": "Currency Symbol",
	"Sk": "Modifier Symbol",
	"Sm": "Math Symbol",
	"So": "Other Symbol",
	"Z":  "Separator",
	"Zl": "Line Separator",
	"Zp": "Paragraph Separator",
	"Zs": "Space Separator",
}

var (
	scriptNames map[string]string
	binaryNames map[string]string
)

// posixClasses lists the POSIX bracket class names.
var posixClasses = map[string]bool{
	"alnum": true, "alpha": true, "ascii": true, "blank": true,
	"cntrl": true, "digit": true, "graph": true, "lower": true,
	"print": true, "punct": true, "space": true, "upper": true,
	"word": true, "xdigit": true,
}

// derivedBinary are binary properties the unicode package does not carry
// in unicode.Properties but which are derivable from its tables.
var derivedBinary = []string{"Alphabetic", "Lowercase", "Uppercase", "Math", "Any"}

func init() {
	for code, long := range GeneralCategoryNames {
		generalCategories[looseKey(code)] = code
		generalCategories[looseKey(long)] = code
	}
	generalCategories["letter"] = "L"
	generalCategories["digit"] = "Nd"
	generalCategories["punct"] = "P"
	generalCategories["combiningmark"] = "M"

	scriptNames = make(map[string]string, len(unicode.Scripts))
	for name := range unicode.Scripts {
		scriptNames[looseKey(name)] = name
	}
	binaryNames = make(map[string]string, len(unicode.Properties)+len(derivedBinary))
	for name := range unicode.Properties {
		binaryNames[looseKey(name)] = name
	}
	for _, name := range derivedBinary {
		binaryNames[looseKey(name)] = name
	}
	binaryNames["alpha"] = "Alphabetic"
	binaryNames["upper"] = "Uppercase"
	binaryNames["lower"] = "Lowercase"
	binaryNames["space"] = "White_Space"
	binaryNames["wspace"] = "White_Space"
}

// looseKey applies Unicode loose matching (UAX44-LM3): case, whitespace,
// underscores and hyphens are ignored.
func looseKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// classifyProperty resolves the contents of \p{...}.
func classifyProperty(text string) *Property {
	p := &Property{Value: text}
	if strings.HasPrefix(text, "^") {
		p.Inverted = true
		text = text[1:]
		p.Value = text
	}
	if key, value, ok := strings.Cut(text, "="); ok {
		p.Key, p.Value = key, value
		classifyKeyValue(p, looseKey(key), value)
		return p
	}
	classifyLone(p, text)
	return p
}

func classifyKeyValue(p *Property, key, value string) {
	lv := looseKey(value)
	switch key {
	case "gc", "generalcategory":
		if code, ok := generalCategories[lv]; ok {
			p.Kind, p.Name = PropGeneralCategory, code
			return
		}
	case "sc", "script":
		if name, ok := scriptNames[lv]; ok {
			p.Kind, p.Name = PropScript, name
			return
		}
	case "scx", "scriptextensions":
		if name, ok := scriptNames[lv]; ok {
			p.Kind, p.Name = PropScriptExtension, name
			return
		}
	case "name", "na":
		p.Kind, p.Name = PropNamed, value
		return
	case "nt", "numerictype":
		p.Kind, p.Name = PropNumericType, value
		return
	case "nv", "numericvalue":
		p.Kind, p.Name = PropNumericValue, value
		return
	case "age":
		p.Kind, p.Name = PropAge, value
		return
	case "blk", "block":
		p.Kind, p.Name = PropBlock, value
		return
	case "ccc", "canonicalcombiningclass":
		p.Kind, p.Name = PropCCC, value
		return
	case "lc", "lowercasemapping", "uc", "uppercasemapping", "tc", "titlecasemapping":
		p.Kind, p.Name = PropMapping, value
		return
	}
	if name, ok := binaryNames[key]; ok {
		switch lv {
		case "true", "t", "yes", "y":
			p.Kind, p.Name = PropBinary, name
			return
		case "false", "f", "no", "n":
			p.Kind, p.Name, p.Inverted = PropBinary, name, !p.Inverted
			return
		}
	}
	p.Kind = PropInvalid
}

func classifyLone(p *Property, text string) {
	lv := looseKey(text)
	switch lv {
	case "any":
		p.Kind = PropAny
		return
	case "assigned":
		p.Kind = PropAssigned
		return
	case "ascii":
		p.Kind = PropASCII
		return
	case "xan", "xps", "xsp", "xuc", "xwd":
		p.Kind, p.Name = PropPCRESpecial, text
		return
	}
	if strings.HasPrefix(text, "java") {
		p.Kind, p.Name = PropJavaSpecial, text
		return
	}
	if code, ok := generalCategories[lv]; ok {
		p.Kind, p.Name = PropGeneralCategory, code
		return
	}
	if name, ok := binaryNames[lv]; ok {
		p.Kind, p.Name = PropBinary, name
		return
	}
	if name, ok := scriptNames[lv]; ok {
		p.Kind, p.Name = PropScript, name
		return
	}
	if strings.HasPrefix(lv, "in") {
		p.Kind, p.Name = PropBlock, text[2:]
		return
	}
	if posixClasses[lv] {
		p.Kind, p.Name = PropPOSIX, lv
		return
	}
	p.Kind = PropInvalid
}

// classifyPOSIX resolves the name of a [:name:] bracket class.
func classifyPOSIX(name string, inverted bool) *Property {
	p := &Property{Value: name, Inverted: inverted}
	lv := looseKey(name)
	if posixClasses[lv] {
		p.Kind, p.Name = PropPOSIX, lv
		return p
	}
	// Oniguruma accepts any property name between the colons.
	lone := &Property{Value: name, Inverted: inverted}
	classifyLone(lone, name)
	return lone
}
