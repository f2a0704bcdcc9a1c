package parse

import "strings"

// spellings holds the canonical source spelling of each builtin.
var spellings = [CodeMax]string{
	Add:        "+",
	Sub:        "-",
	Mul:        "*",
	Div:        "/",
	Mod:        "mod",
	Eq:         "=",
	Lt:         "<",
	Gt:         ">",
	Dup:        "dup",
	Drop:       "drop",
	Swap:       "swap",
	Over:       "over",
	Rot:        "rot",
	MinusRot:   "-rot",
	QDup:       "?dup",
	TwoDup:     "2dup",
	TwoDrop:    "2drop",
	TwoSwap:    "2swap",
	TwoOver:    "2over",
	Print:      ".",
	PrintStack: ".s",
	Do:         "do",
	Loop:       "loop",
	Index:      "i",
	Immediate:  "immediate",
}

// builtins maps lower-cased builtin words to their codes; control words are
// not included since they are structural.
var builtins = make(map[string]Code, CodeMax)

func init() {
	for code, s := range spellings {
		switch Code(code) {
		case Do, Loop, Index:
		default:
			if s != "" {
				builtins[s] = Code(code)
			}
		}
	}
}

// controlWords are only meaningful inside a definition.
var controlWords = []string{"if", "else", "then", "do", "loop", "i"}

// IsControlWord returns true if name is one of the compile-only control
// words, in any case.
func IsControlWord(name string) bool {
	for _, cw := range controlWords {
		if strings.EqualFold(cw, name) {
			return true
		}
	}
	return false
}

// Builtin returns the code of the named builtin word, in any case.
func Builtin(name string) (Code, bool) {
	code, ok := builtins[strings.ToLower(name)]
	return code, ok
}

// Builtins returns the source spellings of all builtin words.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for code, s := range spellings {
		if _, ok := builtins[s]; ok && builtins[s] == Code(code) {
			names = append(names, s)
		}
	}
	return names
}

// atom converts a plain integer or word token into its operation.
func atom(text string) Op {
	if code, ok := Builtin(text); ok {
		return Op{Code: code}
	}
	return Ref(text)
}
