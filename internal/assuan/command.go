package assuan

import "strings"

// Kind tags the closed set of commands a pinentry accepts.
type Kind int

const (
	KindComment Kind = iota
	KindBye
	KindReset
	KindEnd
	KindHelp
	KindSetOption
	KindNop
	KindGetSecret
	KindSetPrompt
	KindSetDescription
	KindSetTitle
	KindSetCosmetic
	KindGetInfo
	KindUnknown
)

var kindNames = [...]string{
	KindComment:        "comment",
	KindBye:            "bye",
	KindReset:          "reset",
	KindEnd:            "end",
	KindHelp:           "help",
	KindSetOption:      "set_option",
	KindNop:            "nop",
	KindGetSecret:      "get_secret",
	KindSetPrompt:      "set_prompt",
	KindSetDescription: "set_description",
	KindSetTitle:       "set_title",
	KindSetCosmetic:    "set_cosmetic",
	KindGetInfo:        "get_info",
	KindUnknown:        "unknown",
}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[kind]
}

const (
	VerbBye             = "BYE"
	VerbReset           = "RESET"
	VerbEnd             = "END"
	VerbHelp            = "HELP"
	VerbNop             = "NOP"
	VerbOption          = "OPTION"
	VerbGetPin          = "GETPIN"
	VerbGetInfo         = "GETINFO"
	VerbSetDesc         = "SETDESC"
	VerbSetTitle        = "SETTITLE"
	VerbSetPrompt       = "SETPROMPT"
	VerbSetOK           = "SETOK"
	VerbSetCancel       = "SETCANCEL"
	VerbSetNotOK        = "SETNOTOK"
	VerbSetError        = "SETERROR"
	VerbSetQualityBar   = "SETQUALITYBAR"
	VerbSetQualityBarTT = "SETQUALITYBAR_TT"
	VerbConfirm         = "CONFIRM"
	VerbMessage         = "MESSAGE"
	VerbSetKeyInfo      = "SETKEYINFO"
	VerbSetRepeat       = "SETREPEAT"
	VerbSetRepeatError  = "SETREPEATERROR"
	VerbSetRepeatOK     = "SETREPEATOK"
	VerbSetTimeout      = "SETTIMEOUT"
	VerbClearPassphrase = "CLEARPASSPHRASE"
	VerbSetGenPin       = "SETGENPIN"
	VerbSetGenPinTT     = "SETGENPIN_TT"
)

var keywords = map[string]Kind{
	VerbBye:             KindBye,
	VerbReset:           KindReset,
	VerbEnd:             KindEnd,
	VerbHelp:            KindHelp,
	VerbNop:             KindNop,
	VerbOption:          KindSetOption,
	VerbGetPin:          KindGetSecret,
	VerbGetInfo:         KindGetInfo,
	VerbSetDesc:         KindSetDescription,
	VerbSetTitle:        KindSetTitle,
	VerbSetPrompt:       KindSetPrompt,
	VerbSetOK:           KindSetCosmetic,
	VerbSetCancel:       KindSetCosmetic,
	VerbSetNotOK:        KindSetCosmetic,
	VerbSetError:        KindSetCosmetic,
	VerbSetQualityBar:   KindSetCosmetic,
	VerbSetQualityBarTT: KindSetCosmetic,
	VerbConfirm:         KindSetCosmetic,
	VerbMessage:         KindSetCosmetic,
	VerbSetKeyInfo:      KindSetCosmetic,
	VerbSetRepeat:       KindSetCosmetic,
	VerbSetRepeatError:  KindSetCosmetic,
	VerbSetRepeatOK:     KindSetCosmetic,
	VerbSetTimeout:      KindSetCosmetic,
	VerbClearPassphrase: KindSetCosmetic,
	VerbSetGenPin:       KindSetCosmetic,
	VerbSetGenPinTT:     KindSetCosmetic,
}

// Command is one parsed request line.
//
// Which fields are meaningful depends on Kind:
//   - KindSetPrompt, KindSetDescription, KindSetTitle, KindGetInfo: Text
//     holds the raw, still percent-encoded argument.
//   - KindSetCosmetic: Verb names the cosmetic field, Text its argument.
//   - KindSetOption: Name, Value and HasValue.
//   - KindUnknown: Text holds the complete original line.
type Command struct {
	Kind     Kind
	Verb     string
	Text     string
	Name     string
	Value    string
	HasValue bool
}

// Parse classifies a single line. It never fails: anything that is not a
// recognised keyword becomes KindUnknown.
func Parse(line string) Command {
	if line == "" || line[0] == '#' {
		return Command{Kind: KindComment}
	}

	verb, rest, _ := strings.Cut(line, " ")
	kind, ok := keywords[verb]
	if !ok {
		return Command{Kind: KindUnknown, Text: line}
	}

	switch kind {
	case KindSetOption:
		name, value, hasValue := strings.Cut(rest, "=")
		return Command{Kind: kind, Verb: verb, Name: name, Value: value, HasValue: hasValue}
	case KindSetPrompt, KindSetDescription, KindSetTitle, KindSetCosmetic, KindGetInfo:
		return Command{Kind: kind, Verb: verb, Text: rest}
	default:
		return Command{Kind: kind, Verb: verb}
	}
}
