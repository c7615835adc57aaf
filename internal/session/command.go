package session

import "strings"

// Command is a main menu choice.
type Command int

const (
	CmdInvalid Command = iota
	CmdAddExpense
	CmdViewSummary
	CmdExport
	CmdUpdateBudget
	CmdLogout
)

var commandNames = map[Command]string{
	CmdInvalid:      "invalid",
	CmdAddExpense:   "add_expense",
	CmdViewSummary:  "view_summary",
	CmdExport:       "export",
	CmdUpdateBudget: "update_budget",
	CmdLogout:       "logout",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand maps a menu choice ("1" to "5") to its Command. Anything else
// is CmdInvalid.
func ParseCommand(choice string) Command {
	switch strings.TrimSpace(choice) {
	case "1":
		return CmdAddExpense
	case "2":
		return CmdViewSummary
	case "3":
		return CmdExport
	case "4":
		return CmdUpdateBudget
	case "5":
		return CmdLogout
	default:
		return CmdInvalid
	}
}

// State is the position of a session in its lifecycle.
type State int

const (
	AwaitingUsername State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingUsername:
		return "awaiting_username"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
