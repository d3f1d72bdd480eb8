package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/filedrop-bot/pkg/util"
)

// CallbackAction enumerates the typed button commands. Raw callback-data
// strings are parsed exactly once, at the router boundary; everything past
// that point works with this enum and its typed parameters.
type CallbackAction string

const (
	ActionLinksPage        CallbackAction = "links_page"
	ActionDeleteLinkSelect CallbackAction = "delete_link_select"
	ActionDeleteLinkCancel CallbackAction = "delete_link_cancel"
	ActionDeleteAccountYes CallbackAction = "delete_account_yes"
	ActionDeleteAccountNo  CallbackAction = "delete_account_no"
)

// CallbackCommand is a parsed button press.
type CallbackCommand struct {
	Action     CallbackAction
	Page       int    // ActionLinksPage
	FSObjectID string // ActionDeleteLinkSelect
}

const (
	tokenLinksPage        = "links"
	tokenDeleteLink       = "dl"
	tokenDeleteLinkCancel = "dl_cancel"
	tokenDeleteAccountYes = "da_yes"
	tokenDeleteAccountNo  = "da_no"
)

// ParseCallback decodes raw callback data into a typed command. Unparseable
// tokens fail with a distinct error class instead of falling through.
func ParseCallback(data string) (CallbackCommand, error) {
	switch data {
	case tokenDeleteLinkCancel:
		return CallbackCommand{Action: ActionDeleteLinkCancel}, nil
	case tokenDeleteAccountYes:
		return CallbackCommand{Action: ActionDeleteAccountYes}, nil
	case tokenDeleteAccountNo:
		return CallbackCommand{Action: ActionDeleteAccountNo}, nil
	}

	prefix, arg, found := strings.Cut(data, ":")
	if !found {
		return CallbackCommand{}, util.NewCallbackParseError(data)
	}

	switch prefix {
	case tokenLinksPage:
		page, err := strconv.Atoi(arg)
		if err != nil || page < 1 {
			return CallbackCommand{}, util.NewPolicyRejection("invalid page")
		}
		return CallbackCommand{Action: ActionLinksPage, Page: page}, nil
	case tokenDeleteLink:
		if arg == "" {
			return CallbackCommand{}, util.NewCallbackParseError(data)
		}
		return CallbackCommand{Action: ActionDeleteLinkSelect, FSObjectID: arg}, nil
	}

	return CallbackCommand{}, util.NewCallbackParseError(data)
}

// FormatCallback encodes a typed command back into wire form for keyboards.
func FormatCallback(cmd CallbackCommand) string {
	switch cmd.Action {
	case ActionLinksPage:
		return fmt.Sprintf("%s:%d", tokenLinksPage, cmd.Page)
	case ActionDeleteLinkSelect:
		return tokenDeleteLink + ":" + cmd.FSObjectID
	case ActionDeleteLinkCancel:
		return tokenDeleteLinkCancel
	case ActionDeleteAccountYes:
		return tokenDeleteAccountYes
	case ActionDeleteAccountNo:
		return tokenDeleteAccountNo
	}
	return ""
}
