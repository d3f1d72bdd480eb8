package bot

import (
	"fmt"
	"strings"

	"github.com/spec-kit/filedrop-bot/internal/domain"
	"github.com/spec-kit/filedrop-bot/internal/telegram"
)

// HumanSize renders a byte count for display: plain bytes below 1 KiB, one
// decimal place above.
func HumanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// WelcomeText greets a caller after registration.
func WelcomeText(firstName string, isNew bool) string {
	name := firstName
	if name == "" {
		name = "there"
	}
	if isNew {
		return fmt.Sprintf("Welcome, %s! Send me any file up to 20 MB and I'll give you a shareable link.", name)
	}
	return fmt.Sprintf("Welcome back, %s! Send me a file to get a shareable link.", name)
}

// HelpText lists the available commands.
func HelpText() string {
	return strings.Join([]string{
		"Send me a document, photo, video, audio or voice message and I'll upload it and reply with a shareable link.",
		"",
		"/start - register and say hello",
		"/status - your account and file count",
		"/links - your shareable links with view counts",
		"/deletelink - remove one of your links",
		"/deleteaccount - delete your account and all files",
		"/help - this message",
	}, "\n")
}

// StatusText summarizes an account.
func StatusText(files []domain.FileRecord) string {
	if len(files) == 0 {
		return "Your account is active. You have no stored files yet."
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return fmt.Sprintf("Your account is active. Stored files: %d (%s total).", len(files), HumanSize(total))
}

// UploadReceivedText is the provisional status message edited in place once
// the transaction finishes.
func UploadReceivedText(filename string) string {
	return fmt.Sprintf("Receiving %s...", filename)
}

// UploadDoneText renders the final outcome of a successful upload.
func UploadDoneText(filename string, size int64, link string) string {
	return fmt.Sprintf("Done! %s (%s)\n%s", filename, HumanSize(size), link)
}

// LinksPageText renders one page of share links with view counts.
func LinksPageText(links []domain.FileRecord, p domain.Pagination) string {
	if p.Total == 0 {
		return "You have no shareable links yet. Send me a file to create one."
	}
	if len(links) == 0 {
		return fmt.Sprintf("No links on page %d of %d.", p.Page, p.TotalPages)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your links (page %d of %d):\n", p.Page, p.TotalPages)
	offset := (p.Page - 1) * p.Limit
	for i, link := range links {
		fmt.Fprintf(&b, "\n%d. %s (%s, %d views)\n%s\n",
			offset+i+1, link.Filename, HumanSize(link.Size), link.ViewCount, link.ShareableLink)
	}
	return b.String()
}

// LinksKeyboard describes prev/next navigation for a links page. Returns nil
// when there is only one page.
func LinksKeyboard(p domain.Pagination) *telegram.InlineKeyboardMarkup {
	var row []telegram.InlineKeyboardButton
	if p.HasPrev() {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         "« Prev",
			CallbackData: FormatCallback(CallbackCommand{Action: ActionLinksPage, Page: p.Page - 1}),
		})
	}
	if p.HasNext() {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         "Next »",
			CallbackData: FormatCallback(CallbackCommand{Action: ActionLinksPage, Page: p.Page + 1}),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{row}}
}

// DeleteLinkKeyboard binds each candidate file to its object reference, plus
// a cancel row.
func DeleteLinkKeyboard(links []domain.FileRecord) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(links)+1)
	for _, link := range links {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s (%s)", link.Filename, HumanSize(link.Size)),
			CallbackData: FormatCallback(CallbackCommand{Action: ActionDeleteLinkSelect, FSObjectID: link.FSObjectID}),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{
		Text:         "Cancel",
		CallbackData: FormatCallback(CallbackCommand{Action: ActionDeleteLinkCancel}),
	}})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// DeleteAccountKeyboard is the two-button confirmation choice.
func DeleteAccountKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{
			Text:         "Yes, delete everything",
			CallbackData: FormatCallback(CallbackCommand{Action: ActionDeleteAccountYes}),
		},
		{
			Text:         "Cancel",
			CallbackData: FormatCallback(CallbackCommand{Action: ActionDeleteAccountNo}),
		},
	}}}
}

// ContactKeyboard asks the caller to share their own contact card.
func ContactKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{{
			{Text: "Share my phone number", RequestContact: true},
		}},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// BotCommands is the command menu registered with the provider at startup.
func BotCommands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Register and say hello"},
		{Command: "status", Description: "Account and file count"},
		{Command: "links", Description: "Your shareable links"},
		{Command: "deletelink", Description: "Remove one of your links"},
		{Command: "deleteaccount", Description: "Delete account and all files"},
		{Command: "help", Description: "How to use this bot"},
	}
}
