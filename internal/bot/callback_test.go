package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/filedrop-bot/pkg/util"
)

func TestParseCallbackRoundTrip(t *testing.T) {
	commands := []CallbackCommand{
		{Action: ActionLinksPage, Page: 3},
		{Action: ActionDeleteLinkSelect, FSObjectID: "obj-9"},
		{Action: ActionDeleteLinkCancel},
		{Action: ActionDeleteAccountYes},
		{Action: ActionDeleteAccountNo},
	}
	for _, cmd := range commands {
		parsed, err := ParseCallback(FormatCallback(cmd))
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
	}
}

func TestParseCallbackInvalidPage(t *testing.T) {
	for _, data := range []string{"links:abc", "links:0", "links:-2", "links:"} {
		_, err := ParseCallback(data)
		require.Error(t, err, data)
		assert.True(t, util.IsClass(err, util.ClassPolicy), data)
		assert.Equal(t, "invalid page", util.Classify(err).Message)
	}
}

func TestParseCallbackUnknownToken(t *testing.T) {
	for _, data := range []string{"", "bogus", "bogus:1", "dl:"} {
		_, err := ParseCallback(data)
		require.Error(t, err, data)
		assert.True(t, util.IsClass(err, util.ClassCallback), data)
	}
}
