package transcribe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"operators-vault-go/internal/types"
)

func TestFormatTimestamped(t *testing.T) {
	utts := []types.Segment{
		{Start: 0, End: 4.5, Text: "welcome back", SpeakerLabel: "0"},
		{Start: 3725.2, End: 3730, Text: "one more thing", SpeakerLabel: "1"},
		{Start: 10, End: 12, Text: "   "},
	}
	got := FormatTimestamped(utts)
	require.Equal(t, "00:00:00 0: welcome back\n01:02:05 1: one more thing", got)
}

func TestFormatTimestampedEmpty(t *testing.T) {
	require.Empty(t, FormatTimestamped(nil))
}

func TestSpeakerLabel(t *testing.T) {
	require.Equal(t, "2", speakerLabel(json.RawMessage(`2`)))
	require.Equal(t, "host", speakerLabel(json.RawMessage(`"host"`)))
	require.Empty(t, speakerLabel(json.RawMessage(`null`)))
	require.Empty(t, speakerLabel(nil))
}

func TestResponseParsingSkipsUnboundedUtterances(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":"hello world"}]}],
		"utterances":[{"start":1.0,"end":2.0,"transcript":"hello","speaker":0},
		{"transcript":"no bounds"}]}}`
	var parsed response
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	require.Len(t, parsed.Results.Utterances, 2)
	require.Nil(t, parsed.Results.Utterances[1].Start)
	require.NotNil(t, parsed.Results.Utterances[0].End)
}
