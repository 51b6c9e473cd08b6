// File: internal/llmutil/parser_test.go
package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"list": "ul"}`,
			want:     `{"list": "ul"}`,
		},
		{
			name:     "prose wrapped",
			response: `Sure! Here are the bindings you asked for: {"list": "ul"} Hope that helps.`,
			want:     `{"list": "ul"}`,
		},
		{
			name: "markdown fence",
			response: "```json\n" + `{"list": "ul"}` + "\n```",
			want: `{"list": "ul"}`,
		},
		{
			name:     "braces inside strings",
			response: `{"pattern": "/jobs/{id}", "note": "brace } in string"}`,
			want:     `{"pattern": "/jobs/{id}", "note": "brace } in string"}`,
		},
		{
			name:     "nested objects",
			response: `{"states": {"listLoaded": {"kind": "element_exists"}}}`,
			want:     `{"states": {"listLoaded": {"kind": "element_exists"}}}`,
		},
		{
			name:     "escaped quotes",
			response: `{"text": "say \"hi\" {ok}"}`,
			want:     `{"text": "say \"hi\" {ok}"}`,
		},
		{
			name:     "no object",
			response: `I could not find any bindings on this page.`,
			wantErr:  true,
		},
		{
			name:     "unbalanced",
			response: `{"list": "ul"`,
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.response)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeObject(t *testing.T) {
	type patch struct {
		ListItem string `json:"listItem"`
	}

	t.Run("strict JSON", func(t *testing.T) {
		got, err := DecodeObject[patch](`{"listItem": "li.card"}`)
		require.NoError(t, err)
		assert.Equal(t, "li.card", got.ListItem)
	})

	t.Run("repairs sloppy JSON", func(t *testing.T) {
		// Trailing comma plus single quotes, both common model output.
		got, err := DecodeObject[patch](`{'listItem': 'li.card',}`)
		require.NoError(t, err)
		assert.Equal(t, "li.card", got.ListItem)
	})

	t.Run("propagates extraction failure", func(t *testing.T) {
		_, err := DecodeObject[patch](`no json here`)
		require.Error(t, err)
	})
}
