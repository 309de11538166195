package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTargetLanguage(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"english targets urdu", LanguageEnglish, LanguageUrdu},
		{"urdu targets english", LanguageUrdu, LanguageEnglish},
		{"unknown targets english", "french", LanguageEnglish},
		{"empty targets english", "", LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveTargetLanguage(tt.source))
		})
	}
}

func TestSelectPipeline(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   PipelineKind
	}{
		{"urdu uses stm", LanguageUrdu, PipelineSTM},
		{"english uses mts", LanguageEnglish, PipelineMTS},
		{"unknown uses mts", "german", PipelineMTS},
		{"empty uses mts", "", PipelineMTS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SelectPipeline(tt.source))
		})
	}
}

// Both functions must agree on the fallback so an unrecognized language never
// produces an urdu-targeting mts request or vice versa.
func TestLanguageFallbackConsistency(t *testing.T) {
	for _, source := range []string{"", "spanish", "URDU", "English"} {
		require.Equal(t, LanguageEnglish, ResolveTargetLanguage(source), "source %q", source)
		require.Equal(t, PipelineMTS, SelectPipeline(source), "source %q", source)
	}
}
