package chat

// Exactly two languages are supported. DefaultLanguage doubles as the
// deterministic fallback target for unrecognized input.
const (
	LanguageEnglish = "english"
	LanguageUrdu    = "urdu"

	DefaultLanguage = LanguageEnglish
)

// PipelineKind names the external translation workflow for a message.
type PipelineKind string

const (
	// PipelineSTM: speech-to-text-then-translate, for urdu source audio.
	PipelineSTM PipelineKind = "stm"
	// PipelineMTS: machine-translate-to-speech, for everything else.
	PipelineMTS PipelineKind = "mts"
)

// ResolveTargetLanguage maps a source language to the single other supported
// language. Unrecognized input targets english.
func ResolveTargetLanguage(sourceLanguage string) string {
	if sourceLanguage == LanguageEnglish {
		return LanguageUrdu
	}
	return LanguageEnglish
}

// SelectPipeline picks the translation workflow purely from source language.
// Total function: an unrecognized source still yields mts, consistent with
// ResolveTargetLanguage's default.
func SelectPipeline(sourceLanguage string) PipelineKind {
	if sourceLanguage == LanguageUrdu {
		return PipelineSTM
	}
	return PipelineMTS
}
