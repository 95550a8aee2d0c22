package config

type Config struct {
	Profiles []Profile `json:"profiles"`
}

// Profile is one coaching profile from the JSON config file.
type Profile struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	WindowSeconds  int               `json:"window_seconds"`
	LanguageCode   string            `json:"language_code"`
	EnableFacial   bool              `json:"enable_facial"`
	SampleSeconds  float64           `json:"facial_sample_seconds"`
	InsightModel   string            `json:"insight_model"`
	ExtractModel   string            `json:"extraction_model"`
	SpeechContext  map[string]string `json:"speech_context"`
	InsightHistory int               `json:"insight_history"`
}
