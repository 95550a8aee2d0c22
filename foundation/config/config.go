package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// GetProfile loads the coaching config file and returns the profile with
// the given id.
func GetProfile(configPath string, profileID string) (Profile, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return Profile{}, err
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Profile{}, err
	}

	var config Config
	if err := json.Unmarshal(bytes, &config); err != nil {
		return Profile{}, err
	}

	profile, exists := profileExists(config.Profiles, profileID)
	if !exists {
		return Profile{}, fmt.Errorf("profile[%s] does not exist", profileID)
	}

	return applyDefaults(profile), nil
}

// GetSpeechContext flattens the profile's speech-context hints for the
// speech-to-text collaborator.
func GetSpeechContext(p Profile) []string {
	hints := make([]string, 0, len(p.SpeechContext))
	for _, v := range p.SpeechContext {
		hints = append(hints, v)
	}
	return hints
}

func applyDefaults(p Profile) Profile {
	if p.WindowSeconds <= 0 {
		p.WindowSeconds = 10
	}
	if p.SampleSeconds <= 0 {
		p.SampleSeconds = 1.0
	}
	if p.LanguageCode == "" {
		p.LanguageCode = "en-US"
	}
	if p.InsightModel == "" {
		p.InsightModel = "gemini-2.5-flash"
	}
	if p.ExtractModel == "" {
		p.ExtractModel = "gemini-2.5-flash"
	}
	if p.InsightHistory <= 0 {
		p.InsightHistory = 50
	}
	return p
}

func profileExists(profiles []Profile, profileID string) (Profile, bool) {
	for _, p := range profiles {
		if p.ID == profileID {
			return p, true
		}
	}
	return Profile{}, false
}
