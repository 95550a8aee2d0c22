package config_test

import (
	"testing"

	"github.com/voxelapi/goVoxelCoach/foundation/config"
)

const configPath = "testdata/config.json"

func TestGetProfile(t *testing.T) {
	t.Run("profile exists", func(t *testing.T) {
		t.Parallel()
		profile, err := config.GetProfile(configPath, "1")
		if err != nil {
			t.Fatal(err)
		}
		if profile.Name != "retail-floor" {
			t.Errorf("name = %q, want retail-floor", profile.Name)
		}
		if !profile.EnableFacial {
			t.Error("enable_facial not parsed")
		}
		if got := len(config.GetSpeechContext(profile)); got != 3 {
			t.Errorf("speech context hints = %d, want 3", got)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		t.Parallel()
		profile, err := config.GetProfile(configPath, "2")
		if err != nil {
			t.Fatal(err)
		}
		if profile.WindowSeconds != 10 {
			t.Errorf("window seconds default = %d, want 10", profile.WindowSeconds)
		}
		if profile.LanguageCode != "en-US" {
			t.Errorf("language default = %q, want en-US", profile.LanguageCode)
		}
		if profile.EnableFacial {
			t.Error("enable_facial should stay false")
		}
	})

	t.Run("profile does not exist", func(t *testing.T) {
		t.Parallel()
		if _, err := config.GetProfile(configPath, "0"); err == nil {
			t.Fatal("expected error")
		}
	})
}
