package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ReadVoiceProfile reads a voice profile from a YAML file.
func ReadVoiceProfile(path string) (*Voice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var v Voice
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

// WriteVoiceProfile writes a voice profile to a YAML file.
func WriteVoiceProfile(v *Voice, path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
