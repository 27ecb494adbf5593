package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/metastrip/internal/io"
	"github.com/handiism/metastrip/internal/model"
)

// Settings holds all configuration options.
type Settings struct {
	// Matching
	Extensions      map[string]string `json:"extensions"` // extension → "frame" | "atom"
	VerifySignature bool              `json:"verify_signature"`

	// Stripping
	StripTrailingTags bool   `json:"strip_trailing_tags"`
	DryRun            bool   `json:"dry_run"`
	BackupSuffix      string `json:"backup_suffix"`
	PreserveModTime   bool   `json:"preserve_mod_time"`

	// Cover art settings
	SaveCoverArt           bool   `json:"save_cover_art"`
	CoverArtFileNameFormat string `json:"cover_art_file_name_format"`
	CoverArtMaxSize        int    `json:"cover_art_max_size"`
	ConvertCoverArtToJPG   bool   `json:"convert_cover_art_to_jpg"`

	// Logging
	Verbose bool   `json:"verbose"`
	LogFile string `json:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Extensions: map[string]string{
			".mp3": "frame",
			".m4a": "atom",
			".mp4": "atom",
		},
		VerifySignature: false,

		StripTrailingTags: true,
		DryRun:            false,
		BackupSuffix:      "",
		PreserveModTime:   true,

		SaveCoverArt:           false,
		CoverArtFileNameFormat: "{name}.cover",
		CoverArtMaxSize:        0,
		ConvertCoverArtToJPG:   false,
	}
}

// DefaultPath returns the settings file location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "metastrip.json"
	}
	return filepath.Join(dir, "metastrip", "settings.json")
}

// Load reads settings from a JSON file.
//
// A missing file yields DefaultSettings. Fields absent from the file keep
// their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	// An "extensions" object in the file replaces the default table.
	settings.Extensions = nil
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if settings.Extensions == nil {
		settings.Extensions = DefaultSettings().Extensions
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks values that cannot be fixed up silently.
func (s *Settings) Validate() error {
	if _, err := s.ContainerKinds(); err != nil {
		return err
	}
	if s.CoverArtMaxSize < 0 {
		return fmt.Errorf("cover_art_max_size must not be negative, got %d", s.CoverArtMaxSize)
	}
	return nil
}

// ContainerKinds converts the extension table for audio.NewSniffer.
func (s *Settings) ContainerKinds() (map[string]model.ContainerKind, error) {
	kinds := make(map[string]model.ContainerKind, len(s.Extensions))
	for ext, name := range s.Extensions {
		kind, err := model.ParseContainerKind(name)
		if err != nil {
			return nil, fmt.Errorf("extensions[%q]: %w", ext, err)
		}
		kinds[ext] = kind
	}
	return kinds, nil
}

// ToRewriteOptions converts settings to RewriteOptions.
func (s *Settings) ToRewriteOptions() ioutils.RewriteOptions {
	return ioutils.RewriteOptions{
		BackupSuffix:    s.BackupSuffix,
		PreserveModTime: s.PreserveModTime,
	}
}

// ToCoverOptions converts settings to CoverOptions.
func (s *Settings) ToCoverOptions() ioutils.CoverOptions {
	return ioutils.CoverOptions{
		FileNameFormat: s.CoverArtFileNameFormat,
		MaxSize:        s.CoverArtMaxSize,
		ConvertToJPG:   s.ConvertCoverArtToJPG,
	}
}
