// Package config provides configuration management for metastrip.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Conversion to the option structs of other packages
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// .mp3 → frame, .m4a/.mp4 → atom
//	// trailing ID3v1 tags are stripped
//	// modification times are preserved
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// An "extensions" object in the file replaces the whole default table:
//
//	{
//	  "extensions": {".mp3": "frame", ".m4b": "atom"},
//	  "backup_suffix": ".orig",
//	  "save_cover_art": true
//	}
//
// # Saving Settings
//
//	settings.DryRun = true
//	err := settings.Save("/path/to/settings.json")
package config
