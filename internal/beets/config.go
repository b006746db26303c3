package beets

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"slsk-audio-pipeline/internal/runstore"
)

const configFileName = "beets_config.yaml"

type pathsConfig struct {
	Default   string `yaml:"default"`
	Singleton string `yaml:"singleton"`
	Comp      string `yaml:"comp"`
}

type fetchartConfig struct {
	Auto bool `yaml:"auto"`
}

type convertConfig struct {
	Auto      bool   `yaml:"auto"`
	Command   string `yaml:"command"`
	Extension string `yaml:"extension"`
}

type checkConfig struct {
	Import bool `yaml:"import"`
}

type config struct {
	Directory string         `yaml:"directory"`
	Library   string         `yaml:"library"`
	Plugins   string         `yaml:"plugins"`
	Paths     pathsConfig    `yaml:"paths"`
	Fetchart  fetchartConfig `yaml:"fetchart"`
	Convert   convertConfig  `yaml:"convert"`
	Check     checkConfig    `yaml:"check"`
}

// WriteConfig materializes the beets configuration for one enrichment run:
// fetchart for cover art, convert routed through the loudness transform, and
// integrity checks on import. Singletons are filed as "Title - Artist".
// The config file and library db land in configDir, never inside the library
// directory itself.
func WriteConfig(configDir, libraryDir string) (string, error) {
	cfg := config{
		Directory: libraryDir,
		Library:   filepath.Join(configDir, "library.db"),
		Plugins:   "fetchart convert check",
		Paths: pathsConfig{
			Default:   "%asciify{$artist}/%asciify{$album}/%if{$multidisc,Disc $disc/}$track - %asciify{$title}",
			Singleton: "%asciify{$title} - %asciify{$artist}",
			Comp:      "Compilations/%asciify{$album}/%if{$multidisc,Disc $disc/}$track - %asciify{$title}",
		},
		Fetchart: fetchartConfig{Auto: true},
		Convert: convertConfig{
			Auto:      true,
			Command:   "normalize $source $dest",
			Extension: "mp3",
		},
		Check: checkConfig{Import: true},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal beets config: %w", err)
	}

	path := filepath.Join(configDir, configFileName)
	if err := runstore.WriteBytes(path, data); err != nil {
		return "", err
	}
	return path, nil
}
