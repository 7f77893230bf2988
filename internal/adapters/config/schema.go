package config

// Meisterfile represents the structure of the meister.yaml configuration file.
type Meisterfile struct {
	Version        string           `yaml:"version"`
	Task           string           `yaml:"task"`
	Source         string           `yaml:"source"`
	Destination    string           `yaml:"destination"`
	Styles         AssetsDTO        `yaml:"styles"`
	Scripts        AssetsDTO        `yaml:"scripts"`
	Bundler        map[string]any   `yaml:"bundler"`
	PostProcessor  map[string]any   `yaml:"postprocessor"`
	Minifier       map[string]any   `yaml:"minifier"`
	Preprocessor   *PreprocessorDTO `yaml:"preprocessor"`
	DevServer      DevServerDTO     `yaml:"devServer"`
	Flags          FlagsDTO         `yaml:"flags"`
	Hash           string           `yaml:"hash"`
	Errors         string           `yaml:"errors"`
	SourcemapStyle string           `yaml:"sourcemapStyle"`
}

// AssetsDTO describes the entries of one asset kind and their output subdirectory.
type AssetsDTO struct {
	Dir     string     `yaml:"dir"`
	Entries []EntryDTO `yaml:"entries"`
}

// EntryDTO is a single entry. Path may be a glob, in which case Name is ignored.
type EntryDTO struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

// PreprocessorDTO configures the external style preprocessor. An empty command disables it.
type PreprocessorDTO struct {
	Command    []string `yaml:"command"`
	Extensions []string `yaml:"extensions"`
}

// DevServerDTO configures the live-reload server.
type DevServerDTO struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Root string `yaml:"root"`
}

// FlagsDTO holds the feature toggles.
type FlagsDTO struct {
	Minify     bool `yaml:"minify"`
	Sourcemaps bool `yaml:"sourcemaps"`
	Watch      bool `yaml:"watch"`
	Manifest   bool `yaml:"manifest"`
	LiveReload bool `yaml:"liveReload"`
}
