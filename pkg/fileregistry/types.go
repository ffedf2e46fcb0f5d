package fileregistry

import "time"

// FormatVersion is written to every persisted registry.
const FormatVersion = "1.0.0"

// FileEntry records one installed file.
type FileEntry struct {
	Pack         string    `json:"pack"`
	OriginalPath string    `json:"originalPath"`
	Checksum     string    `json:"checksum"`
	InstalledAt  time.Time `json:"installedAt"`
	Modified     bool      `json:"modified"`
}

// PackEntry records one installed pack and the files it owns.
type PackEntry struct {
	Version     string    `json:"version"`
	InstalledAt time.Time `json:"installedAt"`
	Files       []string  `json:"files"`
}

// Data is the persisted registry document.
type Data struct {
	Version string                `json:"version"`
	Files   map[string]*FileEntry `json:"files"`
	Packs   map[string]*PackEntry `json:"packs"`
}

// NewData returns an empty registry document.
func NewData() *Data {
	return &Data{
		Version: FormatVersion,
		Files:   make(map[string]*FileEntry),
		Packs:   make(map[string]*PackEntry),
	}
}

func (d *Data) normalize() *Data {
	if d.Version == "" {
		d.Version = FormatVersion
	}
	if d.Files == nil {
		d.Files = make(map[string]*FileEntry)
	}
	if d.Packs == nil {
		d.Packs = make(map[string]*PackEntry)
	}
	for name, p := range d.Packs {
		if p == nil {
			d.Packs[name] = &PackEntry{Files: []string{}}
		} else if p.Files == nil {
			p.Files = []string{}
		}
	}
	for path, f := range d.Files {
		if f == nil {
			delete(d.Files, path)
		}
	}
	return d
}

// Conflict is a path another pack already owns.
type Conflict struct {
	Path         string
	ExistingPack string
}

// Stats summarises the registry.
type Stats struct {
	TotalFiles    int
	TotalPacks    int
	ModifiedFiles int
}
