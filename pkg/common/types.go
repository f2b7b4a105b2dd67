package common

// MediaSource describes a media file to embed, as supplied by the build
// orchestrator. ID must be unique within one build; Name is the original
// filename kept for display; MimeType is advisory and caller-supplied.
type MediaSource struct {
	ID         string
	Name       string
	MimeType   string
	SourcePath string
}

// MediaEntry is one embedded asset's byte range inside the container. Offsets
// are absolute from the start of the host file. Entries are created once at
// embed time in declaration order and are immutable afterwards.
type MediaEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Offset   uint64 `json:"offset"`
	Size     uint64 `json:"size"`
}

// Manifest describes every byte range embedded in the container. It is pure
// metadata: it owns no bytes and only addresses ranges inside the host file.
//
// AppIconOffset/AppIconSize are reserved for forward compatibility. The
// writer never populates them; icon bytes are patched into the executable's
// native resource section by an external tool instead.
type Manifest struct {
	ProjectJSONOffset uint64       `json:"project_json_offset"`
	ProjectJSONSize   uint64       `json:"project_json_size"`
	Media             []MediaEntry `json:"media"`
	AppIconOffset     *uint64      `json:"app_icon_offset,omitempty"`
	AppIconSize       *uint64      `json:"app_icon_size,omitempty"`
}

// FindMedia returns the first entry with the given id. ids are expected to be
// unique within one build; the first match wins if a caller violated that.
func (m *Manifest) FindMedia(id string) *MediaEntry {
	for i := range m.Media {
		if m.Media[i].ID == id {
			return &m.Media[i]
		}
	}
	return nil
}
