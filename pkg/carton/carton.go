// Package carton is the public surface of the executable container library.
// It embeds a project description plus media assets into an already-built
// executable and reads them back at run time, supporting both trailer format
// generations.
package carton

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"github.com/playforge/carton/pkg/common"
	"github.com/playforge/carton/pkg/metrics"
	cartonv2 "github.com/playforge/carton/pkg/v2"
)

// SetLogLevel configures the logging verbosity for the carton library.
// Valid levels: "debug", "info", "warn", "error", "disabled"
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled", "none", "off":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return fmt.Errorf("invalid log level %q: must be one of: debug, info, warn, error, disabled", level)
	}
	return nil
}

// Format identifies which container generation (or fallback) a file resolved
// to. Resolution happens once per file in Open; call sites never re-check
// markers themselves.
type Format string

const (
	FormatV2    Format = "v2"
	FormatV1    Format = "v1"
	FormatLoose Format = "loose"
)

// OpenOptions tune how a container is opened.
type OpenOptions struct {
	// EnableAssetCache keeps decoded asset bytes in an in-process cache so a
	// player that re-requests the same media does not re-read the file.
	EnableAssetCache bool

	// AssetCacheMaxBytes bounds the cache cost. Zero means 64 MiB.
	AssetCacheMaxBytes int64

	// Metrics, when set, receives read-path counters for this container.
	Metrics *metrics.Metrics
}

const defaultAssetCacheMaxBytes = 64 << 20

// Container is a resolved, read-only view of one executable's embedded
// content. All addresses are immutable once written, so any number of
// containers may be open on the same file concurrently.
type Container struct {
	path     string
	format   Format
	manifest *common.Manifest

	// v1Payload holds the single opaque blob of a legacy container, read once
	// at open time.
	v1Payload []byte

	// loosePath is the sibling project file used in development mode.
	loosePath string

	index   *btree.BTreeG[*common.MediaEntry]
	cache   *ristretto.Cache[string, []byte]
	metrics *metrics.Metrics
}

// Open resolves the container format of the executable at path.
func Open(path string) (*Container, error) {
	return OpenWithOptions(path, OpenOptions{})
}

// OpenWithOptions resolves the container format of the executable at path,
// trying V2 first, then V1, then a loose sibling project file. Only a marker
// mismatch moves resolution to the next candidate; a matched-but-damaged
// trailer is surfaced immediately so a newer build is never misread through
// an older codec.
func OpenWithOptions(path string, opts OpenOptions) (*Container, error) {
	c, err := resolve(path)
	if err != nil {
		return nil, err
	}
	c.metrics = opts.Metrics

	if opts.EnableAssetCache && c.format == FormatV2 {
		maxCost := opts.AssetCacheMaxBytes
		if maxCost == 0 {
			maxCost = defaultAssetCacheMaxBytes
		}
		cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: 1e4,
			MaxCost:     maxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	log.Debug().Str("path", path).Str("format", string(c.format)).Msg("container opened")
	return c, nil
}

func newMediaIndex(manifest *common.Manifest) *btree.BTreeG[*common.MediaEntry] {
	index := btree.NewBTreeG(func(a, b *common.MediaEntry) bool {
		return a.ID < b.ID
	})
	for i := range manifest.Media {
		entry := &manifest.Media[i]
		// First entry wins if a caller ever violated id uniqueness.
		if _, ok := index.Get(entry); !ok {
			index.Set(entry)
		}
	}
	return index
}

// Format reports which generation the file resolved to.
func (c *Container) Format() Format {
	return c.format
}

// Manifest returns the container's manifest, or nil for V1 and loose-file
// containers which carry none.
func (c *Container) Manifest() *common.Manifest {
	return c.manifest
}

// Project returns the embedded project JSON.
func (c *Container) Project() (string, error) {
	if c.metrics != nil {
		c.metrics.RecordProjectRead()
	}
	switch c.format {
	case FormatV2:
		return cartonv2.ReadProjectJSON(c.path, c.manifest)
	case FormatV1:
		if !utf8.Valid(c.v1Payload) {
			return "", fmt.Errorf("legacy payload is not valid UTF-8: %w", common.ErrDecode)
		}
		return string(c.v1Payload), nil
	default:
		data, err := os.ReadFile(c.loosePath)
		if err != nil {
			return "", err
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("loose project file is not valid UTF-8: %w", common.ErrDecode)
		}
		return string(data), nil
	}
}

// Asset returns the bytes of the embedded media with the given id. A lookup
// miss reports common.ErrAssetNotFound and has no effect on later lookups.
func (c *Container) Asset(id string) ([]byte, error) {
	if c.format != FormatV2 {
		return nil, fmt.Errorf("%s container has no asset manifest: %w", c.format, common.ErrAssetNotFound)
	}

	if c.cache != nil {
		if data, found := c.cache.Get(id); found {
			log.Debug().Str("id", id).Msg("asset cache hit")
			if c.metrics != nil {
				c.metrics.RecordAssetRead(int64(len(data)), true)
			}
			return data, nil
		}
	}

	entry, ok := c.index.Get(&common.MediaEntry{ID: id})
	if !ok {
		return nil, fmt.Errorf("no media entry %q: %w", id, common.ErrAssetNotFound)
	}

	data, err := cartonv2.ReadAsset(c.path, c.manifest, entry.ID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(id, data, int64(len(data)))
	}
	if c.metrics != nil {
		c.metrics.RecordAssetRead(int64(len(data)), false)
	}
	return data, nil
}

// Assets lists the embedded media entries in embed order. V1 and loose-file
// containers have none.
func (c *Container) Assets() []common.MediaEntry {
	if c.manifest == nil {
		return nil
	}
	entries := make([]common.MediaEntry, len(c.manifest.Media))
	copy(entries, c.manifest.Media)
	return entries
}

// Close releases the asset cache, if any. The container itself holds no open
// file handles between operations.
func (c *Container) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Embed appends projectJSON and the given media files to the executable at
// exePath using the current container format. The caller must guarantee a
// single writer per output path; see builder.Build for the locked build
// sequence.
func Embed(exePath string, projectJSON string, media []common.MediaSource) error {
	manifest, err := cartonv2.Write(exePath, projectJSON, media)
	if err != nil {
		return err
	}

	if len(manifest.Media) < len(media) {
		log.Warn().
			Int("requested", len(media)).
			Int("embedded", len(manifest.Media)).
			Msg("some media sources were missing and were skipped")
	}
	log.Info().Str("path", exePath).Int("media", len(manifest.Media)).Msg("content embedded")
	return nil
}

// LoadProject resolves the container at exePath and returns its project JSON.
func LoadProject(exePath string) (string, error) {
	c, err := Open(exePath)
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.Project()
}

// LoadAsset resolves the container at exePath and returns the media with the
// given id.
func LoadAsset(exePath string, id string) ([]byte, error) {
	c, err := Open(exePath)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Asset(id)
}

// ListAssets resolves the container at exePath and lists its media entries.
func ListAssets(exePath string) ([]common.MediaEntry, error) {
	c, err := Open(exePath)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Assets(), nil
}

// SelfPath resolves the running process's own executable, the file a deployed
// player reads its content from. It is a convenience only: every operation
// takes an explicit path so the library stays testable against arbitrary
// files.
func SelfPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
