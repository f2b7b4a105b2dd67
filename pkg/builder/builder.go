// Package builder orchestrates a full content build: resolve a player
// template executable, copy it to the output path, patch its icon through an
// external resource editor, and embed the project JSON plus media through the
// container library. The container format itself lives in pkg/v1, pkg/v2 and
// pkg/carton; everything here is glue around external collaborators.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/playforge/carton/pkg/carton"
	"github.com/playforge/carton/pkg/common"
)

// Stage identifies a step of the build sequence, reported on the progress
// channel for UI consumption.
type Stage string

const (
	StagePrepare Stage = "prepare"
	StageCopy    Stage = "copy"
	StageIcon    Stage = "icon"
	StageEmbed   Stage = "embed"
	StageDone    Stage = "done"
)

type Progress struct {
	Stage   Stage
	Message string
}

type BuildOptions struct {
	ProjectJSON string
	Media       []common.MediaSource

	// OutputPath is the executable to produce. Required.
	OutputPath string

	// TemplatePath overrides the configured template executable.
	TemplatePath string

	// IconPath, when set, is patched into the output through the configured
	// resource editor before the content is embedded.
	IconPath string

	// LooseProject writes project.json next to the output instead of
	// embedding a trailer. Development-mode affordance; the run-time
	// dispatcher picks the loose file up as its last fallback.
	LooseProject bool

	ProgressChan chan<- Progress
}

type Builder struct {
	cfg    Config
	editor ResourceEditor
}

func NewBuilder(cfg Config) *Builder {
	var editor ResourceEditor = &NopResourceEditor{}
	if cfg.ResourceEditor != "" {
		editor = &ExecResourceEditor{Binary: cfg.ResourceEditor}
	}
	return &Builder{cfg: cfg, editor: editor}
}

// Build runs one full build pass and returns the output path. The whole
// sequence holds a file lock on <output>.lock: the container write is
// single-writer by contract and two builds racing to the same output path
// would interleave their trailers.
func (b *Builder) Build(ctx context.Context, opts BuildOptions) (string, error) {
	if opts.OutputPath == "" {
		return "", fmt.Errorf("output path is required")
	}

	buildID := uuid.New().String()[:8]
	log.Info().Str("build_id", buildID).Str("output", opts.OutputPath).Msg("starting build")

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
		return "", err
	}

	lockPath := opts.OutputPath + ".lock"
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLock()
	if err != nil {
		return "", fmt.Errorf("unable to acquire build lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("another build is already writing %s", opts.OutputPath)
	}
	defer func() {
		fileLock.Unlock()
		os.Remove(lockPath)
	}()

	emit(opts.ProgressChan, StagePrepare, "resolving player template")
	template, err := b.resolveTemplate(opts.TemplatePath)
	if err != nil {
		return "", err
	}

	emit(opts.ProgressChan, StageCopy, "copying player template")
	if err := copyFile(template, opts.OutputPath); err != nil {
		return "", fmt.Errorf("unable to copy template: %w", err)
	}

	if opts.IconPath != "" {
		emit(opts.ProgressChan, StageIcon, "patching application icon")
		if err := b.editor.Apply(ctx, opts.OutputPath, opts.IconPath); err != nil {
			return "", fmt.Errorf("unable to patch icon: %w", err)
		}
	}

	emit(opts.ProgressChan, StageEmbed, "embedding project content")
	if opts.LooseProject {
		loosePath := filepath.Join(filepath.Dir(opts.OutputPath), common.LooseProjectFileName)
		if err := os.WriteFile(loosePath, []byte(opts.ProjectJSON), 0644); err != nil {
			return "", err
		}
		log.Info().Str("path", loosePath).Msg("wrote loose project file")
	} else {
		if err := carton.Embed(opts.OutputPath, opts.ProjectJSON, opts.Media); err != nil {
			return "", err
		}
	}

	emit(opts.ProgressChan, StageDone, "build complete")
	log.Info().Str("build_id", buildID).Str("output", opts.OutputPath).Msg("build finished")
	return opts.OutputPath, nil
}

// resolveTemplate picks the player template executable: an explicit override
// first, then the bundled default under the configured template directory.
func (b *Builder) resolveTemplate(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("template %s: %w", override, err)
		}
		return override, nil
	}

	name := "player"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	bundled := filepath.Join(b.cfg.TemplateDir, name)
	if _, err := os.Stat(bundled); err != nil {
		return "", fmt.Errorf("no player template found at %s: %w", bundled, err)
	}
	return bundled, nil
}

func emit(ch chan<- Progress, stage Stage, message string) {
	log.Debug().Str("stage", string(stage)).Msg(message)
	if ch != nil {
		ch <- Progress{Stage: stage, Message: message}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
