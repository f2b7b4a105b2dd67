package builder

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// ResourceEditor patches an icon into an executable's native resource
// section. The icon never goes into the container trailer; it has to live in
// the resource table so the OS shell can display it.
type ResourceEditor interface {
	Apply(ctx context.Context, exePath string, iconPath string) error
}

// ExecResourceEditor shells out to an external resource-editing binary,
// invoked as: <binary> <exe> <icon>.
type ExecResourceEditor struct {
	Binary string
}

func (e *ExecResourceEditor) Apply(ctx context.Context, exePath string, iconPath string) error {
	cmd := exec.CommandContext(ctx, e.Binary, exePath, iconPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("resource editor failed: %v: %s", err, output)
	}
	log.Debug().Str("exe", exePath).Str("icon", iconPath).Msg("icon patched")
	return nil
}

// NopResourceEditor is used when no resource editor is configured.
type NopResourceEditor struct{}

func (e *NopResourceEditor) Apply(ctx context.Context, exePath string, iconPath string) error {
	log.Warn().Str("icon", iconPath).Msg("no resource editor configured, skipping icon patch")
	return nil
}
