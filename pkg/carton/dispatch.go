package carton

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playforge/carton/pkg/common"
	cartonv1 "github.com/playforge/carton/pkg/v1"
	cartonv2 "github.com/playforge/carton/pkg/v2"
)

// resolve runs the fixed-order format dispatch: V2, then V1, then a loose
// sibling project file. Only common.ErrFormatNotFound moves resolution to the
// next state. Any other error -- including common.ErrCorruptFormat, which
// means the container exists but is damaged -- aborts immediately so a newer
// build is never misdiagnosed through an older codec.
func resolve(path string) (*Container, error) {
	manifest, err := cartonv2.ReadManifest(path)
	if err == nil {
		return &Container{
			path:     path,
			format:   FormatV2,
			manifest: manifest,
			index:    newMediaIndex(manifest),
		}, nil
	}
	if !errors.Is(err, common.ErrFormatNotFound) {
		return nil, err
	}

	payload, err := cartonv1.Read(path)
	if err == nil {
		return &Container{
			path:      path,
			format:    FormatV1,
			v1Payload: payload,
		}, nil
	}
	if !errors.Is(err, common.ErrFormatNotFound) {
		return nil, err
	}

	loosePath := filepath.Join(filepath.Dir(path), common.LooseProjectFileName)
	if _, err := os.Stat(loosePath); err == nil {
		return &Container{
			path:      path,
			format:    FormatLoose,
			loosePath: loosePath,
		}, nil
	}

	return nil, fmt.Errorf("%s matches no container format: %w", path, common.ErrNoProjectData)
}
