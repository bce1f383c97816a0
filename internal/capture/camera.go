//go:build !gocv

package capture

import (
	"context"
	"strconv"

	apperrors "github.com/GriffinCanCode/swatchqc/internal/errors"
)

func openCamera(_ context.Context, device int) (Source, error) {
	return nil, apperrors.New(apperrors.CodeSourceUnsupported, "camera capture requires a build with -tags gocv").
		WithMetadata("device", strconv.Itoa(device))
}

func openStream(_ context.Context, url string) (Source, error) {
	return nil, apperrors.New(apperrors.CodeSourceUnsupported, "stream capture requires a build with -tags gocv").
		WithMetadata("url", url)
}
