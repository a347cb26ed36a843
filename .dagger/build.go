package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/rolechat/internal/dagger"
)

// Build and return directory of go binaries.
//
// go-sqlite3 requires cgo, so the matrix covers the linux targets we have
// cross toolchains for.
func (r *Rolechat) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// define build matrix
	targets := []struct {
		goos   string
		goarch string
		cc     string
	}{
		{"linux", "amd64", "gcc"},
		{"linux", "arm64", "aarch64-linux-gnu-gcc"},
	}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := r.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-aarch64-linux-gnu"})

	for _, target := range targets {
		// create directory for each OS and architecture
		path := fmt.Sprintf("%s/%s/", target.goos, target.goarch)

		// build artifact
		build := golang.
			WithEnvVariable("GOOS", target.goos).
			WithEnvVariable("GOARCH", target.goarch).
			WithEnvVariable("CC", target.cc).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/rolechat"})

		// add build to outputs
		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (r *Rolechat) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/canopyhq/rolechat/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/canopyhq/rolechat/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/canopyhq/rolechat/pkg/utils.Buildtime=%s'", buildtime),
	}

	return r.Build(ctx, strings.Join(ldflags, " "))
}
