// Package installer runs the post-run install command over downloaded
// artifacts, e.g. `sudo apt-get install -y` followed by the .deb paths.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/zjrosen/haul/internal/executor"
	"github.com/zjrosen/haul/internal/log"
)

// ErrNoCommand is returned when the install command is empty.
var ErrNoCommand = errors.New("install command is empty")

// Installer runs one command with every installable artifact path appended.
type Installer struct {
	Command []string
	Env     []string // added to the current environment
	Stdout  io.Writer
	Stderr  io.Writer
}

// New parses a whitespace-separated command line.
func New(command string, stdout, stderr io.Writer) (*Installer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	return &Installer{Command: fields, Stdout: stdout, Stderr: stderr}, nil
}

// Installable filters artifacts down to those the command should receive.
func Installable(artifacts []executor.Artifact) []string {
	var paths []string
	for _, a := range artifacts {
		if a.Installable {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// Install runs the command. It reports false without running anything when
// no artifact is installable.
func (i *Installer) Install(ctx context.Context, artifacts []executor.Artifact) (bool, error) {
	paths := Installable(artifacts)
	if len(paths) == 0 {
		log.Info(log.CatInstall, "Nothing to install", "artifacts", len(artifacts))
		return false, nil
	}

	args := append(append([]string{}, i.Command[1:]...), paths...)
	cmd := exec.CommandContext(ctx, i.Command[0], args...)
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr
	if len(i.Env) > 0 {
		cmd.Env = append(os.Environ(), i.Env...)
	}

	log.Info(log.CatInstall, "Running install command", "command", i.Command[0], "packages", len(paths))
	if err := cmd.Run(); err != nil {
		log.ErrorErr(log.CatInstall, "Install command failed", err, "command", i.Command[0])
		return true, fmt.Errorf("running %s: %w", strings.Join(i.Command, " "), err)
	}
	return true, nil
}
