package collectors

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// fieldSep and recordSep delimit the git log output format.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// CommandRunner runs a command in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Git reads recent commits from a local repository.
type Git struct {
	dir   string
	limit int
	run   CommandRunner
}

// NewGit constructs a git collector for dir. A non-positive limit defaults to 20.
func NewGit(dir string, limit int) *Git {
	if limit <= 0 {
		limit = 20
	}
	return &Git{dir: dir, limit: limit, run: execRunner}
}

// Name implements Source.
func (g *Git) Name() string { return "git" }

// Collect returns the most recent commits, newest first.
func (g *Git) Collect(ctx context.Context, _ string, _ models.AnalyzeOptions) (models.TelemetryBundle, error) {
	format := "--pretty=format:%H" + fieldSep + "%an" + fieldSep + "%aI" + fieldSep + "%B" + recordSep
	out, err := g.run(ctx, g.dir, "git", "log", "-n", strconv.Itoa(g.limit), format)
	if err != nil {
		return models.TelemetryBundle{}, fmt.Errorf("git log: %w", err)
	}
	commits, err := ParseGitLog(out)
	if err != nil {
		return models.TelemetryBundle{}, err
	}
	return models.TelemetryBundle{Commits: commits}, nil
}

// ParseGitLog decodes output produced with the collector's log format.
func ParseGitLog(out []byte) ([]models.Commit, error) {
	commits := make([]models.Commit, 0)
	for _, record := range strings.Split(string(out), recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("parse git log: malformed record %q", record)
		}
		date, err := utils.ParseRFC3339(fields[2])
		if err != nil {
			return nil, fmt.Errorf("parse git log: %w", err)
		}
		commits = append(commits, models.Commit{
			SHA:     fields[0],
			Author:  fields[1],
			Date:    date,
			Message: strings.TrimSpace(fields[3]),
		})
	}
	return commits, nil
}
