package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/limaJavier/ilpenum/pkg/logging"
)

var ErrWorkspaceExists = errors.New("workspace directory already exists")

const (
	BaseModelName   = "base.lp"
	ResultsName     = "results.txt"
	autoPrefix      = "results_"
	maxAutoDirs     = 999
	runDigits       = 3
	directoryAccess = 0755
)

// Workspace is the directory tree one enumeration session writes to: the base model copy, the
// results file and one numbered directory per run. Runs are never reused nor deleted.
type Workspace struct {
	root   string
	logger logging.Logger
}

// Create makes the workspace at root. An existing root is an error unless force is set, in which
// case it is wiped first.
func Create(root string, force bool, logger logging.Logger) (*Workspace, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve workspace %q", root)
	}

	if _, err := os.Stat(root); err == nil {
		if !force {
			return nil, errors.Wrapf(ErrWorkspaceExists, "%v: delete or move it, pick another workspace or force the override", root)
		}
		logger.Printf("Overriding existing workspace %v", root)
		if err := os.RemoveAll(root); err != nil {
			return nil, errors.Wrapf(err, "cannot remove workspace %q", root)
		}
	}

	if err := os.MkdirAll(root, directoryAccess); err != nil {
		return nil, errors.Wrapf(err, "cannot create workspace %q (check permissions)", root)
	}
	return &Workspace{root: root, logger: logger}, nil
}

// CreateNumbered makes the first free "results_NNN" directory under base
func CreateNumbered(base string, logger logging.Logger) (*Workspace, error) {
	for number := 1; number <= maxAutoDirs; number++ {
		root := filepath.Join(base, fmt.Sprintf("%v%0*d", autoPrefix, runDigits, number))
		err := os.Mkdir(root, directoryAccess)
		if errors.Is(err, os.ErrExist) {
			continue
		} else if err != nil {
			logger.Errorf("Uncaught error while creating the results folder, make sure it is writable: %v", err)
			return nil, errors.Wrapf(err, "cannot create workspace %q", root)
		}

		absolute, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot resolve workspace %q", root)
		}
		return &Workspace{root: absolute, logger: logger}, nil
	}
	return nil, errors.Wrapf(ErrWorkspaceExists, "every %v directory under %v is taken", autoPrefix, base)
}

func (workspace *Workspace) Root() string { return workspace.root }

func (workspace *Workspace) Join(paths ...string) string {
	return filepath.Join(append([]string{workspace.root}, paths...)...)
}

// CopyBaseModel keeps a copy of the input model inside the workspace and returns its path
func (workspace *Workspace) CopyBaseModel(source string) (string, error) {
	input, err := os.Open(source)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open model %q, are you sure the path is right?", source)
	}
	defer input.Close()

	destination := workspace.Join(BaseModelName)
	output, err := os.Create(destination)
	if err != nil {
		return "", errors.Wrapf(err, "cannot create %q", destination)
	}
	defer output.Close()

	if _, err := io.Copy(output, input); err != nil {
		return "", errors.Wrapf(err, "cannot copy model to %q", destination)
	}
	return destination, output.Close()
}

// RunDirectory returns the path of a run without creating it
func (workspace *Workspace) RunDirectory(run int) string {
	return workspace.Join(fmt.Sprintf("%0*d", runDigits, run))
}

// CreateRun makes the scratch directory of a run; a run directory is never reused
func (workspace *Workspace) CreateRun(run int) (string, error) {
	directory := workspace.RunDirectory(run)
	if err := os.Mkdir(directory, directoryAccess); err != nil {
		return "", errors.Wrapf(err, "cannot create run directory %q", directory)
	}
	return directory, nil
}
