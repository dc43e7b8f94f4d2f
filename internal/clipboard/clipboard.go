package clipboard

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	sysclip "github.com/atotto/clipboard"
	"github.com/pkg/errors"
)

var ErrToolNotFound = errors.New("clipboard tool not found")

type Command struct {
	Path string
	Args []string
}

type candidate struct {
	name string
	args []string
}

var candidates = map[string][]candidate{
	"darwin": {
		{name: "pbcopy"},
	},
	"linux": {
		{name: "wl-copy"},
		{name: "xclip", args: []string{"-selection", "clipboard"}},
		{name: "xsel", args: []string{"--clipboard", "--input"}},
	},
	"windows": {
		{name: "clip.exe"},
	},
}

// SelectCommand picks the first clipboard tool available on goos.
func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	for _, c := range candidates[goos] {
		path, err := lookPath(c.name)
		if err != nil {
			continue
		}
		return Command{Path: path, Args: c.args}, nil
	}
	return Command{}, ErrToolNotFound
}

// Copier writes text to the system clipboard through an external tool. When
// no known tool is installed it falls back to the system clipboard library.
type Copier struct {
	goos     string
	lookPath func(string) (string, error)
	fallback func(string) error
}

func New() *Copier {
	return &Copier{goos: runtime.GOOS, lookPath: exec.LookPath, fallback: systemWrite}
}

func systemWrite(text string) error {
	if sysclip.Unsupported {
		return ErrToolNotFound
	}
	return errors.Wrap(sysclip.WriteAll(text), "system clipboard")
}

func (c *Copier) Copy(ctx context.Context, text string) error {
	cmdDef, err := SelectCommand(c.goos, c.lookPath)
	if errors.Is(err, ErrToolNotFound) && c.fallback != nil {
		return c.fallback(text)
	}
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, cmdDef.Path, cmdDef.Args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return errors.Wrapf(err, "clipboard command failed: %s", msg)
		}
		return errors.Wrap(err, "clipboard command failed")
	}
	return nil
}
