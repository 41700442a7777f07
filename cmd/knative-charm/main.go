package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kompox/knative-charms/internal/logging"
)

// hookArgs rewrites the command line when the binary is invoked through a
// hook symlink such as hooks/install. Every hook is routed so that events
// the charms do not handle are ignored by the hook command.
func hookArgs(argv []string) ([]string, bool) {
	if len(argv) == 0 {
		return nil, false
	}
	if filepath.Base(filepath.Dir(argv[0])) != "hooks" {
		return nil, false
	}
	return append([]string{"hook", filepath.Base(argv[0])}, argv[1:]...), true
}

func main() {
	root := newRootCmd()
	if args, ok := hookArgs(os.Args); ok {
		root.SetArgs(args)
	}
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Error(ctx, "Failed", "err", err)
		os.Exit(1)
	}
}
