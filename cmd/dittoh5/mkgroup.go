package main

import (
	"context"
	"fmt"

	"github.com/marmos91/dittoh5/internal/logger"
	"github.com/marmos91/dittoh5/pkg/h5"
	"github.com/marmos91/dittoh5/pkg/handle"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/spf13/cobra"
)

var mkgroupOpts struct {
	parents    bool
	createFile bool
}

var mkgroupCmd = &cobra.Command{
	Use:   "mkgroup <container> <path>...",
	Short: "Create groups in a container",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd.Context(), func(lib *h5.Library) error {
			return runMkgroup(cmd, lib, args[0], args[1:])
		})
	},
}

func init() {
	mkgroupCmd.Flags().BoolVarP(&mkgroupOpts.parents, "parents", "p", false, "Create missing intermediate groups")
	mkgroupCmd.Flags().BoolVar(&mkgroupOpts.createFile, "create-file", false, "Create the container if it cannot be opened")
}

func runMkgroup(cmd *cobra.Command, lib *h5.Library, name string, paths []string) error {
	ctx := cmd.Context()

	file, err := openContainer(ctx, lib, name, mkgroupOpts.createFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lib.CloseFile(ctx, file); err != nil {
			logger.Warn("Failed to close %s: %v", name, err)
		}
	}()

	lcpl, err := loaded.Groups.LinkCreate()
	if err != nil {
		return err
	}
	if mkgroupOpts.parents {
		if err := plist.SetCreateIntermediateGroup(lcpl, true); err != nil {
			return err
		}
	}
	gcpl, err := loaded.Groups.GroupCreate()
	if err != nil {
		return err
	}

	for _, path := range paths {
		g, err := lib.CreateGroup(ctx, file, path, lcpl, gcpl, plist.Default)
		if err != nil {
			return fmt.Errorf("mkgroup %s: %w", path, err)
		}

		err = lib.FlushGroup(ctx, g)
		if cerr := lib.CloseGroup(ctx, g); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("mkgroup %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	}
	return nil
}

// openContainer opens name, creating it when create is set and the open
// fails.
func openContainer(ctx context.Context, lib *h5.Library, name string, create bool) (handle.ID, error) {
	file, err := lib.OpenFile(ctx, name, plist.Default)
	if err == nil || !create {
		return file, err
	}

	logger.Debug("Open of %s failed (%v), creating it", name, err)
	return lib.CreateFile(ctx, name, plist.Default)
}
