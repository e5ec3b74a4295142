package main

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/dittoh5/pkg/connector"
	"github.com/marmos91/dittoh5/pkg/h5"
	"github.com/marmos91/dittoh5/pkg/location"
	"github.com/marmos91/dittoh5/pkg/plist"
	"github.com/spf13/cobra"
)

var infoOpts struct {
	byIdx int64
	index string
	order string
}

var infoCmd = &cobra.Command{
	Use:   "info <container> [path]",
	Short: "Print group information as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		return withLibrary(cmd.Context(), func(lib *h5.Library) error {
			return runInfo(cmd, lib, args[0], path)
		})
	},
}

func init() {
	infoCmd.Flags().Int64Var(&infoOpts.byIdx, "by-idx", -1, "Describe the n-th member of path instead of path itself")
	infoCmd.Flags().StringVar(&infoOpts.index, "index", "name", "Index for --by-idx: name or corder")
	infoCmd.Flags().StringVar(&infoOpts.order, "order", "inc", "Order for --by-idx: inc, dec or native")
}

func parseIndex(s string) location.IndexType {
	switch s {
	case "name":
		return location.IndexName
	case "corder", "crt_order":
		return location.IndexCrtOrder
	default:
		return location.IndexUnknown
	}
}

func parseOrder(s string) location.IterOrder {
	switch s {
	case "inc":
		return location.OrderInc
	case "dec":
		return location.OrderDec
	case "native":
		return location.OrderNative
	default:
		return location.OrderUnknown
	}
}

func runInfo(cmd *cobra.Command, lib *h5.Library, name, path string) error {
	ctx := cmd.Context()

	file, err := lib.OpenFile(ctx, name, plist.Default)
	if err != nil {
		return err
	}
	defer lib.CloseFile(ctx, file)

	var info connector.GroupInfo
	if infoOpts.byIdx >= 0 {
		info, err = lib.GroupInfoByIdx(ctx, file, path, parseIndex(infoOpts.index), parseOrder(infoOpts.order), uint64(infoOpts.byIdx), plist.Default)
	} else {
		info, err = lib.GroupInfoByName(ctx, file, path, plist.Default)
	}
	if err != nil {
		return err
	}

	out := struct {
		connector.GroupInfo
		Storage string `json:"storage"`
	}{info, info.StorageType.String()}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode group info: %w", err)
	}
	return nil
}
