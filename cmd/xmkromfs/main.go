// Command xmkromfs packs a host directory tree into a picox ROM FS
// image (spec §6 "ROM FS image format"). The resulting file is meant
// to be embedded in a firmware image and opened at runtime with
// romfs.Open.
//
// §6 only ever talks about consuming a ROM FS image, but a read-only
// filesystem nobody can build is untestable, so this mirrors rclone's
// own cmd/ convention of a small cobra-based CLI per concern. Each
// build also writes a ".manifest" sidecar tagging the image with a
// fresh github.com/google/uuid build ID, so a diagnostic log can
// identify exactly which build produced a given firmware image.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maskedw/picox-sub001/backend/romfs"
)

var outputPath string

var rootCmd = &cobra.Command{
	Use:   "xmkromfs <source-dir>",
	Short: "Pack a directory tree into a picox ROM FS image",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "image.romfs", "output image path")
}

func run(cmd *cobra.Command, args []string) error {
	src := args[0]
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("xmkromfs: %q is not a directory", src)
	}

	root, err := packDir(src)
	if err != nil {
		return err
	}

	image, err := romfs.Build(root)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, image, 0o644); err != nil {
		return err
	}

	buildID := uuid.New()
	manifest := fmt.Sprintf("build-id: %s\nsource: %s\nimage: %s\nbytes: %d\n",
		buildID, src, outputPath, len(image))
	if err := os.WriteFile(outputPath+".manifest", []byte(manifest), 0o644); err != nil {
		return err
	}

	log.Info().
		Str("output", outputPath).
		Int("bytes", len(image)).
		Str("build_id", buildID.String()).
		Msg("wrote ROM FS image")
	return nil
}

// packDir walks a host directory and builds the matching romfs tree,
// bottom-up, via os.ReadDir.
func packDir(path string) (*romfs.BuildNode, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var children []*romfs.BuildNode
	for _, ent := range entries {
		childPath := filepath.Join(path, ent.Name())
		info, err := ent.Info()
		if err != nil {
			return nil, err
		}
		if ent.IsDir() {
			child, err := packDir(childPath)
			if err != nil {
				return nil, err
			}
			child.Name = ent.Name()
			children = append(children, child)
			continue
		}
		content, err := os.ReadFile(childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, romfs.NewFile(ent.Name(), content, info.ModTime()))
	}

	return romfs.NewDir("", children...), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("xmkromfs failed")
		os.Exit(1)
	}
}
