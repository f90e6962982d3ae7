package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/blocks/internal/logger"
	"github.com/Faultbox/blocks/pkg/blocks"
	"github.com/Faultbox/blocks/pkg/importer"
	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// load reads and decodes path, returning the raw bytes alongside the file.
func load(path string) ([]byte, *blocks.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := blocks.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("loaded file",
		zap.String("path", path),
		zap.Int("bytes", len(raw)),
		zap.Int("meshes", len(f.Meshes)))
	return raw, f, nil
}

// rawContainer returns the container inside data, unwrapping an envelope.
func rawContainer(data []byte) ([]byte, error) {
	if blocks.IsCompressedContainer(data) {
		return blocks.Decompress(data)
	}
	return data, nil
}

func (t *tool) cmdInfo(args []string) error {
	fs := newFlagSet("info", t.stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usage("info <file>")
	}

	path := fs.Arg(0)
	raw, f, err := load(path)
	if err != nil {
		return err
	}

	w := t.stdout
	fmt.Fprintf(w, "File:       %s\n", path)
	if codec, size, err := blocks.EnvelopeInfo(raw); err == nil {
		fmt.Fprintf(w, "Size:       %s (%s, %s uncompressed)\n",
			humanize.Bytes(uint64(len(raw))), codec, humanize.Bytes(uint64(size)))
	} else {
		fmt.Fprintf(w, "Size:       %s\n", humanize.Bytes(uint64(len(raw))))
	}
	fmt.Fprintf(w, "Creator:    %s\n", f.Metadata.CreatorName)
	if created, ok := f.Metadata.CreatedAt(); ok {
		fmt.Fprintf(w, "Created:    %s (%s)\n", f.Metadata.CreationDate, humanize.Time(created))
	} else {
		fmt.Fprintf(w, "Created:    %s\n", f.Metadata.CreationDate)
	}
	fmt.Fprintf(w, "Version:    %s\n", f.Metadata.Version)
	fmt.Fprintf(w, "Zoom:       %g\n", f.ZoomFactor)
	if f.DisplayRotation != nil {
		fmt.Fprintf(w, "Rotation:   %g\n", *f.DisplayRotation)
	}
	fmt.Fprintf(w, "Materials:  %v\n", f.MaterialIDs)
	for _, k := range slices.Sorted(maps.Keys(f.Properties)) {
		fmt.Fprintf(w, "Property:   %s=%s\n", k, f.Properties[k])
	}
	fmt.Fprintf(w, "Vertices:   %s\n", humanize.Comma(int64(f.TotalVertices())))
	fmt.Fprintf(w, "Faces:      %s\n", humanize.Comma(int64(f.TotalFaces())))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Meshes (%d):\n", len(f.Meshes))
	fmt.Fprintf(w, "  %-10s %-8s %10s %10s  %s\n", "ID", "GROUP", "VERTICES", "FACES", "REMIX")
	for _, m := range f.Meshes {
		remix := "-"
		if m.HasRemixIDs() {
			remix = strings.Join(m.RemixIDs(), ",")
		}
		fmt.Fprintf(w, "  %-10d %-8d %10d %10d  %s\n", m.ID(), m.GroupID(), m.VertexCount(), m.FaceCount(), remix)
	}
	return nil
}

func (t *tool) cmdManifest(args []string) error {
	fs := newFlagSet("manifest", t.stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usage("manifest <file>")
	}

	raw, f, err := load(fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := blocks.Summarize(f, raw).YAML()
	if err != nil {
		return fmt.Errorf("rendering manifest: %w", err)
	}
	_, err = t.stdout.Write(out)
	return err
}

func (t *tool) cmdProbe(args []string) error {
	fs := newFlagSet("probe", t.stderr)
	deep := fs.Bool("deep", false, "Fully decode each file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usage("probe [--deep] <file>...")
	}

	failed := 0
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(t.stdout, "%s: error: %v\n", path, err)
			failed++
			continue
		}

		var kind string
		switch {
		case blocks.IsValidContainer(data):
			major, minor, _ := serial.ReadVersion(data)
			kind = fmt.Sprintf("blocks container v%d.%d", major, minor)
		case blocks.IsCompressedContainer(data):
			codec, size, err := blocks.EnvelopeInfo(data)
			if err != nil {
				fmt.Fprintf(t.stdout, "%s: damaged envelope: %v\n", path, err)
				failed++
				continue
			}
			kind = fmt.Sprintf("compressed blocks container (%s, %s uncompressed)", codec, humanize.Bytes(uint64(size)))
		default:
			fmt.Fprintf(t.stdout, "%s: not a blocks file\n", path)
			continue
		}

		if *deep {
			if _, err := blocks.Decode(data); err != nil {
				fmt.Fprintf(t.stdout, "%s: %s: corrupt: %v\n", path, kind, err)
				failed++
				continue
			}
			kind += ", ok"
		}
		fmt.Fprintf(t.stdout, "%s: %s\n", path, kind)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, fs.NArg())
	}
	return nil
}

func (t *tool) cmdConvert(args []string) error {
	fs := newFlagSet("convert", t.stderr)
	meshID := fs.Int("mesh-id", 1, "Id of the imported mesh")
	codecName := fs.String("codec", "", "Compression codec: none, lz4 or zstd (default from config)")
	zoom := fs.Float32("zoom", 0, "Zoom factor (default from config)")
	remix := fs.Bool("remix", false, "Tag the mesh with a fresh remix id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usage("convert [--mesh-id n] [--codec c] [--zoom z] [--remix] <in.obj|in.off> <out>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	opts, err := t.cfg.SaveOptions()
	if err != nil {
		return err
	}
	if fs.Changed("codec") {
		if opts.Compression, err = blocks.ParseCodec(*codecName); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	if fs.Changed("zoom") {
		opts.ZoomFactor = *zoom
	}

	m, err := importMesh(in, *meshID)
	if err != nil {
		return err
	}
	if *remix {
		if m, err = m.WithRemixIDs(uuid.NewString()); err != nil {
			return err
		}
	}

	if !blocks.HasContainerExtension(out) {
		logger.Warn("output does not use a blocks extension",
			zap.String("path", out), zap.Strings("extensions", blocks.Extensions))
	}
	if err := blocks.WriteFile(out, []*mesh.MMesh{m}, opts); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(t.stdout, "Converted: %s -> %s (%d vertices, %d faces)\n", in, out, m.VertexCount(), m.FaceCount())
	return nil
}

func importMesh(path string, meshID int) (*mesh.MMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m *mesh.MMesh
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		m, err = importer.ParseOBJ(f, meshID, nil)
	case ".off":
		m, err = importer.ParseOFF(f, meshID)
	default:
		return nil, fmt.Errorf("%w: cannot import %q files, expected .obj or .off", errUsage, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (t *tool) cmdPack(args []string) error {
	fs := newFlagSet("pack", t.stderr)
	codecName := fs.String("codec", blocks.CodecZstd.String(), "Compression codec: lz4 or zstd")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usage("pack [--codec zstd|lz4] <in> <out>")
	}
	codec, err := blocks.ParseCodec(*codecName)
	if err != nil || codec == blocks.CodecNone {
		return fmt.Errorf("%w: pack needs lz4 or zstd, got %q", errUsage, *codecName)
	}
	in, out := fs.Arg(0), fs.Arg(1)

	data, _, err := load(in)
	if err != nil {
		return err
	}
	container, err := rawContainer(data)
	if err != nil {
		return err
	}
	packed, err := blocks.Compress(container, codec)
	if err != nil {
		return err
	}
	if err := blocks.WriteFileAtomic(out, packed, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	used, _, _ := blocks.EnvelopeInfo(packed)
	if used != codec {
		logger.Info("data did not compress, stored uncompressed",
			zap.String("path", in), zap.Stringer("codec", codec))
	}
	fmt.Fprintf(t.stdout, "Packed: %s (%s) -> %s (%s, %s)\n",
		in, humanize.Bytes(uint64(len(data))), out, humanize.Bytes(uint64(len(packed))), used)
	return nil
}

func (t *tool) cmdUnpack(args []string) error {
	fs := newFlagSet("unpack", t.stderr)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usage("unpack <in> <out>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	data, _, err := load(in)
	if err != nil {
		return err
	}
	container, err := rawContainer(data)
	if err != nil {
		return err
	}
	if err := blocks.WriteFileAtomic(out, container, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(t.stdout, "Unpacked: %s (%s) -> %s (%s)\n",
		in, humanize.Bytes(uint64(len(data))), out, humanize.Bytes(uint64(len(container))))
	return nil
}

func (t *tool) cmdRemix(args []string) error {
	fs := newFlagSet("remix", t.stderr)
	ids := fs.StringSlice("id", nil, "Remix id to add, repeatable (default a fresh UUID)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usage("remix [--id id]... <in> <out>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	_, f, err := load(in)
	if err != nil {
		return err
	}

	added := *ids
	if len(added) == 0 {
		added = []string{uuid.NewString()}
	}

	meshes := make([]*mesh.MMesh, 0, len(f.Meshes))
	for _, m := range f.Meshes {
		tagged, err := m.WithRemixIDs(added...)
		if err != nil {
			return fmt.Errorf("mesh %d: %w", m.ID(), err)
		}
		meshes = append(meshes, tagged)
	}

	opts, err := t.cfg.SaveOptions()
	if err != nil {
		return err
	}
	opts.Version = f.Metadata.Version
	opts.ZoomFactor = f.ZoomFactor
	opts.DisplayRotation = f.DisplayRotation
	opts.Properties = f.Properties
	if err := blocks.WriteFile(out, meshes, opts); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(t.stdout, "Remixed: %s -> %s (%d meshes, ids %s)\n", in, out, len(meshes), strings.Join(added, ","))
	return nil
}
