package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/parser"
	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/internal/session"
	"github.com/shipmanifest/extension/internal/storage/memory"
)

// readSnapshot decodes a snapshot file, choosing the decoder by extension.
func readSnapshot(path string) (parser.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Snapshot{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parser.DecodeYAML(data)
	default:
		return parser.Decode(data)
	}
}

// openSession loads the snapshot at path into a fresh session backed by an
// in-memory roster.
func openSession(cmd *cobra.Command, flags *globalFlags, path string) (*session.Session, session.VesselInfo, error) {
	snap, err := readSnapshot(path)
	if err != nil {
		return nil, session.VesselInfo{}, err
	}

	logManager := logging.NewSlogManager()
	logManager.Setup(cmd.ErrOrStderr(), flags.logLevel, nil)
	logger := logManager.Logger()

	registry := capability.NewDefault(func(name capability.Name) bool {
		return name == capability.DeepFreeze && flags.deepFreeze
	}, logger)

	sess, err := session.New(session.Dependencies{
		Roster:   roster.New(memory.New(), logger),
		Registry: registry,
		Logger:   logger,
	}, session.Settings{})
	if err != nil {
		return nil, session.VesselInfo{}, err
	}
	info, err := sess.LoadSnapshot(snap)
	if err != nil {
		return nil, session.VesselInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return sess, info, nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
