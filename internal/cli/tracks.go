package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rotbake/internal/store"
)

// TracksOptions holds flags for the tracks command.
type TracksOptions struct {
	*RootOptions
	Database string
	Object   string // optional - one object only
}

// ObjectTracks lists one object's archived tracks.
type ObjectTracks struct {
	Object string         `json:"object"`
	Source string         `json:"source,omitempty"`
	Tracks []TrackSummary `json:"tracks"`
}

// NewTracksCommand creates the tracks command.
func NewTracksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TracksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List archived tracks",
		Long: `List every object's archived tracks in append order.

Examples:
  rotbake tracks --db ./rotbake.db
  rotbake tracks --db ./rotbake.db --object Armature-updated --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTracks(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (default from config)")
	cmd.Flags().StringVar(&opts.Object, "object", "", "list one object only")

	return cmd
}

func runTracks(opts *TracksOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)
	if !cmd.Flags().Changed("db") {
		opts.Database = opts.config().Database
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	objects := []string{opts.Object}
	if opts.Object == "" {
		if objects, err = st.Objects(ctx); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	result := make([]ObjectTracks, 0, len(objects))
	for _, obj := range objects {
		ot, err := readObjectTracks(ctx, st, obj)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		result = append(result, ot)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result) == 0 {
		fmt.Fprintln(w, "No tracks archived.")
		return nil
	}
	for _, ot := range result {
		if ot.Source != "" {
			fmt.Fprintf(w, "%s from %s (%d track(s))\n", ot.Object, ot.Source, len(ot.Tracks))
		} else {
			fmt.Fprintf(w, "%s (%d track(s))\n", ot.Object, len(ot.Tracks))
		}
		for _, t := range ot.Tracks {
			fmt.Fprintf(w, "  %d. %s  strip %s @%d  frames %d..%d  %s\n",
				t.Position+1, t.Name, t.Strip, t.Start, t.FrameStart, t.FrameEnd, shortID(t.AnimationID))
		}
	}
	return nil
}

func readObjectTracks(ctx context.Context, st *store.Store, object string) (ObjectTracks, error) {
	ot := ObjectTracks{Object: object}
	tracks, err := st.ReadTracks(ctx, object)
	if err != nil {
		return ot, err
	}
	if ot.Tracks, err = summarizeTracks(tracks); err != nil {
		return ot, err
	}
	ot.Source, err = st.ObjectSource(ctx, object)
	return ot, err
}

// openExisting opens an archive that must already exist. Read-only commands
// never create one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
