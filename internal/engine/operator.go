package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/telemetry"
)

// Result describes one successful operator run.
type Result struct {
	RunID  string
	Object string

	// Output names the duplicated object that holds the archived tracks.
	Output string

	Rotation float64
	Original *ir.Animation
	Rotated  *ir.Animation

	// Tracks are the two tracks appended, original first.
	Tracks []ir.Track
}

// Operator runs the rebake against a host's active selection and archives
// the result on a fresh duplicate of the selected object, leaving the
// selection itself untouched. Each run gets its own output object, so one
// rig can be rebaked at several rotations.
type Operator struct {
	host    scene.Host
	sampler scene.Sampler
	cfg     *config
}

// NewOperator creates an operator. Options apply to every run and to the
// Rebake calls it makes.
func NewOperator(host scene.Host, sampler scene.Sampler, opts ...Option) *Operator {
	return &Operator{
		host:    host,
		sampler: sampler,
		cfg:     newConfig(opts),
	}
}

// ArchiveTracks builds the two tracks one run appends: the original,
// starting at its own first frame, then the rotated animation, starting at
// frame 1.
func ArchiveTracks(object string, original, rotated *ir.Animation, rotationDeg float64) []ir.Track {
	deg := FormatRotation(rotationDeg)
	return []ir.Track{
		{
			Name:  object + "-original",
			Strip: ir.Strip{Name: "original", Start: original.FrameStart, Animation: original},
		},
		{
			Name:  object + "-" + deg,
			Strip: ir.Strip{Name: deg, Start: 1, Animation: rotated},
		},
	}
}

// Run rebakes the active selection by rotationDeg.
//
// A selection that is not a skeleton is reported through UserNotify and
// returned as NOT_A_SKELETON; nothing else is touched. Any failure before
// archival leaves the host unchanged. Archival is a single atomic append to
// the output object's container; if it fails the output object is removed.
func (o *Operator) Run(ctx context.Context, rotationDeg float64) (*Result, error) {
	runID := o.cfg.runIDs.Generate()
	ctx, span := o.cfg.tracer.Start(ctx, "operator.Run", trace.WithAttributes(
		attribute.String("rotbake.run_id", runID),
		attribute.Float64("rotbake.rotation_deg", rotationDeg),
	))

	res, err := o.run(ctx, runID, rotationDeg)

	telemetry.EndSpan(span, err)
	if err != nil {
		outcome := string(Code(err))
		if outcome == "" {
			outcome = telemetry.OutcomeError
		}
		o.cfg.metrics.RecordInvocation(outcome)
		return nil, err
	}
	o.cfg.metrics.RecordInvocation(telemetry.OutcomeSuccess)
	return res, nil
}

func (o *Operator) run(ctx context.Context, runID string, rotationDeg float64) (*Result, error) {
	logger := o.cfg.logger.With("run_id", runID)

	obj, err := o.host.ActiveSelection(ctx)
	if err != nil {
		return nil, fmt.Errorf("active selection: %w", err)
	}
	if !obj.IsSkeleton() {
		name := ""
		if obj != nil {
			name = obj.Name
		}
		o.host.UserNotify(NotASkeletonMessage)
		logger.Warn("selection rejected", "object", name)
		return nil, &RebakeError{Code: ErrCodeNotASkeleton, Message: NotASkeletonMessage, Object: name}
	}

	logger = o.cfg.logger.With(logAttrs(runID, obj.Name, rotationDeg)...)
	if obj.Action == nil {
		return nil, emptyRange(obj.Name, "object has no action")
	}

	rotated, err := rebake(ctx, o.cfg, obj.Action, obj.Skeleton, rotationDeg, o.sampler)
	if err != nil {
		var re *RebakeError
		if errors.As(err, &re) {
			re.Object = obj.Name
		}
		return nil, err
	}

	out, err := o.host.DuplicateObject(ctx, obj)
	if err != nil {
		return nil, &RebakeError{Code: ErrCodeArchiveFailed, Message: "duplicate object", Object: obj.Name, Err: err}
	}
	tracks := ArchiveTracks(obj.Name, obj.Action, rotated, rotationDeg)
	if err := o.archive(ctx, out, tracks); err != nil {
		if rmErr := o.host.RemoveObject(context.WithoutCancel(ctx), out); rmErr != nil {
			logger.Warn("output object not removed", "output", out.Name, "error", rmErr)
		}
		return nil, &RebakeError{Code: ErrCodeArchiveFailed, Message: "append tracks", Object: out.Name, Err: err}
	}

	logger.Info("tracks archived",
		"output", out.Name,
		"original", tracks[0].Name,
		"rotated", tracks[1].Name,
		"frames", rotated.Frames(),
	)

	return &Result{
		RunID:    runID,
		Object:   obj.Name,
		Output:   out.Name,
		Rotation: rotationDeg,
		Original: obj.Action,
		Rotated:  rotated,
		Tracks:   tracks,
	}, nil
}

func (o *Operator) archive(ctx context.Context, out *scene.Object, tracks []ir.Track) error {
	container, err := o.host.Tracks(ctx, out)
	if err != nil {
		return fmt.Errorf("track container: %w", err)
	}
	return container.AppendTracks(ctx, tracks...)
}
