package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/telemetry"
)

// FormatRotation renders a rotation in its shortest decimal form:
// 180 -> "180", 90.5 -> "90.5", -45 -> "-45". Negative zero renders as "0".
func FormatRotation(deg float64) string {
	if deg == 0 {
		deg = 0
	}
	return strconv.FormatFloat(deg, 'f', -1, 64)
}

// RotatedName is the name of the rebaked animation: "<original>-<deg>".
func RotatedName(original string, rotationDeg float64) string {
	return original + "-" + FormatRotation(rotationDeg)
}

// Rebake re-expresses original, played on skel, for an instance placed at
// rotationDeg about Z.
//
// The result covers frames [1, f1] where f1 is original.FrameEnd. Played on
// an instance at rotationDeg, it reproduces the world-space trajectories of
// original played at placement 0. original is only read.
//
// Errors are *RebakeError with code INVALID_ROTATION, SHAPE_MISMATCH,
// EMPTY_RANGE, FRAME_QUOTA_EXCEEDED or BAKE_FAILED. Scratch instances are released on
// every path.
func Rebake(
	ctx context.Context,
	original *ir.Animation,
	skel *ir.Skeleton,
	rotationDeg float64,
	sampler scene.Sampler,
	opts ...Option,
) (*ir.Animation, error) {
	return rebake(ctx, newConfig(opts), original, skel, rotationDeg, sampler)
}

func rebake(
	ctx context.Context,
	cfg *config,
	original *ir.Animation,
	skel *ir.Skeleton,
	rotationDeg float64,
	sampler scene.Sampler,
) (*ir.Animation, error) {
	object := ""
	if skel != nil {
		object = skel.Name
	}
	frames := 0
	if original != nil {
		frames = original.FrameEnd
	}

	ctx, span := cfg.tracer.Start(ctx, "engine.Rebake",
		trace.WithAttributes(telemetry.RebakeAttributes(object, rotationDeg, frames)...))
	start := time.Now()

	out, err := bake(ctx, cfg, original, skel, rotationDeg, sampler)

	telemetry.EndSpan(span, err)
	cfg.metrics.ObserveBake(time.Since(start))
	if err != nil {
		cfg.logger.Error("rebake failed",
			"object", object,
			"rotation", rotationDeg,
			"code", string(Code(err)),
			"error", err,
		)
		return nil, err
	}
	cfg.metrics.AddFrames(out.Frames())
	cfg.logger.Info("rebake complete",
		"object", object,
		"rotation", rotationDeg,
		"frames", out.Frames(),
		"duration", time.Since(start),
	)
	return out, nil
}

func bake(
	ctx context.Context,
	cfg *config,
	original *ir.Animation,
	skel *ir.Skeleton,
	rotationDeg float64,
	sampler scene.Sampler,
) (*ir.Animation, error) {
	if math.IsNaN(rotationDeg) || math.IsInf(rotationDeg, 0) {
		object := ""
		if skel != nil {
			object = skel.Name
		}
		return nil, &RebakeError{
			Code:    ErrCodeInvalidRotation,
			Message: fmt.Sprintf("rotation must be finite, got %v", rotationDeg),
			Object:  object,
		}
	}
	if err := validate(cfg, original, skel); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, bakeFailed(skel.Name, 0, fmt.Errorf("no sampler"))
	}

	f1 := original.FrameEnd
	if original.FrameStart != 1 {
		cfg.logger.Warn("bake starts at frame 1, not at the animation's first frame",
			"object", skel.Name,
			"frame_start", original.FrameStart,
			"frame_end", f1,
		)
	}

	source := cfg.duplicator.Duplicate(skel)
	target := cfg.duplicator.Duplicate(skel)
	defer func() {
		target.ClearConstraints()
		target.Release()
		source.Release()
		cfg.logger.Debug("scratch instances released", "object", skel.Name)
	}()

	if err := source.SetAction(original); err != nil {
		return nil, bakeFailed(skel.Name, 0, err)
	}
	if err := target.SetPlacementZ(rotationDeg); err != nil {
		return nil, bakeFailed(skel.Name, 0, err)
	}
	for _, b := range skel.Bones {
		if err := target.AddConstraint(scene.CopyRotation(b.Name, source, b.Name)); err != nil {
			return nil, bakeFailed(skel.Name, 0, err)
		}
		if err := target.AddConstraint(scene.CopyLocation(b.Name, source, b.Name)); err != nil {
			return nil, bakeFailed(skel.Name, 0, err)
		}
	}

	cfg.logger.Debug("baking",
		"object", skel.Name,
		"rotation", rotationDeg,
		"frames", f1,
		"workers", cfg.workers,
	)

	poses := make([]ir.Pose, f1)
	resolve := func(ctx context.Context, frame int) error {
		pose, err := sampler.Resolve(ctx, target, frame)
		if err != nil {
			return bakeFailed(skel.Name, frame, err)
		}
		if err := checkPose(skel, pose); err != nil {
			return bakeFailed(skel.Name, frame, err)
		}
		poses[frame-1] = pose.Clone()
		return nil
	}

	if cfg.workers <= 1 {
		for frame := 1; frame <= f1; frame++ {
			if err := ctx.Err(); err != nil {
				return nil, bakeFailed(skel.Name, frame, err)
			}
			if err := resolve(ctx, frame); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.workers)
		for frame := 1; frame <= f1; frame++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return bakeFailed(skel.Name, frame, err)
				}
				return resolve(gctx, frame)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return &ir.Animation{
		Name:       RotatedName(original.Name, rotationDeg),
		FrameStart: 1,
		FrameEnd:   f1,
		Poses:      poses,
	}, nil
}

// validate checks the animation and skeleton before any instance exists.
func validate(cfg *config, original *ir.Animation, skel *ir.Skeleton) error {
	if skel == nil {
		return shapeMismatch("", 0, "no skeleton")
	}
	if original == nil {
		return emptyRange(skel.Name, "no animation")
	}
	if _, err := skel.Ordered(); err != nil {
		return &RebakeError{Code: ErrCodeShapeMismatch, Message: "invalid skeleton", Object: skel.Name, Err: err}
	}
	if original.FrameEnd < original.FrameStart {
		return emptyRange(skel.Name, "frame_end %d < frame_start %d", original.FrameEnd, original.FrameStart)
	}
	if original.FrameEnd < 1 {
		return emptyRange(skel.Name, "frame_end %d < 1", original.FrameEnd)
	}
	if len(original.Poses) != original.Frames() {
		return shapeMismatch(skel.Name, 0, "%d pose(s) for %d frame(s)", len(original.Poses), original.Frames())
	}
	if err := cfg.quota.Check(skel.Name, original.FrameEnd); err != nil {
		return err
	}
	for i, pose := range original.Poses {
		if err := checkPose(skel, pose); err != nil {
			return shapeMismatch(skel.Name, original.FrameStart+i, "%v", err)
		}
	}
	return nil
}

// checkPose reports bones missing from pose and pose keys naming no bone.
func checkPose(skel *ir.Skeleton, pose ir.Pose) error {
	idx := skel.Index()
	var unknown []string
	for name := range pose {
		if _, ok := idx[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("pose keys unknown bone(s) %v", unknown)
	}
	for _, b := range skel.Bones {
		if _, ok := pose[b.Name]; !ok {
			return fmt.Errorf("pose has no transform for bone %q", b.Name)
		}
	}
	return nil
}

// logAttrs is used by the operator to tag log lines with a run.
func logAttrs(runID, object string, rotationDeg float64) []any {
	return []any{
		slog.String("run_id", runID),
		slog.String("object", object),
		slog.Float64("rotation", rotationDeg),
	}
}
