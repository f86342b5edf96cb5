package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
)

// marshalPoses converts poses to JSON TEXT for storage. Floats are written
// with shortest round-trip formatting, so reading them back is exact.
func marshalPoses(poses []ir.Pose) (string, error) {
	if poses == nil {
		poses = []ir.Pose{}
	}
	data, err := json.Marshal(poses)
	if err != nil {
		return "", fmt.Errorf("marshal poses: %w", err)
	}
	return string(data), nil
}

// unmarshalPoses parses JSON TEXT to poses.
func unmarshalPoses(data string) ([]ir.Pose, error) {
	var poses []ir.Pose
	if err := json.Unmarshal([]byte(data), &poses); err != nil {
		return nil, fmt.Errorf("unmarshal poses: %w", err)
	}
	return poses, nil
}

// marshalBones converts bones to JSON TEXT, declaration order preserved.
func marshalBones(bones []ir.Bone) (string, error) {
	if bones == nil {
		bones = []ir.Bone{}
	}
	data, err := json.Marshal(bones)
	if err != nil {
		return "", fmt.Errorf("marshal bones: %w", err)
	}
	return string(data), nil
}

// unmarshalBones parses JSON TEXT to bones.
func unmarshalBones(data string) ([]ir.Bone, error) {
	var bones []ir.Bone
	if err := json.Unmarshal([]byte(data), &bones); err != nil {
		return nil, fmt.Errorf("unmarshal bones: %w", err)
	}
	return bones, nil
}
