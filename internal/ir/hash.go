package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAnimation = "rotbake/animation/v1"
	DomainSkeleton  = "rotbake/skeleton/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AnimationID computes the content-addressed ID of an animation's motion.
// Values are quantised to micro-units, so two animations within 5e-7 of each
// other on every component share an ID.
func AnimationID(a *Animation) (string, error) {
	if a == nil {
		return "", fmt.Errorf("AnimationID: nil animation")
	}
	canonical, err := MarshalCanonical(a.CanonicalValue())
	if err != nil {
		return "", fmt.Errorf("AnimationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAnimation, canonical), nil
}

// SkeletonID computes the content-addressed ID of a skeleton.
func SkeletonID(s *Skeleton) (string, error) {
	if s == nil {
		return "", fmt.Errorf("SkeletonID: nil skeleton")
	}
	canonical, err := MarshalCanonical(s.CanonicalValue())
	if err != nil {
		return "", fmt.Errorf("SkeletonID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSkeleton, canonical), nil
}

// MustAnimationID is like AnimationID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAnimationID(a *Animation) string {
	id, err := AnimationID(a)
	if err != nil {
		panic(err)
	}
	return id
}

// MustSkeletonID is like SkeletonID but panics on error.
func MustSkeletonID(s *Skeleton) string {
	id, err := SkeletonID(s)
	if err != nil {
		panic(err)
	}
	return id
}
