package validation

import (
	"context"
	"math"

	"github.com/inspire-hq/attendance/internal/domain"
)

// selfieCheck requires a selfie image and applies a gallery-pick
// heuristic: camera captures carry EXIF make/model/software tags, a
// bare image with EXIF metadata that lacks all of them is treated as
// gallery-sourced.
type selfieCheck struct{}

func (c *selfieCheck) Name() string { return "selfie" }

func (c *selfieCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireSelfie
}

func (c *selfieCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if !in.HasSelfie {
		res.failf("Selfie image is required for attendance.")
		return res
	}

	if len(in.SelfieEXIF) > 0 {
		isCamera := in.SelfieEXIF["Make"] != "" ||
			in.SelfieEXIF["Model"] != "" ||
			in.SelfieEXIF["Software"] != ""
		if !isCamera {
			res.failf("Selfie appears to be from a gallery. A live camera capture is required.")
		}
	}

	return res
}

// livenessCheck trusts the caller-supplied liveness flag; computing
// it is the client SDK's job.
type livenessCheck struct{}

func (c *livenessCheck) Name() string { return "liveness" }

func (c *livenessCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireLiveness
}

func (c *livenessCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result
	if !in.LivenessPassed {
		res.failf("Liveness detection failed. Please look directly at the camera.")
	}
	return res
}

// faceMatchCheck validates the pre-computed biometric match score
// against the configured threshold.
type faceMatchCheck struct {
	threshold float64
}

func (c *faceMatchCheck) Name() string { return "face_match" }

func (c *faceMatchCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireSelfie
}

func (c *faceMatchCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.FaceMatchScore == nil {
		res.failf("Face match score is missing.")
		return res
	}

	score := *in.FaceMatchScore
	if math.IsNaN(score) || math.IsInf(score, 0) {
		res.failf("Face match score is invalid.")
		return res
	}

	if score < c.threshold {
		res.failf("Face match score (%.2f) is below the required threshold (%.2f).", score, c.threshold)
	}

	return res
}
