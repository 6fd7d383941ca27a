package interaction

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/behuman/moodrec/core"
)

// Option 配置互动日志。
type Option func(*options)

type options struct {
	now     func() time.Time
	catalog core.Catalog
}

// WithClock 设置时间来源，事件未带时间戳时使用。
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCatalog 写入时校验活动是否存在于目录中（含未上架活动）。
func WithCatalog(c core.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepare 校验事件并补全 ID、时间戳与派生字段。
// 返回的错误均为 VALIDATION，调用方据此拒绝整条事件。
func (o options) prepare(ctx context.Context, in *core.Interaction) error {
	if err := Validate(in); err != nil {
		return err
	}
	if o.catalog != nil {
		if _, err := o.catalog.Activity(ctx, in.ActivityID); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(core.ModuleInteraction, "activity %q does not exist", in.ActivityID)
			}
			return err
		}
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = o.now()
	}
	in.Derive()
	return nil
}

// Validate 检查事件是否合法，不修改事件。
func Validate(in *core.Interaction) error {
	if in.UserID == "" {
		return core.NewValidationError(core.ModuleInteraction, "user id is required")
	}
	if in.ActivityID == "" {
		return core.NewValidationError(core.ModuleInteraction, "activity id is required")
	}
	if !in.Type.Valid() {
		return core.NewValidationError(core.ModuleInteraction, "unknown interaction type %q", in.Type)
	}

	switch {
	case in.Type == core.InteractionRate && in.Rating == nil:
		return core.NewValidationError(core.ModuleInteraction, "rate interaction requires a rating")
	case in.Type != core.InteractionRate && in.Rating != nil:
		return core.NewValidationError(core.ModuleInteraction, "rating is only allowed on rate interactions, got %q", in.Type)
	case in.Rating != nil:
		r := *in.Rating
		if math.IsNaN(r) || r < core.MinRating || r > core.MaxRating {
			return core.NewValidationError(core.ModuleInteraction, "rating %v out of range [1,5]", r)
		}
	}

	if d := in.Duration; d != nil {
		if math.IsNaN(d.ViewDurationSeconds) || d.ViewDurationSeconds < 0 {
			return core.NewValidationError(core.ModuleInteraction, "view duration must be non-negative")
		}
		if math.IsNaN(d.CompletionRatio) || d.CompletionRatio < 0 || d.CompletionRatio > 1 {
			return core.NewValidationError(core.ModuleInteraction, "completion ratio %v out of range [0,1]", d.CompletionRatio)
		}
	}

	if e := in.Emotion; e != nil {
		if e.Label == "" {
			return core.NewValidationError(core.ModuleInteraction, "emotion label is required when emotion is present")
		}
		if math.IsNaN(e.Intensity) || e.Intensity < 0 || e.Intensity > 1 {
			return core.NewValidationError(core.ModuleInteraction, "emotion intensity %v out of range [0,1]", e.Intensity)
		}
	}
	return nil
}

func checkQuery(q core.InteractionQuery) error {
	if q.UserID == "" {
		return core.NewValidationError(core.ModuleInteraction, "query requires a user id")
	}
	return nil
}
