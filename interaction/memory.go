package interaction

import (
	"context"
	"sync"

	"github.com/behuman/moodrec/core"
)

// MemoryLog 是内存实现的互动日志，用于测试与单机部署。
type MemoryLog struct {
	opts options

	mu     sync.RWMutex
	events []core.Interaction
	ids    map[string]struct{}
}

// NewMemoryLog 创建内存互动日志。
func NewMemoryLog(opts ...Option) *MemoryLog {
	return &MemoryLog{
		opts: newOptions(opts),
		ids:  make(map[string]struct{}),
	}
}

var _ core.InteractionLog = (*MemoryLog)(nil)

func (l *MemoryLog) Record(ctx context.Context, in core.Interaction) (string, error) {
	if err := l.opts.prepare(ctx, &in); err != nil {
		return "", err
	}
	in.Annotations = cloneRaw(in.Annotations)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.ids[in.ID]; dup {
		return "", core.NewValidationError(core.ModuleInteraction, "duplicate interaction id %q", in.ID)
	}
	l.ids[in.ID] = struct{}{}
	l.events = append(l.events, in)
	return in.ID, nil
}

func (l *MemoryLog) Query(_ context.Context, q core.InteractionQuery) ([]core.Interaction, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.Interaction
	for i := range l.events {
		if q.Match(&l.events[i]) {
			out = append(out, l.events[i])
		}
	}
	return out, nil
}

// Scan 在快照上遍历，回调期间不持有锁，允许并发写入。
func (l *MemoryLog) Scan(ctx context.Context, fn func(core.Interaction) error) error {
	l.mu.RLock()
	snapshot := l.events[:len(l.events):len(l.events)]
	l.mu.RUnlock()

	for _, in := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(in); err != nil {
			return err
		}
	}
	return nil
}

// Len 返回事件总数。
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

func cloneRaw(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
