package arrangement

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes tree change notifications.
type EventKind string

const (
	EventNodesCreated   EventKind = "nodes_created"
	EventMemberAttached EventKind = "member_attached"
	EventMemberDetached EventKind = "member_detached"
)

// Notification describes one consolidated change to the tree.
type Notification struct {
	BatchID uuid.UUID `json:"batch_id"`
	Kind    EventKind `json:"kind"`
	Path    Path      `json:"path,omitempty"`  // requested path for node creation
	Nodes   []string  `json:"nodes,omitempty"` // created nodes, or the node a member moved on
	Object  string    `json:"object,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives tree change notifications.
type Notifier interface {
	Publish(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Publish(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Publish(Notification) {}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []Notification
}

// NewRecorder creates a recorder keeping at most limit notifications;
// limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Publish(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
}

// Events returns a copy of the recorded notifications, oldest first.
func (r *Recorder) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.events...)
}

// batch collects the nodes created during one path materialization and
// publishes them as a single notification when flushed.
type batch struct {
	id      uuid.UUID
	path    Path
	created []string
	out     Notifier
	now     func() time.Time
}

func (b *batch) add(name string) {
	b.created = append(b.created, name)
}

// flush publishes the batch if anything was created. It runs on every exit
// path of a materialization, including failures.
func (b *batch) flush() {
	if len(b.created) == 0 {
		return
	}
	b.out.Publish(Notification{
		BatchID: b.id,
		Kind:    EventNodesCreated,
		Path:    append(Path(nil), b.path...),
		Nodes:   append([]string(nil), b.created...),
		At:      b.now(),
	})
}
