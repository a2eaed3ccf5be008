package action

import (
	"context"
	"sort"
	"sync"

	"github.com/sreenadh34/biznavigate-backend-sub002/model"
)

const ACTION_SEND_MESSAGE string = "send_message"
const ACTION_UPDATE_DATABASE string = "update_database"
const ACTION_EXECUTE_SCRIPT string = "execute_script"
const ACTION_NOTIFY_TEAM string = "notify_team"
const ACTION_SEND_CATALOG string = "send_catalog"
const ACTION_SEND_CATEGORIES string = "send_categories"
const ACTION_SEND_CATEGORY_PRODUCTS string = "send_category_products"
const ACTION_CATEGORY_SELECTION string = "category_selection"

// Handler executes one workflow action. Params arrive with template
// placeholders already resolved; the execution context carries lead and
// classification data plus prior action outputs.
type Handler interface {
	Type() string
	Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error)
}

// Compensator is implemented by handlers whose effect can be undone. The
// saga invokes it in reverse execution order after a critical failure,
// passing the result the original Execute returned.
type Compensator interface {
	Compensate(ctx context.Context, ec *model.ExecutionContext, original any) error
}

// NonRetryable marks handlers whose failure must compensate and abort the
// saga instead of being retried.
type NonRetryable interface {
	NonRetryable() bool
}

// Registry maps action types to handlers. Registration happens once at
// startup; a second registration for the same type silently overwrites.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Type()] = h
}

func (r *Registry) Get(actionType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[actionType]
	return h, ok
}

func (r *Registry) Has(actionType string) bool {
	_, ok := r.Get(actionType)
	return ok
}

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsNonRetryable reports whether h declared itself non-retryable.
func IsNonRetryable(h Handler) bool {
	nr, ok := h.(NonRetryable)
	return ok && nr.NonRetryable()
}
