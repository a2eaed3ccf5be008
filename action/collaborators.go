package action

import "context"

// Collaborator contracts for the built-in handlers. Real implementations
// live outside this core; tests and local runs use the no-op versions.

type MessageContentType string

const CONTENT_TEXT MessageContentType = "TEXT"
const CONTENT_INTERACTIVE MessageContentType = "INTERACTIVE"

type SectionRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type MessageSection struct {
	Title string       `json:"title"`
	Rows  []SectionRow `json:"rows"`
}

type OutboundMessage struct {
	LeadID         string             `json:"leadId"`
	Channel        string             `json:"channel"`
	ConversationID string             `json:"conversationId,omitempty"`
	ContentType    MessageContentType `json:"contentType"`
	Text           string             `json:"text,omitempty"`
	Sections       []MessageSection   `json:"sections,omitempty"`
}

// ChannelClient delivers outbound messages on the lead's channel and returns
// the provider message id.
type ChannelClient interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

type OrderTask struct {
	TaskID     string         `json:"taskId,omitempty"`
	LeadID     string         `json:"leadId"`
	BusinessID string         `json:"businessId"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details,omitempty"`
}

// Mutator is the narrow persistence surface the update_database handler is
// allowed to touch. Each method maps to exactly one entity/operation pair of
// the dispatch table.
type Mutator interface {
	UpdateLeadStatus(ctx context.Context, leadID string, status string) (previous string, err error)
	AssignLead(ctx context.Context, leadID string, assignee string) error
	CreateOrderTask(ctx context.Context, task OrderTask) (taskID string, err error)
	DeleteOrderTask(ctx context.Context, taskID string) error
	CloseConversation(ctx context.Context, conversationID string) error
}

type Notification struct {
	Team     string         `json:"team"`
	Message  string         `json:"message"`
	Priority string         `json:"priority,omitempty"`
	LeadID   string         `json:"leadId"`
	Detail   map[string]any `json:"detail,omitempty"`
}

type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

type Category struct {
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Product struct {
	ProductID   string  `json:"productId"`
	CategoryID  string  `json:"categoryId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// CatalogReader is the read-only product catalog of a business.
type CatalogReader interface {
	GetCatalog(ctx context.Context, businessID string) ([]Product, error)
	GetCategories(ctx context.Context, businessID string) ([]Category, error)
	GetCategoryProducts(ctx context.Context, businessID string, categoryID string) ([]Product, error)
	GetProduct(ctx context.Context, businessID string, productID string) (*Product, error)
}

// Collaborators bundles the external dependencies of the built-in handlers.
// Zero-value fields are replaced with no-op implementations at registration.
type Collaborators struct {
	Channel  ChannelClient
	Mutator  Mutator
	Notifier NotificationSink
	Catalog  CatalogReader
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Channel == nil {
		c.Channel = NopChannelClient{}
	}
	if c.Mutator == nil {
		c.Mutator = NopMutator{}
	}
	if c.Notifier == nil {
		c.Notifier = NopNotificationSink{}
	}
	if c.Catalog == nil {
		c.Catalog = EmptyCatalogReader{}
	}
	return c
}

// RegisterBuiltins installs the fixed set of built-in handlers.
func RegisterBuiltins(r *Registry, c Collaborators) {
	c = c.withDefaults()
	r.Register(NewSendMessageHandler(c.Channel))
	r.Register(NewUpdateDatabaseHandler(c.Mutator))
	r.Register(NewScriptHandler())
	r.Register(NewNotifyTeamHandler(c.Notifier))
	r.Register(NewSendCatalogHandler(c.Catalog, c.Channel))
	r.Register(NewSendCategoriesHandler(c.Catalog, c.Channel))
	r.Register(NewSendCategoryProductsHandler(c.Catalog, c.Channel))
	r.Register(NewCategorySelectionHandler(c.Catalog, c.Channel))
}
